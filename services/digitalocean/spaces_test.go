package digitalocean

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageContentType(t *testing.T) {
	tests := map[string]string{
		"avatar.JPG":  "image/jpeg",
		"photo.jpeg":  "image/jpeg",
		"banner.png":  "image/png",
		"anim.gif":    "image/gif",
		"modern.webp": "image/webp",
	}
	for filename, want := range tests {
		got, err := ImageContentType(filename)
		require.NoError(t, err, filename)
		assert.Equal(t, want, got, filename)
	}

	_, err := ImageContentType("notes.pdf")
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestGenerateKey(t *testing.T) {
	key := GenerateKey("reviews/42", "my photo (1).PNG")
	assert.Regexp(t, regexp.MustCompile(`^reviews/42/\d+_[0-9a-f]{8}_my_photo__1_\.png$`), key)
	assert.NotEqual(t, key, GenerateKey("reviews/42", "my photo (1).PNG"))
}

func TestNewSpacesClient(t *testing.T) {
	_, err := NewSpacesClient(SpacesConfig{Bucket: "media"})
	assert.ErrorIs(t, err, ErrSpacesNotConfigured)

	client, err := NewSpacesClient(SpacesConfig{
		AccessKey: "key",
		SecretKey: "secret",
		Bucket:    "media",
		Region:    "blr1",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://media.blr1.digitaloceanspaces.com/a/b.png", client.GetFileURL("a/b.png"))

	cdn, err := NewSpacesClient(SpacesConfig{
		AccessKey: "key",
		SecretKey: "secret",
		Bucket:    "media",
		Region:    "blr1",
		CDNURL:    "https://cdn.example.com/",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a/b.png", cdn.GetFileURL("a/b.png"))
}

func TestKeyFromURL(t *testing.T) {
	client, err := NewSpacesClient(SpacesConfig{
		AccessKey: "key",
		SecretKey: "secret",
		Bucket:    "media",
		Region:    "blr1",
		CDNURL:    "https://cdn.example.com",
	})
	require.NoError(t, err)

	key, ok := client.KeyFromURL("https://cdn.example.com/reviews/3/photo.png")
	assert.True(t, ok)
	assert.Equal(t, "reviews/3/photo.png", key)

	_, ok = client.KeyFromURL("https://elsewhere.example.com/reviews/3/photo.png")
	assert.False(t, ok)

	_, ok = client.KeyFromURL("https://cdn.example.com/")
	assert.False(t, ok)
}
