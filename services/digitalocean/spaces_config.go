package digitalocean

import (
	"errors"
	"fmt"

	"github.com/sahilchouksey/skill-academy/config"
)

// ErrSpacesNotConfigured means the Spaces credentials or bucket are missing
var ErrSpacesNotConfigured = errors.New("spaces is not configured")

// SpacesConfig holds configuration for Spaces client
type SpacesConfig struct {
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Endpoint  string
	CDNURL    string
}

// SpacesConfigFromEnv reads the DO_SPACES_* settings
func SpacesConfigFromEnv(env *config.EnviornmentVariable) SpacesConfig {
	return SpacesConfig{
		AccessKey: env.DO_SPACES_ACCESS_KEY,
		SecretKey: env.DO_SPACES_SECRET_KEY,
		Bucket:    env.DO_SPACES_BUCKET,
		Region:    env.DO_SPACES_REGION,
		Endpoint:  env.DO_SPACES_ENDPOINT,
		CDNURL:    env.DO_SPACES_CDN_ENDPOINT,
	}
}

// IsConfigured returns true if uploads can be attempted
func (c SpacesConfig) IsConfigured() bool {
	return c.AccessKey != "" && c.SecretKey != "" && c.Bucket != "" && c.Region != ""
}

func (c SpacesConfig) withDefaults() SpacesConfig {
	// Without https:// so public URLs can be built as bucket.endpoint
	if c.Endpoint == "" {
		c.Endpoint = fmt.Sprintf("%s.digitaloceanspaces.com", c.Region)
	}
	return c
}
