package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainsPattern(t *testing.T) {
	tests := []struct {
		term string
		want string
	}{
		{"Go", "%go%"},
		{"100%", `%100\%%`},
		{"snake_case", `%snake\_case%`},
		{`C:\path`, `%c:\\path%`},
	}

	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			assert.Equal(t, tt.want, ContainsPattern(tt.term))
		})
	}
}
