package handlers

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/skill-academy/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubStorage struct {
	healthErr error
}

func (s *stubStorage) Init() error        { return nil }
func (s *stubStorage) Close() error       { return nil }
func (s *stubStorage) HealthCheck() error { return s.healthErr }
func (s *stubStorage) GetDB() *gorm.DB    { return nil }

func TestHandleCheckHealth(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"database up", nil, fiber.StatusOK},
		{"database down", errors.New("connection refused"), fiber.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/ping", utils.MakeHTTPHandleFunc(HandleCheckHealth, &stubStorage{healthErr: tt.err}))

			resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
