package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/skill-academy/utils/response"
	"go.uber.org/zap"
)

type APIServer struct {
	app           *fiber.App
	listenAddress string
	log           *zap.Logger
}

func NewAPIServer(listenAddress string, log *zap.Logger) *APIServer {
	if log == nil {
		log = zap.NewNop()
	}

	return &APIServer{
		app: fiber.New(fiber.Config{
			AppName:      "skill-academy-api",
			BodyLimit:    10 * 1024 * 1024, // review photos and course images
			ErrorHandler: errorHandler(log),
		}),
		listenAddress: listenAddress,
		log:           log,
	}
}

func (s *APIServer) GetEngine() *fiber.App {
	return s.app
}

func (s *APIServer) Run() error {
	s.log.Info("starting API server", zap.String("address", s.listenAddress))

	return s.app.Listen(s.listenAddress)
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *APIServer) Shutdown() error {
	s.log.Info("shutting down API server")
	return s.app.Shutdown()
}

// errorHandler renders errors that escape handlers in the response envelope
func errorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return response.Error(c, fiberErr.Code, fiberErr.Message, "HTTP_ERROR")
		}

		log.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
		return response.InternalServerError(c, "")
	}
}
