package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/skill-academy/config"
	"github.com/sahilchouksey/skill-academy/database"
	"github.com/sahilchouksey/skill-academy/handlers"
	admin_handlers "github.com/sahilchouksey/skill-academy/handlers/admin"
	auth_handlers "github.com/sahilchouksey/skill-academy/handlers/auth"
	checkout_handlers "github.com/sahilchouksey/skill-academy/handlers/checkout"
	contact_handlers "github.com/sahilchouksey/skill-academy/handlers/contact"
	course_handlers "github.com/sahilchouksey/skill-academy/handlers/course"
	enrollment_handlers "github.com/sahilchouksey/skill-academy/handlers/enrollment"
	review_handlers "github.com/sahilchouksey/skill-academy/handlers/review"
	"github.com/sahilchouksey/skill-academy/services"
	"github.com/sahilchouksey/skill-academy/services/digitalocean"
	"github.com/sahilchouksey/skill-academy/services/razorpay"
	"github.com/sahilchouksey/skill-academy/utils"
	"github.com/sahilchouksey/skill-academy/utils/auth"
	"github.com/sahilchouksey/skill-academy/utils/cache"
	"github.com/sahilchouksey/skill-academy/utils/metrics"
	"github.com/sahilchouksey/skill-academy/utils/middleware"
	"go.uber.org/zap"
)

func SetupRoutes(app *fiber.App, store database.Storage, env *config.EnviornmentVariable, log *zap.Logger) {
	db := store.GetDB()

	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret:        env.JWT_SECRET,
		Expiry:        24 * time.Hour,     // Access token expires in 24 hours
		RefreshExpiry: 7 * 24 * time.Hour, // Refresh token expires in 7 days
		Issuer:        env.JWT_ISSUER,
	})

	// Redis is optional: without it login brute force protection is disabled
	var bruteForceProtection *middleware.BruteForceProtection
	redisCache, err := cache.NewRedisCache(env.REDIS_URL)
	if err != nil {
		log.Warn("redis unavailable, brute force protection disabled", zap.Error(err))
	} else {
		bruteForceProtection = middleware.NewBruteForceProtection(redisCache, log)
	}

	// Object storage is optional: without it uploads are refused or dropped
	var uploader services.ImageUploader
	spaces, err := digitalocean.NewSpacesClient(digitalocean.SpacesConfigFromEnv(env))
	if err != nil {
		log.Warn("object storage not configured, image uploads disabled", zap.Error(err))
	} else {
		uploader = spaces
	}

	if env.RAZORPAY_KEY_SECRET == "" {
		log.Warn("RAZORPAY_KEY_SECRET is empty, every payment callback will be rejected")
	}
	gateway := razorpay.NewClient(razorpay.Config{
		KeyID:     env.RAZORPAY_KEY_ID,
		KeySecret: env.RAZORPAY_KEY_SECRET,
		BaseURL:   env.RAZORPAY_BASE_URL,
		Logger:    log,
	})

	ledger := services.NewEnrollmentService(db)
	catalogService := services.NewCatalogService(db, ledger, log)
	reviewService := services.NewReviewService(db, uploader, log)
	checkoutService := services.NewCheckoutService(db, gateway, ledger, services.CheckoutConfig{
		Currency:      env.PAYMENT_CURRENCY,
		ReceiptPrefix: env.RECEIPT_PREFIX,
	}, log)

	emailService := services.NewEmailService(services.EmailConfigFromEnv(env), log)
	if emailService.IsConfigured() {
		checkoutService.SetNotifier(emailService)
	} else {
		log.Info("SMTP not configured, enrollment emails disabled")
	}

	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)
	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, bruteForceProtection, log)
	courseHandler := course_handlers.NewCourseHandler(catalogService, uploader, log)
	enrollmentHandler := enrollment_handlers.NewEnrollmentHandler(ledger, catalogService, log)
	checkoutHandler := checkout_handlers.NewCheckoutHandler(checkoutService, gateway.KeyID(), log)
	reviewHandler := review_handlers.NewReviewHandler(reviewService, log)
	contactHandler := contact_handlers.NewContactHandler(db, log)

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    env.ALLOWED_ORIGINS,
		RateLimitRequests: 100,             // 100 requests
		RateLimitWindow:   1 * time.Minute, // per minute
	})

	if env.METRICS_ENABLED {
		app.Use(middleware.RequestMetrics())
		app.Get("/metrics", metrics.Handler())
	}

	// Health check endpoint (public)
	app.Get("/ping", utils.MakeHTTPHandleFunc(handlers.HandleCheckHealth, store))

	// API v1 group
	api := app.Group("/api/v1")

	// Auth routes (public)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", bruteForceProtection.CheckAndRecordAttempt(), authHandler.Login)
	authGroup.Post("/refresh", authHandler.RefreshToken)
	authGroup.Post("/logout", authMiddleware.Required(), authHandler.Logout)

	// Profile routes (protected)
	profileGroup := api.Group("/profile", authMiddleware.Required())
	profileGroup.Get("/", authHandler.GetProfile)
	profileGroup.Put("/", authHandler.UpdateProfile)

	// Catalog
	api.Get("/home", courseHandler.Home)

	courses := api.Group("/courses")
	courses.Get("/", courseHandler.ListCourses)
	courses.Get("/filter", courseHandler.FilterCourses)
	courses.Get("/search", courseHandler.SearchCourses)
	courses.Get("/:slug", authMiddleware.Optional(), courseHandler.GetCourse)
	courses.Get("/:slug/watch", authMiddleware.Required(), enrollmentHandler.Watch)
	courses.Post("/", authMiddleware.Required(), authMiddleware.RequireAdmin(), courseHandler.CreateCourse)
	courses.Put("/:id", authMiddleware.Required(), authMiddleware.RequireAdmin(), courseHandler.UpdateCourse)
	courses.Post("/:id/image", authMiddleware.Required(), authMiddleware.RequireAdmin(), courseHandler.UploadImage)

	// Reviews (nested under courses)
	courses.Get("/:id/reviews", reviewHandler.List)
	courses.Post("/:id/reviews", authMiddleware.Required(), reviewHandler.Create)

	// Enrollment and checkout
	api.Get("/my-courses", authMiddleware.Required(), enrollmentHandler.MyCourses)
	api.Get("/checkout/:id", authMiddleware.Required(), checkoutHandler.Checkout)
	api.Post("/checkout/:id", authMiddleware.Required(), checkoutHandler.Checkout)

	// The gateway callback is posted by the browser without our bearer token;
	// the signature is the authentication
	api.Post("/payments/verify", checkoutHandler.Verify)
	api.Get("/payments/:order_id", authMiddleware.Required(), checkoutHandler.GetPayment)

	api.Post("/contact", contactHandler.Create)

	// Admin panel
	admin := api.Group("/admin", authMiddleware.Required(), authMiddleware.RequireAdmin())
	admin.Get("/overview", utils.MakeHTTPHandleFunc(admin_handlers.GetOverview, store))
	admin.Get("/sales/courses", utils.MakeHTTPHandleFunc(admin_handlers.GetCourseSales, store))
	admin.Get("/payments", utils.MakeHTTPHandleFunc(admin_handlers.ListPayments, store))
	admin.Get("/contact-messages", utils.MakeHTTPHandleFunc(admin_handlers.ListContactMessages, store))
	admin.Get("/users", utils.MakeHTTPHandleFunc(admin_handlers.ListUsers, store))
	admin.Get("/users/:id", utils.MakeHTTPHandleFunc(admin_handlers.GetUser, store))
	admin.Put("/users/:id", utils.MakeHTTPHandleFunc(admin_handlers.UpdateUser, store))
}
