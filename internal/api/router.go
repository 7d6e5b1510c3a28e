package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/messagely/messagely-api/docs"
	"github.com/messagely/messagely-api/internal/api/handler"
	"github.com/messagely/messagely-api/internal/api/middleware"
	"github.com/messagely/messagely-api/internal/core/ports"
	"github.com/messagely/messagely-api/internal/infrastructure/http/handlers"
)

// RouterConfig carries everything NewRouter needs. A nil Registerer leaves
// HTTP metrics and /metrics out, which keeps tests off the global registry.
type RouterConfig struct {
	AuthService    ports.AuthService
	UserService    ports.UserService
	MessageService ports.MessageService
	JWTSecret      string
	Logger         zerolog.Logger
	Probes         []handlers.Probe
	Registerer     prometheus.Registerer
	Gatherer       prometheus.Gatherer
	Swagger        bool
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(cfg.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(cfg.Logger))
	if cfg.Registerer != nil {
		e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
			Namespace:  "messagely",
			Subsystem:  "http",
			Registerer: cfg.Registerer,
		}))
		e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
			Gatherer: cfg.Gatherer,
		}))
	}

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(cfg.AuthService)
	userHandler := handler.NewUserHandler(cfg.UserService)
	messageHandler := handler.NewMessageHandler(cfg.MessageService)
	authMiddleware := middleware.Auth(cfg.JWTSecret)
	correctUser := middleware.EnsureCorrectUser("username")

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	// --- Message routes ---
	messages := e.Group("/messages", authMiddleware)
	messages.POST("", messageHandler.Create)
	messages.GET("/:id", messageHandler.Get)
	messages.POST("/:id/read", messageHandler.MarkRead)

	// --- User routes ---
	users := e.Group("/users", authMiddleware)
	users.GET("", userHandler.List)
	users.GET("/:username", userHandler.Get, correctUser)
	users.GET("/:username/to", userHandler.MessagesTo, correctUser)
	users.GET("/:username/from", userHandler.MessagesFrom, correctUser)

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(cfg.Probes...)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)

	if cfg.Swagger {
		e.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	return e
}

// requestLogger writes one structured line per request through zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Status >= 500 {
				evt = log.Error().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
