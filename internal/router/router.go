// Package router builds the echo instance and decides, per route, which
// gates run in front of each handler.
package router

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/character-api/internal/handler"
	"github.com/iliyamo/character-api/internal/metrics"
	"github.com/iliyamo/character-api/internal/middleware"
	"github.com/iliyamo/character-api/internal/model"
)

// Deps carries everything the routes need.  Metrics and RateLimit may be
// nil.
type Deps struct {
	Auth       *handler.AuthHandler
	Characters *handler.CharacterHandler
	Gate       middleware.AuthConfig
	Metrics    *metrics.Metrics
	RateLimit  echo.MiddlewareFunc
}

// New returns a fully wired echo instance.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.ErrorHandler
	e.Validator = handler.NewValidator()

	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			c.Logger().Infof("%s %s status=%d latency=%s request_id=%s", v.Method, v.URI, v.Status, v.Latency, v.RequestID)
			return nil
		},
	}))
	e.Use(echomw.CORS())
	e.Use(middleware.JSONContentType)
	if d.Metrics != nil {
		e.Use(d.Metrics.Middleware())
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}

	RegisterRoutes(e)
	RegisterAuth(e, d)
	RegisterCharacters(e, d)
	return e
}

// RegisterRoutes registers routes that need neither a session nor a
// rate limit.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers /auth behind the rate limiter.  Logout only needs
// to see the token, valid or not.
func RegisterAuth(e *echo.Echo, d Deps) {
	g := e.Group("/auth")
	var limit []echo.MiddlewareFunc
	if d.RateLimit != nil {
		limit = append(limit, d.RateLimit)
	}
	g.POST("/register", d.Auth.Register, limit...)
	g.POST("/login", d.Auth.Login, limit...)
	g.POST("/logout", d.Auth.Logout, append(limit, middleware.OptionalAuth(d.Gate))...)
}

// RegisterCharacters registers /characters.  Reads need any valid session;
// writes additionally need the ADMIN or USER role.
func RegisterCharacters(e *echo.Echo, d Deps) {
	// Gates are attached per route rather than with Group.Use, which would
	// add catch-all routes and turn unknown /characters paths into 401s.
	g := e.Group("/characters")
	auth := middleware.JWTAuth(d.Gate)
	writer := middleware.RequireRole(d.Metrics, model.RoleAdmin, model.RoleUser)

	g.GET("", d.Characters.List, auth)
	g.GET("/:id", d.Characters.Get, auth)
	g.POST("", d.Characters.Create, auth, writer)
	g.PUT("/:id", d.Characters.Replace, auth, writer)
	g.DELETE("/:id", d.Characters.Delete, auth, writer)
}
