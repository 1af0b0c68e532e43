package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scanreview/reconciler/internal/reconcile"
)

// New assembles the HTTP facade: the three reconciliation entry points, a
// health endpoint backed by a database ping, and prometheus metrics.
func New(svc *reconcile.Service, pool *pgxpool.Pool, logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = NewValidator()
	e.Use(middleware.Recover())
	e.Use(requestLogger(logger))

	h := NewHandler(svc, NewMetrics(), logger)

	v1 := e.Group("/v1")
	v1.POST("/duplicate-check", h.DuplicateCheck)
	v1.POST("/match", h.Match)
	v1.GET("/score", h.Score)

	e.GET("/healthz", func(c echo.Context) error {
		if pool != nil {
			if err := pool.Ping(c.Request().Context()); err != nil {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{
					"status": "unhealthy",
				})
			}
		}
		return c.JSON(http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return e
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("http.request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			)
			return nil
		},
	})
}
