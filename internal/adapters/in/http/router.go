package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter mounts the server's handlers behind their API-key guards, plus
// /health and /metrics.
func NewRouter(s *Server, keys APIKeys, gatherer prometheus.Gatherer, logger *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = HTTPErrorHandler(logger)

	e.Use(middleware.Recover())
	e.Use(requestLogger(logger))

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "Healthy")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	v1 := e.Group("/api/v1")
	v1.POST("/orders", s.RegisterOrder, keyAuth(keys.Issuers))
	v1.PUT("/orders/result", s.UpdateResult, keyAuth(keys.Labs))
	v1.POST("/orders/results", s.BulkUpdateResults, keyAuth(keys.Labs))
	v1.GET("/orders/:number/result", s.GetOrderResult)
	v1.GET("/reports/negative", s.GetNegativeReport, keyAuth(keys.ReportClients))

	return e
}

func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	l := logger.With(zap.String("component", "http"))
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogRoutePath: true,
		LogStatus:    true,
		LogLatency:   true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("route", v.RoutePath),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				l.Warn("Request failed", append(fields, zap.Error(v.Error))...)
				return nil
			}
			l.Debug("Request served", fields...)
			return nil
		},
	})
}
