package server

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/shinyyama/unimart-backend/internal/handler"
	appmw "github.com/shinyyama/unimart-backend/internal/middleware"
	"github.com/shinyyama/unimart-backend/internal/service"
	"github.com/sirupsen/logrus"
)

// Deps carries everything the HTTP layer needs. Ping is optional and backs /healthz.
type Deps struct {
	Coordinator   service.DeliveryCoordinator
	Chat          service.ChatService
	Products      service.ProductService
	Notifications service.NotificationService
	Auth          appmw.Authenticator
	Log           logrus.FieldLogger
	CORSOrigins   []string
	Ping          func(ctx context.Context) error
}

type Server struct {
	e     *echo.Echo
	log   logrus.FieldLogger
	sha   string
	build string
}

func New(d Deps, sha, buildTime string) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			d.Log.WithFields(logrus.Fields{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency_ms": v.Latency.Milliseconds(),
				"request_id": v.RequestID,
			}).Info("request")
			return nil
		},
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization", appmw.HeaderDevUser, appmw.HeaderDevCampus, appmw.HeaderDevVerified},
		AllowCredentials: true,
		AllowOriginFunc:  allowOrigin(d.CORSOrigins),
	}))

	orderHandler := handler.NewOrderHandler(d.Coordinator, d.Log)
	messageHandler := handler.NewMessageHandler(d.Chat, d.Log)
	productHandler := handler.NewProductHandler(d.Products, d.Log)
	notificationHandler := handler.NewNotificationHandler(d.Notifications)

	e.GET("/healthz", func(c echo.Context) error {
		body := map[string]string{
			"ok":         "true",
			"git_sha":    sha,
			"build_time": buildTime,
		}
		if d.Ping != nil {
			if err := d.Ping(c.Request().Context()); err != nil {
				d.Log.WithError(err).Warn("health check failed")
				body["ok"] = "false"
				return c.JSON(http.StatusServiceUnavailable, body)
			}
		}
		return c.JSON(http.StatusOK, body)
	})

	api := e.Group("/api")
	auth := d.Auth.RequireAuth

	api.GET("/products", productHandler.List)
	api.GET("/products/:id", productHandler.Get)
	api.POST("/products", productHandler.Create, auth)

	api.POST("/orders", orderHandler.Create, auth)
	api.GET("/orders", orderHandler.List, auth)
	api.GET("/orders/:id", orderHandler.Get, auth)
	api.POST("/orders/:id/accept", orderHandler.Accept, auth)
	api.POST("/orders/:id/otp/generate", orderHandler.GenerateOTP, auth)
	api.POST("/orders/:id/otp/verify", orderHandler.VerifyOTP, auth)
	api.POST("/orders/:id/cancel", orderHandler.Cancel, auth)
	api.GET("/orders/:id/messages", messageHandler.List, auth)
	api.POST("/orders/:id/messages", messageHandler.Create, auth)

	api.GET("/notifications", notificationHandler.List, auth)
	api.POST("/notifications/read", notificationHandler.MarkAllRead, auth)

	return &Server{e: e, log: d.Log, sha: sha, build: buildTime}
}

// allowOrigin accepts configured origins, any localhost port, and vercel previews.
func allowOrigin(origins []string) func(string) (bool, error) {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[strings.ToLower(strings.TrimRight(strings.TrimSpace(o), "/"))] = struct{}{}
	}
	return func(origin string) (bool, error) {
		low := strings.ToLower(origin)
		if _, ok := allowed[low]; ok {
			return true, nil
		}
		if strings.HasPrefix(low, "http://localhost:") || strings.HasPrefix(low, "http://127.0.0.1:") ||
			strings.HasPrefix(low, "https://localhost:") || strings.HasPrefix(low, "https://127.0.0.1:") {
			return true, nil
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false, nil
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return false, nil
		}
		return strings.HasSuffix(u.Hostname(), ".vercel.app"), nil
	}
}

func (s *Server) Handler() http.Handler {
	return s.e
}

func (s *Server) Start(addr string) error {
	s.log.WithField("addr", addr).Info("starting server")
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}
