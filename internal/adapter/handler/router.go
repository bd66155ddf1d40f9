package handler

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

type RouterConfig struct {
	JWTSecret      string
	RequestTimeout time.Duration
	AllowedOrigins []string
}

type Handlers struct {
	Bookings  *BookingHandler
	Schedules *ScheduleHandler
	Payments  *PaymentHandler
	Health    *HealthHandler
}

func NewRouter(h Handlers, cfg RouterConfig, log logrus.FieldLogger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), Logger(log))

	corsCfg := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	corsCfg.AddAllowHeaders("Authorization", "X-Request-ID")
	corsCfg.AddExposeHeaders("X-Request-ID", "Retry-After")
	r.Use(cors.New(corsCfg))

	r.GET("/health", h.Health.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1", Timeout(cfg.RequestTimeout), Auth(cfg.JWTSecret))

	schedules := api.Group("/schedules")
	schedules.POST("", RequireRoles(RoleAdmin, RoleOperator), h.Schedules.CreateSchedule)
	schedules.GET("/:id/availability", h.Schedules.GetAvailability)

	bookings := api.Group("/bookings")
	bookings.POST("", h.Bookings.ReserveBooking)
	bookings.GET("/:id", h.Bookings.GetBooking)
	bookings.POST("/:id/cancel", h.Bookings.CancelBooking)

	api.POST("/payments/callback", RequireRoles(RolePaymentGateway, RoleAdmin), h.Payments.Callback)

	return r
}
