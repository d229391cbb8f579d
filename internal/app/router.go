package app

import (
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"go.uber.org/zap"

	"roadchal/internal/handler"
	"roadchal/internal/middleware"
	"roadchal/internal/observability"
	"roadchal/internal/redis"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	ChatHandler     *handler.ChatHandler
	RideHandler     *handler.RideHandler
	WhatsAppHandler *handler.WhatsAppHandler
	AuthHandler     *handler.AuthHandler
	JourneyHandler  *handler.JourneyHandler
	BookingHandler  *handler.BookingHandler
	DriverHandler   *handler.DriverHandler

	RequireUser   gin.HandlerFunc
	RequireDriver gin.HandlerFunc

	IdempotencyStore redis.IdempotencyStoreInterface
	CORSOrigins      []string
	NewRelicApp      *newrelic.Application
	Logger           *zap.Logger
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(ginzap.Ginzap(deps.Logger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(deps.Logger, true))
	router.Use(middleware.CORS(deps.CORSOrigins))
	router.Use(observability.GinMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	// Replays are scoped to the caller, so idempotency runs after authentication.
	var idempotent gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if deps.IdempotencyStore != nil {
		idempotent = middleware.Idempotency(deps.IdempotencyStore, deps.Logger)
	}

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "RoadChal API running"})
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(observability.Handler()))

	api := router.Group("/api")
	{
		api.POST("/chat", deps.ChatHandler.Chat)

		// Agent routes.
		agent := api.Group("/agent")
		{
			agent.POST("/messages", deps.ChatHandler.AgentMessage)
			agent.GET("/sessions/:user_id", deps.ChatHandler.GetSession)
			agent.DELETE("/sessions/:user_id", deps.ChatHandler.ResetSession)
		}

		// Ride routes.
		rides := api.Group("/rides")
		{
			rides.POST("/estimates", deps.RideHandler.Estimates)
			rides.GET("/driver/:ride_id", deps.RideHandler.DriverDetails)
		}

		// Tracking routes.
		tracking := api.Group("/tracking")
		{
			tracking.GET("/map-data", deps.RideHandler.MapData)
			tracking.GET("/ws", deps.RideHandler.TrackingFeed)
		}

		// WhatsApp routes.
		api.POST("/whatsapp", deps.WhatsAppHandler.Twilio)
		api.GET("/whatsapp/webhook", deps.WhatsAppHandler.Verify)
		api.POST("/whatsapp/webhook", deps.WhatsAppHandler.Webhook)

		// Auth routes.
		api.POST("/login", deps.AuthHandler.Login)
		api.POST("/signup", deps.AuthHandler.Signup)
		api.POST("/logout", deps.AuthHandler.Logout)

		// Journey routes.
		journeys := api.Group("/journeys")
		{
			journeys.POST("/messages", deps.JourneyHandler.Message)
			journeys.GET("/:id", deps.JourneyHandler.GetJourney)
		}

		// Booking routes.
		bookings := api.Group("/bookings")
		{
			bookings.POST("/request", deps.RequireUser, idempotent, deps.BookingHandler.RequestRide)
			bookings.GET("/user/history", deps.RequireUser, deps.BookingHandler.UserHistory)
			bookings.GET("/pending", deps.RequireDriver, deps.BookingHandler.Pending)
			bookings.GET("/driver/history", deps.RequireDriver, deps.BookingHandler.DriverHistory)
			bookings.PUT("/:id/accept", deps.RequireDriver, deps.BookingHandler.Accept)
			bookings.PUT("/:id/status", deps.RequireDriver, deps.BookingHandler.UpdateStatus)
		}

		// Driver routes.
		drivers := api.Group("/drivers")
		{
			drivers.POST("/register", deps.DriverHandler.Register)
			drivers.POST("/login", deps.DriverHandler.Login)
			drivers.POST("/logout", deps.DriverHandler.Logout)
			drivers.GET("/nearby", deps.DriverHandler.Nearby)
			drivers.GET("/profile", deps.RequireDriver, deps.DriverHandler.Profile)
			drivers.POST("/onboard", deps.RequireDriver, deps.DriverHandler.Onboard)
			drivers.PUT("/availability", deps.RequireDriver, deps.DriverHandler.SetAvailability)
			drivers.PUT("/toggle-availability", deps.RequireDriver, deps.DriverHandler.ToggleAvailability)
			drivers.POST("/location", deps.RequireDriver, deps.DriverHandler.UpdateLocation)
		}
	}

	return router
}
