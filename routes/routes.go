package routes

import (
	"net/http"
	"time"

	"salonpro-notifier/config"
	"salonpro-notifier/controllers"
	"salonpro-notifier/gateway"
	"salonpro-notifier/services"
	"salonpro-notifier/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Deps is everything the HTTP layer needs. It is assembled once by the
// serve command.
type Deps struct {
	Settings   config.Settings
	Log        zerolog.Logger
	DB         *gorm.DB
	Reminders  *services.ReminderService
	Dispatcher *services.AppointmentDispatcher
	Gateway    *gateway.TokenStore
	NewClient  func(cfg gateway.Config) *gateway.Client
	Metrics    prometheus.Gatherer
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	origins := d.Settings.CORSOrigins
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Use(config.PerformanceLogger(d.Log))

	r.GET("/healthz", func(c *gin.Context) {
		sqlDB, err := d.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Metrics, promhttp.HandlerOpts{})))
	}

	authController := &controllers.AuthController{DB: d.DB, JWTSecret: d.Settings.JWTSecret, Expiry: d.Settings.JWTExpiry}
	auth := r.Group("/auth")
	{
		auth.POST("/login", authController.Login)

		auth.Use(utils.AuthMiddleware(d.Settings.JWTSecret))
		auth.GET("/me", authController.Me)
	}

	api := r.Group("/api")
	api.Use(utils.AuthMiddleware(d.Settings.JWTSecret))
	{
		// Routine routes
		routineController := &controllers.RoutineController{DB: d.DB, Reminders: d.Reminders}
		routines := api.Group("/routines")
		{
			routines.GET("", routineController.GetRoutines)
			routines.POST("", routineController.CreateRoutine)
			routines.PUT("/:id", routineController.UpdateRoutine)
			routines.POST("/:id/run", routineController.RunRoutine)
			routines.POST("/:id/force", routineController.ForceRoutine)
			routines.GET("/:id/executions", routineController.GetExecutions)
		}
		api.GET("/executions/:id", routineController.GetExecution)

		// Template routes
		templateController := &controllers.TemplateController{DB: d.DB}
		templates := api.Group("/templates")
		{
			templates.POST("", templateController.CreateReminderTemplate)
			templates.GET("", templateController.GetReminderTemplates)
			templates.GET("/:id", templateController.GetReminderTemplate)
			templates.PUT("/:id", templateController.UpdateReminderTemplate)
			templates.DELETE("/:id", templateController.DeleteReminderTemplate)
		}

		// Appointment routes
		appointmentController := &controllers.AppointmentController{Reminders: d.Reminders, Dispatcher: d.Dispatcher}
		appointments := api.Group("/appointments")
		{
			appointments.GET("/:id/sends", appointmentController.GetSends)
			appointments.POST("/:id/resend", appointmentController.Resend)
			appointments.POST("/:id/events", appointmentController.PostEvent)
		}

		// Gateway routes
		gatewayController := &controllers.GatewayController{Store: d.Gateway, NewClient: d.NewClient}
		gw := api.Group("/gateway")
		{
			gw.GET("/status", gatewayController.Status)
			gw.POST("/session/start", gatewayController.StartSession)
			gw.POST("/session/close", gatewayController.CloseSession)
			gw.POST("/session/logout", gatewayController.LogoutSession)
			gw.POST("/token", gatewayController.GenerateToken)
		}

		// Settings routes
		profileController := &controllers.ProfileController{DB: d.DB}
		profile := api.Group("/profile")
		{
			profile.GET("", profileController.GetProfile)
			profile.PUT("", profileController.UpdateProfile)
			profile.PUT("/update-notifications", profileController.UpdateNotificationSettings)
		}
	}

	return r
}
