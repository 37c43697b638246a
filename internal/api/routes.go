package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/PauloVieira29/Fitness/internal/domain"
	"github.com/PauloVieira29/Fitness/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services bundles the business services the routes dispatch to.
type Services struct {
	Auth          service.AuthService
	Users         service.UserService
	Pairing       service.PairingService
	Plans         service.PlanService
	Templates     service.TemplateService
	Entries       service.EntryService
	Messages      service.MessageService
	Notifications service.NotificationService
	Specialties   service.SpecialtyService
	Admin         service.AdminService
	Media         service.MediaService
}

// HealthCheck probes one dependency for /healthz.
type HealthCheck func(ctx context.Context) error

type RouterConfig struct {
	AllowOrigins []string
	// AuthLimiter throttles register, login and reactivate. Nil disables it.
	AuthLimiter  RateLimiter
	HealthChecks map[string]HealthCheck
	// Files serves uploaded objects under /files when storage is local.
	Files http.Handler
}

const healthCheckTimeout = 3 * time.Second

func SetupRoutes(router *gin.Engine, svc Services, cfg RouterConfig) {
	RegisterValidators()

	router.Use(RequestIDMiddleware(), AccessLogMiddleware(), RecoveryMiddleware())
	if len(cfg.AllowOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
			ExposeHeaders:    []string{requestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	authHandler := NewAuthHandler(svc.Auth)
	userHandler := NewUserHandler(svc.Users, svc.Pairing, svc.Entries, svc.Media)
	trainerHandler := NewTrainerHandler(svc.Pairing)
	planHandler := NewPlanHandler(svc.Plans, svc.Templates)
	entryHandler := NewEntryHandler(svc.Entries, svc.Media)
	messageHandler := NewMessageHandler(svc.Messages)
	notificationHandler := NewNotificationHandler(svc.Notifications)
	specialtyHandler := NewSpecialtyHandler(svc.Specialties)
	adminHandler := NewAdminHandler(svc.Admin, svc.Pairing)

	authMiddleware := AuthMiddleware(svc.Auth)
	clientOnly := RoleMiddleware(domain.RoleClient)
	trainerOnly := RoleMiddleware(domain.RoleTrainer)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	router.GET("/healthz", healthHandler(cfg.HealthChecks))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.Files != nil {
		router.GET("/files/*key", gin.WrapH(http.StripPrefix("/files", cfg.Files)))
	}

	api := router.Group("/api")
	api.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	api.GET("/healthz", healthHandler(cfg.HealthChecks))

	// --- Public ---
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", RateLimitMiddleware("auth_register", cfg.AuthLimiter), authHandler.Register)
		authGroup.POST("/login", RateLimitMiddleware("auth_login", cfg.AuthLimiter), authHandler.Login)
		authGroup.POST("/reactivate", RateLimitMiddleware("auth_reactivate", cfg.AuthLimiter), authHandler.Reactivate)
		authGroup.POST("/deactivate", authMiddleware, authHandler.Deactivate)
	}
	api.GET("/specialties", specialtyHandler.ListActive)

	protected := api.Group("")
	protected.Use(authMiddleware)

	// --- Users & pairing (client side) ---
	users := protected.Group("/users")
	{
		users.GET("/me", userHandler.GetMe)
		users.PATCH("/me", userHandler.UpdateMe)
		users.PATCH("/me/password", userHandler.ChangePassword)
		users.POST("/me/weight", clientOnly, userHandler.RecordWeight)
		users.POST("/me/avatar", userHandler.UploadAvatar)
		users.POST("/me/assign-trainer", clientOnly, userHandler.AssignTrainer)
		users.POST("/me/request-trainer-change", clientOnly, userHandler.RequestTrainerChange)
		users.POST("/me/check-missed-workout", clientOnly, userHandler.CheckMissedWorkout)
		users.GET("/trainers", userHandler.ListTrainers)
		users.GET("/trainers/:id", userHandler.GetTrainer)
		users.GET("/support-agent", userHandler.SupportAgent)
		users.GET("/my-clients", trainerOnly, userHandler.MyClients)
		users.GET("/:id", trainerOnly, userHandler.GetUser)
	}

	// --- Trainer side of the pairing ledger ---
	trainers := protected.Group("/trainers")
	trainers.Use(trainerOnly)
	{
		trainers.GET("/requests", trainerHandler.GetRequests)
		trainers.POST("/requests/:id/resolve", trainerHandler.ResolveRequest)
		trainers.PATCH("/clients/:id/remove", trainerHandler.RemoveClient)
		trainers.POST("/alert-client", trainerHandler.AlertClient)
	}

	// --- Plans ---
	plans := protected.Group("/plans")
	{
		plans.POST("", trainerOnly, planHandler.CreatePlan)
		plans.GET("", trainerOnly, planHandler.ListPlans)
		plans.POST("/from-template", trainerOnly, planHandler.CreateFromTemplate)
		plans.GET("/my", clientOnly, planHandler.MyPlan)
		plans.GET("/my/stats", clientOnly, planHandler.MyStats)
		plans.GET("/client/:clientId", trainerOnly, planHandler.ClientPlan)
		plans.DELETE("/client/:clientId", trainerOnly, planHandler.DeleteClientPlan)
	}
	templates := protected.Group("/plan-templates")
	templates.Use(trainerOnly)
	{
		templates.GET("", planHandler.ListTemplates)
		templates.POST("", planHandler.CreateTemplate)
		templates.GET("/:id", planHandler.GetTemplate)
		templates.PUT("/:id", planHandler.UpdateTemplate)
		templates.DELETE("/:id", planHandler.DeleteTemplate)
	}

	// --- Entries ---
	entries := protected.Group("/entries")
	{
		entries.POST("", clientOnly, entryHandler.UpsertEntry)
		entries.GET("", entryHandler.ListEntries)
		entries.GET("/stats", entryHandler.EntryStats)
	}
	protected.POST("/upload/proof", clientOnly, entryHandler.UploadProof)

	// --- Messaging & notifications (polled) ---
	messages := protected.Group("/messages")
	{
		messages.POST("", messageHandler.SendMessage)
		messages.GET("/unread", messageHandler.Unread)
		messages.GET("/conversations", messageHandler.Conversations)
		messages.GET("/:userId", messageHandler.Thread)
		messages.PUT("/read/:senderId", messageHandler.MarkRead)
		messages.DELETE("/conversation/:partnerId", messageHandler.DeleteConversation)
	}
	notifications := protected.Group("/notifications")
	{
		notifications.GET("", notificationHandler.List)
		notifications.PUT("/settings", notificationHandler.UpdateSettings)
		notifications.PUT("/:id/read", notificationHandler.MarkRead)
	}

	// --- Admin ---
	admin := protected.Group("/admin")
	admin.Use(RoleMiddleware(domain.RoleAdmin))
	{
		admin.GET("/users", adminHandler.ListUsers)
		admin.POST("/users", adminHandler.CreateUser)
		admin.PATCH("/users/:id", adminHandler.UpdateUser)
		admin.DELETE("/users/:id", adminHandler.DeleteUser)
		admin.POST("/users/:id/validate", adminHandler.ValidateTrainer)
		admin.POST("/users/:id/status", adminHandler.SetStatus)

		admin.GET("/specialties", specialtyHandler.ListAll)
		admin.POST("/specialties", specialtyHandler.Create)
		admin.PATCH("/specialties/:id", specialtyHandler.Update)
		admin.DELETE("/specialties/:id", specialtyHandler.Delete)

		admin.GET("/trainer-change-requests", adminHandler.ListChangeRequests)
		admin.POST("/trainer-change/:id", adminHandler.DecideChangeRequest)
	}
}

// healthHandler runs every check and answers 503 when any fails.
func healthHandler(checks map[string]HealthCheck) gin.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		defer cancel()

		status := http.StatusOK
		results := gin.H{}
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				status = http.StatusServiceUnavailable
				results[name] = err.Error()
				continue
			}
			results[name] = "ok"
		}
		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}
		c.JSON(status, gin.H{"status": overall, "checks": results})
	}
}
