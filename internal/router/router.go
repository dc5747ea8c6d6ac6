package router

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskhub-api/internal/config"
	"github.com/yukikurage/taskhub-api/internal/constants"
	"github.com/yukikurage/taskhub-api/internal/handlers"
	"github.com/yukikurage/taskhub-api/internal/middleware"
	"github.com/yukikurage/taskhub-api/internal/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps holds everything the HTTP layer needs.
type Deps struct {
	Config       *config.Config
	DB           *gorm.DB
	Services     *services.Services
	SessionStore sessions.Store
	Logger       *zap.Logger
}

// NewSessionStore returns a Redis backed store when REDIS_HOST is set and
// a signed cookie store otherwise.
func NewSessionStore(cfg *config.Config) (sessions.Store, error) {
	var store sessions.Store
	if cfg.RedisHost != "" {
		redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
		rs, err := redisStore.NewStore(
			10,        // Redis pool size
			"tcp",     // network type
			redisAddr, // Redis address from config
			"",        // password (empty = no password)
			[]byte(cfg.SessionSecret),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis store: %w", err)
		}
		store = rs
	} else {
		store = cookie.NewStore([]byte(cfg.SessionSecret))
	}

	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}

// New builds the gin engine with every route registered.
func New(deps Deps) *gin.Engine {
	cfg := deps.Config
	log := deps.Logger
	svcs := deps.Services

	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.SecurityHeaders(),
		middleware.RequestLogger(log.Sugar()),
		middleware.RequestTimeout(cfg.RequestTimeout),
		sessions.Sessions(constants.SessionCookieName, deps.SessionStore),
		middleware.LoadActor(svcs.Auth, log),
	)

	healthHandler := handlers.NewHealthHandler(deps.DB, log)
	authHandler := handlers.NewAuthHandler(svcs.Auth, log)
	userHandler := handlers.NewUserHandler(svcs.Users, log)
	taskHandler := handlers.NewTaskHandler(svcs.Tasks, cfg.DefaultPageSize, cfg.MaxPageSize, log)
	commentHandler := handlers.NewCommentHandler(svcs.Comments, log)

	requireAuth := middleware.RequireAuth()
	taskID := middleware.RequireIDParams("id")

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/check", requireAuth, authHandler.Check)
		}

		users := api.Group("/users")
		users.Use(requireAuth)
		{
			users.GET("", userHandler.ListUsers)
			users.POST("", userHandler.CreateUser)
			users.PUT("/:id", middleware.RequireIDParams("id"), userHandler.UpdateUser)
			users.DELETE("/:id", middleware.RequireIDParams("id"), userHandler.DeleteUser)
		}

		// Reads are public except the personal views.
		tasks := api.Group("/tasks")
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", requireAuth, taskHandler.CreateTask)
			tasks.GET("/created", requireAuth, taskHandler.ListMyTasks(services.ViewCreated))
			tasks.GET("/updated", requireAuth, taskHandler.ListMyTasks(services.ViewUpdated))
			tasks.GET("/assigned", requireAuth, taskHandler.ListMyTasks(services.ViewAssigned))
			tasks.GET("/overdue", taskHandler.ListOverdueTasks)
			tasks.GET("/priority/:priority", taskHandler.ListTasksByPriority)
			tasks.GET("/search", taskHandler.SearchTasks)
			tasks.GET("/created_by/:user_id", middleware.RequireIDParams("user_id"), taskHandler.ListTasksCreatedBy)
			tasks.POST("/bulk_update", requireAuth, taskHandler.BulkUpdateTasks)

			tasks.GET("/:id", taskID, taskHandler.GetTask)
			tasks.PUT("/:id", requireAuth, taskID, taskHandler.UpdateTask)
			tasks.PUT("/:id/status", requireAuth, taskID, taskHandler.UpdateTaskStatus)
			tasks.DELETE("/:id", requireAuth, taskID, taskHandler.DeleteTask)

			tasks.GET("/:id/comments", taskID, commentHandler.ListComments)
			tasks.POST("/:id/comments", requireAuth, taskID, commentHandler.AddComment)
			tasks.DELETE("/:id/comments/:comment_id", requireAuth, middleware.RequireIDParams("id", "comment_id"), commentHandler.DeleteComment)
		}
	}

	return r
}
