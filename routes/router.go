package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/maiaai/blog/config"
	"github.com/maiaai/blog/controllers"
	"github.com/maiaai/blog/middleware"
	"github.com/maiaai/blog/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())

	// Access log goes to its own rolling file through zap.
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		// fallback to default recovery if logger failed to init
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(db)
	userController := controllers.NewUserController(db)
	topicController := controllers.NewTopicController(db)
	postController := controllers.NewPostController(db)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)

	// Resource routes resolve credentials when present and leave authorization
	// to the policy layer, so anonymous reads stay possible and anonymous
	// writes are denied with 403 rather than 401.
	resources := api.Group("")
	resources.Use(middleware.AuthOptional(), middleware.RateLimitMiddleware())

	resources.GET("/users", userController.ListUsers)
	resources.POST("/users", userController.CreateUser)
	resources.GET("/users/:id", userController.GetUser)
	resources.PUT("/users/:id", userController.UpdateUser)
	resources.PATCH("/users/:id", userController.PatchUser)
	resources.DELETE("/users/:id", userController.DeleteUser)

	resources.GET("/topics", topicController.ListTopics)
	resources.POST("/topics", topicController.CreateTopic)
	resources.GET("/topics/:id", topicController.GetTopic)
	resources.PUT("/topics/:id", topicController.UpdateTopic)
	resources.PATCH("/topics/:id", topicController.UpdateTopic)
	resources.DELETE("/topics/:id", topicController.DeleteTopic)

	resources.GET("/posts", postController.ListPosts)
	resources.POST("/posts", postController.CreatePost)
	resources.GET("/posts/:id", postController.GetPost)
	resources.PUT("/posts/:id", postController.UpdatePost)
	resources.PATCH("/posts/:id", postController.PatchPost)
	resources.DELETE("/posts/:id", postController.DeletePost)
	resources.POST("/posts/:id/publish", postController.PublishPost)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
