package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func SetupRouter(userController *UserController, callController *CallController, allowedOrigins []string) *gin.Engine {
	router := gin.Default()

	config := cors.DefaultConfig()
	if len(allowedOrigins) == 0 {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = allowedOrigins
		config.AllowCredentials = true
	}
	config.AllowHeaders = []string{
		"Authorization",
		"Content-Type",
		"Origin",
		"Accept",
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	router.Use(cors.New(config))

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")

	if userController != nil {
		users := api.Group("/users")
		users.POST("/register", userController.Register)
		users.POST("/login", userController.Login)
	}

	if callController != nil {
		calls := api.Group("/calls")
		calls.GET("/ws", callController.Serve)
		calls.GET("/ice-servers", callController.IceServers)
		calls.GET("/:roomKey/members", callController.ListMembers)
	}

	return router
}
