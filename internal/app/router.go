package app

import (
	"blueprep_backend/docs"
	"blueprep_backend/internal/middleware"
	"blueprep_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, s *services) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	router.GET("/api/health", c.health.HealthCheck)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(a.Config.JWT.Secret))
	{
		a.registerParticipantRoutes(authGroup, c)

		// 3. 管理员相关接口
		admin := authGroup.Group("/admin")
		admin.Use(middleware.OperatorMiddleware(s.operators))
		a.registerAdminRoutes(admin, c)
	}
}

func (a *App) registerParticipantRoutes(group *gin.RouterGroup, c *controllers) {
	group.POST("/participants/register", c.participant.Register)
	group.GET("/participants/me", c.participant.Me)

	group.POST("/submissions", c.submission.Submit)
	group.GET("/submissions/:testId", c.submission.GetMine)
}

func (a *App) registerAdminRoutes(admin *gin.RouterGroup, c *controllers) {
	tests := admin.Group("/tests")
	{
		tests.POST("", c.test.CreateTest)
		tests.GET("", c.test.ListTests)
		tests.GET("/:id", c.test.GetTest)
		tests.PUT("/:id/answer-key", c.test.SetAnswerKey)
		tests.POST("/:id/activate", c.test.Activate)
		tests.POST("/:id/end", c.test.End)
		tests.GET("/:id/leaderboard", c.test.Leaderboard)
	}

	admin.POST("/broadcast", c.test.BroadcastMessage)
	admin.POST("/sweep", c.test.Sweep)
}
