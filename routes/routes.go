package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"hikbridge-http-service/config"
	"hikbridge-http-service/controllers"
	_ "hikbridge-http-service/docs"
	"hikbridge-http-service/middleware"
	"hikbridge-http-service/services/container"
)

// SetupRouter 初始化并返回配置好的路由
func SetupRouter(db *gorm.DB, cfg *config.Config) (*gin.Engine, *container.ServiceContainer) {
	// 初始化 Gin
	r := gin.Default()

	// 添加 CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, Accept, Origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// 创建服务容器
	serviceContainer := container.NewServiceContainer(db, cfg)
	// 初始化中间件
	middleware.InitAuthMiddleware(cfg)
	// 添加 Swagger 文档路由
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 注册路由
	registerRoutes(r, serviceContainer)
	return r, serviceContainer
}

// registerRoutes 配置所有API路由
func registerRoutes(
	r *gin.Engine,
	container *container.ServiceContainer,
) {
	// API 路由根路径
	api := r.Group("/api")
	// 注册公共路由
	registerPublicRoutes(api, container)
	// 注册需要认证的路由
	registerAuthenticatedRoutes(api, container)
}

// registerPublicRoutes 注册公共路由
func registerPublicRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	// 健康检查
	healthController := controllers.NewHealthCheckController()
	api.GET("/ping", healthController.Ping)

	// 认证路由
	api.POST("/auth/login", controllers.HandleJWTFunc(container, "login"))
}

// registerAuthenticatedRoutes 注册需要认证的路由
func registerAuthenticatedRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	authenticated := api.Group("")
	authenticated.Use(middleware.AuthenticateAdmin())
	authenticated.Use(middleware.RateLimiter())

	// 设备管理路由
	authenticated.GET("/devices", middleware.Cache(30*time.Second), controllers.HandleDeviceFunc(container, "getDevices"))
	authenticated.GET("/devices/:id", controllers.HandleDeviceFunc(container, "getDevice"))
	authenticated.POST("/devices", controllers.HandleDeviceFunc(container, "createDevice"))
	authenticated.PUT("/devices/:id", controllers.HandleDeviceFunc(container, "updateDevice"))
	authenticated.DELETE("/devices/:id", controllers.HandleDeviceFunc(container, "deleteDevice"))
	authenticated.POST("/devices/sync", controllers.HandleDeviceFunc(container, "syncDevices"))

	// 通话状态路由
	authenticated.GET("/devices/:id/call_status", controllers.HandleCallStatusFunc(container, "getCallStatus"))
	authenticated.GET("/devices/:id/call_status/cached", controllers.HandleCallStatusFunc(container, "getCachedCallStatus"))
	authenticated.GET("/devices/:id/call_logs", middleware.Cache(10*time.Second), controllers.HandleCallStatusFunc(container, "getCallLogs"))

	// 摄像头快照路由
	authenticated.GET("/devices/:id/snapshot", controllers.HandleCameraFunc(container, "getSnapshot"))

	// 云端会话路由
	authenticated.PUT("/cloud/session", controllers.HandleCloudFunc(container, "setSession"))
	authenticated.GET("/cloud/connection_infos", controllers.HandleCloudFunc(container, "getConnectionInfos"))
}
