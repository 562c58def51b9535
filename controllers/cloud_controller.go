package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"hikbridge-http-service/config"
	"hikbridge-http-service/internal/error/response"
	"hikbridge-http-service/services/container"
)

// InterfaceCloudController 定义云端会话控制器接口
type InterfaceCloudController interface {
	SetSession()
	GetConnectionInfos()
}

// CloudController 处理云端会话相关的请求
type CloudController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewCloudController 创建一个新的云端会话控制器
func NewCloudController(ctx *gin.Context, container *container.ServiceContainer) *CloudController {
	return &CloudController{
		Ctx:       ctx,
		Container: container,
	}
}

// SessionRequest 表示会话ID更新请求
type SessionRequest struct {
	SessionID string `json:"session_id" binding:"required" example:"c3ViamVjdC1zZXNzaW9u..."`
}

// HandleCloudFunc 返回一个处理云端会话请求的Gin处理函数
func HandleCloudFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewCloudController(ctx, container)

		switch method {
		case "setSession":
			controller.SetSession()
		case "getConnectionInfos":
			controller.GetConnectionInfos()
		default:
			ctx.JSON(http.StatusBadRequest, gin.H{
				"code":    400,
				"message": "无效的方法",
				"data":    nil,
			})
		}
	}
}

// 1. SetSession 更新云端会话ID
// @Summary 更新云端会话ID
// @Description 会话ID由外部登录流程获取，过期后通过该接口轮换
// @Tags cloud
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SessionRequest true "新的会话ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Router /cloud/session [put]
func (c *CloudController) SetSession() {
	var req SessionRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "无效的请求参数")
		return
	}

	c.Container.GetHikCloudService().SetSessionID(req.SessionID)

	// 缓存会话ID，服务重启后可以直接复用
	if err := c.Container.GetRedisService().CacheSessionID(req.SessionID, 7*24*time.Hour); err != nil {
		config.Warning("缓存会话ID失败: %v", err)
	}

	config.Info("云端会话ID已更新")
	response.Success(c.Ctx, nil)
}

// 2. GetConnectionInfos 获取云端设备目录的连接信息
// @Summary 获取云端设备连接信息
// @Description 查询云端设备目录，返回各设备的局域网连接信息
// @Tags cloud
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 502 {object} ErrorResponse
// @Router /cloud/connection_infos [get]
func (c *CloudController) GetConnectionInfos() {
	infos, err := c.Container.GetHikCloudService().GetDeviceConnectionInfos(c.Ctx.Request.Context())
	if err != nil {
		c.Ctx.JSON(http.StatusBadGateway, gin.H{
			"code":    502,
			"message": "获取云端设备连接信息失败: " + err.Error(),
			"data":    nil,
		})
		return
	}

	response.Success(c.Ctx, infos)
}
