package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hikbridge-http-service/internal/error/code"
	"hikbridge-http-service/internal/error/response"
	"hikbridge-http-service/services/container"
)

// InterfaceCameraController 定义摄像头控制器接口
type InterfaceCameraController interface {
	GetSnapshot()
}

// CameraController 处理摄像头快照相关的请求
type CameraController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewCameraController 创建一个新的摄像头控制器
func NewCameraController(ctx *gin.Context, container *container.ServiceContainer) *CameraController {
	return &CameraController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandleCameraFunc 返回一个处理摄像头请求的Gin处理函数
func HandleCameraFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewCameraController(ctx, container)

		switch method {
		case "getSnapshot":
			controller.GetSnapshot()
		default:
			ctx.JSON(http.StatusBadRequest, gin.H{
				"code":    400,
				"message": "无效的方法",
				"data":    nil,
			})
		}
	}
}

// 1. GetSnapshot 获取设备摄像头快照
// @Summary 获取摄像头快照
// @Description 通过局域网从设备摄像头获取一张JPEG快照，需要设备配置了局域网直连
// @Tags camera
// @Produce jpeg
// @Security BearerAuth
// @Param id path string true "设备ID"
// @Success 200 {file} binary
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /devices/{id}/snapshot [get]
func (c *CameraController) GetSnapshot() {
	id := c.Ctx.Param("id")
	deviceID, err := strconv.Atoi(id)
	if err != nil || deviceID <= 0 {
		response.ParamError(c.Ctx, "无效的设备ID")
		return
	}

	device, err := c.Container.GetDeviceService().GetDeviceByID(uint(deviceID))
	if err != nil {
		response.Fail(c.Ctx, code.ErrDeviceNotFound, nil)
		return
	}

	if !device.HasLocalAccess() {
		response.ParamError(c.Ctx, "设备未配置局域网直连，无法获取快照")
		return
	}

	image, err := c.Container.GetISAPIService().GetSnapshot(c.Ctx.Request.Context(), device)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrSnapshotUnavailable, err.Error(), nil)
		return
	}

	c.Ctx.Data(http.StatusOK, "image/jpeg", image)
}
