package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hikbridge-http-service/config"
	"hikbridge-http-service/middleware"
	"hikbridge-http-service/models"
	"hikbridge-http-service/services/container"
)

// InterfaceDeviceController 定义设备控制器接口
type InterfaceDeviceController interface {
	GetDevices()
	GetDevice()
	CreateDevice()
	UpdateDevice()
	DeleteDevice()
	SyncDevices()
}

// DeviceController 处理设备相关的请求
type DeviceController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewDeviceController 创建一个新的设备控制器
func NewDeviceController(ctx *gin.Context, container *container.ServiceContainer) *DeviceController {
	return &DeviceController{
		Ctx:       ctx,
		Container: container,
	}
}

// DeviceRequest 表示设备请求结构
type DeviceRequest struct {
	Name          string `json:"name" binding:"required" example:"门口机1号"`
	SerialNumber  string `json:"serial_number" binding:"required" example:"DS-KH6320-1"`
	Model         string `json:"model" example:"DS-KH6320-WTE1"`
	Location      string `json:"location" example:"小区北门入口"`
	LocalIP       string `json:"local_ip" example:"192.168.1.64"`
	LocalUsername string `json:"local_username" example:"admin"`
	LocalPassword string `json:"local_password" example:""`
}

// HandleDeviceFunc 返回一个处理设备请求的Gin处理函数
func HandleDeviceFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewDeviceController(ctx, container)

		switch method {
		case "getDevices":
			controller.GetDevices()
		case "getDevice":
			controller.GetDevice()
		case "createDevice":
			controller.CreateDevice()
		case "updateDevice":
			controller.UpdateDevice()
		case "deleteDevice":
			controller.DeleteDevice()
		case "syncDevices":
			controller.SyncDevices()
		default:
			ctx.JSON(http.StatusBadRequest, gin.H{
				"code":    400,
				"message": "无效的方法",
				"data":    nil,
			})
		}
	}
}

// parseDeviceID 解析路径中的设备ID
func (c *DeviceController) parseDeviceID() (uint, bool) {
	id := c.Ctx.Param("id")
	deviceID, err := strconv.Atoi(id)
	if err != nil || deviceID <= 0 {
		c.Ctx.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "无效的设备ID",
			"data":    nil,
		})
		return 0, false
	}
	return uint(deviceID), true
}

// restartPoller 设备增删改后重启轮询服务并清除响应缓存，让变更立即生效
func (c *DeviceController) restartPoller() {
	middleware.PurgeCache()
	if err := c.Container.GetPollerService().Restart(); err != nil {
		config.Warning("重启轮询服务失败: %v", err)
	}
}

// 1. GetDevices 获取所有设备列表
// @Summary 获取设备列表
// @Description 获取所有已注册的对讲设备
// @Tags device
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.IntercomDevice
// @Failure 500 {object} ErrorResponse
// @Router /devices [get]
func (c *DeviceController) GetDevices() {
	deviceService := c.Container.GetDeviceService()

	devices, err := deviceService.GetAllDevices()
	if err != nil {
		c.Ctx.JSON(http.StatusInternalServerError, gin.H{
			"code":    500,
			"message": "获取设备列表失败: " + err.Error(),
			"data":    nil,
		})
		return
	}

	c.Ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "成功",
		"data":    devices,
	})
}

// 2. GetDevice 获取单个设备详情
// @Summary 获取单个设备
// @Description 根据ID获取设备信息
// @Tags device
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "设备ID"
// @Success 200 {object} models.IntercomDevice
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /devices/{id} [get]
func (c *DeviceController) GetDevice() {
	deviceID, ok := c.parseDeviceID()
	if !ok {
		return
	}

	device, err := c.Container.GetDeviceService().GetDeviceByID(deviceID)
	if err != nil {
		c.Ctx.JSON(http.StatusNotFound, gin.H{
			"code":    404,
			"message": err.Error(),
			"data":    nil,
		})
		return
	}

	c.Ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "成功",
		"data":    device,
	})
}

// 3. CreateDevice 创建新设备
// @Summary 创建设备
// @Description 注册一台新的对讲设备
// @Tags device
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body DeviceRequest true "设备信息"
// @Success 200 {object} models.IntercomDevice
// @Failure 400 {object} ErrorResponse
// @Router /devices [post]
func (c *DeviceController) CreateDevice() {
	var req DeviceRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		c.Ctx.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "无效的请求参数: " + err.Error(),
			"data":    nil,
		})
		return
	}

	device := models.IntercomDevice{
		Name:          req.Name,
		SerialNumber:  req.SerialNumber,
		Model:         req.Model,
		Location:      req.Location,
		LocalIP:       req.LocalIP,
		LocalUsername: req.LocalUsername,
		LocalPassword: req.LocalPassword,
	}

	if err := c.Container.GetDeviceService().CreateDevice(&device); err != nil {
		c.Ctx.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "创建设备失败: " + err.Error(),
			"data":    nil,
		})
		return
	}

	c.restartPoller()

	c.Ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "成功",
		"data":    device,
	})
}

// 4. UpdateDevice 更新设备信息
// @Summary 更新设备
// @Description 更新设备的名称、位置或局域网直连配置
// @Tags device
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "设备ID"
// @Param request body map[string]interface{} true "要更新的字段"
// @Success 200 {object} models.IntercomDevice
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /devices/{id} [put]
func (c *DeviceController) UpdateDevice() {
	deviceID, ok := c.parseDeviceID()
	if !ok {
		return
	}

	var updates map[string]interface{}
	if err := c.Ctx.ShouldBindJSON(&updates); err != nil {
		c.Ctx.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "无效的请求参数: " + err.Error(),
			"data":    nil,
		})
		return
	}

	device, err := c.Container.GetDeviceService().UpdateDevice(deviceID, updates)
	if err != nil {
		c.Ctx.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "更新设备失败: " + err.Error(),
			"data":    nil,
		})
		return
	}

	c.restartPoller()

	c.Ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "成功",
		"data":    device,
	})
}

// 5. DeleteDevice 删除设备
// @Summary 删除设备
// @Description 删除设备及其通话状态历史
// @Tags device
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "设备ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} ErrorResponse
// @Router /devices/{id} [delete]
func (c *DeviceController) DeleteDevice() {
	deviceID, ok := c.parseDeviceID()
	if !ok {
		return
	}

	if err := c.Container.GetDeviceService().DeleteDevice(deviceID); err != nil {
		c.Ctx.JSON(http.StatusNotFound, gin.H{
			"code":    404,
			"message": "删除设备失败: " + err.Error(),
			"data":    nil,
		})
		return
	}

	c.restartPoller()

	c.Ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "成功",
		"data":    nil,
	})
}

// 6. SyncDevices 从云端设备目录同步设备
// @Summary 同步云端设备
// @Description 从云端设备目录导入设备及其局域网连接信息
// @Tags device
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 502 {object} ErrorResponse
// @Router /devices/sync [post]
func (c *DeviceController) SyncDevices() {
	synced, err := c.Container.GetDeviceService().SyncDevicesFromCloud(c.Ctx.Request.Context())
	if err != nil {
		c.Ctx.JSON(http.StatusBadGateway, gin.H{
			"code":    502,
			"message": "同步云端设备失败: " + err.Error(),
			"data":    nil,
		})
		return
	}

	if synced > 0 {
		c.restartPoller()
	}

	c.Ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "成功",
		"data":    gin.H{"synced": synced},
	})
}
