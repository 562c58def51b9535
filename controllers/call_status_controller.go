package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hikbridge-http-service/internal/error/code"
	"hikbridge-http-service/internal/error/response"
	"hikbridge-http-service/models"
	"hikbridge-http-service/services"
	"hikbridge-http-service/services/container"
)

// InterfaceCallStatusController 定义通话状态控制器接口
type InterfaceCallStatusController interface {
	GetCallStatus()
	GetCachedCallStatus()
	GetCallLogs()
}

// CallStatusController 处理通话状态相关的请求
type CallStatusController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewCallStatusController 创建一个新的通话状态控制器
func NewCallStatusController(ctx *gin.Context, container *container.ServiceContainer) *CallStatusController {
	return &CallStatusController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandleCallStatusFunc 返回一个处理通话状态请求的Gin处理函数
func HandleCallStatusFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewCallStatusController(ctx, container)

		switch method {
		case "getCallStatus":
			controller.GetCallStatus()
		case "getCachedCallStatus":
			controller.GetCachedCallStatus()
		case "getCallLogs":
			controller.GetCallLogs()
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
func (c *CallStatusController) parseDeviceID() (uint, bool) {
	id := c.Ctx.Param("id")
	deviceID, err := strconv.Atoi(id)
	if err != nil || deviceID <= 0 {
		response.ParamError(c.Ctx, "无效的设备ID")
		return 0, false
	}
	return uint(deviceID), true
}

// 1. GetCallStatus 实时获取设备通话状态
// @Summary 获取实时通话状态
// @Description 按局域网优先、云端回退的顺序实时查询设备通话状态
// @Tags call_status
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "设备ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /devices/{id}/call_status [get]
func (c *CallStatusController) GetCallStatus() {
	deviceID, ok := c.parseDeviceID()
	if !ok {
		return
	}

	device, err := c.Container.GetDeviceService().GetDeviceByID(deviceID)
	if err != nil {
		response.Fail(c.Ctx, code.ErrDeviceNotFound, nil)
		return
	}

	cfg := c.Container.GetConfig()
	ctx, cancel := context.WithTimeout(c.Ctx.Request.Context(), cfg.PollTimeout)
	defer cancel()

	result, err := c.Container.GetCallStatusService().FetchCallStatus(ctx, device)
	if err != nil {
		c.failWithCloudError(err)
		return
	}

	response.Success(c.Ctx, result)
}

// failWithCloudError 把云端API的类型化错误映射为业务错误码
func (c *CallStatusController) failWithCloudError(err error) {
	var notLoggedInErr *services.NotLoggedInError
	var offlineErr *services.DeviceOfflineError
	var networkErr *services.DeviceNetworkError
	var apiErr *services.CloudAPIError

	switch {
	case errors.As(err, &notLoggedInErr):
		response.Fail(c.Ctx, code.ErrCloudNotLoggedIn, nil)
	case errors.As(err, &offlineErr):
		response.Fail(c.Ctx, code.ErrCloudDeviceOffline, gin.H{"vendor_code": offlineErr.Code})
	case errors.As(err, &networkErr):
		response.Fail(c.Ctx, code.ErrCloudDeviceNetwork, gin.H{"vendor_code": networkErr.Code})
	case errors.Is(err, context.DeadlineExceeded):
		response.Fail(c.Ctx, code.ErrCloudTimeout, nil)
	case errors.As(err, &apiErr):
		response.FailWithMessage(c.Ctx, code.ErrCloudGeneric, apiErr.Message, gin.H{"vendor_code": apiErr.Code})
	default:
		response.FailWithMessage(c.Ctx, code.ErrCallStatusUnavailable, err.Error(), nil)
	}
}

// 2. GetCachedCallStatus 获取最近一次缓存的通话状态
// @Summary 获取缓存的通话状态
// @Description 从缓存读取轮询服务最近一次观测到的通话状态，不触发实时请求
// @Tags call_status
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "设备ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} ErrorResponse
// @Router /devices/{id}/call_status/cached [get]
func (c *CallStatusController) GetCachedCallStatus() {
	deviceID, ok := c.parseDeviceID()
	if !ok {
		return
	}

	device, err := c.Container.GetDeviceService().GetDeviceByID(deviceID)
	if err != nil {
		response.Fail(c.Ctx, code.ErrDeviceNotFound, nil)
		return
	}

	result, err := c.Container.GetRedisService().GetCachedCallStatus(device.SerialNumber)
	if err != nil {
		response.NotFound(c.Ctx, "没有缓存的通话状态")
		return
	}

	response.Success(c.Ctx, result)
}

// 3. GetCallLogs 分页获取设备的通话状态历史
// @Summary 获取通话状态历史
// @Description 分页获取轮询服务记录的通话状态变更历史
// @Tags call_status
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "设备ID"
// @Param pageNum query int false "页码，默认1" example:"1"
// @Param pageSize query int false "每页条数，默认10" example:"10"
// @Param desc query bool false "是否按观测时间倒序，默认true"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} ErrorResponse
// @Router /devices/{id}/call_logs [get]
func (c *CallStatusController) GetCallLogs() {
	deviceID, ok := c.parseDeviceID()
	if !ok {
		return
	}

	// 获取分页参数，默认按观测时间倒序
	pageNum, _ := strconv.Atoi(c.Ctx.DefaultQuery("pageNum", "1"))
	pageSize, _ := strconv.Atoi(c.Ctx.DefaultQuery("pageSize", "10"))
	query := models.PaginationQuery{
		PageNum:  pageNum,
		PageSize: pageSize,
		Desc:     c.Ctx.DefaultQuery("desc", "true") == "true",
	}

	logs, pagination, err := c.Container.GetDeviceService().GetDeviceCallLogs(deviceID, query)
	if err != nil {
		response.Fail(c.Ctx, code.ErrDeviceNotFound, nil)
		return
	}

	response.Success(c.Ctx, gin.H{
		"logs":       logs,
		"pagination": pagination,
	})
}
