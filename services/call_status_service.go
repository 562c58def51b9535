package services

import (
	"context"

	"hikbridge-http-service/config"
	"hikbridge-http-service/models"
)

// InterfaceCallStatusService 定义通话状态获取服务接口
type InterfaceCallStatusService interface {
	FetchCallStatus(ctx context.Context, device *models.IntercomDevice) (*CallStatusResult, error)
}

// CallStatusService 按局域网优先、云端回退的顺序获取通话状态
//
// 局域网直连延迟低且不依赖云端服务的健康状况，所以优先；
// 局域网查不到时静默回退到云端，云端错误才作为类型化错误上抛。
type CallStatusService struct {
	Cloud InterfaceHikCloudService
	ISAPI InterfaceISAPIService
}

// NewCallStatusService 创建一个新的通话状态获取服务
func NewCallStatusService(cloud InterfaceHikCloudService, isapi InterfaceISAPIService) InterfaceCallStatusService {
	return &CallStatusService{
		Cloud: cloud,
		ISAPI: isapi,
	}
}

// FetchCallStatus 获取设备当前通话状态
//
// 设备配置了局域网IP和密码时先走局域网；局域网的任何失败都不是终态，
// 继续走云端。没有局域网配置时直接走云端。
func (s *CallStatusService) FetchCallStatus(ctx context.Context, device *models.IntercomDevice) (*CallStatusResult, error) {
	if device.HasLocalAccess() {
		result, err := s.ISAPI.GetCallStatus(ctx, device)
		if err == nil && result != nil {
			return result, nil
		}
		config.Debug("局域网查询失败，回退到云端API: %s", device.SerialNumber)
	} else {
		config.Debug("设备未配置局域网直连，仅使用云端API: %s", device.SerialNumber)
	}

	return s.Cloud.GetCallStatus(ctx, device.SerialNumber)
}
