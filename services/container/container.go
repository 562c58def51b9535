package container

import (
	"sync"

	"gorm.io/gorm"

	"hikbridge-http-service/config"
	"hikbridge-http-service/services"
)

// ServiceContainer 管理所有服务的依赖注入
type ServiceContainer struct {
	db     *gorm.DB
	config *config.Config

	// 基础服务
	jwtService   services.InterfaceJWTService
	redisService services.InterfaceRedisService
	mqttService  services.InterfaceMQTTService

	// 协议客户端
	hikCloudService services.InterfaceHikCloudService
	isapiService    services.InterfaceISAPIService

	// 业务服务
	callStatusService services.InterfaceCallStatusService
	deviceService     services.InterfaceDeviceService
	pollerService     services.InterfacePollerService

	mu sync.RWMutex
}

// NewServiceContainer 创建新的服务容器
func NewServiceContainer(db *gorm.DB, cfg *config.Config) *ServiceContainer {
	if db == nil {
		panic("数据库连接为空")
	}

	if cfg == nil {
		panic("配置为空")
	}

	c := &ServiceContainer{
		db:     db,
		config: cfg,
	}

	// 基础服务
	c.jwtService = services.NewJWTService(cfg)
	c.redisService = services.NewRedisService(cfg)
	c.mqttService = services.NewMQTTService(cfg)

	// 协议客户端
	c.hikCloudService = services.NewHikCloudService(cfg)
	c.isapiService = services.NewISAPIService()

	// 业务服务
	c.callStatusService = services.NewCallStatusService(c.hikCloudService, c.isapiService)
	c.deviceService = services.NewDeviceService(db, cfg, c.hikCloudService)
	c.pollerService = services.NewPollerService(db, cfg, c.callStatusService, c.mqttService, c.redisService)

	return c
}

// GetDB 获取数据库连接
func (c *ServiceContainer) GetDB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// GetConfig 获取配置
func (c *ServiceContainer) GetConfig() *config.Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

// GetJWTService 获取JWT服务
func (c *ServiceContainer) GetJWTService() services.InterfaceJWTService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.jwtService
}

// GetRedisService 获取缓存服务
func (c *ServiceContainer) GetRedisService() services.InterfaceRedisService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.redisService
}

// GetMQTTService 获取MQTT发布服务
func (c *ServiceContainer) GetMQTTService() services.InterfaceMQTTService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mqttService
}

// GetHikCloudService 获取云端API服务
func (c *ServiceContainer) GetHikCloudService() services.InterfaceHikCloudService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hikCloudService
}

// GetISAPIService 获取局域网API服务
func (c *ServiceContainer) GetISAPIService() services.InterfaceISAPIService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isapiService
}

// GetCallStatusService 获取通话状态获取服务
func (c *ServiceContainer) GetCallStatusService() services.InterfaceCallStatusService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.callStatusService
}

// GetDeviceService 获取设备服务
func (c *ServiceContainer) GetDeviceService() services.InterfaceDeviceService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.deviceService
}

// GetPollerService 获取轮询服务
func (c *ServiceContainer) GetPollerService() services.InterfacePollerService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pollerService
}
