package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"

	"hikbridge-http-service/config"
	"hikbridge-http-service/models"
)

// InterfacePollerService 定义轮询服务接口
type InterfacePollerService interface {
	Start() error
	Stop()
	Restart() error
	PollDevice(ctx context.Context, device *models.IntercomDevice)
}

// PollerService 按固定间隔轮询每台设备的通话状态
//
// 每台设备一个独立的轮询循环，循环之间没有共享可变状态；
// 单次轮询的超时略短于轮询间隔，保证上一次请求不会和下一轮重叠。
type PollerService struct {
	DB      *gorm.DB
	Config  *config.Config
	Fetcher InterfaceCallStatusService
	MQTT    InterfaceMQTTService
	Redis   InterfaceRedisService

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool

	// 每台设备最近一次的状态和错误文本，用于变更检测和重复错误抑制
	mu         sync.Mutex
	lastStatus map[uint]models.CallStatus
	lastError  map[uint]string
}

// NewPollerService 创建一个新的轮询服务
func NewPollerService(db *gorm.DB, cfg *config.Config, fetcher InterfaceCallStatusService, mqttService InterfaceMQTTService, redisService InterfaceRedisService) InterfacePollerService {
	return &PollerService{
		DB:         db,
		Config:     cfg,
		Fetcher:    fetcher,
		MQTT:       mqttService,
		Redis:      redisService,
		lastStatus: make(map[uint]models.CallStatus),
		lastError:  make(map[uint]string),
	}
}

// Start 为每台已注册设备启动轮询循环
func (s *PollerService) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("轮询服务已在运行")
	}
	s.running = true
	s.mu.Unlock()

	var devices []models.IntercomDevice
	if s.DB != nil {
		if err := s.DB.Find(&devices).Error; err != nil {
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
			return err
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	for i := range devices {
		device := devices[i]
		s.wg.Add(1)
		go s.pollLoop(ctx, &device)
	}

	config.Info("轮询服务已启动，设备数量: %d，间隔: %s", len(devices), s.Config.PollInterval)
	return nil
}

// Stop 停止所有轮询循环
func (s *PollerService) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()

	config.Info("轮询服务已停止")
}

// Restart 重启轮询服务（设备增删改后调用，让变更立即生效）
func (s *PollerService) Restart() error {
	s.Stop()
	return s.Start()
}

// pollLoop 单台设备的轮询循环
func (s *PollerService) pollLoop(ctx context.Context, device *models.IntercomDevice) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.Config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pollCtx, cancel := context.WithTimeout(ctx, s.Config.PollTimeout)
			s.PollDevice(pollCtx, device)
			cancel()
		}
	}
}

// PollDevice 执行一次轮询：取状态、检测变更、记录并发布
func (s *PollerService) PollDevice(ctx context.Context, device *models.IntercomDevice) {
	result, err := s.Fetcher.FetchCallStatus(ctx, device)
	if err != nil {
		s.handlePollError(device, err)
		return
	}

	s.mu.Lock()
	delete(s.lastError, device.ID)
	previous, seen := s.lastStatus[device.ID]
	s.lastStatus[device.ID] = result.Status
	s.mu.Unlock()

	s.markDeviceOnline(device)

	if seen && previous == result.Status {
		return
	}

	s.recordStatusChange(device, previous, result)
}

// handlePollError 处理轮询失败：抑制重复日志并把设备标记为不可用
func (s *PollerService) handlePollError(device *models.IntercomDevice, err error) {
	s.mu.Lock()
	suppressed := s.lastError[device.ID] == err.Error()
	s.lastError[device.ID] = err.Error()
	s.mu.Unlock()

	if !suppressed {
		var offlineErr *DeviceOfflineError
		var networkErr *DeviceNetworkError
		switch {
		case errors.As(err, &offlineErr):
			config.Debug("设备离线: %s", device.SerialNumber)
		case errors.As(err, &networkErr):
			config.Warning("设备网络异常（已知的云端问题）: %s: %s", device.SerialNumber, networkErr.Message)
		case errors.Is(err, context.DeadlineExceeded):
			config.Debug("轮询超时: %s", device.SerialNumber)
		default:
			config.Warning("获取通话状态失败: %s: %v", device.SerialNumber, err)
		}
	}

	if s.DB != nil {
		if dbErr := s.DB.Model(device).Update("status", models.DeviceStatusUnavailable).Error; dbErr != nil {
			config.Error("更新设备状态失败: %s: %v", device.SerialNumber, dbErr)
		}
	}
}

// markDeviceOnline 轮询成功后刷新设备的在线状态和最近可达时间
func (s *PollerService) markDeviceOnline(device *models.IntercomDevice) {
	if s.DB == nil {
		return
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":    models.DeviceStatusOnline,
		"last_seen": &now,
	}
	if err := s.DB.Model(device).Updates(updates).Error; err != nil {
		config.Error("更新设备状态失败: %s: %v", device.SerialNumber, err)
	}
}

// recordStatusChange 记录状态变更并发布到消息总线和缓存
func (s *PollerService) recordStatusChange(device *models.IntercomDevice, previous models.CallStatus, result *CallStatusResult) {
	config.Info("设备 %s 通话状态变更: %s -> %s", device.SerialNumber, previous, result.Status)

	if s.DB != nil {
		callerInfo, _ := json.Marshal(result.Info)
		entry := models.CallStatusLog{
			DeviceID:       device.ID,
			Status:         result.Status,
			PreviousStatus: previous,
			CallerInfo:     string(callerInfo),
			ObservedAt:     time.Now(),
		}
		if err := s.DB.Create(&entry).Error; err != nil {
			config.Error("写入通话状态记录失败: %s: %v", device.SerialNumber, err)
		}
	}

	if s.Redis != nil {
		if err := s.Redis.CacheCallStatus(device.SerialNumber, result, s.Config.PollInterval*3); err != nil {
			config.Debug("缓存通话状态失败: %s: %v", device.SerialNumber, err)
		}
	}

	if s.MQTT != nil {
		msg := &CallStatusMessage{
			Serial:         device.SerialNumber,
			DeviceName:     device.Name,
			Status:         result.Status,
			PreviousStatus: previous,
			CallerInfo:     result.Info,
			Timestamp:      time.Now().UnixMilli(),
		}
		if err := s.MQTT.PublishCallStatus(msg); err != nil {
			config.Warning("发布通话状态失败: %s: %v", device.SerialNumber, err)
		}
		if result.Status == models.CallStatusRinging {
			if err := s.MQTT.PublishRinging(msg); err != nil {
				config.Warning("发布响铃事件失败: %s: %v", device.SerialNumber, err)
			}
		}
	}
}
