package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"hikbridge-http-service/config"
	"hikbridge-http-service/models"
)

// InterfaceDeviceService defines the device service interface
type InterfaceDeviceService interface {
	GetAllDevices() ([]models.IntercomDevice, error)
	GetDeviceByID(id uint) (*models.IntercomDevice, error)
	GetDeviceBySerial(serial string) (*models.IntercomDevice, error)
	CreateDevice(device *models.IntercomDevice) error
	UpdateDevice(id uint, updates map[string]interface{}) (*models.IntercomDevice, error)
	DeleteDevice(id uint) error
	SyncDevicesFromCloud(ctx context.Context) (int, error)
	GetDeviceCallLogs(deviceID uint, query models.PaginationQuery) ([]models.CallStatusLog, models.PaginationResult, error)
}

// DeviceService 提供设备相关的服务
type DeviceService struct {
	DB     *gorm.DB
	Config *config.Config
	Cloud  InterfaceHikCloudService
}

// NewDeviceService 创建一个新的设备服务
func NewDeviceService(db *gorm.DB, cfg *config.Config, cloud InterfaceHikCloudService) InterfaceDeviceService {
	return &DeviceService{
		DB:     db,
		Config: cfg,
		Cloud:  cloud,
	}
}

// 1 GetAllDevices 获取所有设备列表
func (s *DeviceService) GetAllDevices() ([]models.IntercomDevice, error) {
	var devices []models.IntercomDevice
	if err := s.DB.Find(&devices).Error; err != nil {
		return nil, err
	}

	return devices, nil
}

// 2 GetDeviceByID 根据ID获取设备
func (s *DeviceService) GetDeviceByID(id uint) (*models.IntercomDevice, error) {
	var device models.IntercomDevice
	if err := s.DB.First(&device, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("设备不存在")
		}
		return nil, err
	}

	return &device, nil
}

// 3 GetDeviceBySerial 根据序列号获取设备
func (s *DeviceService) GetDeviceBySerial(serial string) (*models.IntercomDevice, error) {
	var device models.IntercomDevice
	if err := s.DB.Where("serial_number = ?", serial).First(&device).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("设备不存在")
		}
		return nil, err
	}

	return &device, nil
}

// 4 CreateDevice 创建新设备
func (s *DeviceService) CreateDevice(device *models.IntercomDevice) error {
	// 验证序列号唯一性
	var count int64
	if err := s.DB.Model(&models.IntercomDevice{}).Where("serial_number = ?", device.SerialNumber).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return errors.New("设备序列号已存在")
	}

	// 设置默认状态
	if device.Status == "" {
		device.Status = models.DeviceStatusOffline
	}

	return s.DB.Create(device).Error
}

// 5 UpdateDevice 更新设备信息
func (s *DeviceService) UpdateDevice(id uint, updates map[string]interface{}) (*models.IntercomDevice, error) {
	device, err := s.GetDeviceByID(id)
	if err != nil {
		return nil, err
	}

	// 如果更新序列号，需要检查唯一性
	if serialNumber, ok := updates["serial_number"].(string); ok && serialNumber != device.SerialNumber {
		var count int64
		if err := s.DB.Model(&models.IntercomDevice{}).Where("serial_number = ? AND id != ?", serialNumber, id).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, errors.New("设备序列号已存在")
		}
	}

	if err := s.DB.Model(device).Updates(updates).Error; err != nil {
		return nil, err
	}

	// 重新获取更新后的设备信息
	return s.GetDeviceByID(id)
}

// 6 DeleteDevice 删除设备
func (s *DeviceService) DeleteDevice(id uint) error {
	device, err := s.GetDeviceByID(id)
	if err != nil {
		return err
	}

	// 先清掉历史状态记录，再删设备
	if err := s.DB.Where("device_id = ?", id).Delete(&models.CallStatusLog{}).Error; err != nil {
		return err
	}

	return s.DB.Delete(device).Error
}

// 7 SyncDevicesFromCloud 从云端设备目录同步设备及其局域网连接信息
//
// 已存在的设备只回填局域网IP，不覆盖人工配置的其他字段。
func (s *DeviceService) SyncDevicesFromCloud(ctx context.Context) (int, error) {
	infos, err := s.Cloud.GetDeviceConnectionInfos(ctx)
	if err != nil {
		return 0, err
	}

	synced := 0
	for serial, info := range infos {
		var device models.IntercomDevice
		err := s.DB.Where("serial_number = ?", serial).First(&device).Error

		if errors.Is(err, gorm.ErrRecordNotFound) {
			device = models.IntercomDevice{
				Name:         fmt.Sprintf("Intercom %s", serial),
				SerialNumber: serial,
				LocalIP:      info.LocalIP,
				Status:       models.DeviceStatusOffline,
			}
			if err := s.DB.Create(&device).Error; err != nil {
				config.Warning("同步设备失败: %s: %v", serial, err)
				continue
			}
			synced++
			continue
		}
		if err != nil {
			return synced, err
		}

		if info.LocalIP != "" && info.LocalIP != device.LocalIP {
			if err := s.DB.Model(&device).Update("local_ip", info.LocalIP).Error; err != nil {
				config.Warning("更新设备局域网IP失败: %s: %v", serial, err)
				continue
			}
			synced++
		}
	}

	return synced, nil
}

// 8 GetDeviceCallLogs 分页获取设备的通话状态历史
func (s *DeviceService) GetDeviceCallLogs(deviceID uint, query models.PaginationQuery) ([]models.CallStatusLog, models.PaginationResult, error) {
	pageNum, pageSize := query.Normalize()

	if _, err := s.GetDeviceByID(deviceID); err != nil {
		return nil, models.PaginationResult{}, err
	}

	var total int64
	if err := s.DB.Model(&models.CallStatusLog{}).Where("device_id = ?", deviceID).Count(&total).Error; err != nil {
		return nil, models.PaginationResult{}, err
	}

	order := "observed_at ASC"
	if query.Desc {
		order = "observed_at DESC"
	}

	var logs []models.CallStatusLog
	offset := (pageNum - 1) * pageSize
	if err := s.DB.Where("device_id = ?", deviceID).
		Order(order).
		Offset(offset).
		Limit(pageSize).
		Find(&logs).Error; err != nil {
		return nil, models.PaginationResult{}, err
	}

	return logs, models.NewPaginationResult(int(total), pageNum, pageSize), nil
}
