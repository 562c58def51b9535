package models

import (
	"time"
)

// DeviceStatus represents the reachability of an intercom device
type DeviceStatus string

const (
	DeviceStatusOnline      DeviceStatus = "online"
	DeviceStatusOffline     DeviceStatus = "offline"
	DeviceStatusUnavailable DeviceStatus = "unavailable"
)

// IntercomDevice represents a video intercom (indoor station / door station)
type IntercomDevice struct {
	BaseModel
	Name         string       `gorm:"type:varchar(50);not null" json:"name"`
	SerialNumber string       `gorm:"type:varchar(50);unique;not null" json:"serial_number"`
	Model        string       `gorm:"type:varchar(50)" json:"model"`
	Location     string       `gorm:"type:varchar(100)" json:"location"`
	Status       DeviceStatus `gorm:"type:varchar(20);default:'offline'" json:"status"`

	// 局域网直连配置，为空时只走云端API
	LocalIP       string `gorm:"type:varchar(45)" json:"local_ip"`
	LocalUsername string `gorm:"type:varchar(50);default:'admin'" json:"local_username"`
	LocalPassword string `gorm:"type:varchar(100)" json:"-"`

	// 最近一次成功取到通话状态的时间
	LastSeen *time.Time `json:"last_seen,omitempty"`

	// Relations
	CallStatusLogs []CallStatusLog `gorm:"foreignKey:DeviceID" json:"call_status_logs,omitempty"`
}

// HasLocalAccess 判断设备是否配置了局域网直连
func (d *IntercomDevice) HasLocalAccess() bool {
	return d.LocalIP != "" && d.LocalPassword != ""
}
