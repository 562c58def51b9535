package models

import (
	"time"
)

// CallStatus represents the normalized call state of an intercom
type CallStatus string

const (
	CallStatusIdle    CallStatus = "idle"
	CallStatusRinging CallStatus = "ringing"
	CallStatusOngoing CallStatus = "call in progress"
	CallStatusUnknown CallStatus = "unknown"
)

// CallStatusLog records an observed call status transition of a device
type CallStatusLog struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	DeviceID       uint       `gorm:"index" json:"device_id"`
	Status         CallStatus `gorm:"type:varchar(20)" json:"status"`
	PreviousStatus CallStatus `gorm:"type:varchar(20)" json:"previous_status"`
	CallerInfo     string     `gorm:"type:text" json:"caller_info"` // 归一化后的呼叫方信息，JSON编码
	ObservedAt     time.Time  `json:"observed_at"`
	CreatedAt      time.Time  `json:"created_at"`

	// Relations
	Device *IntercomDevice `gorm:"foreignKey:DeviceID" json:"device,omitempty"`
}
