package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/icholy/digest"

	"hikbridge-http-service/config"
	"hikbridge-http-service/models"
)

// ISAPI设备端接口路径
const (
	isapiCallStatusPath = "/ISAPI/VideoIntercom/callStatus"
	isapiSnapshotPath   = "/ISAPI/Streaming/channels/101/picture"
)

// 局域网请求超时：状态查询要快进快出，快照允许更久
const (
	isapiStatusTimeout   = 3 * time.Second
	isapiSnapshotTimeout = 10 * time.Second
)

// InterfaceISAPIService 定义设备局域网API服务接口
type InterfaceISAPIService interface {
	GetCallStatus(ctx context.Context, device *models.IntercomDevice) (*CallStatusResult, error)
	GetSnapshot(ctx context.Context, device *models.IntercomDevice) ([]byte, error)
}

// ISAPIService 直连设备局域网API，绕过云端
type ISAPIService struct{}

// NewISAPIService 创建一个新的局域网API服务
func NewISAPIService() InterfaceISAPIService {
	return &ISAPIService{}
}

// newClient 构造带摘要认证的HTTP客户端；设备未设密码时走匿名访问
func (s *ISAPIService) newClient(device *models.IntercomDevice, timeout time.Duration) *http.Client {
	client := &http.Client{Timeout: timeout}

	if device.LocalPassword != "" {
		username := device.LocalUsername
		if username == "" {
			username = "admin"
		}
		client.Transport = &digest.Transport{
			Username: username,
			Password: device.LocalPassword,
		}
	}

	return client
}

// 1 GetCallStatus 通过局域网直接查询设备通话状态
//
// 返回 (nil, nil) 表示"本地查不到"（404、传输失败、无法解析等），
// 调用方应继续走云端回退；这些情况都不算错误。
func (s *ISAPIService) GetCallStatus(ctx context.Context, device *models.IntercomDevice) (*CallStatusResult, error) {
	url := fmt.Sprintf("http://%s%s", device.LocalIP, isapiCallStatusPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil
	}

	resp, err := s.newClient(device, isapiStatusTimeout).Do(req)
	if err != nil {
		config.Debug("局域网请求失败: %v", err)
		return nil, nil
	}
	defer resp.Body.Close()

	config.Debug("局域网响应状态码: %d", resp.StatusCode)

	if resp.StatusCode == http.StatusNotFound {
		// 旧固件没有这个接口，视为查不到而不是错误
		return nil, nil
	}

	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil
	}

	return parseISAPICallStatus(string(body)), nil
}

// parseISAPICallStatus 解析设备返回的通话状态
//
// 新固件返回JSON（嵌套或平铺两种格式），旧固件返回XML，
// 对XML只做关键字的大小写无关匹配。
func parseISAPICallStatus(body string) *CallStatusResult {
	var nested struct {
		CallStatus *struct {
			Status string `json:"status"`
		} `json:"CallStatus"`
		Status string `json:"status"`
	}

	if err := json.Unmarshal([]byte(body), &nested); err == nil {
		if nested.CallStatus != nil && nested.CallStatus.Status != "" {
			return &CallStatusResult{
				Status: normalizeLocalStatus(nested.CallStatus.Status),
				Info:   map[string]interface{}{},
			}
		}
		if nested.Status != "" {
			return &CallStatusResult{
				Status: normalizeLocalStatus(nested.Status),
				Info:   map[string]interface{}{},
			}
		}
	}

	// 非JSON响应，退化为子串匹配
	lower := strings.ToLower(body)
	status := models.CallStatusUnknown
	switch {
	case strings.Contains(lower, "idle"):
		status = models.CallStatusIdle
	case strings.Contains(lower, "ringing"):
		status = models.CallStatusRinging
	case strings.Contains(lower, "ongoing"), strings.Contains(lower, "in progress"):
		status = models.CallStatusOngoing
	}

	return &CallStatusResult{
		Status: status,
		Info:   map[string]interface{}{},
	}
}

// normalizeLocalStatus 把设备返回的状态文本映射为归一化状态
func normalizeLocalStatus(raw string) models.CallStatus {
	switch strings.ToLower(raw) {
	case "idle":
		return models.CallStatusIdle
	case "ringing", "ring":
		return models.CallStatusRinging
	case "ongoing", "oncall", "call in progress":
		return models.CallStatusOngoing
	default:
		return models.CallStatusUnknown
	}
}

// 2 GetSnapshot 通过局域网获取设备摄像头的JPEG快照
func (s *ISAPIService) GetSnapshot(ctx context.Context, device *models.IntercomDevice) ([]byte, error) {
	url := fmt.Sprintf("http://%s%s", device.LocalIP, isapiSnapshotPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.newClient(device, isapiSnapshotTimeout).Do(req)
	if err != nil {
		return nil, fmt.Errorf("获取快照失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("获取快照失败: HTTP %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
