package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"hikbridge-http-service/config"
	"hikbridge-http-service/models"
	"hikbridge-http-service/utils"
)

// 厂商云端API的meta.code取值
const (
	CloudCodeOK            = 200
	CloudCodeDeviceOffline = 2003 // 设备离线，不重试
	CloudCodeDeviceNetwork = 2009 // 设备网络异常，带附加请求头重试一次
)

// CallStatusMapping 厂商通话状态码到归一化状态的映射
var CallStatusMapping = map[int]models.CallStatus{
	1: models.CallStatusIdle,
	2: models.CallStatusRinging,
	3: models.CallStatusOngoing,
}

// CallerInfoMapping 厂商呼叫方字段到归一化字段名的映射
var CallerInfoMapping = map[string]string{
	"buildingNo": "building_number",
	"floorNo":    "floor_number",
	"zoneNo":     "zone_number",
	"unitNo":     "unit_number",
	"devNo":      "device_number",
	"devType":    "device_type",
	"lockNum":    "lock_number",
}

// CallStatusResult 归一化后的通话状态结果，每次轮询重新生成，不做持久化
type CallStatusResult struct {
	Status models.CallStatus      `json:"status"`
	Info   map[string]interface{} `json:"info"`
}

// CloudAPIError 云端API返回的业务错误
type CloudAPIError struct {
	Code    int
	Message string
}

func (e *CloudAPIError) Error() string {
	return fmt.Sprintf("云端API错误 %d: %s", e.Code, e.Message)
}

// DeviceOfflineError 设备离线（厂商错误码2003），终态错误，不重试
type DeviceOfflineError struct {
	CloudAPIError
}

// DeviceNetworkError 设备网络异常（厂商错误码2009），重试一次后仍失败时返回
type DeviceNetworkError struct {
	CloudAPIError
}

// NotLoggedInError 缺少云端会话ID，先注入会话才能调用云端API
type NotLoggedInError struct {
	CloudAPIError
}

func newNotLoggedInError() *NotLoggedInError {
	return &NotLoggedInError{CloudAPIError{Code: 0, Message: "未登录云端服务，缺少会话ID"}}
}

// ConnectionInfo 云端设备目录中的连接信息
type ConnectionInfo struct {
	LocalIP   string `json:"localIp"`
	NetType   int    `json:"netType"`
	LocalPort int    `json:"localPort"`
}

// cloudEnvelope 云端API统一响应信封
type cloudEnvelope struct {
	Meta struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"meta"`
	Data            json.RawMessage           `json:"data"`
	ConnectionInfos map[string]ConnectionInfo `json:"connectionInfos"`
}

// callStatusData 通话状态响应的data字段内容
type callStatusData struct {
	CallStatus int                    `json:"callStatus"`
	CallerInfo map[string]interface{} `json:"callerInfo"`
}

// InterfaceHikCloudService 定义云端API服务接口
type InterfaceHikCloudService interface {
	GetCallStatus(ctx context.Context, serial string) (*CallStatusResult, error)
	GetDeviceConnectionInfos(ctx context.Context) (map[string]ConnectionInfo, error)
	SessionID() string
	SetSessionID(sessionID string)
}

// HikCloudService 封装厂商云端API的调用
type HikCloudService struct {
	BaseURL     string
	Config      *config.Config
	Client      *http.Client
	featureCode string

	sessionID string
	mu        sync.RWMutex
}

// NewHikCloudService 创建一个新的云端API服务
func NewHikCloudService(cfg *config.Config) InterfaceHikCloudService {
	return &HikCloudService{
		BaseURL: cfg.CloudBaseURL,
		Config:  cfg,
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
		featureCode: utils.RandomFeatureCode(),
		sessionID:   cfg.CloudSessionID,
	}
}

// SessionID 返回当前会话ID
func (s *HikCloudService) SessionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionID
}

// SetSessionID 更新会话ID（会话由外部登录流程获取）
func (s *HikCloudService) SetSessionID(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionID = sessionID
}

// headers 构造云端API请求头；extra为true时附加移动端App使用的请求头
func (s *HikCloudService) headers(sessionID string, extra bool) map[string]string {
	h := map[string]string{
		"clientType":   s.Config.CloudClientType,
		"lang":         s.Config.CloudLanguage,
		"featureCode":  s.featureCode,
		"sessionId":    sessionID,
		"Content-Type": "application/json",
		"Accept":       "application/json",
	}

	if extra {
		h["User-Agent"] = "Hik-Connect/5.0.0 (Android)"
		h["X-Timestamp"] = strconv.FormatInt(time.Now().UnixMilli(), 10)
	}

	return h
}

// doGet 执行一次GET请求并解析统一响应信封
func (s *HikCloudService) doGet(ctx context.Context, url string, headers map[string]string) (*cloudEnvelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("云端API请求失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取云端API响应失败: %w", err)
	}

	var envelope cloudEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("解析云端API响应失败: %w", err)
	}

	return &envelope, nil
}

// 1 GetCallStatus 获取设备当前通话状态
//
// 处理厂商的两个已知错误码：2003（设备离线）直接返回终态错误；
// 2009（设备网络异常）带附加请求头重试一次，重试仍为2009才返回终态错误。
func (s *HikCloudService) GetCallStatus(ctx context.Context, serial string) (*CallStatusResult, error) {
	sessionID := s.SessionID()
	if sessionID == "" {
		return nil, newNotLoggedInError()
	}

	url := fmt.Sprintf("%s/v3/devconfig/v1/call/%s/status", s.BaseURL, serial)
	config.Debug("请求云端通话状态: %s", url)

	envelope, err := s.doGet(ctx, url, s.headers(sessionID, false))
	if err != nil {
		return nil, err
	}

	code, message := envelope.Meta.Code, envelope.Meta.Message

	if code == CloudCodeDeviceOffline {
		return nil, &DeviceOfflineError{CloudAPIError{Code: code, Message: message}}
	}

	if code == CloudCodeDeviceNetwork {
		// 已知的偶发云端异常，带附加请求头重试一次，避免无限重试
		config.Debug("云端返回2009，带附加请求头重试: %s", serial)
		envelope, err = s.doGet(ctx, url, s.headers(sessionID, true))
		if err != nil {
			return nil, err
		}
		code, message = envelope.Meta.Code, envelope.Meta.Message

		if code == CloudCodeDeviceNetwork {
			return nil, &DeviceNetworkError{CloudAPIError{Code: code, Message: message}}
		}
	}

	if code != CloudCodeOK {
		return nil, &CloudAPIError{Code: code, Message: message}
	}

	return parseCallStatusData(envelope.Data)
}

// parseCallStatusData 解析data字段并归一化状态和呼叫方信息
//
// data字段可能是JSON对象，也可能是JSON编码后的字符串，两种形式都要处理。
func parseCallStatusData(raw json.RawMessage) (*CallStatusResult, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, &CloudAPIError{Code: 0, Message: "响应中缺少data字段"}
	}

	payload := raw
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		payload = json.RawMessage(asString)
	}

	var data callStatusData
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("解析通话状态data字段失败: %w", err)
	}

	status, ok := CallStatusMapping[data.CallStatus]
	if !ok {
		status = models.CallStatusUnknown
		if data.CallStatus != 0 {
			config.Warning("未知的厂商通话状态码: %d", data.CallStatus)
		}
	}

	// 只保留厂商载荷中实际出现的字段，缺失字段不补默认值
	info := make(map[string]interface{})
	for inKey, outKey := range CallerInfoMapping {
		if value, present := data.CallerInfo[inKey]; present {
			info[outKey] = value
		}
	}

	return &CallStatusResult{
		Status: status,
		Info:   info,
	}, nil
}

// 2 GetDeviceConnectionInfos 获取云端设备目录中的连接信息（含局域网IP）
func (s *HikCloudService) GetDeviceConnectionInfos(ctx context.Context) (map[string]ConnectionInfo, error) {
	sessionID := s.SessionID()
	if sessionID == "" {
		return nil, newNotLoggedInError()
	}

	url := fmt.Sprintf("%s/v3/userdevices/v1/resources/pagelist", s.BaseURL)

	envelope, err := s.doGet(ctx, url, s.headers(sessionID, false))
	if err != nil {
		return nil, err
	}

	if envelope.Meta.Code != CloudCodeOK {
		return nil, &CloudAPIError{Code: envelope.Meta.Code, Message: envelope.Meta.Message}
	}

	if envelope.ConnectionInfos == nil {
		config.Debug("设备目录响应中没有connectionInfos字段")
		return map[string]ConnectionInfo{}, nil
	}

	return envelope.ConnectionInfos, nil
}
