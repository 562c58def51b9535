package services

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"hikbridge-http-service/config"
	"hikbridge-http-service/models"
)

// 主题常量
const (
	// 通话状态主题，按设备序列号区分，retained消息
	TopicCallStatus = "intercom/status"

	// 门铃响铃事件主题
	TopicRinging = "intercom/ringing"

	// 系统消息主题
	TopicSystemMessage = "intercom/system"
)

// 消息结构体定义
type (
	// CallStatusMessage 通话状态变更消息
	CallStatusMessage struct {
		Serial         string                 `json:"serial"`
		DeviceName     string                 `json:"device_name"`
		Status         models.CallStatus      `json:"status"`
		PreviousStatus models.CallStatus      `json:"previous_status"`
		CallerInfo     map[string]interface{} `json:"caller_info,omitempty"`
		Timestamp      int64                  `json:"timestamp"`
	}

	// SystemMessage 系统消息
	SystemMessage struct {
		Type      string      `json:"type"`
		Level     string      `json:"level"` // info/warning/error
		Message   string      `json:"message"`
		Data      interface{} `json:"data,omitempty"`
		Timestamp int64       `json:"timestamp"`
	}
)

// InterfaceMQTTService 定义MQTT发布服务接口
type InterfaceMQTTService interface {
	Connect() error
	Disconnect()
	PublishCallStatus(msg *CallStatusMessage) error
	PublishRinging(msg *CallStatusMessage) error
	PublishSystemMessage(messageType, level, message string, data interface{}) error
}

// MQTTService 向消息总线发布通话状态和门铃事件
type MQTTService struct {
	Config         *config.Config
	Client         mqtt.Client
	IsConnected    bool
	connectedMutex sync.RWMutex // 保护IsConnected字段的读写
	PublishMutex   sync.Mutex   // 用于保护MQTT消息发布
}

// NewMQTTService 创建一个新的MQTT发布服务
func NewMQTTService(cfg *config.Config) InterfaceMQTTService {
	service := &MQTTService{
		Config:      cfg,
		IsConnected: false,
	}

	// 设置MQTT客户端
	service.setupMQTTClient()

	return service
}

// setupMQTTClient 设置MQTT客户端
func (s *MQTTService) setupMQTTClient() {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(s.Config.MQTTBroker)
	// 使用唯一的客户端ID，避免同一服务多实例冲突
	opts.SetClientID(fmt.Sprintf("hikbridge-%s-%d", uuid.New().String()[:8], time.Now().UnixNano()))
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(time.Second * 30)
	opts.SetKeepAlive(time.Second * 60)
	opts.SetPingTimeout(time.Second * 10)
	opts.SetCleanSession(true)

	// 添加用户名和密码
	if s.Config.MQTTUsername != "" {
		opts.SetUsername(s.Config.MQTTUsername)
		opts.SetPassword(s.Config.MQTTPassword)
	}

	// 设置连接丢失回调
	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		log.Printf("[MQTT] 连接丢失: %v", err)
		s.connectedMutex.Lock()
		s.IsConnected = false
		s.connectedMutex.Unlock()
	})

	// 设置连接建立回调
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		log.Println("[MQTT] 成功连接到", s.Config.MQTTBroker)
		s.connectedMutex.Lock()
		s.IsConnected = true
		s.connectedMutex.Unlock()
	})

	// 创建客户端
	s.Client = mqtt.NewClient(opts)
}

// Connect 连接到MQTT代理
func (s *MQTTService) Connect() error {
	token := s.Client.Connect()
	if token.WaitTimeout(10*time.Second) && token.Error() != nil {
		return fmt.Errorf("连接MQTT代理失败: %w", token.Error())
	}
	return nil
}

// Disconnect 断开MQTT连接
func (s *MQTTService) Disconnect() {
	if s.Client != nil && s.Client.IsConnected() {
		s.Client.Disconnect(250)
	}

	s.connectedMutex.Lock()
	s.IsConnected = false
	s.connectedMutex.Unlock()
}

// publishMessage 序列化并发布一条消息
func (s *MQTTService) publishMessage(topic string, payload interface{}, retained bool) error {
	s.PublishMutex.Lock()
	defer s.PublishMutex.Unlock()

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化MQTT消息失败: %w", err)
	}

	token := s.Client.Publish(topic, 1, retained, data)
	if token.WaitTimeout(5*time.Second) && token.Error() != nil {
		return fmt.Errorf("发布MQTT消息失败: %w", token.Error())
	}

	return nil
}

// 1 PublishCallStatus 发布设备通话状态变更（retained，订阅方随时能拿到最新状态）
func (s *MQTTService) PublishCallStatus(msg *CallStatusMessage) error {
	topic := fmt.Sprintf("%s/%s", TopicCallStatus, msg.Serial)
	return s.publishMessage(topic, msg, true)
}

// 2 PublishRinging 发布门铃响铃事件（非retained，只通知在线订阅方）
func (s *MQTTService) PublishRinging(msg *CallStatusMessage) error {
	topic := fmt.Sprintf("%s/%s", TopicRinging, msg.Serial)
	return s.publishMessage(topic, msg, false)
}

// 3 PublishSystemMessage 发布系统消息
func (s *MQTTService) PublishSystemMessage(messageType, level, message string, data interface{}) error {
	systemMsg := SystemMessage{
		Type:      messageType,
		Level:     level,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	}

	return s.publishMessage(TopicSystemMessage, systemMsg, false)
}
