package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"hikbridge-http-service/config"
	"hikbridge-http-service/models"
)

// fakeFetcher 按预设序列返回结果或错误
type fakeFetcher struct {
	mu      sync.Mutex
	results []fetchOutcome
	index   int
}

type fetchOutcome struct {
	result *CallStatusResult
	err    error
}

func (f *fakeFetcher) FetchCallStatus(ctx context.Context, device *models.IntercomDevice) (*CallStatusResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	outcome := f.results[f.index]
	if f.index < len(f.results)-1 {
		f.index++
	}
	return outcome.result, outcome.err
}

// fakeMQTT 记录发布的消息
type fakeMQTT struct {
	mu       sync.Mutex
	statuses []*CallStatusMessage
	ringing  []*CallStatusMessage
}

func (f *fakeMQTT) Connect() error { return nil }
func (f *fakeMQTT) Disconnect()    {}

func (f *fakeMQTT) PublishCallStatus(msg *CallStatusMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, msg)
	return nil
}

func (f *fakeMQTT) PublishRinging(msg *CallStatusMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ringing = append(f.ringing, msg)
	return nil
}

func (f *fakeMQTT) PublishSystemMessage(messageType, level, message string, data interface{}) error {
	return nil
}

func newTestPoller(fetcher InterfaceCallStatusService, mqttService InterfaceMQTTService) *PollerService {
	cfg := &config.Config{
		PollInterval: 50 * time.Millisecond,
		PollTimeout:  45 * time.Millisecond,
	}
	return NewPollerService(nil, cfg, fetcher, mqttService, nil).(*PollerService)
}

// TestPollDeviceStatusChange 验证状态变更时发布状态消息，转为响铃时额外发布响铃事件
func TestPollDeviceStatusChange(t *testing.T) {
	fetcher := &fakeFetcher{results: []fetchOutcome{
		{result: &CallStatusResult{Status: models.CallStatusIdle, Info: map[string]interface{}{}}},
		{result: &CallStatusResult{Status: models.CallStatusRinging, Info: map[string]interface{}{}}},
	}}
	mqttService := &fakeMQTT{}
	s := newTestPoller(fetcher, mqttService)

	device := &models.IntercomDevice{BaseModel: models.BaseModel{ID: 1}, SerialNumber: "TESTSERIAL", Name: "测试设备"}

	s.PollDevice(context.Background(), device)
	s.PollDevice(context.Background(), device)

	if len(mqttService.statuses) != 2 {
		t.Fatalf("期望发布2条状态消息，实际%d条", len(mqttService.statuses))
	}
	if mqttService.statuses[1].Status != models.CallStatusRinging {
		t.Errorf("期望第二条消息为ringing，得到%q", mqttService.statuses[1].Status)
	}
	if mqttService.statuses[1].PreviousStatus != models.CallStatusIdle {
		t.Errorf("期望前一状态为idle，得到%q", mqttService.statuses[1].PreviousStatus)
	}
	if len(mqttService.ringing) != 1 {
		t.Errorf("期望发布1条响铃事件，实际%d条", len(mqttService.ringing))
	}
}

// TestPollDeviceNoChangeNoPublish 验证状态未变化时不重复发布
func TestPollDeviceNoChangeNoPublish(t *testing.T) {
	fetcher := &fakeFetcher{results: []fetchOutcome{
		{result: &CallStatusResult{Status: models.CallStatusIdle, Info: map[string]interface{}{}}},
	}}
	mqttService := &fakeMQTT{}
	s := newTestPoller(fetcher, mqttService)

	device := &models.IntercomDevice{BaseModel: models.BaseModel{ID: 1}, SerialNumber: "TESTSERIAL"}

	s.PollDevice(context.Background(), device)
	s.PollDevice(context.Background(), device)
	s.PollDevice(context.Background(), device)

	if len(mqttService.statuses) != 1 {
		t.Errorf("状态未变化时只应发布1条消息，实际%d条", len(mqttService.statuses))
	}
}

// TestPollDeviceErrorSuppression 验证相同的连续错误只记录一次，恢复后清除
func TestPollDeviceErrorSuppression(t *testing.T) {
	pollErr := &DeviceNetworkError{CloudAPIError{Code: 2009, Message: "network abnormal"}}
	fetcher := &fakeFetcher{results: []fetchOutcome{
		{err: pollErr},
		{err: pollErr},
		{result: &CallStatusResult{Status: models.CallStatusIdle, Info: map[string]interface{}{}}},
	}}
	s := newTestPoller(fetcher, &fakeMQTT{})

	device := &models.IntercomDevice{BaseModel: models.BaseModel{ID: 1}, SerialNumber: "TESTSERIAL"}

	s.PollDevice(context.Background(), device)
	s.mu.Lock()
	recorded := s.lastError[device.ID]
	s.mu.Unlock()
	if recorded != pollErr.Error() {
		t.Fatalf("期望记录错误文本%q，得到%q", pollErr.Error(), recorded)
	}

	// 第二次同样的错误仍被记录（内容不变即视为已抑制）
	s.PollDevice(context.Background(), device)
	s.mu.Lock()
	recorded = s.lastError[device.ID]
	s.mu.Unlock()
	if recorded != pollErr.Error() {
		t.Fatalf("重复错误后记录应保持不变，得到%q", recorded)
	}

	// 恢复成功后错误记录被清除
	s.PollDevice(context.Background(), device)
	s.mu.Lock()
	_, exists := s.lastError[device.ID]
	s.mu.Unlock()
	if exists {
		t.Error("轮询成功后应清除错误记录")
	}
}

// TestPollDeviceFirstObservationPublishes 验证首次观测即发布状态消息
func TestPollDeviceFirstObservationPublishes(t *testing.T) {
	fetcher := &fakeFetcher{results: []fetchOutcome{
		{result: &CallStatusResult{Status: models.CallStatusRinging, Info: map[string]interface{}{}}},
	}}
	mqttService := &fakeMQTT{}
	s := newTestPoller(fetcher, mqttService)

	device := &models.IntercomDevice{BaseModel: models.BaseModel{ID: 1}, SerialNumber: "TESTSERIAL"}
	s.PollDevice(context.Background(), device)

	if len(mqttService.statuses) != 1 {
		t.Fatalf("首次观测应发布状态消息，实际%d条", len(mqttService.statuses))
	}
	if mqttService.statuses[0].PreviousStatus != "" {
		t.Errorf("首次观测的前一状态应为空，得到%q", mqttService.statuses[0].PreviousStatus)
	}
	if len(mqttService.ringing) != 1 {
		t.Errorf("首次观测为ringing时应发布响铃事件，实际%d条", len(mqttService.ringing))
	}
}

// TestPollerStartStop 验证启动停止的幂等性
func TestPollerStartStop(t *testing.T) {
	fetcher := &fakeFetcher{results: []fetchOutcome{
		{result: &CallStatusResult{Status: models.CallStatusIdle, Info: map[string]interface{}{}}},
	}}
	s := newTestPoller(fetcher, &fakeMQTT{})

	if err := s.Start(); err != nil {
		t.Fatalf("启动失败: %v", err)
	}
	if err := s.Start(); err == nil {
		t.Error("重复启动应返回错误")
	}

	s.Stop()
	s.Stop() // 重复停止应无害

	if err := s.Start(); err != nil {
		t.Fatalf("停止后重新启动失败: %v", err)
	}
	s.Stop()
}
