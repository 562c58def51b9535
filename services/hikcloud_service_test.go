package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"hikbridge-http-service/config"
	"hikbridge-http-service/models"
)

// newTestCloudService 构造指向测试服务器的云端API服务
func newTestCloudService(serverURL, sessionID string) *HikCloudService {
	return &HikCloudService{
		BaseURL: serverURL,
		Config: &config.Config{
			CloudClientType: "55",
			CloudLanguage:   "en-US",
		},
		Client:      http.DefaultClient,
		featureCode: "deadbeef",
		sessionID:   sessionID,
	}
}

// cloudResponse 构造云端API的统一响应信封
func cloudResponse(code int, message string, data interface{}) []byte {
	body := map[string]interface{}{
		"meta": map[string]interface{}{"code": code, "message": message},
	}
	if data != nil {
		body["data"] = data
	}
	out, _ := json.Marshal(body)
	return out
}

// TestGetCallStatusMapping 验证厂商状态码1/2/3映射到idle/ringing/call in progress，其他值映射到unknown
func TestGetCallStatusMapping(t *testing.T) {
	cases := []struct {
		vendorCode int
		want       models.CallStatus
	}{
		{1, models.CallStatusIdle},
		{2, models.CallStatusRinging},
		{3, models.CallStatusOngoing},
		{0, models.CallStatusUnknown},
		{4, models.CallStatusUnknown},
		{99, models.CallStatusUnknown},
	}

	for _, tc := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write(cloudResponse(200, "ok", map[string]interface{}{
				"callStatus": tc.vendorCode,
			}))
		}))

		s := newTestCloudService(server.URL, "test-session")
		result, err := s.GetCallStatus(context.Background(), "TESTSERIAL")
		server.Close()

		if err != nil {
			t.Fatalf("状态码%d: 期望成功，得到错误: %v", tc.vendorCode, err)
		}
		if result.Status != tc.want {
			t.Errorf("状态码%d: 期望%q，得到%q", tc.vendorCode, tc.want, result.Status)
		}
	}
}

// TestGetCallStatusCallerInfo 验证呼叫方字段按固定表重命名，缺失字段不出现在输出中
func TestGetCallStatusCallerInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(cloudResponse(200, "ok", map[string]interface{}{
			"callStatus": 2,
			"callerInfo": map[string]interface{}{
				"buildingNo": 1,
				"floorNo":    3,
				"unitNo":     2,
				"extraField": "ignored",
			},
		}))
	}))
	defer server.Close()

	s := newTestCloudService(server.URL, "test-session")
	result, err := s.GetCallStatus(context.Background(), "TESTSERIAL")
	if err != nil {
		t.Fatalf("期望成功，得到错误: %v", err)
	}

	want := map[string]float64{
		"building_number": 1,
		"floor_number":    3,
		"unit_number":     2,
	}
	if len(result.Info) != len(want) {
		t.Fatalf("期望%d个字段，得到%d个: %v", len(want), len(result.Info), result.Info)
	}
	for key, value := range want {
		got, ok := result.Info[key].(float64)
		if !ok || got != value {
			t.Errorf("字段%s: 期望%v，得到%v", key, value, result.Info[key])
		}
	}
	// 未在重命名表中的字段和缺失字段都不应出现
	for _, absent := range []string{"extraField", "zone_number", "device_number", "device_type", "lock_number"} {
		if _, ok := result.Info[absent]; ok {
			t.Errorf("字段%s不应出现在输出中", absent)
		}
	}
}

// TestGetCallStatusDataAsString 验证data字段为JSON编码字符串时也能解析
func TestGetCallStatusDataAsString(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(cloudResponse(200, "ok", `{"callStatus":2,"callerInfo":{"devType":"indoor"}}`))
	}))
	defer server.Close()

	s := newTestCloudService(server.URL, "test-session")
	result, err := s.GetCallStatus(context.Background(), "TESTSERIAL")
	if err != nil {
		t.Fatalf("期望成功，得到错误: %v", err)
	}
	if result.Status != models.CallStatusRinging {
		t.Errorf("期望ringing，得到%q", result.Status)
	}
	if result.Info["device_type"] != "indoor" {
		t.Errorf("期望device_type=indoor，得到%v", result.Info["device_type"])
	}
}

// TestGetCallStatusDeviceOffline 验证错误码2003直接返回设备离线错误，不发起第二次请求
func TestGetCallStatusDeviceOffline(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.Write(cloudResponse(2003, "device offline", nil))
	}))
	defer server.Close()

	s := newTestCloudService(server.URL, "test-session")
	_, err := s.GetCallStatus(context.Background(), "TESTSERIAL")

	var offlineErr *DeviceOfflineError
	if !errors.As(err, &offlineErr) {
		t.Fatalf("期望DeviceOfflineError，得到: %v", err)
	}
	if offlineErr.Code != 2003 {
		t.Errorf("期望错误码2003，得到%d", offlineErr.Code)
	}
	if n := atomic.LoadInt32(&requests); n != 1 {
		t.Errorf("期望只请求1次，实际请求%d次", n)
	}
}

// TestGetCallStatusNetworkRetrySucceeds 验证错误码2009触发带附加请求头的单次重试，重试成功则返回结果
func TestGetCallStatusNetworkRetrySucceeds(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&requests, 1)
		if n == 1 {
			if r.Header.Get("User-Agent") == "Hik-Connect/5.0.0 (Android)" {
				t.Error("第一次请求不应携带附加请求头")
			}
			w.Write(cloudResponse(2009, "device network abnormal", nil))
			return
		}
		// 重试请求必须携带附加的User-Agent和时间戳请求头
		if r.Header.Get("User-Agent") != "Hik-Connect/5.0.0 (Android)" {
			t.Error("重试请求缺少User-Agent请求头")
		}
		if r.Header.Get("X-Timestamp") == "" {
			t.Error("重试请求缺少X-Timestamp请求头")
		}
		w.Write(cloudResponse(200, "ok", map[string]interface{}{"callStatus": 1}))
	}))
	defer server.Close()

	s := newTestCloudService(server.URL, "test-session")
	result, err := s.GetCallStatus(context.Background(), "TESTSERIAL")
	if err != nil {
		t.Fatalf("期望重试成功，得到错误: %v", err)
	}
	if result.Status != models.CallStatusIdle {
		t.Errorf("期望idle，得到%q", result.Status)
	}
	if n := atomic.LoadInt32(&requests); n != 2 {
		t.Errorf("期望请求2次，实际请求%d次", n)
	}
}

// TestGetCallStatusNetworkRetryFails 验证重试仍返回2009时返回设备网络异常错误，且只重试一次
func TestGetCallStatusNetworkRetryFails(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.Write(cloudResponse(2009, "device network abnormal", nil))
	}))
	defer server.Close()

	s := newTestCloudService(server.URL, "test-session")
	_, err := s.GetCallStatus(context.Background(), "TESTSERIAL")

	var networkErr *DeviceNetworkError
	if !errors.As(err, &networkErr) {
		t.Fatalf("期望DeviceNetworkError，得到: %v", err)
	}
	if networkErr.Code != 2009 {
		t.Errorf("期望错误码2009，得到%d", networkErr.Code)
	}
	if n := atomic.LoadInt32(&requests); n != 2 {
		t.Errorf("期望请求2次（重试恰好一次），实际请求%d次", n)
	}
}

// TestGetCallStatusGenericError 验证其他非200错误码返回携带该码的通用错误
func TestGetCallStatusGenericError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(cloudResponse(5000, "internal error", nil))
	}))
	defer server.Close()

	s := newTestCloudService(server.URL, "test-session")
	_, err := s.GetCallStatus(context.Background(), "TESTSERIAL")

	var apiErr *CloudAPIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("期望CloudAPIError，得到: %v", err)
	}
	if apiErr.Code != 5000 || apiErr.Message != "internal error" {
		t.Errorf("期望错误码5000/internal error，得到%d/%s", apiErr.Code, apiErr.Message)
	}

	// 通用错误不应被误判为离线或网络异常
	var offlineErr *DeviceOfflineError
	var networkErr *DeviceNetworkError
	if errors.As(err, &offlineErr) || errors.As(err, &networkErr) {
		t.Error("通用错误不应匹配离线或网络异常错误类型")
	}
}

// TestGetCallStatusNoSession 验证缺少会话ID时立即失败，不发起任何网络请求
func TestGetCallStatusNoSession(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
	}))
	defer server.Close()

	s := newTestCloudService(server.URL, "")
	_, err := s.GetCallStatus(context.Background(), "TESTSERIAL")

	var notLoggedInErr *NotLoggedInError
	if !errors.As(err, &notLoggedInErr) {
		t.Fatalf("期望NotLoggedInError，得到: %v", err)
	}
	if n := atomic.LoadInt32(&requests); n != 0 {
		t.Errorf("缺少会话ID时不应发起网络请求，实际请求%d次", n)
	}
}

// TestGetCallStatusMissingData 验证200但缺少data字段时返回通用错误而不是未登录错误
func TestGetCallStatusMissingData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(cloudResponse(200, "ok", nil))
	}))
	defer server.Close()

	s := newTestCloudService(server.URL, "test-session")
	_, err := s.GetCallStatus(context.Background(), "TESTSERIAL")

	var apiErr *CloudAPIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("期望CloudAPIError，得到: %v", err)
	}

	var notLoggedInErr *NotLoggedInError
	if errors.As(err, &notLoggedInErr) {
		t.Error("缺少data字段的响应不应被判定为未登录")
	}
}

// TestGetCallStatusRequestHeaders 验证标准请求头的内容
func TestGetCallStatusRequestHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for header, want := range map[string]string{
			"clientType":   "55",
			"lang":         "en-US",
			"featureCode":  "deadbeef",
			"sessionId":    "test-session",
			"Content-Type": "application/json",
			"Accept":       "application/json",
		} {
			if got := r.Header.Get(header); got != want {
				t.Errorf("请求头%s: 期望%q，得到%q", header, want, got)
			}
		}
		w.Write(cloudResponse(200, "ok", map[string]interface{}{"callStatus": 1}))
	}))
	defer server.Close()

	s := newTestCloudService(server.URL, "test-session")
	if _, err := s.GetCallStatus(context.Background(), "TESTSERIAL"); err != nil {
		t.Fatalf("期望成功，得到错误: %v", err)
	}
}

// TestGetDeviceConnectionInfos 验证设备目录接口解析connectionInfos字段
func TestGetDeviceConnectionInfos(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/userdevices/v1/resources/pagelist" {
			t.Errorf("意外的请求路径: %s", r.URL.Path)
		}
		fmt.Fprint(w, `{
			"meta": {"code": 200, "message": "ok"},
			"connectionInfos": {
				"SERIAL1": {"localIp": "192.168.1.64", "netType": 1, "localPort": 80}
			}
		}`)
	}))
	defer server.Close()

	s := newTestCloudService(server.URL, "test-session")
	infos, err := s.GetDeviceConnectionInfos(context.Background())
	if err != nil {
		t.Fatalf("期望成功，得到错误: %v", err)
	}
	info, ok := infos["SERIAL1"]
	if !ok {
		t.Fatal("期望包含SERIAL1的连接信息")
	}
	if info.LocalIP != "192.168.1.64" {
		t.Errorf("期望localIp=192.168.1.64，得到%s", info.LocalIP)
	}
}

// TestGetDeviceConnectionInfosMissing 验证响应中没有connectionInfos时返回空映射而不是错误
func TestGetDeviceConnectionInfosMissing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(cloudResponse(200, "ok", nil))
	}))
	defer server.Close()

	s := newTestCloudService(server.URL, "test-session")
	infos, err := s.GetDeviceConnectionInfos(context.Background())
	if err != nil {
		t.Fatalf("期望成功，得到错误: %v", err)
	}
	if len(infos) != 0 {
		t.Errorf("期望空映射，得到%v", infos)
	}
}
