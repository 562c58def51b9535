package code

// 错误码消息映射
var codeMessageMap = map[int]string{
	// 通用错误码
	ErrSuccess:      "成功",
	ErrUnknown:      "未知错误",
	ErrBind:         "请求参数绑定错误",
	ErrValidation:   "请求参数验证错误",
	ErrTokenInvalid: "无效的认证令牌",

	// 用户相关错误码
	ErrUserNotFound:          "用户不存在",
	ErrUserPasswordIncorrect: "用户密码错误",

	// 设备相关错误码
	ErrDeviceNotFound:     "设备不存在",
	ErrDeviceAlreadyExist: "设备已存在",

	// 通话状态相关错误码
	ErrCallStatusUnavailable: "通话状态暂不可用",
	ErrSnapshotUnavailable:   "无法获取设备快照",

	// 云端API相关错误码
	ErrCloudNotLoggedIn:   "未登录云端服务，缺少会话ID",
	ErrCloudDeviceOffline: "设备当前离线",
	ErrCloudDeviceNetwork: "设备网络异常",
	ErrCloudGeneric:       "云端API返回错误",
	ErrCloudTimeout:       "云端API请求超时",

	// 数据库相关错误码
	ErrDatabase:       "数据库错误",
	ErrRecordNotFound: "记录不存在",
}

// 错误码HTTP状态码映射
var codeStatusMap = map[int]int{
	// 通用错误码
	ErrSuccess:      StatusOK,
	ErrUnknown:      StatusInternalServerError,
	ErrBind:         StatusBadRequest,
	ErrValidation:   StatusBadRequest,
	ErrTokenInvalid: StatusUnauthorized,

	// 用户相关错误码
	ErrUserNotFound:          StatusNotFound,
	ErrUserPasswordIncorrect: StatusUnauthorized,

	// 设备相关错误码
	ErrDeviceNotFound:     StatusNotFound,
	ErrDeviceAlreadyExist: StatusBadRequest,

	// 通话状态相关错误码
	ErrCallStatusUnavailable: StatusBadGateway,
	ErrSnapshotUnavailable:   StatusBadGateway,

	// 云端API相关错误码
	ErrCloudNotLoggedIn:   StatusUnauthorized,
	ErrCloudDeviceOffline: StatusBadGateway,
	ErrCloudDeviceNetwork: StatusBadGateway,
	ErrCloudGeneric:       StatusBadGateway,
	ErrCloudTimeout:       StatusGatewayTimeout,

	// 数据库相关错误码
	ErrDatabase:       StatusInternalServerError,
	ErrRecordNotFound: StatusNotFound,
}

// GetMessage 获取错误码对应的消息
func GetMessage(code int) string {
	if msg, ok := codeMessageMap[code]; ok {
		return msg
	}
	return "未知错误"
}

// GetStatus 获取错误码对应的HTTP状态码
func GetStatus(code int) int {
	if status, ok := codeStatusMap[code]; ok {
		return status
	}
	return StatusInternalServerError
}
