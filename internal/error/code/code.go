package code

import "net/http"

// HTTP状态码别名，避免控制器直接依赖net/http
const (
	StatusOK                  = http.StatusOK
	StatusBadRequest          = http.StatusBadRequest
	StatusUnauthorized        = http.StatusUnauthorized
	StatusForbidden           = http.StatusForbidden
	StatusNotFound            = http.StatusNotFound
	StatusBadGateway          = http.StatusBadGateway
	StatusGatewayTimeout      = http.StatusGatewayTimeout
	StatusInternalServerError = http.StatusInternalServerError
)

// 业务错误码定义
const (
	// 通用错误码 (100xx)
	ErrSuccess      = 0
	ErrUnknown      = 10001
	ErrBind         = 10002
	ErrValidation   = 10003
	ErrTokenInvalid = 10004

	// 用户相关错误码 (101xx)
	ErrUserNotFound          = 10101
	ErrUserPasswordIncorrect = 10102

	// 设备相关错误码 (102xx)
	ErrDeviceNotFound     = 10201
	ErrDeviceAlreadyExist = 10202

	// 通话状态相关错误码 (103xx)
	ErrCallStatusUnavailable = 10301
	ErrSnapshotUnavailable   = 10302

	// 云端API相关错误码 (104xx)
	ErrCloudNotLoggedIn   = 10401
	ErrCloudDeviceOffline = 10402 // 厂商错误码2003
	ErrCloudDeviceNetwork = 10403 // 厂商错误码2009
	ErrCloudGeneric       = 10404
	ErrCloudTimeout       = 10405

	// 数据库相关错误码 (105xx)
	ErrDatabase       = 10501
	ErrRecordNotFound = 10502
)
