package code

// HTTP状态码.
const (
	// StatusOK - 200: 成功.
	StatusOK = 200
	// StatusBadRequest - 400: 请求参数错误.
	StatusBadRequest = 400
	// StatusUnauthorized - 401: 未授权.
	StatusUnauthorized = 401
	// StatusForbidden - 403: 禁止访问.
	StatusForbidden = 403
	// StatusNotFound - 404: 资源不存在.
	StatusNotFound = 404
	// StatusConflict - 409: 状态冲突.
	StatusConflict = 409
	// StatusTooManyRequests - 429: 请求过多.
	StatusTooManyRequests = 429
	// StatusInternalServerError - 500: 服务器内部错误.
	StatusInternalServerError = 500
)

// 通用错误码 (100xxx).
const (
	// ErrSuccess - 200: 成功.
	ErrSuccess int = iota + 100000
	// ErrUnknown - 500: 未知错误.
	ErrUnknown
	// ErrBind - 400: 请求参数绑定错误.
	ErrBind
	// ErrValidation - 400: 请求参数验证错误.
	ErrValidation
	// ErrTokenInvalid - 401: 令牌无效.
	ErrTokenInvalid
	// ErrPermissionDenied - 403: 权限不足.
	ErrPermissionDenied
	// ErrTooManyRequests - 429: 请求频率过高.
	ErrTooManyRequests
)

// 用户相关错误码 (101xxx).
const (
	// ErrUserNotFound - 404: 用户不存在.
	ErrUserNotFound int = iota + 101000
	// ErrUserAlreadyExist - 400: 用户已存在.
	ErrUserAlreadyExist
	// ErrUserPasswordIncorrect - 401: 用户密码错误.
	ErrUserPasswordIncorrect
	// ErrVisitorNotFound - 404: 访客档案不存在.
	ErrVisitorNotFound
)

// 预约相关错误码 (102xxx).
const (
	// ErrAppointmentNotFound - 404: 预约不存在.
	ErrAppointmentNotFound int = iota + 102000
	// ErrAppointmentStateConflict - 409: 预约当前状态不允许该操作.
	ErrAppointmentStateConflict
	// ErrAppointmentCodeInvalid - 404: 预约码无效或已过期.
	ErrAppointmentCodeInvalid
)

// 来访相关错误码 (103xxx).
const (
	// ErrVisitNotFound - 404: 来访记录不存在.
	ErrVisitNotFound int = iota + 103000
	// ErrVisitStateConflict - 409: 来访当前状态不允许该操作.
	ErrVisitStateConflict
)

// 通知相关错误码 (104xxx).
const (
	// ErrNotificationFailed - 500: 通知发送失败.
	ErrNotificationFailed int = iota + 104000
)

// 数据库相关错误码 (105xxx).
const (
	// ErrDatabase - 500: 数据库错误.
	ErrDatabase int = iota + 105000
	// ErrRecordNotFound - 404: 记录不存在.
	ErrRecordNotFound
)
