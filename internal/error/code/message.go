package code

// 错误码消息映射
var codeMessageMap = map[int]string{
	// 通用错误码
	ErrSuccess:          "成功",
	ErrUnknown:          "未知错误",
	ErrBind:             "请求参数绑定错误",
	ErrValidation:       "请求参数验证错误",
	ErrTokenInvalid:     "无效的认证令牌",
	ErrPermissionDenied: "权限不足",
	ErrTooManyRequests:  "请求频率过高",

	// 用户相关错误码
	ErrUserNotFound:          "用户不存在",
	ErrUserAlreadyExist:      "用户已存在",
	ErrUserPasswordIncorrect: "用户密码错误",
	ErrVisitorNotFound:       "访客档案不存在",

	// 预约相关错误码
	ErrAppointmentNotFound:      "预约不存在",
	ErrAppointmentStateConflict: "预约当前状态不允许该操作",
	ErrAppointmentCodeInvalid:   "预约码无效或已过期",

	// 来访相关错误码
	ErrVisitNotFound:      "来访记录不存在",
	ErrVisitStateConflict: "来访当前状态不允许该操作",

	// 通知相关错误码
	ErrNotificationFailed: "通知发送失败",

	// 数据库相关错误码
	ErrDatabase:       "数据库错误",
	ErrRecordNotFound: "记录不存在",
}

// 错误码HTTP状态码映射
var codeStatusMap = map[int]int{
	// 通用错误码
	ErrSuccess:          StatusOK,
	ErrUnknown:          StatusInternalServerError,
	ErrBind:             StatusBadRequest,
	ErrValidation:       StatusBadRequest,
	ErrTokenInvalid:     StatusUnauthorized,
	ErrPermissionDenied: StatusForbidden,
	ErrTooManyRequests:  StatusTooManyRequests,

	// 用户相关错误码
	ErrUserNotFound:          StatusNotFound,
	ErrUserAlreadyExist:      StatusBadRequest,
	ErrUserPasswordIncorrect: StatusUnauthorized,
	ErrVisitorNotFound:       StatusNotFound,

	// 预约相关错误码
	ErrAppointmentNotFound:      StatusNotFound,
	ErrAppointmentStateConflict: StatusConflict,
	ErrAppointmentCodeInvalid:   StatusNotFound,

	// 来访相关错误码
	ErrVisitNotFound:      StatusNotFound,
	ErrVisitStateConflict: StatusConflict,

	// 通知相关错误码
	ErrNotificationFailed: StatusInternalServerError,

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
