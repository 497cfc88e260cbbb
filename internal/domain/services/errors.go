package services

import "errors"

// 服务层错误基类。控制器用 errors.Is 将其映射到错误码包。
// 生命周期引擎从不在本地消化这些错误，原样上抛给调用方。
var (
	// ErrForbidden 角色或归属校验失败
	ErrForbidden = errors.New("权限不足")
	// ErrNotFound 引用的实体不存在
	ErrNotFound = errors.New("记录不存在")
	// ErrConflict 非法状态流转或重复操作
	ErrConflict = errors.New("状态冲突")
	// ErrValidation 请求缺少必要字段或字段非法
	ErrValidation = errors.New("参数校验失败")
)
