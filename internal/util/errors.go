package util

import (
	"errors"
	"fmt"
)

// 错误分类：NotFound / InvalidInput，其余一律视为内部错误
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

var (
	ErrUserNotFound         = fmt.Errorf("user %w", ErrNotFound)
	ErrMissionNotFound      = fmt.Errorf("mission %w", ErrNotFound)
	ErrAttemptNotFound      = fmt.Errorf("attempt %w", ErrNotFound)
	ErrContentItemNotFound  = fmt.Errorf("content item %w", ErrNotFound)
	ErrReasoningLogNotFound = fmt.Errorf("reasoning log %w", ErrNotFound)
	ErrSkillNotFound        = fmt.Errorf("skill %w", ErrNotFound)

	ErrInvalidStatus      = fmt.Errorf("%w: unknown attempt status", ErrInvalidInput)
	ErrInvalidSolution    = fmt.Errorf("%w: solution must be an integer", ErrInvalidInput)
	ErrInvalidContentType = fmt.Errorf("%w: unknown content type", ErrInvalidInput)
	ErrInvalidOperation   = fmt.Errorf("%w: unknown operation type", ErrInvalidInput)
	ErrInvalidImageExt    = fmt.Errorf("%w: unsupported image extension", ErrInvalidInput)

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPermissionDenied   = errors.New("permission denied")
)

// InvalidInput 构造带上下文的参数错误
func InvalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
