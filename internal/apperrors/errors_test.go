package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_MessageAndCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewGeneration("生成请求失败", cause)

	assert.Equal(t, "生成请求失败: connection refused", err.Error())
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestAppError_NoCause(t *testing.T) {
	err := NewNotFound("项目不存在")
	assert.Equal(t, "项目不存在", err.Error())
	assert.Nil(t, errors.Unwrap(err))
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsNotFound(NewNotFound("x")))
	assert.True(t, IsAlreadyExists(NewAlreadyExists("x")))
	assert.True(t, IsOutOfOrder(NewOutOfOrder("x")))
	assert.True(t, IsInvalidStructure(NewInvalidStructure("x")))
	assert.True(t, IsGeneration(NewGeneration("x", nil)))
	assert.True(t, IsUnsupportedFormat(NewUnsupportedFormat("x")))

	assert.False(t, IsNotFound(NewOutOfOrder("x")))
	assert.False(t, IsNotFound(errors.New("plain")))
}

func TestPredicates_WrappedError(t *testing.T) {
	wrapped := fmt.Errorf("上层包装: %w", NewOutOfOrder("阶段顺序错误"))
	assert.True(t, IsOutOfOrder(wrapped))
	assert.Equal(t, ErrorTypeOutOfOrder, TypeOf(wrapped))
}

func TestTypeOf_NonAppError(t *testing.T) {
	assert.Equal(t, ErrorType(""), TypeOf(errors.New("plain")))
}
