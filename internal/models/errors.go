package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNoInternet 连通性检查耗尽重试次数,整个运行必须中止
	ErrNoInternet = errors.New("网络不可用")

	// ErrNoCards 主选择器与备用选择器都没有匹配到房源卡片
	ErrNoCards = errors.New("未找到房源卡片")

	// ErrRegionNavigate 打开地区搜索页失败
	ErrRegionNavigate = errors.New("地区页面导航失败")
)

// ValidationError 参数验证错误
type ValidationError struct {
	// Field 出错的字段
	Field string

	// Value 原始值
	Value string

	// Reason 错误原因
	Reason string

	// Suggestion 修复建议 (可选)
	Suggestion string
}

// Error 实现error接口
func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("参数验证失败 [%s=%q]: %s", e.Field, e.Value, e.Reason)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (建议: %s)", e.Suggestion)
	}
	return msg
}

// ConfigError 配置文件错误
type ConfigError struct {
	// FilePath 配置文件路径
	FilePath string

	// Cause 底层错误 (如viper.ConfigParseError)
	Cause error
}

// Error 实现error接口
func (e *ConfigError) Error() string {
	return fmt.Sprintf("配置文件错误 [%s]: %v", e.FilePath, e.Cause)
}

// Unwrap 支持errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Cause
}
