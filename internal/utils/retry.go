package utils

import (
	"context"
	"fmt"
	"time"
)

// RetryConfig 指数退避重试参数
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration

	// Sleep 可替换的休眠函数,测试中注入
	Sleep func(ctx context.Context, d time.Duration) error
}

// Do 执行fn,失败后按指数退避重试
func (r *RetryConfig) Do(ctx context.Context, operation string, fn func() error) error {
	attempts := r.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := r.Sleep
	if sleep == nil {
		sleep = SleepContext
	}

	var lastErr error
	delay := r.BaseDelay

	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if attempt < attempts {
			Warnf("⚠️  %s 失败 (第 %d/%d 次): %v, %v 后重试",
				operation, attempt, attempts, lastErr, delay)
			if err := sleep(ctx, delay); err != nil {
				return fmt.Errorf("%s 重试被中断: %w", operation, lastErr)
			}
			delay *= 2
		}
	}

	return fmt.Errorf("%s 在 %d 次尝试后仍失败: %w", operation, attempts, lastErr)
}
