package provider

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// 生成服务的重试策略是固定的：固定次数加固定间隔，不做指数退避。
const (
	maxAttempts  = 3
	retryBackoff = 2 * time.Second
)

// withRetry 以固定间隔重试 fn，上下文取消时立即返回。
func withRetry(ctx context.Context, operation string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		logrus.WithError(lastErr).WithFields(logrus.Fields{
			"operation": operation,
			"attempt":   attempt,
		}).Warn("provider call failed")
		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryBackoff):
		}
	}
	return lastErr
}
