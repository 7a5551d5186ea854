package services

import (
	"context"
	"strings"
)

func ensuredContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func normaliseKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
