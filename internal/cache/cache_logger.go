package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// BatchInvalidate invalidates multiple patterns in batch
func BatchInvalidate(ctx context.Context, helper *CacheHelper, patterns []string) error {
	var lastErr error
	for _, pattern := range patterns {
		if err := helper.InvalidatePattern(ctx, pattern); err != nil {
			lastErr = err
			slog.ErrorContext(ctx, "Failed to invalidate pattern in batch",
				"error", err,
				"pattern", pattern)
		}
	}
	return lastErr
}

// InvalidateExamCache drops the cached exam row and its statistics.
func InvalidateExamCache(ctx context.Context, cm *CacheManager, examID uint) {
	SafeDelete(ctx, cm.Fast, fmt.Sprintf("exam:id:%d", examID))
	SafeInvalidatePattern(ctx, cm.Stats, fmt.Sprintf("exam:%d:*", examID))
}

// InvalidatePaperCache drops the cached paper row and its question listing.
func InvalidatePaperCache(ctx context.Context, cm *CacheManager, paperID uint) {
	SafeDelete(ctx, cm.Fast,
		fmt.Sprintf("paper:id:%d", paperID),
		fmt.Sprintf("paper:%d:questions", paperID))
}
