package services

import (
	"context"
	"fmt"
	"time"

	"github.com/selfdrive/rentals/utils"
)

type OrderCounter interface {
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)
}

// GenerateBookingID returns prefix + epoch millis + the 1-based count of orders
// created since local midnight, padded to two digits. The count is a freshness
// hint, not a sequence: it is read without a lock, so uniqueness rests on the
// millisecond component.
func GenerateBookingID(ctx context.Context, counter OrderCounter, prefix string, now time.Time) (string, error) {
	count, err := counter.CountCreatedSince(ctx, utils.StartOfDay(now))
	if err != nil {
		return "", fmt.Errorf("count today's orders: %w", err)
	}
	return fmt.Sprintf("%s%d%02d", prefix, now.UnixMilli(), count+1), nil
}
