package jobs

import (
	"context"
	"time"

	"github.com/selfdrive/rentals/models"
	"github.com/selfdrive/rentals/notifications"
	"go.uber.org/zap"
)

const (
	ReminderLead   = 60 * time.Minute
	ReminderWindow = 5 * time.Minute
)

type UpcomingTrips interface {
	FindTripsStartingBetween(ctx context.Context, status models.OrderStatus, from, to time.Time) ([]models.Order, error)
}

type CustomerNotifier interface {
	NotifyCustomer(order models.Order, slug notifications.Slug)
}

// TripReminderJob emails customers whose approved trip starts in about an hour.
// It runs every ReminderWindow, so each trip falls into exactly one window.
type TripReminderJob struct {
	Orders   UpcomingTrips
	Notifier CustomerNotifier
	Log      *zap.Logger
	Now      func() time.Time
}

func (j *TripReminderJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	j.RunAt(ctx, j.now())
}

func (j *TripReminderJob) now() time.Time {
	if j.Now != nil {
		return j.Now()
	}
	return time.Now()
}

func (j *TripReminderJob) RunAt(ctx context.Context, now time.Time) int {
	from := now.Add(ReminderLead)
	to := from.Add(ReminderWindow)

	orders, err := j.Orders.FindTripsStartingBetween(ctx, models.StatusApproved, from, to)
	if err != nil {
		j.Log.Error("Error checking for upcoming trips", zap.Error(err))
		return 0
	}

	for _, order := range orders {
		j.Log.Info("Queueing trip reminder",
			zap.String("order_id", order.ID.String()),
			zap.String("booking_id", order.Reference()),
			zap.Time("trip_start", order.TripStart),
		)
		j.Notifier.NotifyCustomer(order, notifications.SlugRideReminder)
	}
	return len(orders)
}
