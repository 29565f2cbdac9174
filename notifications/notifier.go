package notifications

import (
	"context"

	"github.com/selfdrive/rentals/models"
)

// AsyncNotifier hands dispatcher work to the task queue so callers never wait
// on email, PDF or gateway calls.
type AsyncNotifier struct {
	Queue      *TaskQueue
	Dispatcher *Dispatcher
}

func (n *AsyncNotifier) Dispatch(order models.Order, slug Slug) {
	n.Queue.Submit("status-email:"+string(slug), func(ctx context.Context) {
		n.Dispatcher.SendStatusEmail(ctx, order, slug)
	})
}

func (n *AsyncNotifier) NotifyCustomer(order models.Order, slug Slug) {
	n.Queue.Submit("customer-email:"+string(slug), func(ctx context.Context) {
		n.Dispatcher.SendCustomerEmail(ctx, order, slug)
	})
}
