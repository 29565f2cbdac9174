package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/selfdrive/rentals/models"
	"github.com/selfdrive/rentals/notifications"
	"github.com/selfdrive/rentals/repositories"
	"github.com/selfdrive/rentals/settings"
	"gorm.io/gorm"
)

type memOrders struct {
	mu      sync.Mutex
	orders  map[uuid.UUID]models.Order
	history []models.PriceHistory
	saves      int
	paidWrites int
	today      int64
}

func newMemOrders() *memOrders {
	return &memOrders{orders: map[uuid.UUID]models.Order{}}
}

func (m *memOrders) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	return m.today, nil
}

func (m *memOrders) Create(ctx context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	order.CreatedAt = time.Now()
	m.orders[order.ID] = *order
	m.today++
	return nil
}

func (m *memOrders) Save(ctx context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.orders[order.ID] = *order
	return nil
}

func (m *memOrders) MarkPaid(ctx context.Context, id uuid.UUID, transactionID, linkID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok || o.PaymentStatus == models.PaymentPaid {
		return false, nil
	}
	o.PaymentStatus = models.PaymentPaid
	o.Payment.TransactionID = transactionID
	if o.Payment.LinkID == "" {
		o.Payment.LinkID = linkID
	}
	m.orders[id] = o
	m.paidWrites++
	return true, nil
}

func (m *memOrders) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &o, nil
}

func (m *memOrders) FindByBookingID(ctx context.Context, bookingID string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.BookingID != nil && *o.BookingID == bookingID {
			found := o
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memOrders) List(ctx context.Context, f repositories.OrderFilter) ([]models.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Order
	for _, o := range m.orders {
		if o.Status != models.StatusDeleted {
			out = append(out, o)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memOrders) StatusCounts(ctx context.Context) ([]repositories.StatusCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[models.OrderStatus]int64{}
	for _, o := range m.orders {
		counts[o.Status]++
	}
	var out []repositories.StatusCount
	for s, c := range counts {
		out = append(out, repositories.StatusCount{Status: s, Count: c})
	}
	return out, nil
}

func (m *memOrders) AppendPriceHistory(ctx context.Context, entry *models.PriceHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, *entry)
	return nil
}

func (m *memOrders) put(o models.Order) models.Order {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	m.orders[o.ID] = o
	return o
}

type dispatchCall struct {
	Order    models.Order
	Slug     notifications.Slug
	Customer bool
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []dispatchCall
}

func (r *recordingNotifier) Dispatch(order models.Order, slug notifications.Slug) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, dispatchCall{Order: order, Slug: slug})
}

func (r *recordingNotifier) NotifyCustomer(order models.Order, slug notifications.Slug) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, dispatchCall{Order: order, Slug: slug, Customer: true})
}

func (r *recordingNotifier) count(slug notifications.Slug) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.Slug == slug {
			n++
		}
	}
	return n
}

type staticPaymentSettings struct {
	cfg settings.Payment
}

func (s staticPaymentSettings) Payment(ctx context.Context) (settings.Payment, error) {
	return s.cfg, nil
}

type memNotifications struct {
	created []models.Notification
}

func (m *memNotifications) CreateNotification(ctx context.Context, n *models.Notification) error {
	m.created = append(m.created, *n)
	return nil
}

type recordingHub struct {
	events []string
}

func (h *recordingHub) Publish(eventType string, data interface{}) {
	h.events = append(h.events, eventType)
}

func ptr[T any](v T) *T { return &v }
