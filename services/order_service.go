package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/selfdrive/rentals/models"
	"github.com/selfdrive/rentals/notifications"
	"github.com/selfdrive/rentals/repositories"
	"github.com/selfdrive/rentals/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrInvalidPatch      = errors.New("invalid order update")
)

const PriceActionUpdated = "price_updated"

type OrderStore interface {
	OrderCounter
	Create(ctx context.Context, order *models.Order) error
	Save(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByBookingID(ctx context.Context, bookingID string) (*models.Order, error)
	List(ctx context.Context, f repositories.OrderFilter) ([]models.Order, int64, error)
	StatusCounts(ctx context.Context) ([]repositories.StatusCount, error)
	AppendPriceHistory(ctx context.Context, entry *models.PriceHistory) error
}

type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
}

type CancelReasonStore interface {
	FindCancellationReason(ctx context.Context, id uuid.UUID) (*models.CancellationReason, error)
}

type Publisher interface {
	Publish(eventType string, data interface{})
}

// Notifier runs notification work in the background; calls return immediately.
type Notifier interface {
	Dispatch(order models.Order, slug notifications.Slug)
	NotifyCustomer(order models.Order, slug notifications.Slug)
}

// allowedTransitions is the business lifecycle. DELETED is reachable from any
// state via soft delete and is not listed.
var allowedTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.StatusNew:         {models.StatusApproved, models.StatusCancelled},
	models.StatusApproved:    {models.StatusRideStarted, models.StatusCancelled},
	models.StatusRideStarted: {models.StatusRideCompleted, models.StatusCancelled},
}

func CanTransition(from, to models.OrderStatus) bool {
	if from == to || to == models.StatusDeleted {
		return true
	}
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type OrderService struct {
	Orders        OrderStore
	Notifications NotificationStore
	Hub           Publisher
	Notifier      Notifier
	Reasons       CancelReasonStore

	BookingPrefix string
	// StrictTransitions rejects status changes outside allowedTransitions.
	// Off by default: admins use free status edits to correct mistakes.
	StrictTransitions bool

	Log *zap.Logger
	Now func() time.Time
}

func (s *OrderService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

type CreateOrderInput struct {
	Name            string
	Email           string
	Phone           string
	TripStart       time.Time
	TripEnd         time.Time
	Location        string
	Message         string
	CarName         string
	CarSlug         string
	SelectedPackage string
}

// Create stores a new booking. Only the count query and the insert can fail it;
// notification side effects are logged and never surface.
func (s *OrderService) Create(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	now := s.now()
	bookingID, err := GenerateBookingID(ctx, s.Orders, s.BookingPrefix, now)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		BookingID:       &bookingID,
		Name:            in.Name,
		Email:           in.Email,
		Phone:           in.Phone,
		TripStart:       in.TripStart,
		TripEnd:         in.TripEnd,
		Location:        in.Location,
		Message:         in.Message,
		CarName:         in.CarName,
		CarSlug:         in.CarSlug,
		SelectedPackage: in.SelectedPackage,
		Status:          models.StatusNew,
		PaymentStatus:   models.PaymentUnpaid,
	}
	if err := s.Orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("save order: %w", err)
	}

	s.Log.Info("Order created", zap.String("order_id", order.ID.String()), zap.String("booking_id", bookingID))
	s.announce(ctx, *order)
	if s.Notifier != nil {
		s.Notifier.NotifyCustomer(*order, notifications.SlugOrderReceived)
	}
	return order, nil
}

func (s *OrderService) announce(ctx context.Context, order models.Order) {
	note := &models.Notification{
		Type:    "new_order",
		Title:   "New booking received",
		Message: fmt.Sprintf("%s booked %s (%s)", order.Name, order.CarName, order.Reference()),
		OrderID: &order.ID,
	}
	if s.Notifications != nil {
		if err := s.Notifications.CreateNotification(ctx, note); err != nil {
			s.Log.Error("Failed to store admin notification", zap.String("order_id", order.ID.String()), zap.Error(err))
		}
	}
	if s.Hub != nil {
		s.Hub.Publish("new_order", note)
	}
}

func (s *OrderService) load(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.Orders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

type patchExtras struct {
	PriceNote    *string `json:"priceNote"`
	CancelReason *string `json:"cancelReason"`
}

// Update shallow-merges a JSON patch onto the stored order and saves it. A
// change of status queues the matching lifecycle email after the save.
func (s *OrderService) Update(ctx context.Context, id uuid.UUID, patch []byte, actor string) (*models.Order, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	prevStatus := order.Status
	prevPackage := order.SelectedPackage
	prevPrice, hadPrice := 0.0, order.FinalPrice != nil
	if hadPrice {
		prevPrice = *order.FinalPrice
	}
	// json.Unmarshal writes through non-nil pointers, so pointer fields get
	// their own copies before the patch is applied.
	order.FinalPrice = clonePtr(order.FinalPrice)
	order.BookingID = clonePtr(order.BookingID)
	order.CancelReasonID = clonePtr(order.CancelReasonID)
	keepID, keepCreated := order.ID, order.CreatedAt
	keepBookingID := ""
	if order.BookingID != nil {
		keepBookingID = *order.BookingID
	}
	var prevReasonID uuid.UUID
	if order.CancelReasonID != nil {
		prevReasonID = *order.CancelReasonID
	}

	patch, err = normalizePatchTimes(patch)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(patch, order); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	var extras patchExtras
	_ = json.Unmarshal(patch, &extras)

	order.ID, order.CreatedAt = keepID, keepCreated
	if keepBookingID != "" {
		order.BookingID = &keepBookingID
	}
	if order.Status < models.StatusDeleted || order.Status > models.StatusRideCompleted {
		return nil, fmt.Errorf("%w: unknown status %d", ErrInvalidPatch, order.Status)
	}
	if order.PaymentStatus < models.PaymentUnpaid || order.PaymentStatus > models.PaymentFailed {
		return nil, fmt.Errorf("%w: unknown payment status %d", ErrInvalidPatch, order.PaymentStatus)
	}

	statusChanged := order.Status != prevStatus
	if statusChanged && !CanTransition(prevStatus, order.Status) {
		if s.StrictTransitions {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, prevStatus, order.Status)
		}
		s.Log.Warn("Status change outside lifecycle table",
			zap.String("order_id", id.String()),
			zap.String("from", prevStatus.String()),
			zap.String("to", order.Status.String()),
		)
	}

	reasonChanged := order.CancelReasonID != nil && *order.CancelReasonID != prevReasonID
	if order.Status == models.StatusCancelled && extras.CancelReason == nil &&
		(reasonChanged || order.CancelReason == "") {
		s.fillCancelReason(ctx, order)
	}

	if err := s.Orders.Save(ctx, order); err != nil {
		return nil, fmt.Errorf("save order: %w", err)
	}

	priceChanged := hadPrice != (order.FinalPrice != nil) ||
		(hadPrice && prevPrice != *order.FinalPrice) ||
		prevPackage != order.SelectedPackage
	if priceChanged {
		s.recordPrice(ctx, order, actor, extras.PriceNote)
	}

	if statusChanged {
		s.Log.Info("Order status changed",
			zap.String("order_id", id.String()),
			zap.String("from", prevStatus.String()),
			zap.String("to", order.Status.String()),
		)
		if slug, ok := notifications.SlugForStatus(order.Status); ok && s.Notifier != nil {
			s.Notifier.Dispatch(*order, slug)
		}
	}
	return order, nil
}

// fillCancelReason copies the text of a predefined reason so the cancellation
// email can quote it.
func (s *OrderService) fillCancelReason(ctx context.Context, order *models.Order) {
	if s.Reasons == nil || order.CancelReasonID == nil {
		return
	}
	reason, err := s.Reasons.FindCancellationReason(ctx, *order.CancelReasonID)
	if err != nil {
		s.Log.Warn("Cancellation reason lookup failed",
			zap.String("order_id", order.ID.String()),
			zap.String("reason_id", order.CancelReasonID.String()),
			zap.Error(err),
		)
		return
	}
	order.CancelReason = reason.Reason
}

func (s *OrderService) recordPrice(ctx context.Context, order *models.Order, actor string, note *string) {
	entry := &models.PriceHistory{
		OrderID: order.ID,
		Price:   order.ChargeAmount(),
		Action:  PriceActionUpdated,
		Status:  order.Status,
		Note:    note,
	}
	if actor != "" {
		entry.ModifiedBy = &actor
	}
	if err := s.Orders.AppendPriceHistory(ctx, entry); err != nil {
		s.Log.Error("Failed to append price history", zap.String("order_id", order.ID.String()), zap.Error(err))
	}
}

// normalizePatchTimes rewrites trip times given in any form the booking form
// accepts into RFC3339 so they decode into time.Time.
func normalizePatchTimes(patch []byte) ([]byte, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(patch, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	changed := false
	for _, key := range []string{"tripStart", "tripEnd"} {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, fmt.Errorf("%w: %s must be a string", ErrInvalidPatch, key)
		}
		t, err := utils.ParseTripTime(text)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPatch, key, err)
		}
		fields[key], _ = json.Marshal(t.Format(time.RFC3339Nano))
		changed = true
	}
	if !changed {
		return patch, nil
	}
	return json.Marshal(fields)
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Cancel is the admin delete: a soft delete to DELETED with no notification.
func (s *OrderService) Cancel(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Status = models.StatusDeleted
	if err := s.Orders.Save(ctx, order); err != nil {
		return nil, fmt.Errorf("save order: %w", err)
	}
	s.Log.Info("Order soft-deleted", zap.String("order_id", id.String()))
	return order, nil
}

type PublicOrderStatus struct {
	BookingID string             `json:"bookingId"`
	Status    models.OrderStatus `json:"status"`
	CarName   string             `json:"carName"`
	TripStart time.Time          `json:"tripStart"`
	TripEnd   time.Time          `json:"tripEnd"`
	Location  string             `json:"location"`
	CreatedAt time.Time          `json:"createdAt"`
}

// GetPublicStatus is the customer tracking lookup: an id-shaped reference is
// an internal id, anything else a booking id.
func (s *OrderService) GetPublicStatus(ctx context.Context, ref string) (*PublicOrderStatus, error) {
	var (
		order *models.Order
		err   error
	)
	if id, perr := uuid.Parse(ref); perr == nil {
		order, err = s.Orders.FindByID(ctx, id)
	} else {
		order, err = s.Orders.FindByBookingID(ctx, ref)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.Status == models.StatusDeleted {
		return nil, ErrOrderNotFound
	}
	return &PublicOrderStatus{
		BookingID: order.Reference(),
		Status:    order.Status,
		CarName:   order.CarName,
		TripStart: order.TripStart,
		TripEnd:   order.TripEnd,
		Location:  order.Location,
		CreatedAt: order.CreatedAt,
	}, nil
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

type OrderList struct {
	Orders       []models.Order               `json:"orders"`
	Pagination   Pagination                   `json:"pagination"`
	StatusCounts map[models.OrderStatus]int64 `json:"statusCounts"`
}

const maxPageSize = 100

func (s *OrderService) List(ctx context.Context, f repositories.OrderFilter) (*OrderList, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 10
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}

	orders, total, err := s.Orders.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	counts, err := s.Orders.StatusCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("count orders by status: %w", err)
	}

	byStatus := make(map[models.OrderStatus]int64, len(counts))
	for _, c := range counts {
		byStatus[c.Status] = c.Count
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return &OrderList{
		Orders: orders,
		Pagination: Pagination{
			Page:       f.Page,
			Limit:      f.Limit,
			Total:      total,
			TotalPages: int(math.Ceil(float64(total) / float64(f.Limit))),
		},
		StatusCounts: byStatus,
	}, nil
}
