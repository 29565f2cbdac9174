package repositories

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/selfdrive/rentals/models"
	"gorm.io/gorm"
)

type OrderFilter struct {
	Page          int
	Limit         int
	Search        string
	Status        *models.OrderStatus
	PaymentStatus *models.PaymentStatus
	SortBy        string
}

var orderSorts = map[string]string{
	"newest":    "created_at desc",
	"oldest":    "created_at asc",
	"tripStart": "trip_start asc",
	"tripEnd":   "trip_end asc",
	"price":     "final_price desc nulls last",
	"updated":   "updated_at desc",
}

type StatusCount struct {
	Status models.OrderStatus
	Count  int64
}

type OrderRepository struct {
	DB *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{DB: db}
}

func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.DB.WithContext(ctx).Create(order).Error
}

// Save writes the whole document; concurrent saves of one order are last-write-wins.
func (r *OrderRepository) Save(ctx context.Context, order *models.Order) error {
	return r.DB.WithContext(ctx).Save(order).Error
}

// UpdateColumns touches only the named columns, leaving the rest of the row alone.
func (r *OrderRepository) UpdateColumns(ctx context.Context, id uuid.UUID, cols map[string]interface{}) error {
	return r.DB.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(cols).Error
}

// MarkPaid flips an unpaid order to paid in one conditional UPDATE and
// reports whether this call made the change. A stored link id is kept.
func (r *OrderRepository) MarkPaid(ctx context.Context, id uuid.UUID, transactionID, linkID string) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND payment_status <> ?", id, models.PaymentPaid).
		Updates(map[string]interface{}{
			"payment_status":         models.PaymentPaid,
			"payment_transaction_id": transactionID,
			"payment_link_id":        gorm.Expr("COALESCE(NULLIF(payment_link_id, ''), ?)", linkID),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepository) FindByBookingID(ctx context.Context, bookingID string) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).Where("booking_id = ?", bookingID).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepository) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.Order{}).Where("created_at >= ?", since).Count(&count).Error
	return count, err
}

func (r *OrderRepository) filtered(ctx context.Context, f OrderFilter) *gorm.DB {
	query := r.DB.WithContext(ctx).Model(&models.Order{})

	if f.Status != nil {
		query = query.Where("status = ?", *f.Status)
	} else {
		query = query.Where("status <> ?", models.StatusDeleted)
	}
	if f.PaymentStatus != nil {
		query = query.Where("payment_status = ?", *f.PaymentStatus)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + s + "%"
		cond := "name ILIKE ? OR email ILIKE ? OR phone ILIKE ? OR car_name ILIKE ? OR booking_id ILIKE ?"
		args := []interface{}{like, like, like, like, like}
		if id, err := uuid.Parse(s); err == nil {
			cond += " OR id = ?"
			args = append(args, id)
		}
		query = query.Where("("+cond+")", args...)
	}
	return query
}

func (r *OrderRepository) List(ctx context.Context, f OrderFilter) ([]models.Order, int64, error) {
	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sort, ok := orderSorts[f.SortBy]
	if !ok {
		sort = orderSorts["newest"]
	}

	var orders []models.Order
	err := r.filtered(ctx, f).Order(sort).Offset((f.Page - 1) * f.Limit).Limit(f.Limit).Find(&orders).Error
	return orders, total, err
}

func (r *OrderRepository) StatusCounts(ctx context.Context) ([]StatusCount, error) {
	var rows []StatusCount
	err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	return rows, err
}

func (r *OrderRepository) FindTripsStartingBetween(ctx context.Context, status models.OrderStatus, from, to time.Time) ([]models.Order, error) {
	var orders []models.Order
	err := r.DB.WithContext(ctx).
		Where("status = ? AND trip_start >= ? AND trip_start < ?", status, from, to).
		Order("trip_start asc").
		Find(&orders).Error
	return orders, err
}

func (r *OrderRepository) AppendPriceHistory(ctx context.Context, entry *models.PriceHistory) error {
	return r.DB.WithContext(ctx).Create(entry).Error
}
