package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// OrderStatus values are persisted as integers and read by external dashboards.
type OrderStatus int

const (
	StatusDeleted       OrderStatus = 0
	StatusApproved      OrderStatus = 1
	StatusNew           OrderStatus = 2
	StatusCancelled     OrderStatus = 3
	StatusRideStarted   OrderStatus = 4
	StatusRideCompleted OrderStatus = 5
)

func (s OrderStatus) String() string {
	switch s {
	case StatusDeleted:
		return "deleted"
	case StatusApproved:
		return "approved"
	case StatusNew:
		return "new"
	case StatusCancelled:
		return "cancelled"
	case StatusRideStarted:
		return "ride_started"
	case StatusRideCompleted:
		return "ride_completed"
	}
	return "unknown"
}

type PaymentStatus int

const (
	PaymentUnpaid  PaymentStatus = 0
	PaymentPaid    PaymentStatus = 1
	PaymentPending PaymentStatus = 2
	PaymentFailed  PaymentStatus = 3
)

type Payment struct {
	TransactionID string `gorm:"size:255" json:"transactionId,omitempty"`
	Link          string `gorm:"size:512" json:"link,omitempty"`
	LinkID        string `gorm:"size:255" json:"linkId,omitempty"`
	Screenshot    string `gorm:"size:512" json:"screenshot,omitempty"`
}

type Order struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	BookingID *string   `gorm:"size:64;uniqueIndex" json:"bookingId,omitempty"`

	Name  string `gorm:"size:255;not null" json:"name"`
	Email string `gorm:"size:255;not null" json:"email"`
	Phone string `gorm:"size:50;not null" json:"phone"`

	TripStart       time.Time `json:"tripStart"`
	TripEnd         time.Time `json:"tripEnd"`
	Location        string    `gorm:"size:255" json:"location"`
	Message         string    `gorm:"type:text" json:"message"`
	CarName         string    `gorm:"size:255" json:"carName"`
	CarSlug         string    `gorm:"size:255;index" json:"carSlug"`
	SelectedPackage string    `gorm:"size:255" json:"selectedPackage"`
	FinalPrice      *float64  `gorm:"type:numeric(10,2)" json:"finalPrice"`

	Status         OrderStatus   `gorm:"not null;default:2;index" json:"status"`
	PaymentStatus  PaymentStatus `gorm:"not null;default:0;index" json:"paymentStatus"`
	CancelReason   string        `gorm:"type:text" json:"cancelReason,omitempty"`
	CancelReasonID *uuid.UUID    `gorm:"type:uuid" json:"cancelReasonId,omitempty"`

	Payment      Payment `gorm:"embedded;embeddedPrefix:payment_" json:"payment"`
	AgreementURL string  `gorm:"size:512" json:"agreementUrl,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Reference is the customer-facing order reference: the booking id when assigned,
// otherwise a short uppercase fragment of the internal id for legacy rows.
func (o *Order) Reference() string {
	if o.BookingID != nil && *o.BookingID != "" {
		return *o.BookingID
	}
	return o.ShortID()
}

func (o *Order) ShortID() string {
	raw := strings.ToUpper(strings.ReplaceAll(o.ID.String(), "-", ""))
	if len(raw) > 8 {
		raw = raw[len(raw)-8:]
	}
	return raw
}

// GatewayReference is what the payment gateway receives as reference_id.
func (o *Order) GatewayReference() string {
	if o.BookingID != nil && *o.BookingID != "" {
		return *o.BookingID
	}
	return o.ID.String()
}

func (o *Order) ChargeAmount() float64 {
	if o.FinalPrice == nil {
		return 0
	}
	return *o.FinalPrice
}
