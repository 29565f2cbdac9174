package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/selfdrive/rentals/models"
	"github.com/selfdrive/rentals/payments"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	AdminCopyPrefix = "[Admin Copy] "
	HostCopyPrefix  = "[Host Notification] "
)

type CarSource interface {
	FindCar(ctx context.Context, slug, name string) (*models.Car, error)
}

type OrderRecorder interface {
	UpdateColumns(ctx context.Context, id uuid.UUID, cols map[string]interface{}) error
}

type PaymentDetailer interface {
	Generate(ctx context.Context, order models.Order) payments.Details
}

type Dispatcher struct {
	Templates *Resolver
	Cars      CarSource
	Orders    OrderRecorder
	Mailer    Mailer
	Sender    EmailSettingsSource
	Payments  PaymentDetailer
	PDF       PDFRenderer
	Archive   Archiver // optional

	Brand          Branding
	AdminCopyEmail string
	Log            *zap.Logger
	Now            func() time.Time
}

func (d *Dispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// SendStatusEmail fans a lifecycle email out to the customer, the admin
// mailbox and, for attachment-type hosts, the car's host. Nothing is returned:
// every step logs its own failure and the next step still runs.
func (d *Dispatcher) SendStatusEmail(ctx context.Context, order models.Order, slug Slug) {
	log := d.Log.With(zap.String("order_id", order.ID.String()), zap.String("booking_ref", order.Reference()), zap.String("slug", string(slug)))

	tmpl, ok := d.template(ctx, slug, log)
	if !ok {
		return
	}

	// The payment QR is for the customer; copies only carry the agreement.
	var customerFiles, copyFiles []Attachment
	if slug == SlugOrderConfirmed && order.PaymentStatus != models.PaymentPaid {
		d.step(log, "payment details", func() {
			if a := d.paymentDetails(ctx, &order, log); a != nil {
				customerFiles = append(customerFiles, *a)
			}
		})
	}

	brand := d.branding(ctx, log)
	vars := BuildContext(order, brand, d.now())

	if slug == SlugOrderConfirmed {
		d.step(log, "rental agreement", func() {
			if a := d.agreement(ctx, order, vars, log); a != nil {
				customerFiles = append(customerFiles, *a)
				copyFiles = append(copyFiles, *a)
			}
		})
	}

	subject := Interpolate(tmpl.EmailSubject, vars)
	body := Interpolate(tmpl.EmailContent, vars)

	d.step(log, "customer email", func() {
		d.send(ctx, log, "customer", Message{ToEmail: order.Email, ToName: order.Name, Subject: subject, HTML: body, Attachments: customerFiles})
	})

	d.step(log, "admin email", func() {
		if d.AdminCopyEmail == "" {
			return
		}
		d.send(ctx, log, "admin", Message{ToEmail: d.AdminCopyEmail, Subject: AdminCopyPrefix + subject, HTML: body, Attachments: copyFiles})
	})

	d.step(log, "host email", func() {
		hostEmail := d.hostEmail(ctx, order, log)
		if hostEmail == "" {
			return
		}
		d.send(ctx, log, "host", Message{ToEmail: hostEmail, Subject: HostCopyPrefix + subject, HTML: body, Attachments: copyFiles})
	})
}

// SendCustomerEmail sends a template to the customer only.
func (d *Dispatcher) SendCustomerEmail(ctx context.Context, order models.Order, slug Slug) {
	log := d.Log.With(zap.String("order_id", order.ID.String()), zap.String("booking_ref", order.Reference()), zap.String("slug", string(slug)))

	tmpl, ok := d.template(ctx, slug, log)
	if !ok {
		return
	}
	vars := BuildContext(order, d.branding(ctx, log), d.now())
	d.step(log, "customer email", func() {
		d.send(ctx, log, "customer", Message{
			ToEmail: order.Email,
			ToName:  order.Name,
			Subject: Interpolate(tmpl.EmailSubject, vars),
			HTML:    Interpolate(tmpl.EmailContent, vars),
		})
	})
}

func (d *Dispatcher) step(log *zap.Logger, name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Notification step panicked", zap.String("step", name), zap.String("panic", fmt.Sprint(r)))
		}
	}()
	fn()
}

func (d *Dispatcher) template(ctx context.Context, slug Slug, log *zap.Logger) (*models.SystemTemplate, bool) {
	tmpl, err := d.Templates.Resolve(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Info("Template not found, skipping notification")
		} else {
			log.Error("Failed to load template, skipping notification", zap.Error(err))
		}
		return nil, false
	}
	if !Usable(tmpl) {
		log.Info("Template inactive, skipping notification")
		return nil, false
	}
	return tmpl, true
}

// branding fills company name and support address from the sender identity
// when they are not configured explicitly.
func (d *Dispatcher) branding(ctx context.Context, log *zap.Logger) Branding {
	brand := d.Brand
	if brand.CompanyName != "" && brand.SupportEmail != "" {
		return brand
	}
	var name, email string
	if d.Sender != nil {
		cfg, err := d.Sender.Email(ctx)
		if err != nil {
			log.Warn("Failed to load sender identity, using fallback", zap.Error(err))
		}
		name, email = SenderIdentity(cfg)
	} else {
		name, email = FallbackSenderName, FallbackSenderEmail
	}
	if brand.CompanyName == "" {
		brand.CompanyName = name
	}
	if brand.SupportEmail == "" {
		brand.SupportEmail = email
	}
	return brand
}

func (d *Dispatcher) paymentDetails(ctx context.Context, order *models.Order, log *zap.Logger) *Attachment {
	if d.Payments == nil {
		return nil
	}
	details := d.Payments.Generate(ctx, *order)
	switch details.Type {
	case payments.DetailLink:
		order.Payment.Link = details.Link
		order.Payment.LinkID = details.LinkID
		if d.Orders != nil {
			err := d.Orders.UpdateColumns(ctx, order.ID, map[string]interface{}{
				"payment_link":    details.Link,
				"payment_link_id": details.LinkID,
			})
			if err != nil {
				log.Error("Failed to store payment link on order", zap.Error(err))
			}
		}
	case payments.DetailQR:
		return &Attachment{Name: "upi-qr.png", Content: details.QRCode}
	}
	return nil
}

func (d *Dispatcher) agreement(ctx context.Context, order models.Order, vars map[string]string, log *zap.Logger) *Attachment {
	if d.PDF == nil {
		return nil
	}
	tmpl, ok := d.template(ctx, SlugRentalAgreement, log)
	if !ok {
		return nil
	}
	pdf, err := d.PDF.Render(ctx, Interpolate(tmpl.EmailContent, vars))
	if err != nil {
		log.Error("Failed to render rental agreement PDF", zap.Error(err))
		return nil
	}

	if d.Archive != nil {
		url, err := d.Archive.Archive(ctx, order.Reference(), pdf)
		if err != nil {
			log.Warn("Failed to archive rental agreement", zap.Error(err))
		} else if d.Orders != nil {
			if err := d.Orders.UpdateColumns(ctx, order.ID, map[string]interface{}{"agreement_url": url}); err != nil {
				log.Warn("Failed to store agreement url", zap.Error(err))
			}
		}
	}

	return &Attachment{Name: fmt.Sprintf("rental-agreement-%s.pdf", order.Reference()), Content: pdf}
}

func (d *Dispatcher) hostEmail(ctx context.Context, order models.Order, log *zap.Logger) string {
	if d.Cars == nil || (order.CarSlug == "" && order.CarName == "") {
		return ""
	}
	car, err := d.Cars.FindCar(ctx, order.CarSlug, order.CarName)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("Failed to look up car for host copy", zap.Error(err))
		}
		return ""
	}
	return car.HostEmail()
}

func (d *Dispatcher) send(ctx context.Context, log *zap.Logger, recipient string, msg Message) {
	if err := d.Mailer.Send(ctx, msg); err != nil {
		log.Error("🔥 Failed to send notification email", zap.String("recipient", recipient), zap.String("to", msg.ToEmail), zap.Error(err))
		return
	}
	log.Info("✅ Notification email sent", zap.String("recipient", recipient), zap.String("to", msg.ToEmail))
}
