package notifications

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/selfdrive/rentals/models"
	"github.com/selfdrive/rentals/utils"
)

// Slug identifies a SystemTemplate independent of its display name.
type Slug string

const (
	SlugOrderReceived   Slug = "order_received"
	SlugOrderConfirmed  Slug = "order_confirmed"
	SlugOrderCancelled  Slug = "order_cancelled"
	SlugRideStarted     Slug = "ride_started"
	SlugRideCompleted   Slug = "ride_completed"
	SlugRideReminder    Slug = "ride_reminder"
	SlugRentalAgreement Slug = "rental_agreement"
)

// StatusSlugs maps an admin status change to the template sent for it. Statuses
// absent from the table (NEW, DELETED) send nothing.
var StatusSlugs = map[models.OrderStatus]Slug{
	models.StatusApproved:      SlugOrderConfirmed,
	models.StatusCancelled:     SlugOrderCancelled,
	models.StatusRideStarted:   SlugRideStarted,
	models.StatusRideCompleted: SlugRideCompleted,
}

func SlugForStatus(status models.OrderStatus) (Slug, bool) {
	slug, ok := StatusSlugs[status]
	return slug, ok
}

type TemplateStore interface {
	FindTemplateBySlug(ctx context.Context, slug string) (*models.SystemTemplate, error)
}

type Resolver struct {
	Store TemplateStore
}

// Resolve looks a template up by exact slug. Callers decide what an inactive
// template means; for notifications it means "skip".
func (r *Resolver) Resolve(ctx context.Context, slug Slug) (*models.SystemTemplate, error) {
	return r.Store.FindTemplateBySlug(ctx, string(slug))
}

func Usable(t *models.SystemTemplate) bool {
	return t != nil && t.IsActive()
}

// Interpolate replaces every {{token}} whose name is a key of vars. Unknown
// tokens stay verbatim and values are inserted raw: template content is
// trusted admin HTML.
func Interpolate(text string, vars map[string]string) string {
	if text == "" || len(vars) == 0 {
		return text
	}
	pairs := make([]string, 0, len(vars)*2)
	for token, value := range vars {
		pairs = append(pairs, "{{"+token+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

type Branding struct {
	CompanyName   string
	SupportEmail  string
	PublicSiteURL string
}

func (b Branding) TrackURL(order models.Order) string {
	if b.PublicSiteURL == "" {
		return ""
	}
	return b.PublicSiteURL + "/track/" + order.GatewayReference()
}

// BuildContext produces the value for every documented template token.
func BuildContext(order models.Order, brand Branding, now time.Time) map[string]string {
	link := order.Payment.Link
	if link == "" {
		link = brand.TrackURL(order)
	}
	return map[string]string{
		"name":            order.Name,
		"email":           order.Email,
		"phone":           order.Phone,
		"orderId":         order.Reference(),
		"carName":         order.CarName,
		"selectedPackage": order.SelectedPackage,
		"tripStart":       utils.FormatDisplayTime(order.TripStart),
		"location":        order.Location,
		"year":            strconv.Itoa(now.Year()),
		"companyName":     brand.CompanyName,
		"supportEmail":    brand.SupportEmail,
		"link":            link,
		"cancelReason":    order.CancelReason,
		"finalPrice":      FinalPriceText(order),
		"submissionTime":  utils.FormatDisplayTime(order.CreatedAt),
	}
}

// FinalPriceText is the {{finalPrice}} value: the admin-set price when present,
// otherwise the amount scraped from the package display string.
func FinalPriceText(order models.Order) string {
	if order.FinalPrice != nil {
		return strconv.FormatFloat(*order.FinalPrice, 'f', -1, 64)
	}
	return utils.PackagePrice(order.SelectedPackage)
}
