package database

import (
	"github.com/selfdrive/rentals/models"
	"github.com/selfdrive/rentals/notifications"
)

const templateFooter = `<p style="color:#888;font-size:12px">&copy; {{year}} {{companyName}} &middot; {{supportEmail}}</p>`

func DefaultTemplates() []models.SystemTemplate {
	t := func(slug notifications.Slug, name, subject, body string) models.SystemTemplate {
		return models.SystemTemplate{
			Name:         name,
			Slug:         string(slug),
			EmailSubject: subject,
			EmailContent: body + templateFooter,
			Status:       models.TemplateActive,
		}
	}
	return []models.SystemTemplate{
		t(notifications.SlugOrderReceived, "Booking received",
			"We received your booking {{orderId}}",
			`<p>Hi {{name}},</p><p>Thanks for booking the <b>{{carName}}</b> ({{selectedPackage}}) from {{tripStart}} at {{location}}.</p>
<p>Your booking id is <b>{{orderId}}</b>, submitted on {{submissionTime}}. We will confirm it shortly.</p>
<p>Track it any time: <a href="{{link}}">{{link}}</a></p>`),
		t(notifications.SlugOrderConfirmed, "Booking confirmed",
			"Your booking {{orderId}} is confirmed",
			`<p>Hi {{name}},</p><p>Your <b>{{carName}}</b> is confirmed for {{tripStart}} at {{location}}.</p>
<p>Amount payable: <b>&#8377;{{finalPrice}}</b>. Payment details are attached or linked below.</p>
<p><a href="{{link}}">View or pay for your booking</a></p>`),
		t(notifications.SlugOrderCancelled, "Booking cancelled",
			"Your booking {{orderId}} was cancelled",
			`<p>Hi {{name}},</p><p>Your booking for the <b>{{carName}}</b> on {{tripStart}} has been cancelled.</p>
<p>Reason: {{cancelReason}}</p>`),
		t(notifications.SlugRideStarted, "Ride started",
			"Enjoy your drive, {{name}}",
			`<p>Hi {{name}},</p><p>Your trip in the <b>{{carName}}</b> has started. Drive safe!</p>`),
		t(notifications.SlugRideCompleted, "Ride completed",
			"Thanks for driving with {{companyName}}",
			`<p>Hi {{name}},</p><p>Your trip in the <b>{{carName}}</b> is complete. Total: &#8377;{{finalPrice}}.</p>`),
		t(notifications.SlugRideReminder, "Ride reminder",
			"Your {{carName}} is ready in an hour",
			`<p>Hi {{name}},</p><p>A reminder that your trip starts at {{tripStart}} from {{location}}.</p>
<p>Booking: <a href="{{link}}">{{orderId}}</a></p>`),
		t(notifications.SlugRentalAgreement, "Rental agreement",
			"Rental agreement {{orderId}}",
			`<h1>Vehicle Rental Agreement</h1>
<p>Booking <b>{{orderId}}</b> between {{companyName}} and {{name}} ({{email}}, {{phone}}).</p>
<p>Vehicle: {{carName}}, package {{selectedPackage}}, starting {{tripStart}} at {{location}}.</p>
<p>Agreed amount: &#8377;{{finalPrice}}.</p>
<p>The renter agrees to return the vehicle in the condition received and to bear fuel, toll and traffic fine costs during the rental.</p>`),
	}
}
