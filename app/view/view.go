package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/vibast-solutions/ms-go-payment-status/app/entity"
	"github.com/vibast-solutions/ms-go-payment-status/app/navigation"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	TemplatePending = "pending"
	TemplateSuccess = "success"
	TemplateFailure = "failure"

	ContinuePath = "/payments/continue"
)

type Detail struct {
	Label string
	Value string
}

type Page struct {
	PaymentID      string
	State          string
	Title          string
	Message        string
	Details        []Detail
	Code           int
	ActionURL      string
	ActionLabel    string
	RefreshSeconds int
}

// Renderer implements echo.Renderer over the embedded page templates.
type Renderer struct {
	templates *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse view templates: %w", err)
	}
	return &Renderer{templates: tmpl}, nil
}

func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}

// TemplateFor picks the template rendering the outcome's state.
func TemplateFor(outcome entity.Outcome) string {
	switch outcome.State {
	case entity.StateSucceeded:
		return TemplateSuccess
	case entity.StateFailed:
		return TemplateFailure
	default:
		return TemplatePending
	}
}

func PageFor(outcome entity.Outcome, refresh time.Duration) Page {
	page := Page{
		PaymentID: outcome.PaymentID,
		State:     string(outcome.State),
	}

	switch outcome.State {
	case entity.StateSucceeded:
		page.Title = "Payment Successful!"
		page.Message = "Thank you for your payment. Your transaction has been completed successfully."
		page.Details = detailsFor(outcome.Payload)
	case entity.StateFailed:
		page.Title = "Payment Failed"
		page.Message = outcome.Reason
		if page.Message == "" {
			page.Message = "Sorry, there was a problem processing your payment. Please try again."
		}
		page.Code = outcome.Code
	default:
		page.State = string(entity.StatePolling)
		page.Title = "Verifying payment"
		page.Message = "Verifying payment status..."
		page.RefreshSeconds = int(refresh.Round(time.Second) / time.Second)
		if page.RefreshSeconds < 1 {
			page.RefreshSeconds = 1
		}
		return page
	}

	if action, ok := navigation.ActionFor(outcome); ok {
		page.ActionLabel = action.Label()
		page.ActionURL = ContinueURL(outcome.PaymentID)
	}
	return page
}

func ContinueURL(paymentID string) string {
	if paymentID == "" {
		return ContinuePath
	}
	return ContinuePath + "?" + url.Values{"payment_id": {paymentID}}.Encode()
}

func detailsFor(p *entity.Payload) []Detail {
	if p.Empty() {
		return nil
	}
	var details []Detail
	add := func(label, value string) {
		if value != "" {
			details = append(details, Detail{Label: label, Value: value})
		}
	}
	add("Subscription ID", p.SubscriptionID)
	add("Payment ID", p.PaymentID)
	add("Payment method", p.PaymentMethod)
	add("Completed at", p.CompletedAt)
	return details
}
