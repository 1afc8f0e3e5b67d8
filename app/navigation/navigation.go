package navigation

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/vibast-solutions/ms-go-payment-status/app/entity"
	"github.com/vibast-solutions/ms-go-payment-status/config"
)

type Destination string

const (
	DestinationDashboard Destination = "dashboard"
	DestinationCheckout  Destination = "checkout"
)

type Action struct {
	Destination Destination
	PaymentID   string
}

func (a Action) Label() string {
	if a.Destination == DestinationDashboard {
		return "Go to Dashboard"
	}
	return "Try Again"
}

// ActionFor returns the action a terminal outcome offers. Pending outcomes
// offer none.
func ActionFor(outcome entity.Outcome) (Action, bool) {
	switch outcome.State {
	case entity.StateSucceeded:
		return Action{Destination: DestinationDashboard, PaymentID: outcome.PaymentID}, true
	case entity.StateFailed:
		return Action{Destination: DestinationCheckout, PaymentID: outcome.PaymentID}, true
	default:
		return Action{}, false
	}
}

// Navigator is supplied by the hosting application and decides where an
// action takes the user.
type Navigator interface {
	Navigate(ctx echo.Context, action Action) error
}

type NavigatorFunc func(ctx echo.Context, action Action) error

func (f NavigatorFunc) Navigate(ctx echo.Context, action Action) error {
	return f(ctx, action)
}

type RedirectNavigator struct {
	dashboardURL string
	checkoutURL  string
}

func NewRedirectNavigator(cfg config.NavigationConfig) *RedirectNavigator {
	dashboard := cfg.DashboardURL
	if dashboard == "" {
		dashboard = "/dashboard"
	}
	checkout := cfg.CheckoutURL
	if checkout == "" {
		checkout = "/checkout"
	}
	return &RedirectNavigator{dashboardURL: dashboard, checkoutURL: checkout}
}

func (n *RedirectNavigator) Target(action Action) string {
	target := n.checkoutURL
	if action.Destination == DestinationDashboard {
		target = n.dashboardURL
	}
	if action.PaymentID == "" {
		return target
	}

	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	q.Set("payment_id", action.PaymentID)
	u.RawQuery = q.Encode()
	return u.String()
}

func (n *RedirectNavigator) Navigate(ctx echo.Context, action Action) error {
	return ctx.Redirect(http.StatusSeeOther, n.Target(action))
}
