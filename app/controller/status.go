package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-payment-status/app/dto"
	"github.com/vibast-solutions/ms-go-payment-status/app/entity"
	"github.com/vibast-solutions/ms-go-payment-status/app/factory"
	"github.com/vibast-solutions/ms-go-payment-status/app/mapper"
	"github.com/vibast-solutions/ms-go-payment-status/app/navigation"
	"github.com/vibast-solutions/ms-go-payment-status/app/service"
	"github.com/vibast-solutions/ms-go-payment-status/app/types"
	"github.com/vibast-solutions/ms-go-payment-status/app/view"
)

type paymentStatusService interface {
	Watch(ctx context.Context, paymentID string) (entity.Outcome, error)
	Status(ctx context.Context, paymentID string) (entity.Outcome, error)
	Cancel(paymentID string) error
	PollInterval() time.Duration
}

type PaymentStatusController struct {
	statusService paymentStatusService
	navigator     navigation.Navigator
	logger        logrus.FieldLogger
}

func NewPaymentStatusController(statusService paymentStatusService, navigator navigation.Navigator) *PaymentStatusController {
	return &PaymentStatusController{
		statusService: statusService,
		navigator:     navigator,
		logger:        factory.NewModuleLogger("payment-status-controller"),
	}
}

func (c *PaymentStatusController) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, &dto.HealthResponse{Status: "ok"})
}

// View renders the pending, success or failure page for the identifier in the
// path or query string.
func (c *PaymentStatusController) View(ctx echo.Context) error {
	req, err := types.NewPaymentStatusRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	// an absent id renders the missing-identifier page
	if req.GetPaymentId() != "" {
		if err := req.Validate(); err != nil {
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		}
	}

	outcome, err := c.statusService.Watch(ctx.Request().Context(), req.GetPaymentId())
	if err != nil {
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Watch payment status failed")
		outcome = entity.Failed(req.GetPaymentId(), entity.FailureUnreachable, 0, "Unable to verify payment status right now")
	}

	if !outcome.State.Terminal() {
		ctx.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	}
	return ctx.Render(http.StatusOK, view.TemplateFor(outcome), view.PageFor(outcome, c.statusService.PollInterval()))
}

// Continue hands the terminal state's action to the host navigator.
func (c *PaymentStatusController) Continue(ctx echo.Context) error {
	req, err := types.NewPaymentStatusRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}

	if req.GetPaymentId() == "" {
		return c.navigator.Navigate(ctx, navigation.Action{Destination: navigation.DestinationCheckout})
	}

	outcome, err := c.statusService.Status(ctx.Request().Context(), req.GetPaymentId())
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			return c.writeError(ctx, http.StatusNotFound, "payment status not found")
		}
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Get payment status failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	action, ok := navigation.ActionFor(outcome)
	if !ok {
		return c.writeError(ctx, http.StatusConflict, service.ErrSessionPending.Error())
	}
	return c.navigator.Navigate(ctx, action)
}

func (c *PaymentStatusController) GetStatus(ctx echo.Context) error {
	req, err := types.NewPaymentStatusRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	outcome, err := c.statusService.Watch(ctx.Request().Context(), req.GetPaymentId())
	if err != nil {
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Watch payment status failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, mapper.OutcomeToResponse(outcome))
}

func (c *PaymentStatusController) CancelSession(ctx echo.Context) error {
	req, err := types.NewPaymentStatusRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	if err := c.statusService.Cancel(req.GetPaymentId()); err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			return c.writeError(ctx, http.StatusNotFound, "payment status session not found")
		case errors.Is(err, service.ErrInvalidRequest):
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		default:
			factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Cancel payment status session failed")
			return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}

	return ctx.JSON(http.StatusOK, &dto.MessageResponse{Message: "Payment status session cancelled"})
}

func (c *PaymentStatusController) writeError(ctx echo.Context, statusCode int, message string) error {
	return ctx.JSON(statusCode, &dto.ErrorResponse{Error: message})
}
