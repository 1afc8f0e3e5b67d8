package grpc

import (
	"context"
	"errors"
	"strings"

	"github.com/vibast-solutions/ms-go-payment-status/app/entity"
	"github.com/vibast-solutions/ms-go-payment-status/app/mapper"
	"github.com/vibast-solutions/ms-go-payment-status/app/service"
	"github.com/vibast-solutions/ms-go-payment-status/app/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type paymentStatusService interface {
	Watch(ctx context.Context, paymentID string) (entity.Outcome, error)
	Await(ctx context.Context, paymentID string) (entity.Outcome, error)
	Cancel(paymentID string) error
}

type Server struct {
	statusService paymentStatusService
}

func NewServer(statusService paymentStatusService) *Server {
	return &Server{statusService: statusService}
}

func (s *Server) GetPaymentStatus(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	req, err := requestFrom(in)
	if err != nil {
		return nil, err
	}

	outcome, err := s.statusService.Watch(ctx, req.GetPaymentId())
	if err != nil {
		loggerWithContext(ctx).WithError(err).Error("Get payment status failed")
		return nil, status.Error(codes.Internal, "internal server error")
	}
	return toStruct(ctx, outcome)
}

// WaitPaymentStatus blocks until the outcome is terminal or the caller's
// deadline passes.
func (s *Server) WaitPaymentStatus(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	req, err := requestFrom(in)
	if err != nil {
		return nil, err
	}

	outcome, err := s.statusService.Await(ctx, req.GetPaymentId())
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return nil, status.Error(codes.DeadlineExceeded, "payment status still pending")
		case errors.Is(err, context.Canceled):
			return nil, status.Error(codes.Canceled, "request cancelled")
		case errors.Is(err, service.ErrSessionCancelled):
			return nil, status.Error(codes.Aborted, "payment status session cancelled")
		default:
			loggerWithContext(ctx).WithError(err).Error("Wait payment status failed")
			return nil, status.Error(codes.Internal, "internal server error")
		}
	}
	return toStruct(ctx, outcome)
}

func (s *Server) CancelPaymentStatus(ctx context.Context, in *wrapperspb.StringValue) (*emptypb.Empty, error) {
	req, err := requestFrom(in)
	if err != nil {
		return nil, err
	}

	if err := s.statusService.Cancel(req.GetPaymentId()); err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			return nil, status.Error(codes.NotFound, "payment status session not found")
		case errors.Is(err, service.ErrInvalidRequest):
			return nil, status.Error(codes.InvalidArgument, err.Error())
		default:
			loggerWithContext(ctx).WithError(err).Error("Cancel payment status failed")
			return nil, status.Error(codes.Internal, "internal server error")
		}
	}
	return &emptypb.Empty{}, nil
}

func requestFrom(in *wrapperspb.StringValue) (*types.PaymentStatusRequest, error) {
	req := &types.PaymentStatusRequest{PaymentId: strings.TrimSpace(in.GetValue())}
	if err := req.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return req, nil
}

func toStruct(ctx context.Context, outcome entity.Outcome) (*structpb.Struct, error) {
	resp, err := mapper.OutcomeToStruct(outcome)
	if err != nil {
		loggerWithContext(ctx).WithError(err).Error("Encode payment status failed")
		return nil, status.Error(codes.Internal, "internal server error")
	}
	return resp, nil
}
