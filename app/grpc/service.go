package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName = "paymentstatus.v1.PaymentStatusService"

	MethodGetPaymentStatus    = "/" + ServiceName + "/GetPaymentStatus"
	MethodWaitPaymentStatus   = "/" + ServiceName + "/WaitPaymentStatus"
	MethodCancelPaymentStatus = "/" + ServiceName + "/CancelPaymentStatus"
)

// PaymentStatusServiceServer is the server API for the payment status service.
// Requests carry the payment identifier in a StringValue.
type PaymentStatusServiceServer interface {
	GetPaymentStatus(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	WaitPaymentStatus(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	CancelPaymentStatus(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
}

func RegisterPaymentStatusServiceServer(s grpc.ServiceRegistrar, srv PaymentStatusServiceServer) {
	s.RegisterService(&PaymentStatusServiceDesc, srv)
}

var PaymentStatusServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PaymentStatusServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetPaymentStatus", Handler: getPaymentStatusHandler},
		{MethodName: "WaitPaymentStatus", Handler: waitPaymentStatusHandler},
		{MethodName: "CancelPaymentStatus", Handler: cancelPaymentStatusHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "paymentstatus/v1/payment_status.proto",
}

func getPaymentStatusHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PaymentStatusServiceServer).GetPaymentStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodGetPaymentStatus}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PaymentStatusServiceServer).GetPaymentStatus(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func waitPaymentStatusHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PaymentStatusServiceServer).WaitPaymentStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodWaitPaymentStatus}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PaymentStatusServiceServer).WaitPaymentStatus(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func cancelPaymentStatusHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PaymentStatusServiceServer).CancelPaymentStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodCancelPaymentStatus}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PaymentStatusServiceServer).CancelPaymentStatus(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// PaymentStatusServiceClient calls the service over a client connection.
type PaymentStatusServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewPaymentStatusServiceClient(cc grpc.ClientConnInterface) *PaymentStatusServiceClient {
	return &PaymentStatusServiceClient{cc: cc}
}

func (c *PaymentStatusServiceClient) GetPaymentStatus(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodGetPaymentStatus, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *PaymentStatusServiceClient) WaitPaymentStatus(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodWaitPaymentStatus, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *PaymentStatusServiceClient) CancelPaymentStatus(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, MethodCancelPaymentStatus, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
