package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const AppointmentsServiceName = "vitta.v1.AppointmentsService"

const (
	MethodListAppointments  = "/" + AppointmentsServiceName + "/ListAppointments"
	MethodGetAppointment    = "/" + AppointmentsServiceName + "/GetAppointment"
	MethodAcceptAppointment = "/" + AppointmentsServiceName + "/AcceptAppointment"
	MethodCancelAppointment = "/" + AppointmentsServiceName + "/CancelAppointment"
	MethodResetAppointments = "/" + AppointmentsServiceName + "/ResetAppointments"
)

// AppointmentsServiceServer is served over well-known message types: ids
// travel as StringValue and replies as Struct documents.
type AppointmentsServiceServer interface {
	ListAppointments(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	GetAppointment(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
	AcceptAppointment(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
	CancelAppointment(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
	ResetAppointments(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
}

func RegisterAppointmentsServiceServer(s grpc.ServiceRegistrar, srv AppointmentsServiceServer) {
	s.RegisterService(&appointmentsServiceDesc, srv)
}

var appointmentsServiceDesc = grpc.ServiceDesc{
	ServiceName: AppointmentsServiceName,
	HandlerType: (*AppointmentsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListAppointments", Handler: unaryHandler(MethodListAppointments, newEmpty, AppointmentsServiceServer.ListAppointments)},
		{MethodName: "GetAppointment", Handler: unaryHandler(MethodGetAppointment, newStringValue, AppointmentsServiceServer.GetAppointment)},
		{MethodName: "AcceptAppointment", Handler: unaryHandler(MethodAcceptAppointment, newStringValue, AppointmentsServiceServer.AcceptAppointment)},
		{MethodName: "CancelAppointment", Handler: unaryHandler(MethodCancelAppointment, newStringValue, AppointmentsServiceServer.CancelAppointment)},
		{MethodName: "ResetAppointments", Handler: unaryHandler(MethodResetAppointments, newEmpty, AppointmentsServiceServer.ResetAppointments)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "vitta/v1/appointments.proto",
}

func newEmpty() *emptypb.Empty { return new(emptypb.Empty) }

func newStringValue() *wrapperspb.StringValue { return new(wrapperspb.StringValue) }

func unaryHandler[Req any](
	fullMethod string,
	newReq func() Req,
	call func(AppointmentsServiceServer, context.Context, Req) (*structpb.Struct, error),
) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := newReq()
		if err := dec(in); err != nil {
			return nil, err
		}
		s := srv.(AppointmentsServiceServer)
		if interceptor == nil {
			return call(s, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(s, ctx, req.(Req))
		})
	}
}

// AppointmentsServiceClient calls AppointmentsService over a client connection.
type AppointmentsServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewAppointmentsServiceClient(cc grpc.ClientConnInterface) *AppointmentsServiceClient {
	return &AppointmentsServiceClient{cc: cc}
}

func (c *AppointmentsServiceClient) ListAppointments(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodListAppointments, &emptypb.Empty{}, opts)
}

func (c *AppointmentsServiceClient) GetAppointment(ctx context.Context, id string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodGetAppointment, wrapperspb.String(id), opts)
}

func (c *AppointmentsServiceClient) AcceptAppointment(ctx context.Context, id string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodAcceptAppointment, wrapperspb.String(id), opts)
}

func (c *AppointmentsServiceClient) CancelAppointment(ctx context.Context, id string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodCancelAppointment, wrapperspb.String(id), opts)
}

func (c *AppointmentsServiceClient) ResetAppointments(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodResetAppointments, &emptypb.Empty{}, opts)
}

func (c *AppointmentsServiceClient) invoke(ctx context.Context, method string, in any, opts []grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
