package rpcpb

import (
	"context"

	"google.golang.org/grpc"
)

// SessionServiceServer is the collector-side implementation of the
// environment-overlay lookup a supervisor performs once per execution.
type SessionServiceServer interface {
	GetEnvironmentUpdate(context.Context, *EnvironmentRequest) (*EnvironmentResponse, error)
}

// SessionServiceClient is the supervisor-side stub.
type SessionServiceClient interface {
	GetEnvironmentUpdate(ctx context.Context, in *EnvironmentRequest, opts ...grpc.CallOption) (*EnvironmentResponse, error)
}

type sessionServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewSessionServiceClient wraps a dialed connection in the typed stub
// a generated client would provide.
func NewSessionServiceClient(cc grpc.ClientConnInterface) SessionServiceClient {
	return &sessionServiceClient{cc: cc}
}

func (c *sessionServiceClient) GetEnvironmentUpdate(ctx context.Context, in *EnvironmentRequest, opts ...grpc.CallOption) (*EnvironmentResponse, error) {
	out := new(EnvironmentResponse)
	if err := c.cc.Invoke(ctx, "/bear.rpc.SessionService/GetEnvironmentUpdate", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func sessionServiceGetEnvironmentUpdateHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(EnvironmentRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionServiceServer).GetEnvironmentUpdate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/bear.rpc.SessionService/GetEnvironmentUpdate",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SessionServiceServer).GetEnvironmentUpdate(ctx, req.(*EnvironmentRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// SessionServiceServiceDesc is the hand-authored equivalent of what
// protoc-gen-go-grpc would emit for a service with one unary method.
var SessionServiceServiceDesc = grpc.ServiceDesc{
	ServiceName: "bear.rpc.SessionService",
	HandlerType: (*SessionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetEnvironmentUpdate",
			Handler:    sessionServiceGetEnvironmentUpdateHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "bear/rpc/session.proto",
}

// RegisterSessionServiceServer registers srv against s the way
// generated code's Register*Server function would.
func RegisterSessionServiceServer(s grpc.ServiceRegistrar, srv SessionServiceServer) {
	s.RegisterService(&SessionServiceServiceDesc, srv)
}

// ReporterServiceServer is the collector-side implementation of the
// client-streaming event sink a supervisor flushes its lifecycle
// events through (spec.md §4.2).
type ReporterServiceServer interface {
	Report(ReporterService_ReportServer) error
}

// ReporterServiceClient is the supervisor-side stub.
type ReporterServiceClient interface {
	Report(ctx context.Context, opts ...grpc.CallOption) (ReporterService_ReportClient, error)
}

type reporterServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewReporterServiceClient wraps a dialed connection in the typed
// client-streaming stub a generated client would provide.
func NewReporterServiceClient(cc grpc.ClientConnInterface) ReporterServiceClient {
	return &reporterServiceClient{cc: cc}
}

func (c *reporterServiceClient) Report(ctx context.Context, opts ...grpc.CallOption) (ReporterService_ReportClient, error) {
	stream, err := c.cc.NewStream(ctx, &ReporterServiceServiceDesc.Streams[0], "/bear.rpc.ReporterService/Report", opts...)
	if err != nil {
		return nil, err
	}
	return &reporterServiceReportClient{stream}, nil
}

// ReporterService_ReportClient is the supervisor's handle on the
// in-flight event stream.
type ReporterService_ReportClient interface {
	Send(*EventRequest) error
	CloseAndRecv() (*ReportSummary, error)
	grpc.ClientStream
}

type reporterServiceReportClient struct {
	grpc.ClientStream
}

func (x *reporterServiceReportClient) Send(m *EventRequest) error {
	return x.ClientStream.SendMsg(m)
}

func (x *reporterServiceReportClient) CloseAndRecv() (*ReportSummary, error) {
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	m := new(ReportSummary)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// ReporterService_ReportServer is the collector's handle on the
// in-flight event stream.
type ReporterService_ReportServer interface {
	SendAndClose(*ReportSummary) error
	Recv() (*EventRequest, error)
	grpc.ServerStream
}

type reporterServiceReportServer struct {
	grpc.ServerStream
}

func (x *reporterServiceReportServer) SendAndClose(m *ReportSummary) error {
	return x.ServerStream.SendMsg(m)
}

func (x *reporterServiceReportServer) Recv() (*EventRequest, error) {
	m := new(EventRequest)
	if err := x.ServerStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func reporterServiceReportHandler(srv interface{}, stream grpc.ServerStream) error {
	return srv.(ReporterServiceServer).Report(&reporterServiceReportServer{stream})
}

// ReporterServiceServiceDesc is the hand-authored equivalent of what
// protoc-gen-go-grpc would emit for a service with one client-streaming
// method.
var ReporterServiceServiceDesc = grpc.ServiceDesc{
	ServiceName: "bear.rpc.ReporterService",
	HandlerType: (*ReporterServiceServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Report",
			Handler:       reporterServiceReportHandler,
			ClientStreams: true,
		},
	},
	Metadata: "bear/rpc/reporter.proto",
}

// RegisterReporterServiceServer registers srv against s the way
// generated code's Register*Server function would.
func RegisterReporterServiceServer(s grpc.ServiceRegistrar, srv ReporterServiceServer) {
	s.RegisterService(&ReporterServiceServiceDesc, srv)
}
