package gasoptd

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "gasopt.v1.OptimizerService"

// OptimizerServiceServer is the server API of gasopt.v1.OptimizerService.
// Messages are protobuf well-known types; run fields use the HTTP JSON names.
type OptimizerServiceServer interface {
	CreateRun(context.Context, *structpb.Struct) (*structpb.Struct, error)
	StartRun(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	StopRun(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	GetRun(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	ListRuns(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// RegisterOptimizerServiceServer registers srv on s
func RegisterOptimizerServiceServer(s grpc.ServiceRegistrar, srv OptimizerServiceServer) {
	s.RegisterService(&OptimizerServiceDesc, srv)
}

func newStruct() any      { return new(structpb.Struct) }
func newStringValue() any { return new(wrapperspb.StringValue) }
func newEmpty() any       { return new(emptypb.Empty) }

// unaryHandler adapts a typed call to grpc.MethodHandler, honoring interceptors
func unaryHandler(method string, newReq func() any, call func(OptimizerServiceServer, context.Context, any) (any, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := newReq()
		if err := dec(in); err != nil {
			return nil, err
		}
		s := srv.(OptimizerServiceServer)
		if interceptor == nil {
			return call(s, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + method}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(s, ctx, req)
		})
	}
}

// OptimizerServiceDesc describes gasopt.v1.OptimizerService for grpc.Server
var OptimizerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*OptimizerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "CreateRun",
			Handler: unaryHandler("CreateRun", newStruct, func(s OptimizerServiceServer, ctx context.Context, req any) (any, error) {
				return s.CreateRun(ctx, req.(*structpb.Struct))
			}),
		},
		{
			MethodName: "StartRun",
			Handler: unaryHandler("StartRun", newStringValue, func(s OptimizerServiceServer, ctx context.Context, req any) (any, error) {
				return s.StartRun(ctx, req.(*wrapperspb.StringValue))
			}),
		},
		{
			MethodName: "StopRun",
			Handler: unaryHandler("StopRun", newStringValue, func(s OptimizerServiceServer, ctx context.Context, req any) (any, error) {
				return s.StopRun(ctx, req.(*wrapperspb.StringValue))
			}),
		},
		{
			MethodName: "GetRun",
			Handler: unaryHandler("GetRun", newStringValue, func(s OptimizerServiceServer, ctx context.Context, req any) (any, error) {
				return s.GetRun(ctx, req.(*wrapperspb.StringValue))
			}),
		},
		{
			MethodName: "ListRuns",
			Handler: unaryHandler("ListRuns", newEmpty, func(s OptimizerServiceServer, ctx context.Context, req any) (any, error) {
				return s.ListRuns(ctx, req.(*emptypb.Empty))
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gasopt/v1/optimizer.proto",
}

// OptimizerServiceClient is the client API of gasopt.v1.OptimizerService
type OptimizerServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewOptimizerServiceClient(cc grpc.ClientConnInterface) *OptimizerServiceClient {
	return &OptimizerServiceClient{cc: cc}
}

func (c *OptimizerServiceClient) invoke(ctx context.Context, method string, in any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *OptimizerServiceClient) CreateRun(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "CreateRun", in, opts...)
}

func (c *OptimizerServiceClient) StartRun(ctx context.Context, runID string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "StartRun", wrapperspb.String(runID), opts...)
}

func (c *OptimizerServiceClient) StopRun(ctx context.Context, runID string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "StopRun", wrapperspb.String(runID), opts...)
}

func (c *OptimizerServiceClient) GetRun(ctx context.Context, runID string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetRun", wrapperspb.String(runID), opts...)
}

func (c *OptimizerServiceClient) ListRuns(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ListRuns", &emptypb.Empty{}, opts...)
}
