// Package api defines the LocalAssetsStreamManager gRPC service. Messages are
// plain Go structs carried by the JSON codec, so there is no protobuf
// encoding of assetstream.v1.LocalAssetsStreamManager: stock protobuf clients
// cannot call this server. Clients must send content subtype "json", either
// through NewLocalAssetsStreamManagerClient or by passing
// grpc.CallContentSubtype(CodecName) themselves.
package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "assetstream.v1.LocalAssetsStreamManager"

const (
	startSessionMethod = "/" + ServiceName + "/StartSession"
	stopSessionMethod  = "/" + ServiceName + "/StopSession"
)

// LocalAssetsStreamManagerServer is the server API.
type LocalAssetsStreamManagerServer interface {
	StartSession(context.Context, *StartSessionRequest) (*StartSessionResponse, error)
	StopSession(context.Context, *StopSessionRequest) (*StopSessionResponse, error)
}

// UnimplementedLocalAssetsStreamManagerServer can be embedded for forward
// compatibility.
type UnimplementedLocalAssetsStreamManagerServer struct{}

func (UnimplementedLocalAssetsStreamManagerServer) StartSession(context.Context, *StartSessionRequest) (*StartSessionResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method StartSession not implemented")
}

func (UnimplementedLocalAssetsStreamManagerServer) StopSession(context.Context, *StopSessionRequest) (*StopSessionResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method StopSession not implemented")
}

func RegisterLocalAssetsStreamManagerServer(s grpc.ServiceRegistrar, srv LocalAssetsStreamManagerServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func startSessionHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(StartSessionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LocalAssetsStreamManagerServer).StartSession(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: startSessionMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LocalAssetsStreamManagerServer).StartSession(ctx, req.(*StartSessionRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func stopSessionHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(StopSessionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LocalAssetsStreamManagerServer).StopSession(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: stopSessionMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LocalAssetsStreamManagerServer).StopSession(ctx, req.(*StopSessionRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LocalAssetsStreamManagerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "StartSession", Handler: startSessionHandler},
		{MethodName: "StopSession", Handler: stopSessionHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "assetstream/v1/local_assets_stream_manager.proto",
}

// LocalAssetsStreamManagerClient is the client API.
type LocalAssetsStreamManagerClient interface {
	StartSession(ctx context.Context, in *StartSessionRequest, opts ...grpc.CallOption) (*StartSessionResponse, error)
	StopSession(ctx context.Context, in *StopSessionRequest, opts ...grpc.CallOption) (*StopSessionResponse, error)
}

type client struct {
	cc grpc.ClientConnInterface
}

func NewLocalAssetsStreamManagerClient(cc grpc.ClientConnInterface) LocalAssetsStreamManagerClient {
	return &client{cc: cc}
}

func (c *client) StartSession(ctx context.Context, in *StartSessionRequest, opts ...grpc.CallOption) (*StartSessionResponse, error) {
	out := new(StartSessionResponse)
	if err := c.cc.Invoke(ctx, startSessionMethod, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *client) StopSession(ctx context.Context, in *StopSessionRequest, opts ...grpc.CallOption) (*StopSessionResponse, error) {
	out := new(StopSessionResponse)
	if err := c.cc.Invoke(ctx, stopSessionMethod, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func callOptions(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}
