package api

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type recordingServer struct {
	UnimplementedLocalAssetsStreamManagerServer
	got *StartSessionRequest
}

func (s *recordingServer) StartSession(ctx context.Context, in *StartSessionRequest) (*StartSessionResponse, error) {
	s.got = in
	if in.GetGameletName() == "bad" {
		return nil, status.Error(codes.InvalidArgument, "failed to parse instance name 'bad'")
	}
	return &StartSessionResponse{}, nil
}

func dial(t *testing.T, srv LocalAssetsStreamManagerServer, opts ...grpc.ServerOption) LocalAssetsStreamManagerClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer(opts...)
	RegisterLocalAssetsStreamManagerServer(s, srv)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewLocalAssetsStreamManagerClient(conn)
}

func TestService_RoundTrip(t *testing.T) {
	srv := &recordingServer{}
	cli := dial(t, srv)

	tests := []struct {
		name     string
		req      *StartSessionRequest
		wantCode codes.Code
	}{
		{name: "ok", req: &StartSessionRequest{GameletName: "organizations/O/projects/P/pools/Q/gamelets/a/b/c", WorkstationDirectory: "/src", Origin: OriginPartnerPortal}, wantCode: codes.OK},
		{name: "status propagates", req: &StartSessionRequest{GameletName: "bad"}, wantCode: codes.InvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := cli.StartSession(context.Background(), tt.req)
			assert.Equal(t, tt.wantCode, status.Code(err))
			if tt.wantCode == codes.OK {
				assert.NotNil(t, resp)
			} else {
				assert.Nil(t, resp)
			}
			require.NotNil(t, srv.got)
			assert.Equal(t, *tt.req, *srv.got)
		})
	}
}

func TestService_Unimplemented(t *testing.T) {
	cli := dial(t, &recordingServer{})
	_, err := cli.StopSession(context.Background(), &StopSessionRequest{GameletID: "a/b/c"})
	assert.Equal(t, codes.Unimplemented, status.Code(err))
}

func TestService_Interceptor(t *testing.T) {
	var seen string
	interceptor := func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		seen = info.FullMethod
		return handler(ctx, req)
	}
	cli := dial(t, &recordingServer{}, grpc.UnaryInterceptor(interceptor))
	_, err := cli.StartSession(context.Background(), &StartSessionRequest{GameletName: "x"})
	require.NoError(t, err)
	assert.Equal(t, "/assetstream.v1.LocalAssetsStreamManager/StartSession", seen)
}

func TestOrigin_String(t *testing.T) {
	tests := []struct {
		in   Origin
		want string
	}{
		{OriginUnknown, "ORIGIN_UNKNOWN"},
		{OriginCLI, "ORIGIN_CLI"},
		{OriginPartnerPortal, "ORIGIN_PARTNER_PORTAL"},
		{Origin(42), "ORIGIN_UNKNOWN"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.String())
		})
	}
}

func TestService_RequiresJSONSubtype(t *testing.T) {
	srv := &recordingServer{}
	cli := dial(t, srv).(*client)

	// Without the json subtype the default protobuf codec is used, which
	// cannot encode these messages.
	err := cli.cc.Invoke(context.Background(), startSessionMethod, &StartSessionRequest{GameletName: "x"}, new(StartSessionResponse))
	assert.Error(t, err)
	assert.Nil(t, srv.got, "request must not reach the server")

	err = cli.cc.Invoke(context.Background(), startSessionMethod, &StartSessionRequest{GameletName: "x"}, new(StartSessionResponse), grpc.CallContentSubtype(CodecName))
	assert.NoError(t, err)
	require.NotNil(t, srv.got)
	assert.Equal(t, "x", srv.got.GameletName)
}
