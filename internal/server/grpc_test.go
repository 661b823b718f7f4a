package server

import (
	"context"
	"encoding/base64"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/po-matcher/internal/common"
)

func dialMatchService(t *testing.T, c Comparer) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.UnaryInterceptor(UnaryLogger(nil)))
	RegisterMatchServiceServer(srv, NewMatchServer(c, nil))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func compareRequest(t *testing.T, invContent, poContent string) *structpb.Struct {
	t.Helper()
	req, err := structpb.NewStruct(map[string]any{
		"invoice":        map[string]any{"filename": "inv.pdf", "content": invContent},
		"purchase_order": map[string]any{"filename": "po.png", "content": poContent},
	})
	require.NoError(t, err)
	return req
}

func TestGRPC_Compare(t *testing.T) {
	fc := &fakeComparer{}
	conn := dialMatchService(t, fc)

	req := compareRequest(t,
		base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 inv")),
		base64.StdEncoding.EncodeToString([]byte("po-bytes")),
	)
	out := &structpb.Struct{}
	require.NoError(t, conn.Invoke(context.Background(), MatchCompareFullName, req, out))

	assert.Equal(t, "inv.pdf", fc.invoice.Name)
	assert.Equal(t, []byte("%PDF-1.4 inv"), fc.invoice.Data)
	assert.Equal(t, []byte("po-bytes"), fc.po.Data)
	assert.NotEmpty(t, fc.reqID)

	result := out.GetFields()["result"].GetStructValue()
	require.NotNil(t, result)
	assert.Equal(t, "NEEDS_REVIEW", result.GetFields()["status"].GetStringValue())
	assert.Equal(t, "text", out.GetFields()["mode"].GetStringValue())
}

func TestGRPC_CompareErrors(t *testing.T) {
	valid := base64.StdEncoding.EncodeToString([]byte("x"))
	tests := []struct {
		name string
		req  func(t *testing.T) *structpb.Struct
		err  error
		want codes.Code
	}{
		{
			name: "bad base64",
			req:  func(t *testing.T) *structpb.Struct { return compareRequest(t, "!!!", valid) },
			want: codes.InvalidArgument,
		},
		{
			name: "missing document",
			req: func(t *testing.T) *structpb.Struct {
				s, err := structpb.NewStruct(map[string]any{
					"invoice": map[string]any{"filename": "inv.pdf", "content": valid},
				})
				require.NoError(t, err)
				return s
			},
			want: codes.InvalidArgument,
		},
		{
			name: "document not an object",
			req: func(t *testing.T) *structpb.Struct {
				s, err := structpb.NewStruct(map[string]any{"invoice": "inv.pdf", "purchase_order": "po.pdf"})
				require.NoError(t, err)
				return s
			},
			want: codes.InvalidArgument,
		},
		{
			name: "extraction failure",
			req:  func(t *testing.T) *structpb.Struct { return compareRequest(t, valid, valid) },
			err:  common.ExtractionFailure("structured extraction failed", nil),
			want: codes.Unavailable,
		},
		{
			name: "timeout",
			req:  func(t *testing.T) *structpb.Struct { return compareRequest(t, valid, valid) },
			err:  common.ExtractionFailure("structured extraction failed", context.DeadlineExceeded),
			want: codes.DeadlineExceeded,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := dialMatchService(t, &fakeComparer{err: tt.err})
			err := conn.Invoke(context.Background(), MatchCompareFullName, tt.req(t), &structpb.Struct{})
			require.Error(t, err)
			assert.Equal(t, tt.want, status.Code(err))
		})
	}
}
