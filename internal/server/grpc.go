package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/po-matcher/internal/common"
	"github.com/joseph-ayodele/po-matcher/internal/document"
)

const (
	MatchServiceName     = "pomatch.v1.MatchService"
	MatchCompareFullName = "/" + MatchServiceName + "/Compare"
)

// MatchServiceServer is the server API for the match service.
//
// Requests carry {"invoice": {"filename", "content"}, "purchase_order": {...}}
// with content base64 encoded. Responses carry the comparison as JSON.
type MatchServiceServer interface {
	Compare(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func compareHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MatchServiceServer).Compare(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: MatchCompareFullName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(MatchServiceServer).Compare(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var MatchServiceDesc = grpc.ServiceDesc{
	ServiceName: MatchServiceName,
	HandlerType: (*MatchServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Compare", Handler: compareHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pomatch/v1/match.proto",
}

func RegisterMatchServiceServer(s grpc.ServiceRegistrar, srv MatchServiceServer) {
	s.RegisterService(&MatchServiceDesc, srv)
}

// MatchServer implements MatchServiceServer on top of a Comparer.
type MatchServer struct {
	comparer Comparer
	logger   *slog.Logger
}

func NewMatchServer(comparer Comparer, logger *slog.Logger) *MatchServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &MatchServer{comparer: comparer, logger: logger}
}

func (s *MatchServer) Compare(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	invoice, err := sourceField(req, "invoice")
	if err != nil {
		return nil, err
	}
	po, err := sourceField(req, "purchase_order")
	if err != nil {
		return nil, err
	}

	cmp, err := s.comparer.Compare(ctx, invoice, po)
	if err != nil {
		s.logger.Warn("grpc.compare.failed", "req_id", common.RequestIDFromContext(ctx), "code", common.CodeOf(err), "error", err)
		return nil, common.GRPCError(err)
	}

	raw, err := json.Marshal(cmp)
	if err != nil {
		return nil, common.InternalError("encode comparison")
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, common.InternalError("encode comparison")
	}
	return out, nil
}

// sourceField reads one document; an absent field yields an empty Source.
func sourceField(req *structpb.Struct, name string) (document.Source, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return document.Source{}, nil
	}
	obj := v.GetStructValue()
	if obj == nil {
		return document.Source{}, common.InvalidArgumentErrorf("%s must be an object", name)
	}
	fields := obj.GetFields()
	data, err := base64.StdEncoding.DecodeString(fields["content"].GetStringValue())
	if err != nil {
		return document.Source{}, common.InvalidArgumentErrorf("%s.content is not valid base64", name)
	}
	return document.Source{Name: fields["filename"].GetStringValue(), Data: data}, nil
}

// UnaryLogger assigns a request id and logs every unary call.
func UnaryLogger(logger *slog.Logger) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		rid := common.RequestIDFromContext(ctx)
		if rid == "" {
			rid = newRequestID()
			ctx = common.WithRequestID(ctx, rid)
		}
		resp, err := handler(ctx, req)
		logger.Info("grpc.request",
			"req_id", rid,
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return resp, err
	}
}
