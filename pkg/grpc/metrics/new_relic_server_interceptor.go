package metrics

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/newrelic/go-agent/v3/newrelic"
	grpc_core "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/code-payments/hash-registry/pkg/grpc"
	"github.com/code-payments/hash-registry/pkg/metrics"
)

const (
	grpcRequestPackageAttributeKey = "grpc.request.package"
	grpcRequestServiceAttributeKey = "grpc.request.service"
	grpcRequestMethodAttributeKey  = "grpc.request.method"

	grpcResponseStatusCodeAttributeKey      = "grpc.response.statusCode"
	grpcResponseStatusMessageAttributeKey   = "grpc.response.statusMessage"
	grpcResponseStatusCodeLevelAttributeKey = "grpc.response.statusCodeLevel"

	infoLevel    = "info"
	warningLevel = "warning"
	errorLevel   = "error"
)

var statusCodeLevels = map[codes.Code]string{
	codes.OK:              infoLevel,
	codes.AlreadyExists:   infoLevel,
	codes.Canceled:        infoLevel,
	codes.InvalidArgument: infoLevel,
	codes.NotFound:        infoLevel,
	codes.Unauthenticated: infoLevel,

	codes.Aborted:            warningLevel,
	codes.DeadlineExceeded:   warningLevel,
	codes.FailedPrecondition: warningLevel,
	codes.OutOfRange:         warningLevel,
	codes.PermissionDenied:   warningLevel,
	codes.ResourceExhausted:  warningLevel,
	codes.Unavailable:        warningLevel,
}

// CustomNewRelicUnaryServerInterceptor starts a New Relic transaction per
// unary call and injects the application into the handler context.
func CustomNewRelicUnaryServerInterceptor(app *newrelic.Application) grpc_core.UnaryServerInterceptor {
	if app == nil {
		return func(ctx context.Context, req interface{}, info *grpc_core.UnaryServerInfo, handler grpc_core.UnaryHandler) (interface{}, error) {
			return handler(ctx, req)
		}
	}

	return func(ctx context.Context, req interface{}, info *grpc_core.UnaryServerInfo, handler grpc_core.UnaryHandler) (interface{}, error) {
		ctx = metrics.NewContext(ctx, app)

		txn := startTransaction(ctx, app, info.FullMethod)
		defer txn.End()

		ctx = newrelic.NewContext(ctx, txn)

		resp, err := handler(ctx, req)
		includeGRPCStatusCode(txn, err)
		return resp, err
	}
}

// CustomNewRelicStreamServerInterceptor is the streaming equivalent of
// CustomNewRelicUnaryServerInterceptor.
func CustomNewRelicStreamServerInterceptor(app *newrelic.Application) grpc_core.StreamServerInterceptor {
	if app == nil {
		return func(srv interface{}, ss grpc_core.ServerStream, info *grpc_core.StreamServerInfo, handler grpc_core.StreamHandler) error {
			return handler(srv, ss)
		}
	}

	return func(srv interface{}, ss grpc_core.ServerStream, info *grpc_core.StreamServerInfo, handler grpc_core.StreamHandler) error {
		ctx := metrics.NewContext(ss.Context(), app)

		txn := startTransaction(ctx, app, info.FullMethod)
		defer txn.End()

		ctx = newrelic.NewContext(ctx, txn)

		err := handler(srv, &wrappedStream{ctx: ctx, ServerStream: ss})
		includeGRPCStatusCode(txn, err)
		return err
	}
}

type wrappedStream struct {
	ctx context.Context
	grpc_core.ServerStream
}

func (w *wrappedStream) Context() context.Context {
	return w.ctx
}

func startTransaction(ctx context.Context, app *newrelic.Application, fullMethod string) *newrelic.Transaction {
	method := strings.TrimPrefix(fullMethod, "/")

	var hdrs http.Header
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		hdrs = make(http.Header, len(md))
		for k, vs := range md {
			for _, v := range vs {
				hdrs.Add(k, v)
			}
		}
	}

	txn := app.StartTransaction(method)
	txn.SetWebRequest(newrelic.WebRequest{
		Header: hdrs,
		URL: &url.URL{
			Scheme: "grpc",
			Host:   hdrs.Get(":authority"),
			Path:   method,
		},
		Method:    method,
		Transport: newrelic.TransportHTTP,
	})

	packageName, serviceName, methodName, err := grpc.ParseFullMethodName(fullMethod)
	if err == nil {
		txn.AddAttribute(grpcRequestPackageAttributeKey, packageName)
		txn.AddAttribute(grpcRequestServiceAttributeKey, serviceName)
		txn.AddAttribute(grpcRequestMethodAttributeKey, methodName)
	}

	return txn
}

func includeGRPCStatusCode(txn *newrelic.Transaction, err error) {
	s := status.Convert(err)

	level, ok := statusCodeLevels[s.Code()]
	if !ok {
		level = errorLevel
	}

	txn.SetWebResponse(nil).WriteHeader(int(codes.OK))
	txn.AddAttribute(grpcResponseStatusCodeAttributeKey, s.Code().String())
	txn.AddAttribute(grpcResponseStatusMessageAttributeKey, s.Message())
	txn.AddAttribute(grpcResponseStatusCodeLevelAttributeKey, level)

	if level == errorLevel {
		txn.NoticeError(&newrelic.Error{
			Message: s.Message(),
			Class:   "gRPC Status: " + s.Code().String(),
		})
	}
}
