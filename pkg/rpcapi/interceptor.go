package rpcapi

import (
	"context"
	"time"

	"github.com/cuemby/flowrunner/pkg/ferr"
	"github.com/cuemby/flowrunner/pkg/flowlog"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// RequestLoggingInterceptor tags every unary call with a correlation ID
// and logs its method, duration, and outcome.
func RequestLoggingInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		callID := uuid.New().String()
		start := time.Now()
		resp, err := handler(ctx, req)
		log := flowlog.WithComponent("rpcapi")
		log.Debug().
			Str("call_id", callID).
			Str("method", info.FullMethod).
			Dur("elapsed", time.Since(start)).
			Err(err).
			Msg("rpc call")
		return resp, err
	}
}

// ErrorMappingInterceptor translates flowrunner's error taxonomy
// (pkg/ferr) into gRPC status codes.
func ErrorMappingInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		resp, err := handler(ctx, req)
		if err == nil {
			return resp, nil
		}
		return resp, status.Error(mapCode(err), err.Error())
	}
}

// StreamErrorMappingInterceptor is the streaming-RPC counterpart of
// ErrorMappingInterceptor.
func StreamErrorMappingInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		err := handler(srv, ss)
		if err == nil {
			return nil
		}
		return status.Error(mapCode(err), err.Error())
	}
}

func mapCode(err error) codes.Code {
	switch ferr.Code(err) {
	case "invalid-argument":
		return codes.Internal
	case "not-found":
		return codes.NotFound
	case "already-exists":
		return codes.AlreadyExists
	case "os-error":
		return codes.Internal
	case "timeout":
		return codes.DeadlineExceeded
	default:
		return codes.Unknown
	}
}
