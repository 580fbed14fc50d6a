package rpcapi

import (
	"context"

	"github.com/cuemby/flowrunner/pkg/rpcapi/taskrunnerpb"
	"google.golang.org/grpc"
)

// serviceDesc is the hand-written equivalent of what protoc-gen-go-grpc
// would emit from service.proto. It exists because this module never
// invokes protoc; the method table and streaming wrappers below are the
// manual version of generated code, registered against the real
// google.golang.org/grpc runtime via jsonCodec (pkg/rpcapi/codec.go).
var serviceDesc = grpc.ServiceDesc{
	ServiceName: "flowrunner.TaskRunner",
	HandlerType: (*any)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateQueue", Handler: handleCreateQueue},
		{MethodName: "ListQueue", Handler: handleListQueue},
		{MethodName: "DeleteQueue", Handler: handleDeleteQueue},
		{MethodName: "RenameQueue", Handler: handleRenameQueue},
		{MethodName: "AddTask", Handler: handleAddTask},
		{MethodName: "RemoveTask", Handler: handleRemoveTask},
		{MethodName: "PendingDetails", Handler: handlePendingDetails},
		{MethodName: "FinishedDetails", Handler: handleFinishedDetails},
		{MethodName: "ClearPending", Handler: handleClearPending},
		{MethodName: "ClearFinished", Handler: handleClearFinished},
		{MethodName: "CurrentTask", Handler: handleCurrentTask},
		{MethodName: "IsRunning", Handler: handleIsRunning},
		{MethodName: "Start", Handler: handleStart},
		{MethodName: "Stop", Handler: handleStop},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "ListPending", Handler: handleListPendingStream, ServerStreams: true},
		{StreamName: "ListFinished", Handler: handleListFinishedStream, ServerStreams: true},
		{StreamName: "ReadCurrentOutput", Handler: handleReadCurrentOutputStream, ServerStreams: true},
	},
	Metadata: "service.proto",
}

func unaryInfo(method string) *grpc.UnaryServerInfo {
	return &grpc.UnaryServerInfo{FullMethod: "/flowrunner.TaskRunner/" + method}
}

func handleCreateQueue(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(taskrunnerpb.CreateQueueRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*Server).CreateQueue(ctx, in)
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(*Server).CreateQueue(ctx, req.(*taskrunnerpb.CreateQueueRequest))
	}
	return interceptor(ctx, in, unaryInfo("CreateQueue"), handler)
}

func handleListQueue(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(taskrunnerpb.ListQueueRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*Server).ListQueue(ctx, in)
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(*Server).ListQueue(ctx, req.(*taskrunnerpb.ListQueueRequest))
	}
	return interceptor(ctx, in, unaryInfo("ListQueue"), handler)
}

func handleDeleteQueue(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(taskrunnerpb.DeleteQueueRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*Server).DeleteQueue(ctx, in)
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(*Server).DeleteQueue(ctx, req.(*taskrunnerpb.DeleteQueueRequest))
	}
	return interceptor(ctx, in, unaryInfo("DeleteQueue"), handler)
}

func handleRenameQueue(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(taskrunnerpb.RenameQueueRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*Server).RenameQueue(ctx, in)
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(*Server).RenameQueue(ctx, req.(*taskrunnerpb.RenameQueueRequest))
	}
	return interceptor(ctx, in, unaryInfo("RenameQueue"), handler)
}

func handleAddTask(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(taskrunnerpb.AddTaskRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*Server).AddTask(ctx, in)
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(*Server).AddTask(ctx, req.(*taskrunnerpb.AddTaskRequest))
	}
	return interceptor(ctx, in, unaryInfo("AddTask"), handler)
}

func handleRemoveTask(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(taskrunnerpb.TaskIDRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*Server).RemoveTask(ctx, in)
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(*Server).RemoveTask(ctx, req.(*taskrunnerpb.TaskIDRequest))
	}
	return interceptor(ctx, in, unaryInfo("RemoveTask"), handler)
}

func handlePendingDetails(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(taskrunnerpb.TaskIDRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*Server).PendingDetails(ctx, in)
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(*Server).PendingDetails(ctx, req.(*taskrunnerpb.TaskIDRequest))
	}
	return interceptor(ctx, in, unaryInfo("PendingDetails"), handler)
}

func handleFinishedDetails(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(taskrunnerpb.TaskIDRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*Server).FinishedDetails(ctx, in)
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(*Server).FinishedDetails(ctx, req.(*taskrunnerpb.TaskIDRequest))
	}
	return interceptor(ctx, in, unaryInfo("FinishedDetails"), handler)
}

func handleClearPending(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(taskrunnerpb.QueueRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*Server).ClearPending(ctx, in)
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(*Server).ClearPending(ctx, req.(*taskrunnerpb.QueueRequest))
	}
	return interceptor(ctx, in, unaryInfo("ClearPending"), handler)
}

func handleClearFinished(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(taskrunnerpb.QueueRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*Server).ClearFinished(ctx, in)
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(*Server).ClearFinished(ctx, req.(*taskrunnerpb.QueueRequest))
	}
	return interceptor(ctx, in, unaryInfo("ClearFinished"), handler)
}

func handleCurrentTask(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(taskrunnerpb.QueueRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*Server).CurrentTask(ctx, in)
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(*Server).CurrentTask(ctx, req.(*taskrunnerpb.QueueRequest))
	}
	return interceptor(ctx, in, unaryInfo("CurrentTask"), handler)
}

func handleIsRunning(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(taskrunnerpb.QueueRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*Server).IsRunning(ctx, in)
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(*Server).IsRunning(ctx, req.(*taskrunnerpb.QueueRequest))
	}
	return interceptor(ctx, in, unaryInfo("IsRunning"), handler)
}

func handleStart(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(taskrunnerpb.QueueRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*Server).StartQueue(ctx, in)
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(*Server).StartQueue(ctx, req.(*taskrunnerpb.QueueRequest))
	}
	return interceptor(ctx, in, unaryInfo("Start"), handler)
}

func handleStop(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(taskrunnerpb.QueueRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*Server).StopQueue(ctx, in)
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(*Server).StopQueue(ctx, req.(*taskrunnerpb.QueueRequest))
	}
	return interceptor(ctx, in, unaryInfo("Stop"), handler)
}

type idResponseStream struct{ grpc.ServerStream }

func (x *idResponseStream) Send(m *taskrunnerpb.IDResponse) error { return x.SendMsg(m) }

type chunkResponseStream struct{ grpc.ServerStream }

func (x *chunkResponseStream) Send(m *taskrunnerpb.ChunkResponse) error { return x.SendMsg(m) }

func handleListPendingStream(srv any, stream grpc.ServerStream) error {
	m := new(taskrunnerpb.QueueRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(*Server).ListPending(m, &idResponseStream{stream})
}

func handleListFinishedStream(srv any, stream grpc.ServerStream) error {
	m := new(taskrunnerpb.QueueRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(*Server).ListFinished(m, &idResponseStream{stream})
}

func handleReadCurrentOutputStream(srv any, stream grpc.ServerStream) error {
	m := new(taskrunnerpb.QueueRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(*Server).ReadCurrentOutput(m, &chunkResponseStream{stream})
}
