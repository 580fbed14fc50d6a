// Package rpcapi is the service adapter: it maps each wire method from
// service.proto method-for-method onto the local queue-list/queue
// contract.
package rpcapi

import (
	"context"
	"fmt"
	"net"

	"github.com/cuemby/flowrunner/internal/model"
	"github.com/cuemby/flowrunner/internal/queuelist"
	"github.com/cuemby/flowrunner/pkg/ferr"
	"github.com/cuemby/flowrunner/pkg/flowlog"
	"github.com/cuemby/flowrunner/pkg/rpcapi/taskrunnerpb"
	"google.golang.org/grpc"
)

// Server implements the TaskRunner gRPC service by delegating to a
// local queue-list manager.
type Server struct {
	manager *queuelist.Manager
	grpc    *grpc.Server
}

// NewServer returns a Server fronting mgr.
func NewServer(mgr *queuelist.Manager) *Server {
	s := &Server{manager: mgr}
	s.grpc = grpc.NewServer(
		grpc.ChainUnaryInterceptor(RequestLoggingInterceptor(), ErrorMappingInterceptor()),
		grpc.StreamInterceptor(StreamErrorMappingInterceptor()),
	)
	s.grpc.RegisterService(&serviceDesc, s)
	return s
}

// Start listens on addr and serves until Stop is called.
func (s *Server) Start(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("%w: listen: %v", ferr.ErrOSError, err)
	}
	flowlog.Logger.Info().Str("addr", addr).Msg("rpcapi: listening")
	return s.grpc.Serve(lis)
}

// Stop gracefully stops the gRPC server.
func (s *Server) Stop() {
	if s.grpc != nil {
		s.grpc.GracefulStop()
	}
}

func (s *Server) CreateQueue(ctx context.Context, req *taskrunnerpb.CreateQueueRequest) (*taskrunnerpb.Empty, error) {
	if err := s.manager.Create(req.Name); err != nil {
		return nil, err
	}
	return &taskrunnerpb.Empty{}, nil
}

func (s *Server) ListQueue(ctx context.Context, _ *taskrunnerpb.ListQueueRequest) (*taskrunnerpb.ListQueueResponse, error) {
	return &taskrunnerpb.ListQueueResponse{Names: s.manager.List()}, nil
}

func (s *Server) DeleteQueue(ctx context.Context, req *taskrunnerpb.DeleteQueueRequest) (*taskrunnerpb.Empty, error) {
	if err := s.manager.Delete(req.Name); err != nil {
		return nil, err
	}
	return &taskrunnerpb.Empty{}, nil
}

func (s *Server) RenameQueue(ctx context.Context, req *taskrunnerpb.RenameQueueRequest) (*taskrunnerpb.Empty, error) {
	if err := s.manager.Rename(req.OldName, req.NewName); err != nil {
		return nil, err
	}
	return &taskrunnerpb.Empty{}, nil
}

func (s *Server) AddTask(ctx context.Context, req *taskrunnerpb.AddTaskRequest) (*taskrunnerpb.AddTaskResponse, error) {
	q, err := s.manager.Get(req.Queue)
	if err != nil {
		return nil, err
	}
	defer s.manager.Return(req.Queue)

	id, err := q.AddTask(req.Exec, req.Args, req.WorkDir)
	if err != nil {
		return nil, err
	}
	return &taskrunnerpb.AddTaskResponse{ID: id}, nil
}

func (s *Server) RemoveTask(ctx context.Context, req *taskrunnerpb.TaskIDRequest) (*taskrunnerpb.Empty, error) {
	q, err := s.manager.Get(req.Queue)
	if err != nil {
		return nil, err
	}
	defer s.manager.Return(req.Queue)

	if err := q.RemoveTask(req.ID); err != nil {
		return nil, err
	}
	return &taskrunnerpb.Empty{}, nil
}

func (s *Server) ListPending(req *taskrunnerpb.QueueRequest, stream grpc.ServerStreamingServer[taskrunnerpb.IDResponse]) error {
	q, err := s.manager.Get(req.Queue)
	if err != nil {
		return err
	}
	defer s.manager.Return(req.Queue)

	for _, id := range q.ListPending() {
		if err := stream.Send(&taskrunnerpb.IDResponse{ID: id}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) ListFinished(req *taskrunnerpb.QueueRequest, stream grpc.ServerStreamingServer[taskrunnerpb.IDResponse]) error {
	q, err := s.manager.Get(req.Queue)
	if err != nil {
		return err
	}
	defer s.manager.Return(req.Queue)

	for _, id := range q.ListFinished() {
		if err := stream.Send(&taskrunnerpb.IDResponse{ID: id}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) PendingDetails(ctx context.Context, req *taskrunnerpb.TaskIDRequest) (*taskrunnerpb.TaskResponse, error) {
	q, err := s.manager.Get(req.Queue)
	if err != nil {
		return nil, err
	}
	defer s.manager.Return(req.Queue)

	t, err := q.PendingDetails(req.ID)
	if err != nil {
		return nil, err
	}
	return &taskrunnerpb.TaskResponse{Task: toWireTask(t)}, nil
}

func (s *Server) FinishedDetails(ctx context.Context, req *taskrunnerpb.TaskIDRequest) (*taskrunnerpb.TaskResponse, error) {
	q, err := s.manager.Get(req.Queue)
	if err != nil {
		return nil, err
	}
	defer s.manager.Return(req.Queue)

	t, err := q.FinishedDetails(req.ID)
	if err != nil {
		return nil, err
	}
	return &taskrunnerpb.TaskResponse{Task: toWireTask(t)}, nil
}

func (s *Server) ClearPending(ctx context.Context, req *taskrunnerpb.QueueRequest) (*taskrunnerpb.Empty, error) {
	q, err := s.manager.Get(req.Queue)
	if err != nil {
		return nil, err
	}
	defer s.manager.Return(req.Queue)

	if err := q.ClearPending(); err != nil {
		return nil, err
	}
	return &taskrunnerpb.Empty{}, nil
}

func (s *Server) ClearFinished(ctx context.Context, req *taskrunnerpb.QueueRequest) (*taskrunnerpb.Empty, error) {
	q, err := s.manager.Get(req.Queue)
	if err != nil {
		return nil, err
	}
	defer s.manager.Return(req.Queue)

	if err := q.ClearFinished(); err != nil {
		return nil, err
	}
	return &taskrunnerpb.Empty{}, nil
}

func (s *Server) CurrentTask(ctx context.Context, req *taskrunnerpb.QueueRequest) (*taskrunnerpb.TaskResponse, error) {
	q, err := s.manager.Get(req.Queue)
	if err != nil {
		return nil, err
	}
	defer s.manager.Return(req.Queue)

	t, err := q.CurrentTask()
	if err != nil {
		return nil, err
	}
	return &taskrunnerpb.TaskResponse{Task: toWireTask(t)}, nil
}

func (s *Server) IsRunning(ctx context.Context, req *taskrunnerpb.QueueRequest) (*taskrunnerpb.IsRunningResponse, error) {
	q, err := s.manager.Get(req.Queue)
	if err != nil {
		return nil, err
	}
	defer s.manager.Return(req.Queue)

	return &taskrunnerpb.IsRunningResponse{Running: q.IsRunning()}, nil
}

func (s *Server) ReadCurrentOutput(req *taskrunnerpb.QueueRequest, stream grpc.ServerStreamingServer[taskrunnerpb.ChunkResponse]) error {
	q, err := s.manager.Get(req.Queue)
	if err != nil {
		return err
	}
	defer s.manager.Return(req.Queue)

	for _, chunk := range q.ReadCurrentOutput() {
		if err := stream.Send(&taskrunnerpb.ChunkResponse{Data: chunk}); err != nil {
			return err
		}
	}
	return nil
}

// StartQueue implements the wire "Start" RPC; named to avoid colliding
// with the Server.Start lifecycle method above.
func (s *Server) StartQueue(ctx context.Context, req *taskrunnerpb.QueueRequest) (*taskrunnerpb.Empty, error) {
	q, err := s.manager.Get(req.Queue)
	if err != nil {
		return nil, err
	}
	defer s.manager.Return(req.Queue)

	if err := q.Start(); err != nil {
		return nil, err
	}
	return &taskrunnerpb.Empty{}, nil
}

// StopQueue implements the wire "Stop" RPC; named to avoid colliding
// with the Server.Stop lifecycle method above.
func (s *Server) StopQueue(ctx context.Context, req *taskrunnerpb.QueueRequest) (*taskrunnerpb.Empty, error) {
	q, err := s.manager.Get(req.Queue)
	if err != nil {
		return nil, err
	}
	defer s.manager.Return(req.Queue)

	if err := q.Stop(); err != nil {
		return nil, err
	}
	return &taskrunnerpb.Empty{}, nil
}

func toWireTask(t *model.Task) taskrunnerpb.TaskMessage {
	return taskrunnerpb.TaskMessage{
		ID:       t.ID,
		Exec:     t.Exec,
		Args:     t.Args,
		WorkDir:  t.WorkDir,
		ExitCode: t.ExitCode,
		Success:  t.Success,
	}
}
