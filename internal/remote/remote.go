// Package remote is the remote backend: every operation becomes exactly
// one RPC call against pkg/rpcapi, each bound by a per-call deadline.
package remote

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cuemby/flowrunner/internal/model"
	"github.com/cuemby/flowrunner/pkg/ferr"
	"github.com/cuemby/flowrunner/pkg/rpcapi/taskrunnerpb"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// DefaultCallTimeout bounds every unary and stream-setup RPC.
const DefaultCallTimeout = 10 * time.Second

// Connection is a live gRPC connection to a flowrunnerd instance.
type Connection struct {
	cc      *grpc.ClientConn
	timeout time.Duration
}

// Dial connects to a flowrunnerd listening at addr.
func Dial(addr string) (*Connection, error) {
	cc, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype("json")),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ferr.ErrOSError, addr, err)
	}
	return &Connection{cc: cc, timeout: DefaultCallTimeout}, nil
}

// Close tears down the underlying gRPC connection.
func (c *Connection) Close() error {
	return c.cc.Close()
}

// QueueList returns the remote queue-list view over this connection.
func (c *Connection) QueueList() *QueueList {
	return &QueueList{conn: c}
}

func (c *Connection) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), c.timeout)
}

// QueueList is the remote counterpart of internal/queuelist.Manager.
type QueueList struct {
	conn *Connection
}

func (q *QueueList) Create(name string) error {
	ctx, cancel := q.conn.ctx()
	defer cancel()
	return invokeUnary(ctx, q.conn.cc, "CreateQueue", &taskrunnerpb.CreateQueueRequest{Name: name}, &taskrunnerpb.Empty{})
}

func (q *QueueList) Delete(name string) error {
	ctx, cancel := q.conn.ctx()
	defer cancel()
	return invokeUnary(ctx, q.conn.cc, "DeleteQueue", &taskrunnerpb.DeleteQueueRequest{Name: name}, &taskrunnerpb.Empty{})
}

func (q *QueueList) Rename(oldName, newName string) error {
	ctx, cancel := q.conn.ctx()
	defer cancel()
	req := &taskrunnerpb.RenameQueueRequest{OldName: oldName, NewName: newName}
	return invokeUnary(ctx, q.conn.cc, "RenameQueue", req, &taskrunnerpb.Empty{})
}

func (q *QueueList) List() ([]string, error) {
	ctx, cancel := q.conn.ctx()
	defer cancel()
	resp := &taskrunnerpb.ListQueueResponse{}
	if err := invokeUnary(ctx, q.conn.cc, "ListQueue", &taskrunnerpb.ListQueueRequest{}, resp); err != nil {
		return nil, err
	}
	return resp.Names, nil
}

// Get returns a handle to queue name. The remote backend has no
// server-side reference counting, so this is just a name-bound client.
func (q *QueueList) Get(name string) (*Queue, error) {
	return &Queue{conn: q.conn, name: name}, nil
}

// Queue is the remote counterpart of internal/queue.Engine.
type Queue struct {
	conn *Connection
	name string
}

func (q *Queue) AddTask(exec string, args []string, workDir string) (uint64, error) {
	ctx, cancel := q.conn.ctx()
	defer cancel()
	req := &taskrunnerpb.AddTaskRequest{Queue: q.name, Exec: exec, Args: args, WorkDir: workDir}
	resp := &taskrunnerpb.AddTaskResponse{}
	if err := invokeUnary(ctx, q.conn.cc, "AddTask", req, resp); err != nil {
		return 0, err
	}
	return resp.ID, nil
}

func (q *Queue) RemoveTask(id uint64) error {
	ctx, cancel := q.conn.ctx()
	defer cancel()
	req := &taskrunnerpb.TaskIDRequest{Queue: q.name, ID: id}
	return invokeUnary(ctx, q.conn.cc, "RemoveTask", req, &taskrunnerpb.Empty{})
}

func (q *Queue) ListPending() ([]uint64, error) {
	return q.streamIDs("ListPending")
}

func (q *Queue) ListFinished() ([]uint64, error) {
	return q.streamIDs("ListFinished")
}

func (q *Queue) streamIDs(method string) ([]uint64, error) {
	ctx, cancel := q.conn.ctx()
	defer cancel()

	stream, err := q.conn.cc.NewStream(ctx, &grpc.StreamDesc{ServerStreams: true}, "/flowrunner.TaskRunner/"+method, grpc.CallContentSubtype("json"))
	if err != nil {
		return nil, fmt.Errorf("%w: open %s stream: %v", ferr.ErrOSError, method, err)
	}
	if err := stream.SendMsg(&taskrunnerpb.QueueRequest{Queue: q.name}); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}

	var ids []uint64
	for {
		resp := &taskrunnerpb.IDResponse{}
		err := stream.RecvMsg(resp)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		ids = append(ids, resp.ID)
	}
	return ids, nil
}

func (q *Queue) PendingDetails(id uint64) (*model.Task, error) {
	return q.taskDetails("PendingDetails", id)
}

func (q *Queue) FinishedDetails(id uint64) (*model.Task, error) {
	return q.taskDetails("FinishedDetails", id)
}

func (q *Queue) taskDetails(method string, id uint64) (*model.Task, error) {
	ctx, cancel := q.conn.ctx()
	defer cancel()
	req := &taskrunnerpb.TaskIDRequest{Queue: q.name, ID: id}
	resp := &taskrunnerpb.TaskResponse{}
	if err := invokeUnary(ctx, q.conn.cc, method, req, resp); err != nil {
		return nil, err
	}
	return fromWireTask(resp.Task), nil
}

func (q *Queue) CurrentTask() (*model.Task, error) {
	ctx, cancel := q.conn.ctx()
	defer cancel()
	req := &taskrunnerpb.QueueRequest{Queue: q.name}
	resp := &taskrunnerpb.TaskResponse{}
	if err := invokeUnary(ctx, q.conn.cc, "CurrentTask", req, resp); err != nil {
		return nil, err
	}
	return fromWireTask(resp.Task), nil
}

func (q *Queue) ClearPending() error {
	ctx, cancel := q.conn.ctx()
	defer cancel()
	return invokeUnary(ctx, q.conn.cc, "ClearPending", &taskrunnerpb.QueueRequest{Queue: q.name}, &taskrunnerpb.Empty{})
}

func (q *Queue) ClearFinished() error {
	ctx, cancel := q.conn.ctx()
	defer cancel()
	return invokeUnary(ctx, q.conn.cc, "ClearFinished", &taskrunnerpb.QueueRequest{Queue: q.name}, &taskrunnerpb.Empty{})
}

func (q *Queue) IsRunning() (bool, error) {
	ctx, cancel := q.conn.ctx()
	defer cancel()
	resp := &taskrunnerpb.IsRunningResponse{}
	if err := invokeUnary(ctx, q.conn.cc, "IsRunning", &taskrunnerpb.QueueRequest{Queue: q.name}, resp); err != nil {
		return false, err
	}
	return resp.Running, nil
}

func (q *Queue) ReadCurrentOutput() ([]model.Chunk, error) {
	ctx, cancel := q.conn.ctx()
	defer cancel()

	stream, err := q.conn.cc.NewStream(ctx, &grpc.StreamDesc{ServerStreams: true}, "/flowrunner.TaskRunner/ReadCurrentOutput", grpc.CallContentSubtype("json"))
	if err != nil {
		return nil, fmt.Errorf("%w: open output stream: %v", ferr.ErrOSError, err)
	}
	if err := stream.SendMsg(&taskrunnerpb.QueueRequest{Queue: q.name}); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}

	var chunks []model.Chunk
	for {
		resp := &taskrunnerpb.ChunkResponse{}
		err := stream.RecvMsg(resp)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, model.Chunk(resp.Data))
	}
	return chunks, nil
}

func (q *Queue) Start() error {
	ctx, cancel := q.conn.ctx()
	defer cancel()
	return invokeUnary(ctx, q.conn.cc, "Start", &taskrunnerpb.QueueRequest{Queue: q.name}, &taskrunnerpb.Empty{})
}

func (q *Queue) Stop() error {
	ctx, cancel := q.conn.ctx()
	defer cancel()
	return invokeUnary(ctx, q.conn.cc, "Stop", &taskrunnerpb.QueueRequest{Queue: q.name}, &taskrunnerpb.Empty{})
}

func invokeUnary(ctx context.Context, cc *grpc.ClientConn, method string, req, resp any) error {
	return cc.Invoke(ctx, "/flowrunner.TaskRunner/"+method, req, resp, grpc.CallContentSubtype("json"))
}

func fromWireTask(t taskrunnerpb.TaskMessage) *model.Task {
	return &model.Task{
		ID:       t.ID,
		Exec:     t.Exec,
		Args:     t.Args,
		WorkDir:  t.WorkDir,
		ExitCode: t.ExitCode,
		Success:  t.Success,
	}
}
