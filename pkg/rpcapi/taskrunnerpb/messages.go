// Package taskrunnerpb holds the wire message types for flowrunner's RPC
// surface: request/response shapes, carried over gRPC using a JSON codec
// (see jsonCodec in pkg/rpcapi/codec.go) instead of a compiled .proto/protoc-gen-go
// pipeline. service.proto at the repository root documents the same
// contract in protobuf IDL form for reference.
package taskrunnerpb

// TaskMessage mirrors internal/model.Task for wire transport.
type TaskMessage struct {
	ID       uint64   `json:"id"`
	Exec     string   `json:"exec"`
	Args     []string `json:"args"`
	WorkDir  string   `json:"work_dir"`
	ExitCode int32    `json:"exit_code"`
	Success  bool     `json:"success"`
}

type CreateQueueRequest struct{ Name string `json:"name"` }
type DeleteQueueRequest struct{ Name string `json:"name"` }
type RenameQueueRequest struct {
	OldName string `json:"old_name"`
	NewName string `json:"new_name"`
}
type ListQueueRequest struct{}
type ListQueueResponse struct{ Names []string `json:"names"` }

type QueueRequest struct{ Queue string `json:"queue"` }

type AddTaskRequest struct {
	Queue   string   `json:"queue"`
	Exec    string   `json:"exec"`
	Args    []string `json:"args"`
	WorkDir string   `json:"work_dir"`
}
type AddTaskResponse struct{ ID uint64 `json:"id"` }

type TaskIDRequest struct {
	Queue string `json:"queue"`
	ID    uint64 `json:"id"`
}

type IDResponse struct{ ID uint64 `json:"id"` }

type TaskResponse struct{ Task TaskMessage `json:"task"` }

type IsRunningResponse struct{ Running bool `json:"running"` }

type ChunkResponse struct{ Data []byte `json:"data"` }

// Empty is the response for operations with no return value.
type Empty struct{}
