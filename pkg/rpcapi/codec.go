package rpcapi

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// codecName is the gRPC content-subtype this codec registers under.
// Clients select it via grpc.CallContentSubtype(codecName).
const codecName = "json"

// jsonCodec carries flowrunner's wire messages (pkg/rpcapi/taskrunnerpb)
// as JSON instead of protobuf, avoiding a protoc/protoc-gen-go build
// step while still running over a real google.golang.org/grpc server.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return codecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
