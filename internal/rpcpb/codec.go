package rpcpb

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
)

// jsonCodecName is the gRPC content-subtype this codec registers
// under. Dialing with grpc.CallContentSubtype(jsonCodecName), or
// serving it as the server's default, routes every message through
// Marshal/Unmarshal below instead of the usual protobuf wire format.
//
// The real Bear collector speaks protobuf (supervise.proto, compiled
// with protoc); that file was not part of this project's retrieved
// reference material and cannot be hand-authored correctly without the
// compiler, so this codec keeps the real google.golang.org/grpc
// transport and dependency but carries plain JSON messages instead of
// generated protobuf ones.
const jsonCodecName = "json"

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return jsonCodecName }

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("rpcpb: marshal: %w", err)
	}
	return data, nil
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("rpcpb: unmarshal: %w", err)
	}
	return nil
}
