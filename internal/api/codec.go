// Package api holds the wire types and connect bindings for the auth and post
// services. Messages are plain Go structs encoded as JSON.
package api

import (
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
)

// StatusSuccess is the status reported by every successful response.
const StatusSuccess = "success"

// JSONCodec is a connect codec for plain Go structs. It replaces connect's
// built-in "json" codec, which only handles protobuf messages.
type JSONCodec struct{}

var _ connect.Codec = JSONCodec{}

// Name implements connect.Codec.
func (JSONCodec) Name() string { return "json" }

// Marshal implements connect.Codec.
func (JSONCodec) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %T: %w", v, err)
	}
	return data, nil
}

// Unmarshal implements connect.Codec.
func (JSONCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal %T: %w", v, err)
	}
	return nil
}

// codecOption is prepended to every handler and client built in this package.
var codecOption = connect.WithCodec(JSONCodec{})
