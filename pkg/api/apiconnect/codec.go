// Package apiconnect binds the splitledger services to connect RPC.
//
// Messages are plain Go structs, so every handler and client is built with
// Codec instead of connect's protobuf codecs.
package apiconnect

import (
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
)

// Codec marshals messages with encoding/json. It is registered under the
// name "json", so requests use Content-Type application/json.
type Codec struct{}

var _ connect.Codec = Codec{}

func (Codec) Name() string { return "json" }

func (Codec) Marshal(message any) ([]byte, error) {
	data, err := json.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %T: %w", message, err)
	}
	return data, nil
}

func (Codec) Unmarshal(data []byte, message any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, message); err != nil {
		return fmt.Errorf("failed to unmarshal %T: %w", message, err)
	}
	return nil
}

func handlerOptions(opts []connect.HandlerOption) connect.HandlerOption {
	return connect.WithHandlerOptions(append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)...)
}

func clientOptions(opts []connect.ClientOption) connect.ClientOption {
	return connect.WithClientOptions(append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)...)
}
