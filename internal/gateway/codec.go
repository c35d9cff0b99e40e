package gateway

import (
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

// Codec encodes messages for one websocket connection.
type Codec interface {
	Name() string
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
	// MessageType is the websocket frame type used for encoded messages.
	MessageType() int
}

type jsonCodec struct{}

func (jsonCodec) Name() string                    { return "json" }
func (jsonCodec) Encode(v any) ([]byte, error)    { return json.Marshal(v) }
func (jsonCodec) Decode(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) MessageType() int                { return websocket.TextMessage }

type msgpackCodec struct{}

func (msgpackCodec) Name() string                    { return "msgpack" }
func (msgpackCodec) Encode(v any) ([]byte, error)    { return msgpack.Marshal(v) }
func (msgpackCodec) Decode(data []byte, v any) error { return msgpack.Unmarshal(data, v) }
func (msgpackCodec) MessageType() int                { return websocket.BinaryMessage }

// CodecFor returns the codec registered under name. An empty name selects JSON.
func CodecFor(name string) (Codec, error) {
	switch name {
	case "", "json":
		return jsonCodec{}, nil
	case "msgpack":
		return msgpackCodec{}, nil
	default:
		return nil, fmt.Errorf("gateway: unknown encoding %q", name)
	}
}
