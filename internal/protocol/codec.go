package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Encode marshals a typed envelope as JSON
func Encode(t string, payload any) ([]byte, error) {
	if t == "" {
		return nil, fmt.Errorf("encode envelope: empty type")
	}
	return json.Marshal(Envelope{T: t, Data: payload})
}

// EncodeBinary marshals a typed envelope as msgpack, reusing the json field names
func EncodeBinary(t string, payload any) ([]byte, error) {
	if t == "" {
		return nil, fmt.Errorf("encode envelope: empty type")
	}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(Envelope{T: t, Data: payload}); err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeBinary is the inverse of EncodeBinary
func DecodeBinary(b []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}

// DecodeEnvelope parses an incoming message
func DecodeEnvelope(b []byte) (InEnvelope, error) {
	if len(b) == 0 {
		return InEnvelope{}, fmt.Errorf("decode envelope: empty message")
	}
	var e InEnvelope
	if err := json.Unmarshal(b, &e); err != nil {
		return InEnvelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if e.T == "" {
		return InEnvelope{}, fmt.Errorf("decode envelope: missing type")
	}
	return e, nil
}

// DecodePayload unmarshals the envelope body into T
func DecodePayload[T any](env InEnvelope) (T, error) {
	var out T
	if len(env.D) == 0 {
		return out, fmt.Errorf("empty payload for type %q", env.T)
	}
	err := json.Unmarshal(env.D, &out)
	return out, err
}

// RequestName extracts an item name from an ask request, which clients send
// either as a bare string or as an object holding the name under field
func RequestName(raw json.RawMessage, field string) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return ""
	}
	if v, ok := m[field].(string); ok {
		return v
	}
	return ""
}
