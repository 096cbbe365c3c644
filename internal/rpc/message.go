// Package rpc implements the JSON-RPC 2.0 envelope used by the message
// endpoint: request parsing, response construction, and the reserved
// error-code taxonomy.
//
// The request identifier is treated as opaque bytes (number, string, or
// null) and echoed back without reinterpretation.
package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Version is the fixed protocol tag carried by every envelope.
const Version = "2.0"

// Reserved JSON-RPC error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Request is a decoded call envelope.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is an outbound envelope. Exactly one of Result or Error is set.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is the error member of a response envelope.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Error implements the error interface so protocol failures can travel
// through ordinary error returns and be unwrapped at the transport edge.
func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Errorf builds an *Error with a formatted message.
func Errorf(code int, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// IsNotification reports whether the request carries no identifier.
// Notifications never receive a response envelope.
func (r *Request) IsNotification() bool {
	return len(r.ID) == 0 || bytes.Equal(r.ID, []byte("null"))
}

// Parse decodes a raw payload into a Request.
// Malformed JSON yields CodeParseError; a structurally valid payload
// without a method name yields CodeInvalidRequest.
func Parse(data []byte) (*Request, *Error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, Errorf(CodeParseError, "parse error: %v", err)
	}
	if req.Method == "" {
		return nil, Errorf(CodeInvalidRequest, "invalid request: missing method")
	}
	return &req, nil
}

// NewResult builds a success envelope echoing id.
func NewResult(id json.RawMessage, result any) *Response {
	return &Response{JSONRPC: Version, ID: normalizeID(id), Result: result}
}

// NewError builds an error envelope echoing id.
func NewError(id json.RawMessage, code int, message string) *Response {
	return &Response{
		JSONRPC: Version,
		ID:      normalizeID(id),
		Error:   &Error{Code: code, Message: message},
	}
}

// Encode serializes a response envelope.
func (r *Response) Encode() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("rpc: encode response: %w", err)
	}
	return data, nil
}

// normalizeID keeps absent ids encodable: a response to a request whose id
// could not be read is sent with id null, as required for parse errors.
func normalizeID(id json.RawMessage) json.RawMessage {
	if len(id) == 0 {
		return json.RawMessage("null")
	}
	return id
}
