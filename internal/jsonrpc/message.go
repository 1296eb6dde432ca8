// Package jsonrpc implements the line-delimited JSON-RPC 2.0 exchange between
// the host and plugin executables.
package jsonrpc

import (
	"encoding/json"
	"fmt"
)

// Version is the only JSON-RPC version spoken.
const Version = "2.0"

// Error codes. The negative range below -32000 is reserved by JSON-RPC.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	// CodePluginFailure is returned when plugin code fails or panics.
	CodePluginFailure = -32000
	// CodeAbort is returned when plugin code has already told the user what
	// went wrong and wants the host to stop.
	CodeAbort = -32001
)

// Request is a call from the host to a plugin.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response answers exactly one Request. Only one of Result and Error is set.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ErrorInfo      `json:"error,omitempty"`
}

// ErrorInfo contains details about JSON-RPC errors
type ErrorInfo struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *ErrorInfo) Error() string {
	return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
}

// NewRequest creates a request, encoding params when they are not nil.
func NewRequest(id int64, method string, params any) (*Request, error) {
	if method == "" {
		return nil, fmt.Errorf("method cannot be empty")
	}
	req := &Request{JSONRPC: Version, ID: id, Method: method}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s params: %w", method, err)
		}
		req.Params = raw
	}
	return req, nil
}

// NewResult creates a successful response. A nil result is sent as null.
func NewResult(id int64, result any) (*Response, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return &Response{JSONRPC: Version, ID: id, Result: raw}, nil
}

// NewError creates an error response. data is optional.
func NewError(id int64, code int, message string, data any) *Response {
	info := &ErrorInfo{Code: code, Message: message}
	if data != nil {
		if raw, err := json.Marshal(data); err == nil {
			info.Data = raw
		}
	}
	return &Response{JSONRPC: Version, ID: id, Error: info}
}

// DecodeParams unmarshals the request parameters into v. Absent parameters
// leave v untouched.
func (r *Request) DecodeParams(v any) error {
	if len(r.Params) == 0 {
		return nil
	}
	if err := decode(r.Params, v); err != nil {
		return fmt.Errorf("invalid %s params: %w", r.Method, err)
	}
	return nil
}

// DecodeData unmarshals the error data into v. Absent data leaves v untouched.
func (e *ErrorInfo) DecodeData(v any) error {
	if len(e.Data) == 0 {
		return nil
	}
	return decode(e.Data, v)
}
