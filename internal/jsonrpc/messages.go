package jsonrpc

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ProtocolVersion is the value of every message's "jsonrpc" member.
const ProtocolVersion = "2.0"

// Message is one encoded JSON-RPC message as it travels over a transport.
type Message []byte

// AnyMessage decodes any incoming message. Which fields are set tells
// requests, notifications and responses apart; see Type.
type AnyMessage struct {
	JSONRPCVersion string          `json:"jsonrpc"`
	Method         string          `json:"method,omitempty"`
	Params         json.RawMessage `json:"params,omitempty"`
	Result         json.RawMessage `json:"result,omitempty"`
	Error          *Error          `json:"error,omitempty"`
	ID             *RequestID      `json:"id,omitempty"`
}

// Request is an outgoing or incoming call. Without an ID it is a
// notification.
type Request struct {
	JSONRPCVersion string          `json:"jsonrpc"`
	Method         string          `json:"method"`
	Params         json.RawMessage `json:"params,omitempty"`
	ID             *RequestID      `json:"id,omitempty"`
}

// Response answers the Request with the same ID. Exactly one of Result
// and Error is set.
type Response struct {
	JSONRPCVersion string          `json:"jsonrpc"`
	Result         json.RawMessage `json:"result,omitempty"`
	Error          *Error          `json:"error,omitempty"`
	ID             *RequestID      `json:"id,omitempty"`
}

// NewRequest encodes params and returns a request carrying id. A nil id
// makes it a notification.
func NewRequest(id *RequestID, method string, params any) (*Request, error) {
	req := &Request{JSONRPCVersion: ProtocolVersion, Method: method, ID: id}
	if params == nil {
		return req, nil
	}
	b, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal params for %s: %w", method, err)
	}
	req.Params = b
	return req, nil
}

// NewNotification is NewRequest without an id.
func NewNotification(method string, params any) (*Request, error) {
	return NewRequest(nil, method, params)
}

// NewResultResponse encodes result as the answer to id.
func NewResultResponse(id *RequestID, result any) (*Response, error) {
	b, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return &Response{JSONRPCVersion: ProtocolVersion, Result: b, ID: id}, nil
}

// NewErrorResponse answers id with an error object.
func NewErrorResponse(id *RequestID, code ErrorCode, message string, data any) *Response {
	return &Response{
		JSONRPCVersion: ProtocolVersion,
		Error:          &Error{Code: code, Message: message, Data: data},
		ID:             id,
	}
}

// Decode unmarshals the result into out. An error response returns its
// *Error unchanged.
func (r *Response) Decode(out any) error {
	switch {
	case r.Error != nil:
		return r.Error
	case out == nil:
		return nil
	case len(r.Result) == 0:
		return errors.New("response has no result")
	}
	if err := json.Unmarshal(r.Result, out); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}

// UnmarshalJSON rejects messages with the wrong version and messages that
// mix request and response members.
func (m *AnyMessage) UnmarshalJSON(data []byte) error {
	type plain AnyMessage

	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if p.JSONRPCVersion != ProtocolVersion {
		return fmt.Errorf("invalid JSON-RPC version %q", p.JSONRPCVersion)
	}

	isCall := p.Method != ""
	hasResult, hasError := len(p.Result) > 0, p.Error != nil
	if isCall && (hasResult || hasError) {
		return errors.New("a request cannot carry result or error")
	}
	if !isCall && hasResult == hasError {
		return errors.New("a response carries exactly one of result and error")
	}

	*m = AnyMessage(p)
	return nil
}

// Type returns "request", "notification" or "response".
func (m *AnyMessage) Type() string {
	switch {
	case m.Method == "":
		return "response"
	case m.ID.IsNil():
		return "notification"
	default:
		return "request"
	}
}

// AsRequest returns the message as a Request, or nil for a response.
func (m *AnyMessage) AsRequest() *Request {
	if m.Method == "" {
		return nil
	}
	return &Request{JSONRPCVersion: m.JSONRPCVersion, Method: m.Method, Params: m.Params, ID: m.ID}
}

// AsResponse returns the message as a Response, or nil for a request.
func (m *AnyMessage) AsResponse() *Response {
	if m.Method != "" {
		return nil
	}
	return &Response{JSONRPCVersion: m.JSONRPCVersion, Result: m.Result, Error: m.Error, ID: m.ID}
}
