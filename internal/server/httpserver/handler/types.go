package handler

import "time"

const (
	codeOK    = "OK"
	messageOK = "Success"
)

// Response wraps every JSON body the admin endpoints return. /metrics is
// Prometheus text and is not wrapped.
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
	Timestamp int64  `json:"timestamp"` // Unix milliseconds
	Data      any    `json:"data,omitempty"`
}

func envelope(requestID, code, message string, data any) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// HealthResponse is the data of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Time    string `json:"time"`
}

// ReadyResponse is the data of a successful GET /ready.
type ReadyResponse struct {
	Status      string `json:"status"`
	Connections int    `json:"connections"`
	Time        string `json:"time"`
}
