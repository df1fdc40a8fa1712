package tool

import (
	"encoding/json"
	"fmt"
)

// Result is the envelope every tool returns to the model
type Result struct {
	Success     bool        `json:"success"`
	Message     string      `json:"message,omitempty"`
	Source      string      `json:"source,omitempty"`
	Data        interface{} `json:"data,omitempty"`
	Total       *int        `json:"total,omitempty"`
	Calculation interface{} `json:"calculation,omitempty"`
	Analysis    interface{} `json:"analysis,omitempty"`
	Forecast    interface{} `json:"forecast,omitempty"`
	Error       string      `json:"error,omitempty"`
}

// Failure builds an unsuccessful result
func Failure(format string, args ...interface{}) *Result {
	return &Result{Success: false, Error: fmt.Sprintf(format, args...)}
}

// ErrorContent is the tool message sent back when execution itself failed
func ErrorContent(err error) string {
	return Failure("%s", err.Error()).JSON()
}

// JSON renders the result for a tool message
func (r *Result) JSON() string {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Sprintf(`{"success":false,"error":%q}`, "failed to encode tool result: "+err.Error())
	}
	return string(b)
}
