// Package ipc provides the unix-socket control channel for a live assessment
// session: a second terminal or hotkey can query progress, stop the active
// recording, or discard it.
package ipc

// Request is one line-delimited JSON command.
type Request struct {
	Command string `json:"command"`
}

// Response reports the outcome and, for status, a session progress snapshot.
type Response struct {
	OK       bool   `json:"ok"`
	State    string `json:"state,omitempty"`
	Question int    `json:"question,omitempty"`
	Total    int    `json:"total,omitempty"`
	Answered int    `json:"answered,omitempty"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Commands understood by a live assess session.
const (
	CommandStatus = "status"
	CommandStop   = "stop"
	CommandCancel = "cancel"
)
