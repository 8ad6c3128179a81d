// Package ipc is the newline-delimited JSON protocol between hark commands
// and the running screen, over a unix socket.
package ipc

// Commands understood by the running owner.
const (
	CommandStatus = "status"
	CommandToggle = "toggle"
	CommandClear  = "clear"
	CommandLog    = "log"
)

// Request is one client command.
type Request struct {
	Command string `json:"command"`
}

// Response is the owner's reply. Log carries rendered transcript lines for
// the log command.
type Response struct {
	OK      bool     `json:"ok"`
	State   string   `json:"state,omitempty"`
	Message string   `json:"message,omitempty"`
	Error   string   `json:"error,omitempty"`
	Log     []string `json:"log,omitempty"`
}
