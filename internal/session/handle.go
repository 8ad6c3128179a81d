package session

import (
	"context"
	"fmt"

	"github.com/rbright/hark/internal/ipc"
)

// Handle serves IPC commands against the running controller.
func (c *Controller) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case ipc.CommandStatus:
		snap := c.Snapshot()
		return ipc.Response{OK: true, State: string(snap.State), Message: snap.Label}
	case ipc.CommandToggle:
		return replyResponse(c.Toggle(ctx))
	case ipc.CommandClear:
		return replyResponse(c.Clear(ctx))
	case ipc.CommandLog:
		snap := c.Snapshot()
		lines := make([]string, 0, len(snap.Entries))
		for _, entry := range snap.Entries {
			lines = append(lines, entry.String())
		}
		return ipc.Response{OK: true, State: string(snap.State), Log: lines}
	default:
		return ipc.Response{State: string(c.Snapshot().State), Error: fmt.Sprintf("unknown command: %s", req.Command)}
	}
}

func replyResponse(reply Reply, err error) ipc.Response {
	if err != nil {
		return ipc.Response{Error: err.Error()}
	}
	resp := ipc.Response{OK: reply.Err == nil, State: string(reply.State), Message: reply.Message}
	if reply.Err != nil {
		resp.Error = reply.Err.Error()
	}
	return resp
}
