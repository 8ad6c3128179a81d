// Package availability answers whether any recognizer can serve hark.
package availability

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// Handler is one installed recognizer able to serve requests.
type Handler struct {
	Name string
	Path string
}

// Resolver lists the handlers for the configured recognizer.
type Resolver interface {
	QueryHandlers(ctx context.Context) ([]Handler, error)
}

// LookPathFunc matches exec.LookPath.
type LookPathFunc func(file string) (string, error)

// Command resolves argv[0] of the recognizer command through PATH.
type Command struct {
	Argv     []string
	LookPath LookPathFunc
}

func (c Command) QueryHandlers(ctx context.Context) ([]Handler, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(c.Argv) == 0 {
		return nil, nil
	}

	lookPath := c.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	path, err := lookPath(c.Argv[0])
	switch {
	case err == nil:
		return []Handler{{Name: c.Argv[0], Path: path}}, nil
	case errors.Is(err, exec.ErrNotFound):
		return nil, nil
	default:
		return nil, fmt.Errorf("resolve recognizer %q: %w", c.Argv[0], err)
	}
}

// Builtin always reports one in-process handler.
type Builtin struct {
	Name string
}

func (b Builtin) QueryHandlers(context.Context) ([]Handler, error) {
	return []Handler{{Name: b.Name, Path: "builtin"}}, nil
}

// Count returns the number of handlers; query errors count as none.
func Count(ctx context.Context, resolver Resolver) (int, error) {
	handlers, err := resolver.QueryHandlers(ctx)
	if err != nil {
		return 0, err
	}
	return len(handlers), nil
}
