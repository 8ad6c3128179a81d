// Package recognizer defines the contract between hark and an external
// speech recognizer: a start/stop/destroy handle plus one tagged event stream.
package recognizer

import (
	"context"
	"errors"
)

// ErrDestroyed is returned by Start once a handle has been released.
var ErrDestroyed = errors.New("recognizer handle destroyed")

// Recognizer is one exclusively owned recognizer handle.
//
// Start and Stop are fire-and-forget: outcomes arrive on Events. Stop is
// idempotent and safe to call when nothing is listening.
type Recognizer interface {
	Start(context.Context, Request) error
	Stop() error
	Destroy() error
	Events() <-chan Event
}

// LanguageModel hints what kind of speech to expect.
type LanguageModel string

const (
	LanguageModelFreeForm  LanguageModel = "free_form"
	LanguageModelWebSearch LanguageModel = "web_search"
)

// Request is the immutable per-session recognition configuration.
type Request struct {
	Prompt        string
	LanguageModel LanguageModel
	Language      string
	MaxResults    int
}
