package permission

import (
	"context"
	"errors"

	"github.com/ncruces/zenity"
)

// Prompter asks the user for microphone consent. It reports the choice;
// err is reserved for failures to ask at all.
type Prompter interface {
	Prompt(ctx context.Context) (granted bool, err error)
}

// PromptFunc adapts a function to Prompter.
type PromptFunc func(ctx context.Context) (bool, error)

func (f PromptFunc) Prompt(ctx context.Context) (bool, error) {
	return f(ctx)
}

// Dialog asks with a desktop question dialog.
type Dialog struct {
	Title string
	Text  string
}

func (d Dialog) Prompt(ctx context.Context) (bool, error) {
	title := d.Title
	if title == "" {
		title = "hark"
	}
	text := d.Text
	if text == "" {
		text = "Allow hark to record audio from your microphone?"
	}

	err := zenity.Question(text,
		zenity.Title(title),
		zenity.OKLabel("Allow"),
		zenity.CancelLabel("Deny"),
		zenity.Context(ctx),
	)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, zenity.ErrCanceled):
		return false, nil
	default:
		return false, err
	}
}

// Auto grants without asking.
type Auto struct{}

func (Auto) Prompt(context.Context) (bool, error) {
	return true, nil
}
