// Package hypr sends on-screen notifications through hyprctl.
package hypr

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Colors used for hark notifications.
const (
	ColorListening = "rgb(89b4fa)"
	ColorNotice    = "rgb(f38ba8)"
)

// Icons understood by `hyprctl notify`.
const (
	IconInfo  = 1
	IconError = 3
)

// Notify shows text for timeoutMS milliseconds. An empty color uses ColorListening.
func Notify(ctx context.Context, icon int, timeoutMS int, color string, text string) error {
	if strings.TrimSpace(color) == "" {
		color = ColorListening
	}
	return run(ctx, "--quiet", "dispatch", "notify",
		strconv.Itoa(icon),
		strconv.Itoa(timeoutMS),
		color,
		text,
	)
}

// DismissNotify clears every hyprctl notification.
func DismissNotify(ctx context.Context) error {
	return run(ctx, "--quiet", "dispatch", "dismissnotify")
}

func run(ctx context.Context, args ...string) error {
	out, err := exec.CommandContext(ctx, "hyprctl", args...).CombinedOutput()
	if err == nil {
		return nil
	}
	if detail := strings.TrimSpace(string(out)); detail != "" {
		return fmt.Errorf("hyprctl %s failed: %w (%s)", args[len(args)-1], err, detail)
	}
	return fmt.Errorf("hyprctl %s failed: %w", args[len(args)-1], err)
}
