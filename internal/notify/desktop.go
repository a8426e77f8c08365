package notify

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// runFunc runs an external command
type runFunc func(ctx context.Context, name string, args ...string) error

func execRun(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// desktop shows a native notification bubble
type desktop struct {
	goos string
	run  runFunc
}

func newDesktop() *desktop {
	return &desktop{goos: runtime.GOOS, run: execRun}
}

func (d *desktop) Name() string { return "desktop" }

func (d *desktop) Send(ctx context.Context, msg Message) error {
	switch d.goos {
	case "darwin":
		script := fmt.Sprintf("display notification %s with title %s",
			appleScriptString(msg.Body), appleScriptString(msg.Title))
		return d.run(ctx, "osascript", "-e", script)
	case "linux", "freebsd", "openbsd", "netbsd":
		return d.run(ctx, "notify-send", "--app-name=tidyd", msg.Title, msg.Body)
	default:
		return fmt.Errorf("desktop notifications are not supported on %s", d.goos)
	}
}

// appleScriptString quotes s as an AppleScript string literal
func appleScriptString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
