package adapter

import (
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
)

// Launcher opens image URLs in an external viewer
type Launcher struct {
	command string   // configured viewer command, empty for system default
	args    []string // additional arguments for the viewer
	goos    string
	logger  *slog.Logger

	// start runs the resolved command without waiting for it
	start func(name string, args ...string) error
}

// openers lists the system default URL handlers per platform, tried in order
var openers = map[string][][]string{
	"darwin":  {{"open"}},
	"linux":   {{"xdg-open"}, {"gio", "open"}, {"sensible-browser"}},
	"windows": {{"rundll32", "url.dll,FileProtocolHandler"}},
}

// NewLauncher creates a new Launcher
func NewLauncher(command string, args []string, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{
		command: command,
		args:    args,
		goos:    runtime.GOOS,
		logger:  logger,
		start:   startDetached,
	}
}

// Open shows url in the configured viewer, falling back to the platform default
func (l *Launcher) Open(url string) error {
	if l.command != "" {
		args := append(append([]string{}, l.args...), url)
		if err := l.start(l.command, args...); err != nil {
			l.logger.Error("failed to launch viewer", "command", l.command, "error", err)
			return fmt.Errorf("failed to launch %s: %w", l.command, err)
		}
		l.logger.Info("opened image", "command", l.command, "url", url)
		return nil
	}

	candidates, ok := openers[l.goos]
	if !ok {
		return fmt.Errorf("no default viewer for platform %s", l.goos)
	}

	var lastErr error
	for _, candidate := range candidates {
		args := append(append([]string{}, candidate[1:]...), url)
		if err := l.start(candidate[0], args...); err != nil {
			l.logger.Debug("viewer candidate failed", "command", candidate[0], "error", err)
			lastErr = err
			continue
		}
		l.logger.Info("opened image", "command", candidate[0], "url", url)
		return nil
	}
	return fmt.Errorf("no viewer could open %s: %w", url, lastErr)
}

// startDetached launches a command found in PATH without waiting for it
func startDetached(name string, args ...string) error {
	if _, err := exec.LookPath(name); err != nil {
		return err
	}
	return exec.Command(name, args...).Start()
}
