package search

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
)

// Launcher spawns the full application when a result is activated.
type Launcher interface {
	Launch(ctx context.Context, text string, timestamp uint32) error
}

// ExecLauncher starts the application binary detached, passing the query
// through --text.
type ExecLauncher struct {
	appPath string
	logger  zerolog.Logger
}

func NewExecLauncher(appPath string, logger zerolog.Logger) *ExecLauncher {
	appPath = strings.TrimSpace(appPath)
	if appPath == "" {
		appPath = "dialect"
	}
	return &ExecLauncher{appPath: appPath, logger: logger}
}

func (l *ExecLauncher) Launch(ctx context.Context, text string, timestamp uint32) error {
	args := []string{}
	if strings.TrimSpace(text) != "" {
		args = append(args, "--text", text)
	}

	// The application outlives this service call, so the command is started
	// without the request context and never waited on.
	cmd := exec.Command(l.appPath, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", l.appPath, err)
	}

	l.logger.Info().
		Str("app", l.appPath).
		Uint32("timestamp", timestamp).
		Int("pid", cmd.Process.Pid).
		Msg("launched application")

	go func() {
		// Reap the child so it does not linger as a zombie.
		_ = cmd.Wait()
	}()
	return nil
}
