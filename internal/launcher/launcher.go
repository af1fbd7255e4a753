package launcher

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/rs/zerolog"

	"github.com/codelaunch/codelaunch/internal/config"
)

// Launcher starts the editor as a detached child process. The executable is
// discovered once on first use and cached for the process lifetime.
type Launcher struct {
	command string
	logger  zerolog.Logger
}

func New(cfg config.LauncherConfig, logger zerolog.Logger) *Launcher {
	return &Launcher{
		command: cfg.Command,
		logger:  logger.With().Str("component", "launcher").Logger(),
	}
}

// Launch opens the editor for the given project folder. The child is released
// immediately so it outlives this process.
func (l *Launcher) Launch(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	exe, err := l.executable()
	if err != nil {
		return err
	}

	cmd := exec.Command(exe, path)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", exe, err)
	}
	l.logger.Debug().Str("exe", exe).Str("path", path).Int("pid", cmd.Process.Pid).Msg("editor started")
	return cmd.Process.Release()
}

// executable resolves the editor binary: configured override first, then PATH,
// then the well-known per-platform install locations.
func (l *Launcher) executable() (string, error) {
	if l.command != "" {
		if found, err := exec.LookPath(l.command); err == nil {
			return found, nil
		}
		if _, err := os.Stat(l.command); err == nil {
			return l.command, nil
		}
		return "", fmt.Errorf("configured editor command not found: %s", l.command)
	}

	for _, name := range []string{"code", "code-insiders", "codium"} {
		if found, err := exec.LookPath(name); err == nil {
			return found, nil
		}
	}

	for _, candidate := range defaultCandidates() {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("no editor executable found, set launcher.command")
}
