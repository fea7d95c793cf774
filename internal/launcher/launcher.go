package launcher

import (
	"fmt"
	log "log/slog"
	"maps"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"acg/internal/errs"
)

// Handle identifies a started program.
type Handle struct {
	PID  int
	Path string
	Args []string
}

type ProcessLauncher interface {
	Launch(path string) (Handle, error)
}

// DefaultInterpreters maps a file extension to the command that runs it.
var DefaultInterpreters = map[string][]string{
	".py":  {"python3"},
	".go":  {"go", "run"},
	".sh":  {"sh"},
	".js":  {"node"},
	".rb":  {"ruby"},
	".pl":  {"perl"},
	".lua": {"lua"},
}

// Exec starts programs as detached OS processes with stdio on the null
// device, so they outlive the launcher.
type Exec struct {
	interpreters map[string][]string
}

// NewExec merges overrides over DefaultInterpreters. An override with an
// empty command removes the extension.
func NewExec(overrides map[string][]string) *Exec {
	interp := maps.Clone(DefaultInterpreters)
	for ext, cmd := range overrides {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if len(cmd) == 0 {
			delete(interp, ext)
			continue
		}
		interp[ext] = cmd
	}
	return &Exec{interpreters: interp}
}

// Command resolves the argv that runs path.
func (e *Exec) Command(path string) ([]string, error) {
	if cmd, ok := e.interpreters[strings.ToLower(filepath.Ext(path))]; ok {
		return append(append([]string(nil), cmd...), path), nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Mode().Perm()&0o111 == 0 {
		return nil, fmt.Errorf("no interpreter for %q and %s is not executable", filepath.Ext(path), path)
	}
	if !filepath.IsAbs(path) && !strings.ContainsRune(path, filepath.Separator) {
		path = "." + string(filepath.Separator) + path
	}
	return []string{path}, nil
}

func (e *Exec) Launch(path string) (Handle, error) {
	argv, err := e.Command(path)
	if err != nil {
		return Handle{}, errs.Wrap(errs.ErrSpawn, err)
	}

	// nil stdio is the null device; path stays relative to our cwd
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.SysProcAttr = detached()

	if err := cmd.Start(); err != nil {
		return Handle{}, errs.Wrap(errs.ErrSpawn, fmt.Errorf("start %s: %w", strings.Join(argv, " "), err))
	}

	h := Handle{PID: cmd.Process.Pid, Path: path, Args: argv}
	log.Info("Launched", "path", path, "pid", h.PID, "cmd", strings.Join(argv, " "))

	// reap the child if this process outlives it
	go func() { _ = cmd.Wait() }()

	return h, nil
}
