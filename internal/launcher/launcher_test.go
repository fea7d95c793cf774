//go:build !windows

package launcher

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"acg/internal/errs"
)

func TestCommand(t *testing.T) {
	e := NewExec(map[string][]string{
		"py":   {"python3.12", "-u"},
		".lua": nil,
	})

	argv, err := e.Command("prog_v1.py")
	require.NoError(t, err)
	assert.Equal(t, []string{"python3.12", "-u", "prog_v1.py"}, argv)

	argv, err = e.Command("tool.go")
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "run", "tool.go"}, argv)

	_, err = e.Command(filepath.Join(t.TempDir(), "missing.lua"))
	assert.Error(t, err)

	// overrides never leak into the defaults
	assert.Equal(t, []string{"python3"}, DefaultInterpreters[".py"])
}

func TestCommandExecutableWithoutInterpreter(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "tool")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755))
	plain := filepath.Join(dir, "data")
	require.NoError(t, os.WriteFile(plain, []byte("x"), 0o644))

	e := NewExec(nil)

	argv, err := e.Command(bin)
	require.NoError(t, err)
	assert.Equal(t, []string{bin}, argv)

	_, err = e.Command(plain)
	assert.ErrorContains(t, err, "not executable")
}

func TestLaunch(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	dir := t.TempDir()
	marker := filepath.Join(dir, "ran")
	script := filepath.Join(dir, "prog_v1.sh")
	require.NoError(t, os.WriteFile(script, []byte("echo ok > '"+marker+"'\n"), 0o644))

	h, err := NewExec(nil).Launch(script)
	require.NoError(t, err)

	assert.Positive(t, h.PID)
	assert.Equal(t, script, h.Path)
	assert.Equal(t, []string{"sh", script}, h.Args)

	assert.Eventually(t, func() bool {
		_, err := os.Stat(marker)
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)
}

func TestLaunchFailure(t *testing.T) {
	e := NewExec(map[string][]string{".py": {"definitely-not-an-interpreter-acg"}})

	_, err := e.Launch("prog_v1.py")
	assert.ErrorIs(t, err, errs.ErrSpawn)
}

func TestTerminate(t *testing.T) {
	cmd := exec.Command("sleep", "30")
	if err := cmd.Start(); err != nil {
		t.Skip("sleep not available")
	}

	require.NoError(t, Terminate(cmd.Process.Pid))

	err := cmd.Wait()
	assert.Error(t, err)
}
