package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// daemonRuntimeState is written next to the pid file so `daemon status` can
// find the API address without the original flags.
type daemonRuntimeState struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"started_at"`
	Source    string    `json:"source"`
}

// pidFile owns a daemon pid file and its JSON state sidecar.
type pidFile string

func (p pidFile) statePath() string { return string(p) + ".json" }

// acquire claims the pid file for the current process. A stale file left by a
// dead process is replaced. The returned release removes both files.
func (p pidFile) acquire(st daemonRuntimeState) (release func(), err error) {
	if pid, alive, err := p.owner(); err != nil {
		return nil, err
	} else if alive {
		return nil, fmt.Errorf("daemon already running (pid %d)", pid)
	}
	if err := os.MkdirAll(filepath.Dir(string(p)), 0o750); err != nil {
		return nil, fmt.Errorf("create daemon directory: %w", err)
	}

	st.PID = os.Getpid()
	if err := os.WriteFile(string(p), []byte(strconv.Itoa(st.PID)+"\n"), 0o600); err != nil {
		return nil, fmt.Errorf("write pid file: %w", err)
	}
	if data, err := json.MarshalIndent(st, "", "  "); err == nil {
		_ = os.WriteFile(p.statePath(), append(data, '\n'), 0o600)
	}
	return p.clear, nil
}

// owner reports the recorded pid and whether that process is alive. A missing
// file is not an error; a stale one is cleared.
func (p pidFile) owner() (int, bool, error) {
	pid, err := p.pid()
	if errors.Is(err, os.ErrNotExist) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if !processAlive(pid) {
		p.clear()
		return pid, false, nil
	}
	return pid, true, nil
}

func (p pidFile) pid() (int, error) {
	data, err := os.ReadFile(string(p))
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid in %s", p)
	}
	return pid, nil
}

func (p pidFile) state() (daemonRuntimeState, error) {
	var st daemonRuntimeState
	data, err := os.ReadFile(p.statePath())
	if err != nil {
		return st, err
	}
	err = json.Unmarshal(data, &st)
	return st, err
}

func (p pidFile) clear() {
	_ = os.Remove(string(p))
	_ = os.Remove(p.statePath())
}

// terminate sends SIGTERM and polls until the process exits or timeout passes.
func terminate(pid int, timeout time.Duration) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find daemon process: %w", err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal daemon process: %w", err)
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if !processAlive(pid) {
			return nil
		}
		time.Sleep(150 * time.Millisecond)
	}
	return fmt.Errorf("daemon (pid %d) did not exit in time", pid)
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

// childArgs rewrites this invocation for the detached child.
func childArgs(args []string) []string {
	out := make([]string, 0, len(args)+1)
	for _, a := range args {
		if a == "--detach" || strings.HasPrefix(a, "--detach=") {
			continue
		}
		out = append(out, a)
	}
	return append(out, "--child")
}
