package cmd

import (
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"testing"
	"time"
)

func TestPIDFile_AcquireAndRelease(t *testing.T) {
	pf := pidFile(filepath.Join(t.TempDir(), "run", "costdeckd.pid"))

	release, err := pf.acquire(daemonRuntimeState{Addr: "127.0.0.1:9999", StartedAt: time.Now()})
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	pid, alive, err := pf.owner()
	if err != nil || !alive || pid != os.Getpid() {
		t.Fatalf("owner() = %d, %v, %v; want %d, true, nil", pid, alive, err, os.Getpid())
	}
	st, err := pf.state()
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if st.Addr != "127.0.0.1:9999" || st.PID != os.Getpid() {
		t.Errorf("state = %+v", st)
	}

	if _, err := pf.acquire(daemonRuntimeState{}); err == nil {
		t.Error("second acquire succeeded while the owner is alive")
	}

	release()
	if _, err := os.Stat(string(pf)); !os.IsNotExist(err) {
		t.Errorf("pid file still present after release: %v", err)
	}
	if _, err := os.Stat(pf.statePath()); !os.IsNotExist(err) {
		t.Errorf("state file still present after release: %v", err)
	}
}

func TestPIDFile_StaleOwnerIsCleared(t *testing.T) {
	pf := pidFile(filepath.Join(t.TempDir(), "costdeckd.pid"))
	// Above any kernel pid_max, so never a live process.
	if err := os.WriteFile(string(pf), []byte(strconv.Itoa(99_999_999)+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, alive, err := pf.owner()
	if err != nil || alive {
		t.Fatalf("owner() alive=%v err=%v; want false, nil", alive, err)
	}
	if _, err := os.Stat(string(pf)); !os.IsNotExist(err) {
		t.Error("stale pid file was not removed")
	}
}

func TestPIDFile_MissingAndInvalid(t *testing.T) {
	dir := t.TempDir()

	if _, alive, err := pidFile(filepath.Join(dir, "none.pid")).owner(); err != nil || alive {
		t.Errorf("missing file: alive=%v err=%v", alive, err)
	}

	bad := filepath.Join(dir, "bad.pid")
	if err := os.WriteFile(bad, []byte("not-a-pid"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := pidFile(bad).owner(); err == nil {
		t.Error("invalid pid file: expected error")
	}
}

func TestChildArgs(t *testing.T) {
	got := childArgs([]string{"daemon", "--detach", "--addr", ":1", "--detach=true"})
	want := []string{"daemon", "--addr", ":1", "--child"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("childArgs = %v, want %v", got, want)
	}
}
