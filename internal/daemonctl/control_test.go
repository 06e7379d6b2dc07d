package daemonctl_test

import (
	"context"
	"errors"
	"os"
	"strconv"
	"testing"
	"time"

	"streamvault/internal/daemon"
	"streamvault/internal/daemonctl"
	"streamvault/internal/ipc"
	"streamvault/internal/logging"
	"streamvault/internal/testsupport"
)

func TestStopWithoutDaemonReportsNotRunning(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if _, err := daemonctl.StopAndTerminate(cfg, time.Second); !errors.Is(err, daemonctl.ErrDaemonNotRunning) {
		t.Fatalf("expected ErrDaemonNotRunning, got %v", err)
	}
}

func TestProcessInfoWithoutDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	alive, pid, err := daemonctl.ProcessInfo(cfg.SocketPath())
	if err != nil {
		t.Fatalf("ProcessInfo: %v", err)
	}
	if alive || pid != 0 {
		t.Fatalf("expected no daemon, got alive=%v pid=%d", alive, pid)
	}
}

func TestTerminateRefusesCurrentProcess(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteFile(t, cfg.PIDPath(), strconv.Itoa(os.Getpid())+"\n")
	if _, err := daemonctl.TerminateProcess(cfg.PIDPath(), cfg.LockPath(), 0); err == nil {
		t.Fatal("expected refusal to signal the current process")
	}
}

func TestTerminateRequiresPID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if _, err := daemonctl.TerminateProcess(cfg.PIDPath(), cfg.LockPath(), 0); err == nil {
		t.Fatal("expected error without pid file or fallback pid")
	}
}

func TestBuildStatusSnapshotOffline(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.SeedStreamers(t, store, [2]string{"alice", "UC-alice"})

	snapshot, err := daemonctl.BuildStatusSnapshot(context.Background(), cfg)
	if err != nil {
		t.Fatalf("BuildStatusSnapshot: %v", err)
	}
	if snapshot.Running {
		t.Fatal("expected offline snapshot")
	}
	if len(snapshot.Streamers) != 1 || snapshot.Streamers[0].Phase != "idle" {
		t.Fatalf("unexpected offline streamers: %+v", snapshot.Streamers)
	}
	if len(snapshot.Dependencies) != 2 {
		t.Fatalf("expected two dependency entries, got %+v", snapshot.Dependencies)
	}
	if len(snapshot.Checks) == 0 {
		t.Fatal("expected preflight checks")
	}
}

func TestBuildStatusSnapshotFromRunningDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithAPIBind(""))
	store := testsupport.MustOpenStore(t, cfg)
	d, err := daemon.New(cfg, daemon.Dependencies{
		Store:    store,
		Provider: testsupport.NewFakeProvider(map[string]string{"alice": "UC-alice"}),
		Executor: testsupport.NewFakeExecutor(),
	})
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	server, err := ipc.NewServer(ctx, cfg.SocketPath(), d, logging.NewNop())
	if err != nil {
		t.Fatalf("ipc.NewServer: %v", err)
	}
	defer server.Close()
	server.Serve()

	snapshot, err := daemonctl.BuildStatusSnapshot(ctx, cfg)
	if err != nil {
		t.Fatalf("BuildStatusSnapshot: %v", err)
	}
	if !snapshot.Running || snapshot.PID != os.Getpid() {
		t.Fatalf("expected running daemon snapshot, got %+v", snapshot.DaemonStatus)
	}

	result, err := daemonctl.StopAndTerminate(cfg, 2*time.Second)
	if err != nil {
		t.Fatalf("StopAndTerminate: %v", err)
	}
	if !result.StopAcknowledged || result.Terminated {
		t.Fatalf("unexpected stop result: %+v", result)
	}
	select {
	case <-d.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop")
	}
}
