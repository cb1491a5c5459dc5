package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/theirongolddev/costdeck/internal/cli"
	"github.com/theirongolddev/costdeck/internal/daemon"
	"github.com/theirongolddev/costdeck/internal/model"
	"github.com/theirongolddev/costdeck/internal/pipeline"
	"github.com/theirongolddev/costdeck/internal/telemetry"

	"github.com/spf13/cobra"
)

// version is reported as the OTLP service version.
var version = "dev"

var (
	flagDaemonAddr         string
	flagDaemonInterval     time.Duration
	flagDaemonDetach       bool
	flagDaemonPIDFile      string
	flagDaemonLogFile      string
	flagDaemonEventsBuffer int
	flagDaemonChild        bool
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run a background cost and budget monitor with HTTP/SSE endpoints",
	RunE:  runDaemon,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon process and API status",
	RunE:  runDaemonStatus,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	RunE:  runDaemonStop,
}

func init() {
	defaultPID := filepath.Join(pipeline.CacheDir(), "costdeckd.pid")
	defaultLog := filepath.Join(pipeline.CacheDir(), "costdeckd.log")

	daemonCmd.PersistentFlags().StringVar(&flagDaemonAddr, "addr", "127.0.0.1:8787", "HTTP listen address")
	daemonCmd.PersistentFlags().DurationVar(&flagDaemonInterval, "interval", 30*time.Second, "Polling interval")
	daemonCmd.PersistentFlags().StringVar(&flagDaemonPIDFile, "pid-file", defaultPID, "PID file path")
	daemonCmd.PersistentFlags().StringVar(&flagDaemonLogFile, "log-file", defaultLog, "Log file path for detached mode")
	daemonCmd.PersistentFlags().IntVar(&flagDaemonEventsBuffer, "events-buffer", 200, "Max in-memory events retained")

	daemonCmd.Flags().BoolVar(&flagDaemonDetach, "detach", false, "Run daemon as a background process")
	daemonCmd.Flags().BoolVar(&flagDaemonChild, "child", false, "Internal: mark detached child process")
	_ = daemonCmd.Flags().MarkHidden("child")

	daemonCmd.AddCommand(daemonStatusCmd)
	daemonCmd.AddCommand(daemonStopCmd)
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	if flagDaemonDetach && flagDaemonChild {
		return errors.New("invalid daemon launch mode")
	}
	applyDaemonConfig(cmd)

	if flagDaemonDetach {
		return startDaemonDetached()
	}

	return runDaemonForeground(cmd.Context())
}

// applyDaemonConfig fills flags the user did not set from [daemon].
func applyDaemonConfig(cmd *cobra.Command) {
	flags := cmd.Flags()
	if !flags.Changed("addr") && appConfig.Daemon.Addr != "" {
		flagDaemonAddr = appConfig.Daemon.Addr
	}
	if !flags.Changed("interval") && appConfig.Daemon.PollInterval > 0 {
		flagDaemonInterval = appConfig.Daemon.PollInterval
	}
	if !flags.Changed("events-buffer") && appConfig.Daemon.EventsBuffer > 0 {
		flagDaemonEventsBuffer = appConfig.Daemon.EventsBuffer
	}
}

func dataSource() string {
	if flagRecords != "" {
		return flagRecords
	}
	return flagDataDir
}

// startDaemonDetached re-executes this binary with --child, output appended
// to the daemon log.
func startDaemonDetached() error {
	pf := pidFile(flagDaemonPIDFile)
	if pid, alive, err := pf.owner(); err != nil {
		return err
	} else if alive {
		return fmt.Errorf("daemon already running (pid %d)", pid)
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(flagDaemonLogFile), 0o750); err != nil {
		return fmt.Errorf("create daemon log directory: %w", err)
	}

	//nolint:gosec // daemon log path is configured by the local user
	logf, err := os.OpenFile(flagDaemonLogFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open daemon log file: %w", err)
	}
	defer func() { _ = logf.Close() }()

	child := exec.Command(exe, childArgs(os.Args[1:])...) //nolint:gosec // re-exec of the current binary
	child.Stdout = logf
	child.Stderr = logf
	child.Env = os.Environ()
	if err := child.Start(); err != nil {
		return fmt.Errorf("start detached daemon: %w", err)
	}

	fmt.Printf("  Started cost monitor (pid %d)\n", child.Process.Pid)
	fmt.Printf("  Budget API: http://%s/v1/budget\n", flagDaemonAddr)
	fmt.Printf("  Log: %s\n", flagDaemonLogFile)
	return nil
}

func runDaemonForeground(parent context.Context) error {
	release, err := pidFile(flagDaemonPIDFile).acquire(daemonRuntimeState{
		Addr:      flagDaemonAddr,
		StartedAt: time.Now(),
		Source:    dataSource(),
	})
	if err != nil {
		return err
	}
	defer release()

	pricing, err := pricingResolver()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	recorder := telemetry.New(ctx, telemetry.Config{
		Enabled:  appConfig.Telemetry.Enabled,
		Endpoint: appConfig.Telemetry.Endpoint,
		Insecure: appConfig.Telemetry.Insecure,
	}, version)

	svc := daemon.New(daemon.Config{
		Load: func(ctx context.Context, now time.Time) ([]model.SessionRecord, error) {
			result, err := loadSessions(ctx, now, nil)
			if err != nil {
				return nil, err
			}
			return result.Sessions, nil
		},
		Pricing:      pricing,
		Budget:       budgetSettings(),
		RangeDays:    flagRange,
		Interval:     flagDaemonInterval,
		Addr:         flagDaemonAddr,
		EventsBuffer: flagDaemonEventsBuffer,
		DataSource:   dataSource(),
		Recorder:     recorder,
	})

	fmt.Printf("  costdeck daemon listening on http://%s\n", flagDaemonAddr)
	fmt.Printf("  Polling every %s from %s\n", flagDaemonInterval, dataSource())
	fmt.Printf("  Stop with: costdeck daemon stop --pid-file %s\n", flagDaemonPIDFile)
	log.Info().Int("pid", os.Getpid()).Str("addr", flagDaemonAddr).Msg("daemon started")

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runDaemonStatus(cmd *cobra.Command, _ []string) error {
	applyDaemonConfig(cmd)

	pf := pidFile(flagDaemonPIDFile)
	pid, alive, err := pf.owner()
	if err != nil {
		return err
	}
	if !alive {
		fmt.Printf("  Cost monitor: not running\n")
		return nil
	}

	addr := flagDaemonAddr
	if st, err := pf.state(); err == nil && st.Addr != "" {
		addr = st.Addr
	}
	fmt.Printf("  Cost monitor PID: %d\n", pid)
	fmt.Printf("  Address: http://%s\n", addr)

	st, err := fetchDaemonStatus(cmd.Context(), addr)
	if err != nil {
		fmt.Printf("  API status: %v\n", err)
		return nil
	}

	if st.LastPollAt.IsZero() {
		fmt.Printf("  Last poll: pending\n")
	} else {
		fmt.Printf("  Last poll: %s\n", st.LastPollAt.Local().Format(time.RFC3339))
	}
	fmt.Printf("  Poll count: %d\n", st.PollCount)
	fmt.Printf("  Source: %s\n", st.DataSource)
	fmt.Printf("  Sessions: %d\n", st.Sessions)
	fmt.Printf("  Month cost: %s\n", cli.FormatCost(st.Costs.CurrentMonthCost))
	fmt.Printf("  Today cost: %s\n", cli.FormatCost(st.Costs.TodayCost))
	fmt.Printf("  Budget: %s (%s)\n", cli.FormatBudgetState(st.Budget), cli.FormatPercent(st.Budget.Percentage))
	fmt.Printf("  Events: %d (%d subscribers)\n", st.EventCount, st.SubscriberCount)
	if st.LastError != "" {
		fmt.Printf("  Last error: %s\n", st.LastError)
	}
	return nil
}

func runDaemonStop(_ *cobra.Command, _ []string) error {
	pf := pidFile(flagDaemonPIDFile)
	pid, alive, err := pf.owner()
	if err != nil {
		return err
	}
	if !alive {
		return errors.New("daemon is not running")
	}
	if err := terminate(pid, 8*time.Second); err != nil {
		return err
	}
	pf.clear()
	fmt.Printf("  Stopped cost monitor (pid %d)\n", pid)
	return nil
}

func fetchDaemonStatus(ctx context.Context, addr string) (daemon.Status, error) {
	var st daemon.Status
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/v1/status", nil)
	if err != nil {
		return st, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return st, fmt.Errorf("unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return st, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return st, fmt.Errorf("malformed response: %w", err)
	}
	return st, nil
}
