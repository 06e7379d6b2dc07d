package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"streamvault/internal/daemonctl"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the streamvault daemon in the background",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequireCredentials(); err != nil {
				return err
			}
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}
			result, err := daemonctl.EnsureStarted(cfg, exe, daemonLaunchOptions(ctx), 10*time.Second)
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintf(stdout, "Daemon started (pid %d)\n", result.PID)
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon already running")
			}
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the streamvault daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(cfg, 20*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if result.Terminated && result.PID > 0 {
				fmt.Fprintf(stdout, "Daemon did not exit in time; sent SIGTERM to pid %d\n", result.PID)
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	var statusJSON bool
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, dependency, and streamer status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			snapshot, err := daemonctl.BuildStatusSnapshot(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if statusJSON {
				return writeJSON(cmd, snapshot)
			}
			stdout := cmd.OutOrStdout()
			renderStatus(stdout, snapshot, shouldColorize(stdout))
			return nil
		},
	}
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output as JSON")

	return []*cobra.Command{startCmd, stopCmd, statusCmd}
}

func renderStatus(out io.Writer, snapshot *daemonctl.StatusSnapshot, colorize bool) {
	for _, line := range renderSectionHeader("Daemon", colorize) {
		fmt.Fprintln(out, line)
	}
	if snapshot.Running {
		fmt.Fprintln(out, renderStatusLine("StreamVault", statusOK, fmt.Sprintf("Running (pid %d)", snapshot.PID), colorize))
	} else {
		fmt.Fprintln(out, renderStatusLine("StreamVault", statusInfo, "Not running", colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Registry", statusInfo, snapshot.StorePath, colorize))
	fmt.Fprintln(out, renderStatusLine("Capture directory", statusInfo, snapshot.CaptureDir, colorize))
	if snapshot.LogPath != "" {
		fmt.Fprintln(out, renderStatusLine("Log", statusInfo, snapshot.LogPath, colorize))
	}
	if snapshot.APIAddress != "" {
		fmt.Fprintln(out, renderStatusLine("HTTP API", statusOK, snapshot.APIAddress, colorize))
	}
	if snapshot.Running {
		mon := snapshot.Monitor
		detail := fmt.Sprintf("every %ds, %d ticks", mon.PollIntervalSeconds, mon.TickCount)
		if mon.LastTick != "" {
			detail += ", last " + mon.LastTick
		}
		kind := statusOK
		if mon.LastError != "" {
			kind = statusWarn
			detail += ", last error: " + mon.LastError
		}
		fmt.Fprintln(out, renderStatusLine("Monitor", kind, detail, colorize))
	}
	fmt.Fprintln(out)

	for _, line := range renderSectionHeader("Checks", colorize) {
		fmt.Fprintln(out, line)
	}
	for _, check := range snapshot.Checks {
		kind := statusOK
		if !check.Passed {
			kind = statusError
		}
		fmt.Fprintln(out, renderStatusLine(check.Name, kind, check.Detail, colorize))
	}
	fmt.Fprintln(out)

	for _, line := range renderSectionHeader("Streamers", colorize) {
		fmt.Fprintln(out, line)
	}
	if len(snapshot.Streamers) == 0 {
		fmt.Fprintln(out, "No streamers registered")
	} else {
		fmt.Fprint(out, streamerTable(snapshot.Streamers))
	}

	if len(snapshot.ActiveCaptures) > 0 {
		fmt.Fprintln(out)
		for _, line := range renderSectionHeader("Active Captures", colorize) {
			fmt.Fprintln(out, line)
		}
		rows := make([][]string, 0, len(snapshot.ActiveCaptures))
		for _, task := range snapshot.ActiveCaptures {
			rows = append(rows, []string{task.StreamerName, task.Kind, task.BroadcastID, task.StartedAt, task.OutputPath})
		}
		fmt.Fprint(out, renderTable([]string{"Streamer", "Kind", "Broadcast", "Started", "Output"}, rows, nil))
	}
}

func daemonExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return exe, nil
}

func daemonLaunchOptions(ctx *commandContext) daemonctl.LaunchOptions {
	opts := daemonctl.LaunchOptions{LogLevel: ctx.logLevel()}
	if path := strings.TrimSpace(ctx.configPath); path != "" && ctx.configFlagValue() != "" {
		opts.ConfigPath = path
	}
	return opts
}
