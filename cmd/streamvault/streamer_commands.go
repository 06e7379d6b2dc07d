package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"streamvault/internal/api"
	"streamvault/internal/config"
	"streamvault/internal/control"
	"streamvault/internal/daemonctl"
	"streamvault/internal/ipc"
	"streamvault/internal/logging"
	"streamvault/internal/monitor"
	"streamvault/internal/registry"
	"streamvault/internal/youtube"
)

func newStreamersCommand(ctx *commandContext) *cobra.Command {
	streamersCmd := &cobra.Command{
		Use:     "streamers",
		Aliases: []string{"streamer"},
		Short:   "Manage the streamers whose broadcasts are captured",
	}
	streamersCmd.AddCommand(newStreamersListCommand(ctx))
	streamersCmd.AddCommand(newStreamersAddCommand(ctx))
	streamersCmd.AddCommand(newStreamersRemoveCommand(ctx))
	return streamersCmd
}

func newStreamersListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered streamers",
		RunE: func(cmd *cobra.Command, args []string) error {
			streamers, err := listStreamers(cmd.Context(), ctx)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, api.StreamerListResponse{Streamers: streamers})
			}
			if len(streamers) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No streamers registered")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), streamerTable(streamers))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newStreamersAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Resolve a channel by name and start watching it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := addStreamer(cmd.Context(), ctx, args[0])
			if err != nil {
				return err
			}
			if !resp.Added {
				return errors.New(resp.Message)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added streamer %s (%s); live broadcasts will now be captured\n",
				resp.Streamer.Name, resp.Streamer.ChannelID)
			return nil
		},
	}
}

func newStreamersRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <name>",
		Aliases: []string{"rm"},
		Short:   "Resolve a channel by name and stop watching it",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := removeStreamer(cmd.Context(), ctx, args[0])
			if err != nil {
				return err
			}
			if !resp.Removed {
				return errors.New(resp.Message)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed streamer %s (%s); live broadcasts will no longer be captured\n",
				resp.Name, resp.ChannelID)
			return nil
		},
	}
}

func listStreamers(cmdCtx context.Context, ctx *commandContext) ([]api.Streamer, error) {
	if client := ctx.tryClient(); client != nil {
		defer client.Close()
		resp, err := client.StreamerList()
		if err != nil {
			return nil, err
		}
		return resp.Streamers, nil
	}
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	return daemonctl.OfflineStreamers(cmdCtx, cfg)
}

func addStreamer(cmdCtx context.Context, ctx *commandContext, name string) (*ipc.StreamerAddResponse, error) {
	if client := ctx.tryClient(); client != nil {
		defer client.Close()
		return client.StreamerAdd(name)
	}
	var resp ipc.StreamerAddResponse
	err := withOfflineControl(ctx, func(svc *control.Service) error {
		streamer, addErr := svc.Add(cmdCtx, name)
		var outErr error
		resp, outErr = ipc.AddOutcome(name, api.FromStreamer(streamer, monitor.LiveState{}), addErr)
		return outErr
	})
	return &resp, err
}

func removeStreamer(cmdCtx context.Context, ctx *commandContext, name string) (*ipc.StreamerRemoveResponse, error) {
	if client := ctx.tryClient(); client != nil {
		defer client.Close()
		return client.StreamerRemove(name)
	}
	var resp ipc.StreamerRemoveResponse
	err := withOfflineControl(ctx, func(svc *control.Service) error {
		res, removeErr := svc.Remove(cmdCtx, name)
		var outErr error
		resp, outErr = ipc.RemoveOutcome(name, api.FromRemoveResult(res), removeErr)
		return outErr
	})
	return &resp, err
}

// withOfflineControl opens the registry and a YouTube resolver for commands
// run while no daemon is listening.
func withOfflineControl(ctx *commandContext, fn func(*control.Service) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if err := cfg.RequireCredentials(); err != nil {
		return err
	}
	resolver, err := newResolver(cfg)
	if err != nil {
		return err
	}
	store, err := registry.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return err
	}
	return fn(control.NewService(store, resolver, logger))
}

func newResolver(cfg *config.Config) (*youtube.Client, error) {
	return youtube.New(cfg.YouTube.APIKey, cfg.YouTube.BaseURL, youtube.WithTimeout(cfg.YouTubeRequestTimeout()))
}

var phaseTitle = cases.Title(language.English)

func streamerTable(streamers []api.Streamer) string {
	rows := make([][]string, 0, len(streamers))
	for _, s := range streamers {
		broadcast := s.BroadcastID
		if s.Title != "" {
			broadcast = fmt.Sprintf("%s (%s)", s.BroadcastID, s.Title)
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", s.ID),
			s.Name,
			s.ChannelID,
			phaseTitle.String(s.Phase),
			broadcast,
			s.Since,
		})
	}
	return renderTable(
		[]string{"ID", "Name", "Channel", "State", "Broadcast", "Since"},
		rows,
		[]columnAlignment{alignRight},
	)
}
