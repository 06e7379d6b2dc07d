// Package control implements the operator-facing streamer management
// operations shared by the CLI, the IPC server, and the HTTP API.
package control

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"streamvault/internal/live"
	"streamvault/internal/logging"
	"streamvault/internal/registry"
	"streamvault/internal/services"
)

// Store is the registry surface used by Service.
type Store interface {
	Add(ctx context.Context, name, channelID string) (registry.Streamer, error)
	Remove(ctx context.Context, channelID string) (bool, error)
	List(ctx context.Context) ([]registry.Streamer, error)
}

// Resolver maps a human-readable streamer name to its channel id.
type Resolver interface {
	ResolveChannelID(ctx context.Context, name string) (string, error)
}

var _ Resolver = (live.Provider)(nil)

// RemoveResult reports the outcome of Remove.
type RemoveResult struct {
	Name      string `json:"name"`
	ChannelID string `json:"channel_id"`
	Removed   bool   `json:"removed"`
}

// Service wires the registry to channel name resolution.
type Service struct {
	store    Store
	resolver Resolver
	logger   *slog.Logger
}

// NewService constructs a control service. resolver may be nil when no API
// key is configured; Add and Remove then fail with ErrConfiguration.
func NewService(store Store, resolver Resolver, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		resolver: resolver,
		logger:   logging.NewComponentLogger(logger, "control"),
	}
}

// List returns every registered streamer.
func (s *Service) List(ctx context.Context) ([]registry.Streamer, error) {
	return s.store.List(ctx)
}

// Add resolves name and registers the resulting channel.
func (s *Service) Add(ctx context.Context, name string) (registry.Streamer, error) {
	name = strings.TrimSpace(name)
	channelID, err := s.resolve(ctx, name)
	if err != nil {
		return registry.Streamer{}, err
	}
	streamer, err := s.store.Add(ctx, name, channelID)
	if err != nil {
		if errors.Is(err, registry.ErrAlreadyExists) {
			s.logger.Info("streamer already registered",
				logging.String(logging.FieldEventType, "streamer_add_duplicate"),
				logging.String(logging.FieldStreamer, name),
				logging.String(logging.FieldChannelID, channelID),
			)
		}
		return registry.Streamer{}, err
	}
	s.logger.Info("streamer added",
		logging.String(logging.FieldEventType, "streamer_added"),
		logging.String(logging.FieldStreamer, streamer.Name),
		logging.String(logging.FieldChannelID, streamer.ChannelID),
	)
	return streamer, nil
}

// Remove resolves name and deletes the resulting channel. Removed is false
// when the channel was not registered.
func (s *Service) Remove(ctx context.Context, name string) (RemoveResult, error) {
	name = strings.TrimSpace(name)
	channelID, err := s.resolve(ctx, name)
	if err != nil {
		return RemoveResult{Name: name}, err
	}
	removed, err := s.store.Remove(ctx, channelID)
	if err != nil {
		return RemoveResult{Name: name, ChannelID: channelID}, err
	}
	eventType := "streamer_removed"
	if !removed {
		eventType = "streamer_remove_missing"
	}
	s.logger.Info("streamer remove processed",
		logging.String(logging.FieldEventType, eventType),
		logging.String(logging.FieldStreamer, name),
		logging.String(logging.FieldChannelID, channelID),
		logging.Bool("removed", removed),
	)
	return RemoveResult{Name: name, ChannelID: channelID, Removed: removed}, nil
}

func (s *Service) resolve(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", services.Wrap(services.ErrValidation, "control", "resolve", "streamer name is required", nil)
	}
	if s.resolver == nil {
		return "", services.Wrap(services.ErrConfiguration, "control", "resolve",
			"youtube.api_key is required to resolve streamer names", nil)
	}
	channelID, err := s.resolver.ResolveChannelID(ctx, name)
	if err != nil {
		if !errors.Is(err, services.ErrNotFound) {
			logging.WarnWithContext(s.logger, "channel resolution failed", "channel_resolve_failed",
				logging.String(logging.FieldStreamer, name),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check YouTube API key and quota"),
			)
		}
		return "", err
	}
	return channelID, nil
}
