// Package live defines the contract between the poll loop and whatever
// service reports whether a channel is broadcasting.
package live

import "context"

// Broadcast identifies a live broadcast observed for a channel.
type Broadcast struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Provider reports live status and resolves display names to channel ids.
//
// CheckLive returns nil when the channel is not live. Any failure to obtain a
// trustworthy answer (network, auth, quota, timeout, malformed payload) is
// reported as services.ErrProviderUnavailable. ResolveChannelID returns
// services.ErrNotFound when no channel matches.
type Provider interface {
	CheckLive(ctx context.Context, channelID string) (*Broadcast, error)
	ResolveChannelID(ctx context.Context, name string) (string, error)
}
