// Package youtube implements live.Provider on top of the YouTube Data API v3
// search endpoint.
//
// Live checks query search?eventType=live for a channel and treat the first
// item whose snippet reports liveBroadcastContent "live" as the active
// broadcast. Name resolution runs a channel search and takes the first hit.
// Every transport, status, and decoding failure is classified as
// services.ErrProviderUnavailable so the poll loop can skip the streamer for
// the current tick without changing its state.
package youtube
