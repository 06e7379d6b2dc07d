// Package monitor drives the poll loop that turns live detections into
// captures.
//
// Each registered streamer owns a LiveState that moves between idle and
// capturing. A tick snapshots the registry, prunes state for streamers that
// were removed, checks every streamer concurrently against the live status
// provider, and dispatches a capture on the idle to capturing transition.
// The transition is a check-and-set under the monitor mutex, so a streamer
// that is still live on later ticks is never dispatched twice. Only the
// dispatcher's completion callback moves a streamer back to idle, and the
// idle state remembers that broadcast id until the channel reports offline,
// so a broadcast that outlives its capture is not captured again.
//
// Provider failures are "unknown this tick": they are logged and counted but
// never change state. Nothing a single streamer does can stop the loop.
package monitor
