// Package capture records a live broadcast with external tools.
//
// A detection produces two independent tasks: media (yt-dlp) and transcript
// (chat_downloader). Dispatcher launches both in their own goroutines, each
// task reports exactly one terminal result on a channel, and a collector
// goroutine drains that channel and invokes the caller's completion callback
// once both tasks have finished. A failure in one task never cancels or
// fails the other.
package capture
