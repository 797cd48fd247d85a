// Package eventstream keeps the push connection to the bridge event stream.
//
// The stream is server-sent events: text lines grouped into blank-line
// terminated blocks. Each block carries an "id:" line and a "data:" line
// holding a JSON array of events; each event lists one or more added, updated
// or deleted resources. A block is decoded and every change applied before
// the next line is read.
//
// The connection runs through the states
//
//	Disconnected -> Connecting -> Streaming -> Backoff(delay) -> Connecting -> ...
//
// and returns to Disconnected on Stop, or when the bridge rejects the app key
// or does not serve the v2 stream. After a reconnect, the reconnect hook runs
// before the first block of the new connection so the owner can
// resynchronize the events missed while disconnected. With a hook set, the
// last event id is not sent, so the bridge does not replay events older than
// that resynchronization.
package eventstream
