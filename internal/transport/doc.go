// Package transport delivers full roster snapshots from the audio controller.
//
// Two channels implement Channel: PushChannel keeps a WebSocket subscription
// open and reconnects on its own with exponential backoff, and PullChannel
// fetches GET /api/players on a fixed interval. FetchOnce performs a single
// fetch for manual refreshes.
//
// PushProber decides once at startup whether push is offered at all. A
// handshake that is answered without upgrading means the endpoint does not
// exist and the caller should poll instead.
package transport
