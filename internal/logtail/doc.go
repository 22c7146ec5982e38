// Package logtail reads the tail of roomdeck's own log file for the in-app
// log view.
//
// Read uses a ring buffer of maxLines entries, so memory stays bounded by the
// requested window rather than the file size, and lines come back in
// chronological order. A missing file is not an error: the log view simply
// shows nothing until the first line is written.
//
// Parse understands the tab-separated plaintext format go-log writes:
//
//	2026-10-18T10:00:00.000Z	WARN	roomdeck/transport	transport/pull.go:95	roster poll failed
//
// Anything that does not match is kept verbatim as the message. Styling is
// left to the UI.
package logtail
