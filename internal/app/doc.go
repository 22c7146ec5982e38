// Package app is the composition root for roomdeck.
//
// Run wires the pieces in this order and tears them down in reverse:
//
//	config.Load + flag overrides  ->  logging.Setup  ->  prefs.Load
//	players.NewClient
//	state.NewStore
//	supervisor.New(PushProber, client)  ->  Start (probe, then push or poll)
//	detail.NewPoller(client)            (idle until a detail view opens)
//	ui.Run                              (blocks)
//
// Fatal errors are the ones that happen before the UI starts: an unreadable
// or invalid config, a bad API URL, or a log file that cannot be created.
// Everything after that is recoverable and surfaces through the store's
// failure count and the connectivity badge.
package app
