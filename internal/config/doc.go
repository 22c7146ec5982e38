// Package config loads roomdeck's startup configuration.
//
// # Resolution Order
//
//  1. Built-in defaults (Default)
//  2. The TOML file, ~/.config/roomdeck/config.toml unless a path is given
//  3. Environment overrides (ROOMDECK_API_URL, ROOMDECK_PUSH,
//     ROOMDECK_LOG_LEVEL, ROOMDECK_LOG_FILE)
//  4. Command-line flags, applied by cmd/roomdeck
//
// A missing file is not an error. Blank strings in the file keep the
// default; numeric and boolean keys that are present always win, so
// push_max_retries = 0 really means "retry forever".
//
// # TOML Format
//
//	api_url = "127.0.0.1:8080"
//	push_enabled = true
//	push_path = "/api/ws"
//	push_event = "status_update"
//	push_max_retries = 10
//	push_backoff_ms = 1000
//	poll_interval_ms = 5000
//	detail_interval_ms = 500
//	backstop_polling = true
//	notice_after_failures = 3
//	log_file = "~/.local/state/roomdeck/roomdeck.log"
//	log_level = "info"
//
// Tilde expansion is applied to the config path and log_file.
//
// Validate reports every problem at once (errors.Join); callers should run
// it after flags are applied.
package config
