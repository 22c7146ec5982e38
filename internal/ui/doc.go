// Package ui renders the roomdeck dashboard with Bubble Tea.
//
// The model never polls the backend itself. New subscribes to three feeds
// and turns each into a waiting tea.Cmd that is re-issued after every wake:
//
//   - state.Store changes: the roster is re-read with Store.Snapshot.
//   - supervisor phase changes: the connectivity badge is re-read.
//   - detail samples: kept only when they belong to the player whose detail
//     view is open.
//
// Volume and delay actions go to players.Controller. A successful call is
// applied to the store as a local hint with the value that was actually
// sent; start and stop ask the supervisor for a one-shot refresh instead.
//
// # Views
//
//   - Roster: one row per player, sortable by name or state, with a name
//     filter.
//   - Detail: the roster entry plus live metrics sampled while the view is
//     open.
//   - Logs: tail of roomdeck's own log file.
//
// Theme and sort order are persisted through the prefs package.
package ui
