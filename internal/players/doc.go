// Package players is the HTTP client and wire model for the multi-room audio
// controller backend.
//
// The backend exposes one roster endpoint (GET /api/players) returning every
// player's state, a per-player detail metrics endpoint used by the detail
// view, and a handful of mutating routes (volume, offset, start, stop).
//
// All values that the dashboard displays pass through Clamped, so volume is
// always within 0..100 and delay within -5000..5000 ms regardless of what the
// backend reported. Mutations clamp before the request is sent and return the
// value that was actually sent so callers can reflect it locally.
//
// Decode failures wrap ErrMalformedResponse; callers treat them like any other
// failed fetch.
package players
