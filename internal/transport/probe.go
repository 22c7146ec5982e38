package transport

import (
	"context"
	"fmt"
)

// Capability is the result of probing for the push transport. It is either
// PushAvailable or PushUnavailable.
type Capability interface {
	capability()
}

// PushAvailable carries a ready push channel. A *PushChannel returned by
// PushProber may already hold the connection established while probing.
type PushAvailable struct {
	Channel Channel
}

// PushUnavailable means the backend does not offer push; Reason explains why.
type PushUnavailable struct {
	Reason error
}

func (PushAvailable) capability()   {}
func (PushUnavailable) capability() {}

// Prober decides once whether push is offered.
type Prober interface {
	Probe(ctx context.Context) Capability
}

// PushProber probes by dialing the push endpoint.
type PushProber struct {
	Enabled bool
	Options PushOptions
}

// Probe dials the push endpoint once. A non-upgrade response means the
// backend has no push endpoint. A network failure still reports push as
// available; the channel keeps retrying on its own.
func (p PushProber) Probe(ctx context.Context) Capability {
	if !p.Enabled {
		return PushUnavailable{Reason: fmt.Errorf("%w: disabled by configuration", ErrTransportUnavailable)}
	}
	if p.Options.URL == "" {
		return PushUnavailable{Reason: fmt.Errorf("%w: no push url", ErrTransportUnavailable)}
	}

	ch := newPushChannel(p.Options, nil)
	conn, err := ch.dial(ctx)
	switch {
	case err == nil:
		ch.initial = conn
		return PushAvailable{Channel: ch}
	case isHandshakeRejection(err):
		pushLog.Infow("push endpoint not offered", "url", p.Options.URL, "error", err)
		return PushUnavailable{Reason: fmt.Errorf("%w: %v", ErrTransportUnavailable, err)}
	case ctx.Err() != nil:
		return PushUnavailable{Reason: fmt.Errorf("%w: %v", ErrTransportUnavailable, ctx.Err())}
	default:
		pushLog.Warnw("push probe failed, will retry in background", "url", p.Options.URL, "error", err)
		return PushAvailable{Channel: ch}
	}
}
