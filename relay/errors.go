package relay

import "errors"

var (
	ErrPingRateLimited   = errors.New("relay: ping rate limited")
	ErrUnhandledKind     = errors.New("relay: message kind is not handled")
	ErrNoPropertyChannel = errors.New("relay: no property channel")
	ErrNotSpawnParameter = errors.New("relay: not a spawn parameter")
)
