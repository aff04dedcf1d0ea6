// internal/websocket/errors.go
package websocket

import "errors"

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenBlacklisted = errors.New("token has been blacklisted")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrUnknownRole      = errors.New("unknown recipient role")

	// ErrRecipientOffline is a delivery miss, not a failure: the persisted
	// notification record remains the durable fallback.
	ErrRecipientOffline = errors.New("recipient has no open channel")

	// ErrSlowConsumer means the channel's send buffer is full; the connection
	// is dropped and the recipient treated as offline.
	ErrSlowConsumer = errors.New("client send buffer full")

	ErrChannelClosed = errors.New("channel closed")
)
