// Package ui provides the Bubble Tea chat TUI for Gas Genie.
package ui

import (
	"time"

	assistantdomain "github.com/fd1az/gas-genie/business/assistant/domain"
	gasdomain "github.com/fd1az/gas-genie/business/gas/domain"
)

// Message types for TUI updates

// FragmentMsg carries one streamed fragment and the stream it came from.
type FragmentMsg struct {
	Fragment assistantdomain.Fragment
	stream   <-chan assistantdomain.Fragment
}

// StreamEndMsg is sent when the answer stream closes.
type StreamEndMsg struct{}

// GasMsg is sent when a gas refresh completes.
type GasMsg struct {
	Recommendation *gasdomain.Recommendation
	Err            error
}

// ConnectionStatusMsg is sent when a backend's status changes.
type ConnectionStatusMsg struct {
	Name      string
	Connected bool
	Detail    string
}

// TickMsg is sent periodically for UI updates.
type TickMsg struct{}

// gasRefreshMsg triggers a periodic gas refresh.
type gasRefreshMsg struct {
	at time.Time
}
