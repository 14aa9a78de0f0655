package rest

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/fd1az/gas-genie/business/assistant/domain"
	"github.com/fd1az/gas-genie/internal/logger"
	"github.com/fd1az/gas-genie/internal/wsconn"
)

var errConnectionLost = errors.New("assist connection closed before done")

// RemoteAssistant streams answers from a running server's /ws/assist
// endpoint. It satisfies the same contract as the local assistant.
type RemoteAssistant struct {
	url    string
	logger logger.LoggerInterface
}

// NewRemoteAssistant targets the WebSocket endpoint at url.
func NewRemoteAssistant(url string, log logger.LoggerInterface) *RemoteAssistant {
	return &RemoteAssistant{url: url, logger: log}
}

// Assist opens one connection per query and relays its events as fragments.
func (r *RemoteAssistant) Assist(ctx context.Context, query, queryID string) <-chan domain.Fragment {
	out := make(chan domain.Fragment)

	go func() {
		defer close(out)

		emit := func(f domain.Fragment) bool {
			select {
			case out <- f:
				return true
			case <-ctx.Done():
				return false
			}
		}

		cfg := wsconn.DefaultConfig(r.url, "assist")
		cfg.Reconnect = false
		client, err := wsconn.New(cfg)
		if err != nil {
			emit(domain.ErrorFragment(err, "Invalid assistant URL "+r.url))
			return
		}
		defer client.Close()

		events := make(chan Event, 16)
		gone := make(chan error, 1)

		client.OnMessage(func(ctx context.Context, msg []byte) {
			var ev Event
			if err := json.Unmarshal(msg, &ev); err != nil {
				r.logger.Warn(ctx, "undecodable assist event", "error", err)
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
			}
		})
		client.OnStateChange(func(state wsconn.State, err error) {
			if state == wsconn.StateDisconnected {
				select {
				case gone <- err:
				default:
				}
			}
		})

		if err := client.Connect(ctx); err != nil {
			emit(domain.ErrorFragment(err, "Could not reach assistant at "+r.url))
			return
		}

		var req AssistRequest
		req.Query.Prompt = query
		req.Query.ID = queryID
		if err := client.SendJSON(ctx, req); err != nil {
			emit(domain.ErrorFragment(err, "Failed to send query"))
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-events:
				if ev.Type == EventDone {
					return
				}
				if !emit(eventFragment(ev)) {
					return
				}
			case err := <-gone:
				// Drain events that arrived before the close.
				for {
					select {
					case ev := <-events:
						if ev.Type == EventDone {
							return
						}
						if !emit(eventFragment(ev)) {
							return
						}
						continue
					default:
					}
					break
				}
				if err == nil {
					err = errConnectionLost
				}
				emit(domain.ErrorFragment(err, "Connection to assistant lost"))
				return
			}
		}
	}()

	return out
}

// eventFragment maps a wire event back to a fragment.
func eventFragment(ev Event) domain.Fragment {
	switch {
	case ev.Type == EventError:
		return domain.ErrorFragment(errors.New(ev.Content), ev.Content)
	case strings.HasPrefix(ev.Content, domain.ErrorPrefix):
		return domain.Fragment{Content: ev.Content, Err: errors.New(strings.TrimPrefix(ev.Content, domain.ErrorPrefix))}
	default:
		return domain.TextFragment(ev.Content)
	}
}
