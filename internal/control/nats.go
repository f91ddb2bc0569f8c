package control

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
)

// Transport publishes chain-progress events and relays inspection
// commands over NATS, so a separate process can watch or steer a
// running sampler without sharing memory with it. Adapted from the
// teacher pack's NATS client wrapper: one connection, tracked
// subscriptions, and a disconnect handler that ignores connection errors
// rather than treating them as fatal.
type Transport struct {
	conn          *nats.Conn
	progressSubj  string
	commandSubj   string
	subscriptions []*nats.Subscription
	mu            sync.Mutex
}

// NewTransport connects to url and wires it to publish progress under
// progressSubj and relay inbound commands (JSON-encoded Command values)
// from commandSubj into dst.
func NewTransport(url, progressSubj, commandSubj string, dst chan<- Command) (*Transport, error) {
	nc, err := nats.Connect(url,
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				// Connection problems are not fatal to the sampler; it
				// keeps running and simply loses the remote control
				// channel until reconnection succeeds.
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("control: nats connect to %s: %w", url, err)
	}

	t := &Transport{conn: nc, progressSubj: progressSubj, commandSubj: commandSubj}

	sub, err := nc.Subscribe(commandSubj, func(msg *nats.Msg) {
		var cmd Command
		if err := json.Unmarshal(msg.Data, &cmd); err != nil {
			return
		}
		select {
		case dst <- cmd:
		default:
		}
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("control: nats subscribe to %s: %w", commandSubj, err)
	}
	t.subscriptions = append(t.subscriptions, sub)
	return t, nil
}

// PublishProgress sends a ChainStatus snapshot to the progress subject.
func (t *Transport) PublishProgress(statuses []ChainStatus) error {
	data, err := json.Marshal(statuses)
	if err != nil {
		return fmt.Errorf("control: encoding progress: %w", err)
	}
	if err := t.conn.Publish(t.progressSubj, data); err != nil {
		return fmt.Errorf("control: publishing progress: %w", err)
	}
	return nil
}

// Close unsubscribes everything and closes the connection.
func (t *Transport) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, sub := range t.subscriptions {
		_ = sub.Unsubscribe()
	}
	t.subscriptions = nil
	if t.conn != nil {
		t.conn.Close()
	}
}
