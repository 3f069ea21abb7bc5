// Package udp implements the transport port as a fire-and-forget
// datagram sender, for listeners like a Telegraf socket input.
package udp

import (
	"context"
	"fmt"
	"net"

	"github.com/tsio-labs/metricship/internal/domain"
	"github.com/tsio-labs/metricship/pkg/log"
)

// Transport ships payloads as UDP datagrams. UDP produces no
// response, so Send always returns nil bytes.
type Transport struct {
	addr   string
	logger log.Logger
}

// New validates the destination address and creates a UDP transport.
func New(addr string, logger log.Logger) (*Transport, error) {
	if addr == "" {
		return nil, fmt.Errorf("%w: empty address", domain.ErrInvalidEndpoint)
	}
	if _, err := net.ResolveUDPAddr("udp", addr); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidEndpoint, err)
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Transport{addr: addr, logger: logger}, nil
}

// Send dials the destination, writes the payload, and closes the
// connection. The connection lives only for this delivery attempt.
func (t *Transport) Send(ctx context.Context, payload []byte) ([]byte, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp", t.addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", t.addr, err)
	}
	defer conn.Close()

	if _, err := conn.Write(payload); err != nil {
		return nil, fmt.Errorf("write to %s: %w", t.addr, err)
	}

	t.logger.Debug("payload sent", log.Int("bytes", len(payload)))
	return nil, nil
}
