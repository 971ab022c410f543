package relay

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Monitor is the liveness sweep. Each scan pings every open connection and
// rearms its alive flag; a connection whose flag is still down at the next
// scan missed a full cycle and is terminated. Termination closes the
// transport, which drives the ordinary disconnect path, so a dead client
// holds its room slot for at most two intervals.
type Monitor struct {
	reg      *Registry
	interval time.Duration

	// terminate is swappable so tests can observe eviction without a live
	// websocket under the client.
	terminate func(*Client)
}

func NewMonitor(reg *Registry, interval time.Duration) *Monitor {
	return &Monitor{
		reg:       reg,
		interval:  interval,
		terminate: func(c *Client) { c.Close() },
	}
}

func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", m.interval).Msg("relay: liveness monitor started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("relay: liveness monitor stopped")
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *Monitor) sweep() {
	evicted := 0
	m.reg.EachConn(func(c *Client) {
		if !c.checkAndClearAlive() {
			log.Warn().
				Str("participantId", c.ParticipantID()).
				Str("roomId", c.RoomID()).
				Msg("relay: connection missed heartbeat, terminating")
			m.terminate(c)
			evicted++
			return
		}
		c.ping()
	})
	if evicted > 0 {
		log.Debug().Int("evicted", evicted).Msg("relay: liveness sweep completed")
	}
}
