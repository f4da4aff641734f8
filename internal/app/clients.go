package app

import (
	"fmt"
	"os"
	"strings"

	redisclient "github.com/clipcasthq/clipcast-backend/internal/clients/redis"
	"github.com/clipcasthq/clipcast-backend/internal/logger"
)

type Clients struct {
	EventsBus redisclient.EventsBus
}

// wireClients builds external connections. The events bus is optional:
// without REDIS_ADDR the notifier degrades to a no-op and everything
// else keeps working.
func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	var bus redisclient.EventsBus
	if strings.TrimSpace(os.Getenv("REDIS_ADDR")) != "" {
		b, err := redisclient.NewEventsBus(log)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis events bus: %w", err)
		}
		bus = b
	}

	return Clients{EventsBus: bus}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.EventsBus != nil {
		_ = c.EventsBus.Close()
	}
}
