package feed

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/example/courier-orders/internal/models"
)

// Channel is the NOTIFY channel the orders trigger emits on.
const Channel = "orders_changed"

// Listener is a push channel of row-level order mutations. Close must be
// safe to call exactly once per subscription, whichever path tears it down.
type Listener interface {
	Events() <-chan models.ChangeEvent
	Close() error
}

// PQListener consumes Postgres NOTIFY payloads emitted by the orders table
// trigger and decodes them into change events.
type PQListener struct {
	pql    *pq.Listener
	events chan models.ChangeEvent
	log    *slog.Logger

	done      chan struct{}
	closeOnce sync.Once
}

func NewPQListener(dsn string, log *slog.Logger) (*PQListener, error) {
	pql := pq.NewListener(dsn, 10*time.Second, time.Minute, nil)
	if err := pql.Listen(Channel); err != nil {
		_ = pql.Close()
		return nil, err
	}
	l := &PQListener{
		pql:    pql,
		events: make(chan models.ChangeEvent, 16),
		log:    log,
		done:   make(chan struct{}),
	}
	go l.run()
	return l, nil
}

func (l *PQListener) run() {
	defer close(l.events)
	for {
		select {
		case <-l.done:
			return
		case n, ok := <-l.pql.Notify:
			if !ok {
				return
			}
			if n == nil {
				// reconnect marker from the driver, nothing to decode
				continue
			}
			var ev models.ChangeEvent
			if err := json.Unmarshal([]byte(n.Extra), &ev); err != nil {
				l.log.Error("undecodable feed payload", "payload", n.Extra, "error", err)
				continue
			}
			select {
			case l.events <- ev:
			case <-l.done:
				return
			}
		}
	}
}

func (l *PQListener) Events() <-chan models.ChangeEvent { return l.events }

func (l *PQListener) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.done)
		err = l.pql.Close()
	})
	return err
}
