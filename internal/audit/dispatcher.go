package audit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Event struct {
	OwnerID  string
	ActorID  string
	Action   string
	Entity   string
	EntityID string
	Metadata any
	At       time.Time
}

// Recorder persists or forwards one audit event.
type Recorder interface {
	Record(ctx context.Context, ev Event) error
}

type Dispatcher struct {
	logger    *zap.Logger
	recorders []Recorder
	queue     chan Event
	done      chan struct{}
	closeOnce sync.Once
}

func NewDispatcher(logger *zap.Logger, recorders ...Recorder) *Dispatcher {
	d := &Dispatcher{
		logger:    logger,
		recorders: recorders,
		queue:     make(chan Event, 100),
		done:      make(chan struct{}),
	}

	go d.worker()
	return d
}

func (d *Dispatcher) worker() {
	defer close(d.done)

	for ev := range d.queue {
		for _, r := range d.recorders {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := r.Record(ctx, ev); err != nil {
				d.logger.Warn("audit record failed",
					zap.String("action", ev.Action),
					zap.String("entity_id", ev.EntityID),
					zap.Error(err),
				)
			}
			cancel()
		}
	}
}

// Dispatch never blocks the request path: a full queue drops the event.
func (d *Dispatcher) Dispatch(ev Event) {
	if d == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	select {
	case d.queue <- ev:
	default:
		d.logger.Warn("audit queue full, dropping event", zap.String("action", ev.Action))
	}
}

// Close drains the queue and waits for the worker.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.queue)
	})
	<-d.done
}
