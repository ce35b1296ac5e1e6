package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/linkdropapp/linkdrop/internal/storage"
)

// Repo is the sink click batches are flushed into.
type Repo interface {
	InsertClicks(context.Context, []storage.ClickEvent) error
}

// flushThreshold forces a flush before the ticker when traffic is high.
const flushThreshold = 25

// ClickWorker batches link-click events and flushes them to storage on
// a size threshold or a ticker, whichever comes first.
type ClickWorker struct {
	in     chan storage.ClickEvent
	logger *zap.Logger
	repo   Repo
	period time.Duration
}

func NewClickWorker(logger *zap.Logger, repo Repo) *ClickWorker {
	return &ClickWorker{
		in:     make(chan storage.ClickEvent, 256),
		logger: logger,
		repo:   repo,
		period: 10 * time.Second,
	}
}

// GetInChannel exposes the send side for producers.
func (w *ClickWorker) GetInChannel() chan<- storage.ClickEvent {
	return w.in
}

// FlushEvents accumulates events and writes them in batches until ctx
// is cancelled. Remaining events are flushed on shutdown.
func (w *ClickWorker) FlushEvents(ctx context.Context) {
	ticker := time.NewTicker(w.period)
	defer ticker.Stop()

	var events []storage.ClickEvent

	flush := func() {
		if len(events) == 0 {
			return
		}
		fctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		if err := w.repo.InsertClicks(fctx, events); err != nil {
			w.logger.Error("cannot flush click events", zap.Error(err), zap.Int("count", len(events)))
			events = events[:0]
			return
		}
		w.logger.Info("flushed click events", zap.Int("count", len(events)))
		events = events[:0]
	}

	for {
		select {
		case e := <-w.in:
			events = append(events, e)
			if len(events) >= flushThreshold {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-ctx.Done():
			flush()
			return
		}
	}
}
