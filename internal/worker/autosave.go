package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-tracker/internal/model"
)

type Saver interface {
	Save(ctx context.Context) (model.Snapshot, error)
}

// Autosaver saves a snapshot on every tick. Failures are only logged;
// the next tick tries again.
type Autosaver struct {
	saver    Saver
	logger   *zap.Logger
	interval time.Duration
	timeout  time.Duration
	wg       sync.WaitGroup
	stop     chan struct{}
	once     sync.Once
}

func NewAutosaver(saver Saver, logger *zap.Logger, interval time.Duration) *Autosaver {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := interval
	if timeout > 30*time.Second {
		timeout = 30 * time.Second
	}
	return &Autosaver{
		saver:    saver,
		logger:   logger,
		interval: interval,
		timeout:  timeout,
		stop:     make(chan struct{}),
	}
}

// Start is a no-op when interval <= 0.
func (a *Autosaver) Start(ctx context.Context) {
	if a.interval <= 0 {
		a.logger.Info("Autosave disabled")
		return
	}
	a.logger.Info("Starting autosave", zap.Duration("interval", a.interval))

	a.wg.Add(1)
	go a.run(ctx)
}

func (a *Autosaver) Stop() {
	a.once.Do(func() {
		close(a.stop)
	})
	a.wg.Wait()
	a.logger.Info("Autosave stopped")
}

func (a *Autosaver) run(ctx context.Context) {
	defer a.wg.Done()

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-a.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.saveOnce(ctx)
		}
	}
}

func (a *Autosaver) saveOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	snap, err := a.saver.Save(ctx)
	if err != nil {
		a.logger.Error("autosave failed", zap.Error(err))
		return
	}
	a.logger.Debug("autosave done",
		zap.String("snapshot_id", snap.ID),
		zap.Int("tasks", len(snap.Tasks)),
		zap.Duration("took", time.Since(start)),
	)
}
