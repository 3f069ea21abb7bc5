package agent

import (
	"context"
	"time"

	"github.com/tsio-labs/metricship/internal/writer"
	"github.com/tsio-labs/metricship/pkg/log"
)

// Agent drives the sampling and shipping loop: collect on the poll
// interval, flush on the send interval, final flush on shutdown.
// Config reloads arrive over a channel and are applied inside Run's
// select, so the loop goroutine is the only one touching the writer
// and its single-caller contract holds even with a config watcher
// running.
type Agent struct {
	cfg       Config
	collector Collector
	writer    *writer.Writer
	logger    log.Logger
	reloads   chan FileConfig
}

// NewAgent creates an agent from its collaborators.
func NewAgent(cfg Config, collector Collector, w *writer.Writer, logger log.Logger) *Agent {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Agent{
		cfg:       cfg,
		collector: collector,
		writer:    w,
		logger:    logger,
		reloads:   make(chan FileConfig, 1),
	}
}

// Run executes the loop until the context is canceled, then closes
// the writer so buffered records get one final delivery attempt.
func (a *Agent) Run(ctx context.Context) error {
	poll := time.NewTicker(a.cfg.PollInterval)
	defer poll.Stop()
	send := time.NewTicker(a.cfg.SendInterval)
	defer send.Stop()

	a.logger.Info("agent started",
		log.Duration("poll_interval", a.cfg.PollInterval),
		log.Duration("send_interval", a.cfg.SendInterval),
		log.Int("batch_size", a.writer.BatchSize()))

	for {
		select {
		case <-ctx.Done():
			// The loop context is gone; give the final flush its own
			// bounded context.
			closeCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTPTimeout)
			a.writer.Close(closeCtx)
			cancel()
			a.logger.Info("agent stopped")
			return ctx.Err()

		case now := <-poll.C:
			records, err := a.collector.Collect(now)
			if err != nil {
				a.logger.Error("collect failed", log.Err(err))
				continue
			}
			if err := a.writer.WriteAll(ctx, records); err != nil {
				a.logger.Error("write failed", log.Err(err))
			}

		case <-send.C:
			a.writer.Flush(ctx)

		case fc := <-a.reloads:
			a.applyReload(fc)
		}
	}
}

// ApplyReload hands a reloaded config file to the loop. The update is
// enqueued rather than applied here because the caller runs on the
// watcher's goroutine; Run picks it up on its own. Only the newest
// pending reload is kept and the call never blocks, so a stopped
// agent cannot wedge the watcher.
func (a *Agent) ApplyReload(fc FileConfig) {
	select {
	case a.reloads <- fc:
		return
	default:
	}
	// A reload is already pending; replace it with the newer one.
	select {
	case <-a.reloads:
	default:
	}
	select {
	case a.reloads <- fc:
	default:
	}
}

// applyReload applies the runtime-tunable settings from a reloaded
// config file. Only the batch size takes effect without a restart;
// everything else needs a new process. Runs on the loop goroutine.
func (a *Agent) applyReload(fc FileConfig) {
	if fc.BatchSize == nil || *fc.BatchSize == a.writer.BatchSize() {
		return
	}
	if err := a.writer.SetBatchSize(*fc.BatchSize); err != nil {
		a.logger.Error("reload rejected", log.Err(err))
		return
	}
	a.logger.Info("batch size reloaded", log.Int("batch_size", *fc.BatchSize))
}
