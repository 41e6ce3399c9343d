// Package jobs runs media jobs, like proxy rendering, in the background. The
// status of every job is kept in a Store; the result is handed to a callback
// on the worker goroutine, which should pass it on to the editing thread.
package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/flowblade/flowcut"
)

type (
	Result struct {
		Job Job
		Err error
	}

	Runner struct {
		store    *Store
		tr       Transcoder
		pool     *pool
		onResult func(Result)
		ctx      context.Context
		cancel   context.CancelFunc
		logger   *slog.Logger

		mu     sync.Mutex
		closed bool
	}
)

var ErrClosed = errors.New("job runner is closed")

func NewRunner(store *Store, tr Transcoder, workers int, onResult func(Result), logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		store:    store,
		tr:       tr,
		pool:     newPool(workers, 64),
		onResult: onResult,
		ctx:      ctx,
		cancel:   cancel,
		logger:   logger,
	}
}

func (r *Runner) Store() *Store { return r.store }

// Submit queues a job rendering the media of clip from src into dst. It
// returns ErrClosed after Close.
func (r *Runner) Submit(clip flowcut.ClipID, src, dst string) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return uuid.Nil, ErrClosed
	}
	j := Job{ID: uuid.New(), Clip: clip, Source: src, Target: dst, Status: Queued}
	if err := r.store.Add(j); err != nil {
		return uuid.Nil, err
	}
	r.logger.Info("job queued", "job", j.ID, "clip", clip, "source", src)
	r.pool.submit(func() { r.run(j) })
	return j.ID, nil
}

func (r *Runner) RequestAbort(id uuid.UUID) error {
	return r.store.RequestAbort(id)
}

// Wait blocks until all submitted jobs have finished.
func (r *Runner) Wait() { r.pool.wait() }

// Close stops the running jobs and waits for the workers to exit. Queued jobs
// end up aborted. Closing twice does nothing.
func (r *Runner) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	r.cancel()
	r.pool.close()
}

func (r *Runner) run(j Job) {
	if abort, err := r.store.AbortRequested(j.ID); err != nil || abort || r.ctx.Err() != nil {
		r.finish(j, Aborted, ErrAborted)
		return
	}
	r.setStatus(j, Running, "")
	err := r.tr.Transcode(r.ctx, j.Source, j.Target, func(p float64) bool {
		if err := r.store.SetProgress(j.ID, p); err != nil {
			r.logger.Warn("could not store job progress", "job", j.ID, "err", err)
		}
		abort, _ := r.store.AbortRequested(j.ID)
		return !abort
	})
	switch {
	case err == nil:
		r.finish(j, Done, nil)
	case errors.Is(err, ErrAborted) || errors.Is(err, context.Canceled):
		r.finish(j, Aborted, err)
	default:
		r.finish(j, Failed, err)
	}
}

func (r *Runner) finish(j Job, st Status, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	r.setStatus(j, st, msg)
	if stored, gerr := r.store.Get(j.ID); gerr == nil {
		j = stored
	} else {
		j.Status, j.Err = st, msg
	}
	if r.onResult != nil {
		r.onResult(Result{Job: j, Err: err})
	}
}

func (r *Runner) setStatus(j Job, st Status, msg string) {
	if err := r.store.SetStatus(j.ID, st, msg); err != nil {
		r.logger.Warn("could not store job status", "job", j.ID, "err", err)
		return
	}
	r.logger.Info("job "+string(st), "job", j.ID, "clip", j.Clip)
}
