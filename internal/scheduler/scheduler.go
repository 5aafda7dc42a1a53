// Package scheduler wires up the cron job that periodically re-runs every
// active saved search.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is one scheduled pass, e.g. savedsearch.Runner.RunAll.
type Job interface {
	RunAll(ctx context.Context) error
}

// Scheduler wraps robfig/cron and manages the saved-search loop.
type Scheduler struct {
	cron *cron.Cron
	job  Job
	log  *zap.Logger
	spec string // cron spec, e.g. "@every 6h"

	running sync.Mutex     // held while a pass is in flight
	initial sync.WaitGroup // the pass started by Start
}

// New creates a Scheduler that fires every intervalHours hours.
func New(job Job, intervalHours int, log *zap.Logger) *Scheduler {
	return NewWithSpec(job, fmt.Sprintf("@every %dh", intervalHours), log)
}

// NewWithSpec creates a Scheduler for an arbitrary cron spec.
func NewWithSpec(job Job, spec string, log *zap.Logger) *Scheduler {
	log = log.Named("scheduler")
	return &Scheduler{
		cron: cron.New(cron.WithChain(cron.Recover(cronLogger{log}))),
		job:  job,
		log:  log,
		spec: spec,
	}
}

// Start registers the job and starts the scheduler. Also runs one pass
// immediately so run history exists without waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.runOnce(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.log.Info("cron started", zap.String("spec", s.spec))

	s.initial.Add(1)
	go func() {
		defer s.initial.Done()
		s.runOnce(ctx)
	}()

	return nil
}

// Stop halts the cron and waits for any running pass to finish, including
// the one Start launched.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.initial.Wait()
	s.running.Lock()
	defer s.running.Unlock()
	s.log.Info("cron stopped")
}

// runOnce skips the tick if the previous pass is still going.
func (s *Scheduler) runOnce(ctx context.Context) {
	if !s.running.TryLock() {
		s.log.Warn("previous pass still running, skipping tick")
		return
	}
	defer s.running.Unlock()

	s.log.Info("saved-search pass started")
	if err := s.job.RunAll(ctx); err != nil {
		s.log.Error("saved-search pass failed", zap.Error(err))
		return
	}
	s.log.Info("saved-search pass complete")
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct{ log *zap.Logger }

func (l cronLogger) Info(msg string, kv ...any) {
	l.log.Sugar().Infow(msg, kv...)
}

func (l cronLogger) Error(err error, msg string, kv ...any) {
	l.log.Sugar().Errorw(msg, append(kv, "error", err)...)
}
