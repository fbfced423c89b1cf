// Package scheduler はcron式で登録したジョブを定期実行します。
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// parser は秒フィールド付きの6項目のcron式を解釈します。
var parser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSpec は秒フィールド付きのcron式を解釈します。
func ParseSpec(spec string) (cron.Schedule, error) {
	return parser.Parse(spec)
}

// Job はスケジューラーから実行される処理です。
type Job func(ctx context.Context) error

// Scheduler manages all cron tasks.
type Scheduler struct {
	cron *cron.Cron
	ctx  context.Context

	mu   sync.Mutex
	jobs map[string]func()
}

// New は loc のタイムゾーンでcron式を評価するスケジューラーを生成します。
// 前回の実行が終わっていないジョブはスキップされます。
func New(ctx context.Context, loc *time.Location) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelInfo))
	return &Scheduler{
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		ctx:  ctx,
		jobs: map[string]func(){},
	}
}

// Register は name のジョブを spec のスケジュールで登録します。
func (s *Scheduler) Register(name, spec string, job Job) error {
	run := func() {
		start := time.Now()
		slog.Info("running scheduled job", "job", name)
		if err := job(s.ctx); err != nil {
			slog.Error("scheduled job failed", "job", name, "error", err, "elapsed", time.Since(start))
			return
		}
		slog.Info("scheduled job finished", "job", name, "elapsed", time.Since(start))
	}
	if _, err := s.cron.AddFunc(spec, run); err != nil {
		return fmt.Errorf("register %s task: %w", name, err)
	}

	s.mu.Lock()
	s.jobs[name] = run
	s.mu.Unlock()
	return nil
}

// RunNow は登録済みのジョブを即座に同期実行します。
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	run, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	run()
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop は新規実行を止め、実行中のジョブの終了を待ちます。
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	slog.Info("scheduler stopped")
}
