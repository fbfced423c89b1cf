package cache

import (
	"time"

	"github.com/robfig/cron/v3"
)

// TTLUntilNext は now から schedule の次回実行までの期間を返します。
// schedule が nil の場合や次回実行が limit より先の場合は limit を返します。
func TTLUntilNext(schedule cron.Schedule, now time.Time, limit time.Duration) time.Duration {
	if schedule == nil {
		return limit
	}
	next := schedule.Next(now)
	if next.IsZero() {
		return limit
	}
	if d := next.Sub(now); d > 0 && d < limit {
		return d
	}
	return limit
}
