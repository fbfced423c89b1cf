// Package ratelimiter はアップストリームAPI呼び出しの頻度を制限します。
package ratelimiter

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterInterface は、API呼び出しなどの操作の頻度を制限するインターフェースです。
type RateLimiterInterface interface {
	Wait(ctx context.Context) error
}

// RateLimiter はトークンバケット方式で操作の頻度を制限します。
// 複数のゴルーチンから同時に呼び出しても安全です。
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter は interval あたり limit 回まで許可する RateLimiter を生成します。
// バーストは limit です。limit が0以下の場合は制限しません。
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	if limit <= 0 || interval <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Every(interval/time.Duration(limit)), limit)}
}

// Wait はトークンが得られるまで待機します。
// 待機中に ctx がキャンセルされた場合、または期限までにトークンが得られない場合はエラーを返します。
func (rl *RateLimiter) Wait(ctx context.Context) error {
	return rl.limiter.Wait(ctx)
}

// Unlimited は待機しない RateLimiterInterface 実装です。
type Unlimited struct{}

// Wait は ctx がキャンセル済みでない限り即座に nil を返します。
func (Unlimited) Wait(ctx context.Context) error { return ctx.Err() }
