// =============================================================================
// pacer.go - ページ間の待ち時間
// =============================================================================
//
// 同じ上流への連続リクエストの間に一定時間待つための方針オブジェクトです。
// ページ送りだけでなく、クエリの切り替え時にも使われます。
// リトライやバックオフの仕組みではありません。
//
//	FixedPacer  一定間隔で待つ（本番用）
//	NoopPacer   待たない（テスト用）
//
// =============================================================================
package pipeline

import (
	"context"
	"time"
)

// Pacer is the courtesy-delay policy applied between consecutive page requests
// to the same upstream. It is not a retry or backoff mechanism.
type Pacer interface {
	// Wait blocks for the courtesy interval, or until ctx is done.
	Wait(ctx context.Context) error
	// MaxPages is the page cap for one query (>= 1).
	MaxPages() int
}

// FixedPacer sleeps a flat interval between pages.
type FixedPacer struct {
	Interval time.Duration
	Pages    int
}

// NewFixedPacer returns a pacer with the given interval and page cap.
func NewFixedPacer(interval time.Duration, maxPages int) *FixedPacer {
	return &FixedPacer{Interval: interval, Pages: maxPages}
}

func (p *FixedPacer) Wait(ctx context.Context) error {
	if p.Interval <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(p.Interval)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *FixedPacer) MaxPages() int {
	if p.Pages < 1 {
		return 1
	}
	return p.Pages
}

// NoopPacer never waits. Used by tests and single-page sources.
type NoopPacer struct {
	Pages int
}

func (p NoopPacer) Wait(ctx context.Context) error { return ctx.Err() }

func (p NoopPacer) MaxPages() int {
	if p.Pages < 1 {
		return 1
	}
	return p.Pages
}
