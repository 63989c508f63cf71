// =============================================================================
// run.go - 1回分の実行
// =============================================================================
//
// 設定からソースアダプタを組み立て、集約を1回実行してスナップショットを保存します。
// CLI（cmd/pipeline）と Lambda（cmd/lambda/collect）の両方から呼ばれます。
//
// 【エラー方針】
//   - クエリ単位の失敗は RunSummary.Errors に件数として残すだけで、実行は成功扱い
//   - 出力ディレクトリの作成・書き込み失敗だけを呼び出し元に返す
//
// =============================================================================
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// RunSummary describes one completed run.
type RunSummary struct {
	RunID    string
	Items    int
	NewItems int
	Errors   int
	Paths    []string
}

// BuildSources instantiates the adapters named in cfg.Sources.
func BuildSources(cfg *RunConfig, httpCfg SourceConfig) ([]Source, error) {
	out := make([]Source, 0, len(cfg.Sources))
	for _, name := range cfg.Sources {
		switch name {
		case "feed":
			src := NewFeedSearchSource(httpCfg)
			src.DateOperators = cfg.RangeGiven
			src.SummaryLimit = cfg.SummaryLimit
			out = append(out, src)
		case "html":
			src := NewHTMLSearchSource(httpCfg)
			src.SummaryLimit = cfg.SummaryLimit
			out = append(out, src)
		default:
			return nil, fmt.Errorf("unknown source: %s", name)
		}
	}
	return out, nil
}

// Run performs one full aggregation and writes the snapshot files.
// Only output failures are returned; query failures are logged and skipped.
func Run(ctx context.Context, cfg *RunConfig, sources []Source, now func() time.Time) (*RunSummary, error) {
	if now == nil {
		now = time.Now
	}

	agg := &Aggregator{
		Sources:      sources,
		Queries:      cfg.Queries,
		Range:        cfg.Range,
		Classifier:   NewClassifier(cfg.Policy),
		Pacer:        NewFixedPacer(cfg.PageDelay, cfg.MaxPages),
		SummaryLimit: cfg.SummaryLimit,
		Now:          now,
	}
	result := agg.Run(ctx)

	writer := NewSnapshotWriter(cfg.Output)
	summary := &RunSummary{RunID: result.RunID, Items: len(result.Items), Errors: len(result.Errors)}

	if cfg.History {
		prev, err := writer.LoadLatest()
		if err != nil {
			Log.WithField("run_id", result.RunID).Warnf("previous snapshot unreadable: %v", err)
		}
		summary.NewItems = NewLinks(prev, result.Items)
		Log.WithField("run_id", result.RunID).Infof("%d of %d items are new since the previous snapshot", summary.NewItems, summary.Items)
	}

	snap := NewSnapshot(now().In(KST), cfg.Range, cfg.RangeGiven, result.Items)
	paths, err := writer.Write(snap, cfg.Range)
	if err != nil {
		return nil, err
	}
	summary.Paths = paths

	Log.WithFields(logrus.Fields{
		"run_id":    result.RunID,
		"items":     summary.Items,
		"new_items": summary.NewItems,
		"errors":    summary.Errors,
	}).Debug("snapshot written")

	return summary, nil
}
