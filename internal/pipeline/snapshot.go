// =============================================================================
// snapshot.go - スナップショットの保存
// =============================================================================
//
// 1回の実行結果を2つのJSONファイルに書き出します。
//
//	<OutputDir>/latest.json               常に上書き
//	<OutputDir>/YYYY-MM-DD.json           1日分の実行
//	<OutputDir>/YYYY-MM-DD_YYYY-MM-DD.json 期間指定の実行
//
// 非ASCII文字はそのまま（エスケープしない）、2スペースインデント。
// 出力先ディレクトリの作成・書き込み失敗は致命的エラーとして呼び出し元に返す。
//
// =============================================================================
package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// OutputConfig は出力に関する設定
type OutputConfig struct {
	// Dir は出力ディレクトリ（無ければ作成する）
	Dir string
	// LatestName は常に上書きされるファイル名
	LatestName string
}

// DefaultLatestName is the fixed name of the "latest" snapshot file.
const DefaultLatestName = "latest.json"

// SnapshotWriter persists snapshots to an output directory.
type SnapshotWriter struct {
	cfg OutputConfig
}

// NewSnapshotWriter returns a writer for cfg. Empty fields get defaults.
func NewSnapshotWriter(cfg OutputConfig) *SnapshotWriter {
	if cfg.Dir == "" {
		cfg.Dir = "data"
	}
	if cfg.LatestName == "" {
		cfg.LatestName = DefaultLatestName
	}
	return &SnapshotWriter{cfg: cfg}
}

// NewSnapshot assembles the persisted payload. withRange controls whether the range is recorded.
func NewSnapshot(generatedAt time.Time, r DateRange, withRange bool, items []NewsItem) Snapshot {
	snap := Snapshot{
		GeneratedAt: generatedAt.Truncate(time.Second),
		Items:       items,
	}
	if snap.Items == nil {
		snap.Items = []NewsItem{}
	}
	if withRange {
		rr := r
		snap.Range = &rr
	}
	return snap
}

// RunFileName returns the run-scoped file name for a range.
func RunFileName(r DateRange) string {
	if r.SingleDay() {
		return r.Start.Format(dateLayout) + ".json"
	}
	return r.Start.Format(dateLayout) + "_" + r.End.Format(dateLayout) + ".json"
}

// Write stores snap as the latest snapshot and as the run-scoped file for r.
// It returns the paths written.
func (w *SnapshotWriter) Write(snap Snapshot, r DateRange) ([]string, error) {
	if err := os.MkdirAll(w.cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	paths := []string{
		filepath.Join(w.cfg.Dir, w.cfg.LatestName),
		filepath.Join(w.cfg.Dir, RunFileName(r)),
	}
	for _, p := range paths {
		if err := writeJSONFile(p, snap); err != nil {
			return nil, fmt.Errorf("write snapshot %s: %w", p, err)
		}
	}
	return paths, nil
}

// LoadLatest reads the previous latest snapshot. A missing file yields (nil, nil).
func (w *SnapshotWriter) LoadLatest() (*Snapshot, error) {
	return LoadSnapshot(filepath.Join(w.cfg.Dir, w.cfg.LatestName))
}

// LoadSnapshot reads a snapshot file. A missing file yields (nil, nil).
func LoadSnapshot(path string) (*Snapshot, error) {
	var snap Snapshot
	if err := readJSONFile(path, &snap); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	return &snap, nil
}

// NewLinks counts items of cur whose link is absent from prev.
func NewLinks(prev *Snapshot, cur []NewsItem) int {
	if prev == nil {
		return len(cur)
	}
	known := make(map[string]bool, len(prev.Items))
	for _, it := range prev.Items {
		known[it.Link] = true
	}
	n := 0
	for _, it := range cur {
		if !known[it.Link] {
			n++
		}
	}
	return n
}
