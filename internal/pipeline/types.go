// =============================================================================
// types.go - データ構造定義
// =============================================================================
//
// このファイルはApproval Relay全体で使用するデータ構造（型）を定義します。
//
// 【このファイルで定義している型】
//   - Label:         規制当局ラベル（FDA / EMA）
//   - NewsCandidate: ソースアダプタが返す未分類の候補記事
//   - NewsItem:      分類・日時正規化済みの記事（スナップショットに保存される単位）
//   - DateRange:     収集対象の日付範囲
//   - Snapshot:      1回の実行結果全体
//
// =============================================================================
package pipeline

import (
	"encoding/json"
	"time"
)

// -----------------------------------------------------------------------------
// Label - 規制当局ラベル
// -----------------------------------------------------------------------------
//
// 閉じた集合。LabelNone は「分類不能」を表し、NewsItem には決して入らない。
type Label string

const (
	LabelNone Label = ""
	LabelFDA  Label = "FDA"
	LabelEMA  Label = "EMA"
)

// Valid reports whether l is one of the persisted agency labels.
func (l Label) Valid() bool {
	return l == LabelFDA || l == LabelEMA
}

// -----------------------------------------------------------------------------
// NewsCandidate - 未分類の候補記事
// -----------------------------------------------------------------------------
//
// ソースアダプタが検索結果の1行ごとに生成する。1回の実行の中でのみ存在し、
// ラベルが決まれば NewsItem に昇格、決まらなければ破棄される。
//
// 【フィールドの説明】
//
//	Title:        記事タイトル（HTMLエンティティ復号済み、空でない）
//	Link:         記事URL（重複排除キー）
//	Summary:      要約テキスト（SummaryLimit 文字以内に切り詰め済み）
//	RawPublished: ソース固有の公開日時文字列（"3시간 전", "2025.01.01." など）
//	FeedTime:     フィードパーサが解釈できた場合の公開日時（フィード系ソースのみ）
//	Source:       媒体名（任意）
type NewsCandidate struct {
	Title        string
	Link         string
	Summary      string
	RawPublished string
	FeedTime     *time.Time
	Source       string
}

// -----------------------------------------------------------------------------
// NewsItem - スナップショットに保存される記事
// -----------------------------------------------------------------------------
type NewsItem struct {
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Summary   string    `json:"summary"`
	Published time.Time `json:"published"`
	Label     Label     `json:"label"`
	Source    *string   `json:"source"`
}

// -----------------------------------------------------------------------------
// DateRange - 収集対象の日付範囲
// -----------------------------------------------------------------------------
//
// Start/End はカレンダー日付（時刻部分は無視）。JSON では "YYYY-MM-DD" で出力する。
type DateRange struct {
	Start time.Time
	End   time.Time
}

// dateLayout is the calendar-date layout used in file names and the range record.
const dateLayout = "2006-01-02"

// SingleDay reports whether the range covers exactly one calendar day.
func (r DateRange) SingleDay() bool {
	return r.Start.Format(dateLayout) == r.End.Format(dateLayout)
}

func (r DateRange) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Start string `json:"start"`
		End   string `json:"end"`
	}{r.Start.Format(dateLayout), r.End.Format(dateLayout)})
}

func (r *DateRange) UnmarshalJSON(b []byte) error {
	var raw struct {
		Start string `json:"start"`
		End   string `json:"end"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	start, err := time.ParseInLocation(dateLayout, raw.Start, KST)
	if err != nil {
		return err
	}
	end, err := time.ParseInLocation(dateLayout, raw.End, KST)
	if err != nil {
		return err
	}
	r.Start, r.End = start, end
	return nil
}

// -----------------------------------------------------------------------------
// Snapshot - 1回の実行結果
// -----------------------------------------------------------------------------
//
// Items は Published の降順（同時刻は発見順）で、Link は一意。
type Snapshot struct {
	GeneratedAt time.Time  `json:"generated_at"`
	Range       *DateRange `json:"range,omitempty"`
	Items       []NewsItem `json:"items"`
}
