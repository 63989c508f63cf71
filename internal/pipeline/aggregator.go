// =============================================================================
// aggregator.go - 検索クエリの集約
// =============================================================================
//
// 設定された検索クエリを順番にソースアダプタへ投げ、候補記事を
// 分類・日時正規化・重複排除して、公開日時の降順に並べます。
//
// 【処理の流れ】
//
//	クエリ一覧 → ソースごとに取得（HTMLはページ単位） → 候補
//	  → Link で重複排除（実行全体で共有） → ラベル分類（不能なら破棄）
//	  → 日時正規化 → 追加 → 最後に安定ソート
//
// 【エラー方針】
//   - 1クエリ／1ページの失敗は CollectResult.Errors に記録して次へ進む
//   - HTMLソースで 2xx 以外が返った場合、そのクエリの残りページは諦める
//   - 空ページは「結果の終わり」とみなして次のクエリへ
//
// クエリもページも逐次処理する。同じ上流レスポンス列なら結果は必ず同じになる。
// ページ付きソースへの2回目以降のリクエストの前には、クエリをまたいでも Pacer で待つ。
//
// =============================================================================
package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// =============================================================================
// 設定と構造体
// =============================================================================

// SourceConfig は上流へのHTTPリクエスト設定を保持
type SourceConfig struct {
	UserAgent string        // HTTPリクエスト時のUser-Agentヘッダー
	Timeout   time.Duration // 1リクエストあたりのタイムアウト
	Client    *http.Client  // 共有HTTPクライアント（nilならTimeoutから生成）
}

// DefaultUserAgent looks like a desktop browser; the HTML search rejects obvious bots.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// DefaultSourceConfig はデフォルトのHTTP設定を返す
func DefaultSourceConfig(timeout time.Duration) SourceConfig {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return SourceConfig{
		UserAgent: DefaultUserAgent,
		Timeout:   timeout,
		Client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func (c SourceConfig) client() *http.Client {
	if c.Client != nil {
		return c.Client
	}
	return &http.Client{Timeout: c.Timeout}
}

// Query is one request to a source: the search text, the run's date range and a 1-based page.
type Query struct {
	Text  string
	Range DateRange
	Page  int
}

// Source はソースアダプタのインターフェース
//
// Fetch は1回分のレスポンスを候補記事の列に変換する。
// Paginated が false のソースは Page=1 で一度だけ呼ばれる。
type Source interface {
	Name() string
	Fetch(ctx context.Context, q Query) ([]NewsCandidate, error)
	Paginated() bool
	// FeedDates reports whether candidate dates come from a feed (UTC) rather than search-page text.
	FeedDates() bool
}

// QueryError records a query- or page-scoped failure that did not abort the run.
type QueryError struct {
	Source string
	Query  string
	Page   int
	Err    error
}

func (e QueryError) Error() string {
	return fmt.Sprintf("%s %q page %d: %v", e.Source, e.Query, e.Page, e.Err)
}

func (e QueryError) Unwrap() error { return e.Err }

// CollectResult は収集結果とエラー情報を保持する
type CollectResult struct {
	RunID string
	Items []NewsItem
	// Errors はクエリ単位で握りつぶした失敗（実行は継続済み）
	Errors []QueryError
	// Fallbacks counts items whose published time is the "now" substitute.
	Fallbacks int
	// Dropped counts unclassifiable candidates.
	Dropped int
	// Duplicates counts candidates whose link was already seen in this run.
	Duplicates int
}

// Aggregator drives queries against sources and assembles the snapshot items.
type Aggregator struct {
	Sources      []Source
	Queries      []string
	Range        DateRange
	Classifier   Classifier
	Pacer        Pacer
	SummaryLimit int
	// Now is the clock; tests pin it.
	Now func() time.Time
}

// DefaultSummaryLimit is the max summary length in code points.
const DefaultSummaryLimit = 280

// DefaultQueries are the Korean search phrases used when none are configured.
var DefaultQueries = []string{
	"FDA 승인 한국 기업",
	"FDA 허가 한국 기업",
	"FDA 품목허가 한국",
	"EMA 승인 한국 기업",
	"EMA 허가 한국 기업",
}

// Run executes every query against every source, in order, and returns the sorted items.
func (a *Aggregator) Run(ctx context.Context) *CollectResult {
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	pacer := a.Pacer
	if pacer == nil {
		pacer = NoopPacer{Pages: 1}
	}
	limit := a.SummaryLimit
	if limit <= 0 {
		limit = DefaultSummaryLimit
	}

	// 時計は1回だけ読む。同じ表記の日時は同時刻になり、発見順が保たれる
	runNow := now().Truncate(time.Second)

	result := &CollectResult{RunID: uuid.NewString()}
	log := Log.WithField("run_id", result.RunID)
	seen := make(map[string]bool)
	// requested[i] is set once a.Sources[i] has been sent a request in this run.
	requested := make([]bool, len(a.Sources))
	korean := 0

	for _, text := range a.Queries {
		for i, src := range a.Sources {
			qlog := log.WithFields(logrus.Fields{"source": src.Name(), "query": text})

			pages := 1
			if src.Paginated() {
				pages = pacer.MaxPages()
			}

			for page := 1; page <= pages; page++ {
				// ページ送りでもクエリの切り替えでも、同じ上流への連続リクエストの間は待つ
				if src.Paginated() && requested[i] {
					if err := pacer.Wait(ctx); err != nil {
						result.Errors = append(result.Errors, QueryError{Source: src.Name(), Query: text, Page: page, Err: err})
						break
					}
				}

				requested[i] = true
				cands, err := src.Fetch(ctx, Query{Text: text, Range: a.Range, Page: page})
				if err != nil {
					qlog.WithField("page", page).Debugf("query abandoned: %v", err)
					result.Errors = append(result.Errors, QueryError{Source: src.Name(), Query: text, Page: page, Err: err})
					break
				}
				if len(cands) == 0 {
					qlog.WithField("page", page).Debug("empty page, no more results")
					break
				}

				for _, c := range cands {
					if c.Link == "" {
						continue
					}
					if seen[c.Link] {
						result.Duplicates++
						continue
					}
					seen[c.Link] = true

					label := a.Classifier.Classify(c.Title, c.Summary)
					if !label.Valid() {
						result.Dropped++
						continue
					}

					pub := normalizeCandidateTime(c, src.FeedDates(), runNow)
					if pub.Fallback() {
						result.Fallbacks++
						qlog.WithField("raw_published", c.RawPublished).Debug("publish time not parsed, using now")
					}
					if IsKoreanOutlet(c.Link) {
						korean++
					}

					result.Items = append(result.Items, NewsItem{
						Title:     c.Title,
						Link:      c.Link,
						Summary:   truncateRunes(c.Summary, limit),
						Published: pub.Time,
						Label:     label,
						Source:    optionalString(c.Source),
					})
				}
			}
		}
	}

	SortItems(result.Items)

	log.WithFields(logrus.Fields{
		"items":      len(result.Items),
		"errors":     len(result.Errors),
		"dropped":    result.Dropped,
		"duplicates": result.Duplicates,
		"fallbacks":  result.Fallbacks,
		"korean":     korean,
	}).Debug("aggregation finished")

	return result
}

// SortItems orders items by Published descending, keeping discovery order on ties.
func SortItems(items []NewsItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Published.After(items[j].Published)
	})
}

// koreanOutlets are host suffixes of Korean news outlets. It is informational only.
var koreanOutlets = []string{
	".kr", "naver.com", "daum.net", "chosun.com", "hankyung.com", "mk.co.kr",
	"donga.com", "joongang.co.kr", "sedaily.com", "etnews.com", "hankyoreh.com",
	"edaily.co.kr", "yna.co.kr",
}

// IsKoreanOutlet reports whether link's host belongs to a known Korean outlet.
func IsKoreanOutlet(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	for _, suffix := range koreanOutlets {
		if strings.HasSuffix(host, suffix) {
			return true
		}
	}
	return false
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
