// =============================================================================
// config.go - 実行設定
// =============================================================================
//
// このファイルはCLIフラグ・環境変数・位置引数から実行設定を組み立てます。
//
// 【優先順位】 フラグ/位置引数 > 環境変数 > デフォルト
//
// 【環境変数】
//
//	START_DATE / END_DATE   収集期間（YYYY-MM-DD、省略時は KST の今日）
//	OUTPUT_DIR              出力ディレクトリ（デフォルト: data）
//	SOURCES                 feed,html（デフォルト: feed）
//	QUERIES                 検索クエリ（カンマ区切り、省略時は DefaultQueries）
//	MAX_PAGES               HTML検索のページ上限（デフォルト: 3）
//	PAGE_DELAY              ページ間の待ち時間（デフォルト: 1s）
//	REQUEST_TIMEOUT         1リクエストのタイムアウト（デフォルト: 20s）
//	DEFAULT_LABEL_POLICY    default-fda | unclassified
//	SUMMARY_LIMIT           要約の最大文字数（デフォルト: 280）
//	CRON_SPEC               定期実行モードのcron式（空なら1回だけ実行）
//
// =============================================================================
package pipeline

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// RunConfig holds everything one aggregation run needs.
type RunConfig struct {
	Range DateRange
	// RangeGiven is true when dates were supplied explicitly; the snapshot then records them.
	RangeGiven bool

	Sources      []string
	Queries      []string
	MaxPages     int
	PageDelay    time.Duration
	Timeout      time.Duration
	Policy       DefaultPolicy
	SummaryLimit int

	Output OutputConfig
	// History compares the new snapshot with the previous latest one (log only).
	History bool
	// CronSpec enables repeated runs on a schedule.
	CronSpec string
}

// DefaultSources はデフォルトのソースリスト
const DefaultSources = "feed"

// KnownSources lists the adapter names accepted in Sources.
var KnownSources = []string{"feed", "html"}

// LoadRunConfig parses args (without the program name) with env fallbacks.
// now fixes "today" for the default date range.
func LoadRunConfig(args []string, getenv func(string) string, now time.Time) (*RunConfig, error) {
	env := envReader{getenv: getenv}
	cfg := &RunConfig{}

	fs := flag.NewFlagSet("pipeline", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var sourcesRaw, queriesRaw, policyRaw string
	fs.StringVar(&cfg.Output.Dir, "out", env.str("OUTPUT_DIR", "data"), "output directory for snapshot files")
	fs.StringVar(&sourcesRaw, "sources", env.str("SOURCES", DefaultSources), "comma-separated sources: feed,html")
	fs.StringVar(&queriesRaw, "queries", env.str("QUERIES", ""), "comma-separated search queries (default: built-in Korean queries)")
	fs.IntVar(&cfg.MaxPages, "maxPages", env.integer("MAX_PAGES", 3), "max result pages per query for the HTML search")
	fs.DurationVar(&cfg.PageDelay, "delay", env.duration("PAGE_DELAY", time.Second), "courtesy delay between page requests")
	fs.DurationVar(&cfg.Timeout, "timeout", env.duration("REQUEST_TIMEOUT", 20*time.Second), "per-request timeout")
	fs.StringVar(&policyRaw, "defaultPolicy", env.str("DEFAULT_LABEL_POLICY", string(PolicyDefaultFDA)), "label for approval news without an agency: default-fda|unclassified")
	fs.IntVar(&cfg.SummaryLimit, "summaryLimit", env.integer("SUMMARY_LIMIT", DefaultSummaryLimit), "max summary length in characters")
	fs.BoolVar(&cfg.History, "history", false, "compare with the previous latest snapshot")
	fs.StringVar(&cfg.CronSpec, "cron", env.str("CRON_SPEC", ""), "run repeatedly on this cron schedule")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.Sources = splitAndTrim(strings.ToLower(sourcesRaw))
	cfg.Queries = splitAndTrim(queriesRaw)
	if len(cfg.Queries) == 0 {
		cfg.Queries = append([]string(nil), DefaultQueries...)
	}

	policy, err := ParseDefaultPolicy(policyRaw)
	if err != nil {
		return nil, err
	}
	cfg.Policy = policy

	startRaw := env.str("START_DATE", "")
	endRaw := env.str("END_DATE", "")
	if rest := fs.Args(); len(rest) > 0 {
		startRaw = rest[0]
		endRaw = ""
		if len(rest) > 1 {
			endRaw = rest[1]
		}
	}
	r, given, err := ResolveRange(startRaw, endRaw, now)
	if err != nil {
		return nil, err
	}
	cfg.Range, cfg.RangeGiven = r, given

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ResolveRange parses start/end dates (YYYY-MM-DD) in KST.
// Missing values default to today; a lone start is a one-day range.
func ResolveRange(startRaw, endRaw string, now time.Time) (DateRange, bool, error) {
	today := now.In(KST)
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, KST)

	startRaw, endRaw = strings.TrimSpace(startRaw), strings.TrimSpace(endRaw)
	given := startRaw != "" || endRaw != ""

	start, end := today, today
	var err error
	if startRaw != "" {
		if start, err = time.ParseInLocation(dateLayout, startRaw, KST); err != nil {
			return DateRange{}, false, fmt.Errorf("invalid start date %q: %w", startRaw, err)
		}
		end = start
	}
	if endRaw != "" {
		if end, err = time.ParseInLocation(dateLayout, endRaw, KST); err != nil {
			return DateRange{}, false, fmt.Errorf("invalid end date %q: %w", endRaw, err)
		}
		if startRaw == "" {
			start = end
		}
	}
	if end.Before(start) {
		return DateRange{}, false, fmt.Errorf("end date %s is before start date %s", end.Format(dateLayout), start.Format(dateLayout))
	}
	return DateRange{Start: start, End: end}, given, nil
}

// Validate checks the config values.
func (c *RunConfig) Validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("at least one source is required")
	}
	for _, s := range c.Sources {
		if !isKnownSource(s) {
			return fmt.Errorf("unknown source: %s", s)
		}
	}
	if c.MaxPages < 1 {
		return fmt.Errorf("maxPages must be positive")
	}
	if c.PageDelay < 0 {
		return fmt.Errorf("delay cannot be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.SummaryLimit <= 0 {
		return fmt.Errorf("summaryLimit must be positive")
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output directory is required")
	}
	return nil
}

func isKnownSource(name string) bool {
	for _, k := range KnownSources {
		if k == name {
			return true
		}
	}
	return false
}

// envReader は環境変数をデフォルト付きで読む
type envReader struct {
	getenv func(string) string
}

func (e envReader) str(key, fallback string) string {
	if e.getenv == nil {
		return fallback
	}
	if v := strings.TrimSpace(e.getenv(key)); v != "" {
		return v
	}
	return fallback
}

func (e envReader) integer(key string, fallback int) int {
	if v := e.str(key, ""); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func (e envReader) duration(key string, fallback time.Duration) time.Duration {
	if v := e.str(key, ""); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
