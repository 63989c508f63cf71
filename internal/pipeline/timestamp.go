// =============================================================================
// timestamp.go - 公開日時の正規化
// =============================================================================
//
// ソースごとにバラバラな公開日時文字列を、固定オフセット付きの絶対時刻に変換します。
//
// 【対応フォーマット】
//   - 相対表現:   "5분 전", "3시간 전", "2일 전", "1주 전", "방금 전", "어제"
//                 英語の "3 hours ago" も受け付ける
//   - 絶対日付:   "2025.01.01." / "2025.1.1" （KST 00:00 として解釈）
//   - フィード:   gofeed がパースした日時、またはRFC系レイアウトの文字列（UTC）
//
// 【フォールバック】
//   どの形式にも当てはまらない場合はエラーにせず now を返す。
//   その場合 Published.Status が StatusFallbackNow になるので、呼び出し側は
//   「推定値である」ことを区別できる。
//
// =============================================================================
package pipeline

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// KST is the fixed +09:00 offset used for every date the HTML search returns.
var KST = time.FixedZone("KST", 9*60*60)

// ParseStatus tells how a Published value was obtained.
type ParseStatus int

const (
	StatusFallbackNow ParseStatus = iota
	StatusRelative
	StatusAbsolute
	StatusFeed
)

func (s ParseStatus) String() string {
	switch s {
	case StatusRelative:
		return "relative"
	case StatusAbsolute:
		return "absolute"
	case StatusFeed:
		return "feed"
	default:
		return "fallback-now"
	}
}

// Published is the outcome of normalizing one raw publish-time string.
type Published struct {
	Time   time.Time
	Status ParseStatus
}

// Fallback reports whether the time is the "now" substitute rather than a parsed value.
func (p Published) Fallback() bool {
	return p.Status == StatusFallbackNow
}

var (
	// 「3일 전후」のように 전 の後に文字が続くものは相対表現ではない
	reRelativeKo  = regexp.MustCompile(`(\d+)\s*(분|시간|일|주)\s*전(?:$|[^\p{L}\p{N}])`)
	reRelativeEn  = regexp.MustCompile(`(?i)\b(\d+)\s*(minute|min|hour|day|week)s?\s+ago\b`)
	reDottedDate  = regexp.MustCompile(`(\d{4})\s*\.\s*(\d{1,2})\s*\.\s*(\d{1,2})\s*\.?`)
	reJustNow     = regexp.MustCompile(`방금`)
	reYesterdayKo = regexp.MustCompile(`어제`)
)

// feedDateLayouts is tried when gofeed could not parse a feed date itself.
var feedDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	time.RFC822Z,
	time.RFC822,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
}

// NormalizePublished converts an HTML-search date string into an absolute time.
//
// 相対表現は now から差し引き、結果は now のロケーションのまま返す。
// 絶対日付は KST の 00:00 として解釈する。
func NormalizePublished(raw string, now time.Time) Published {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Published{Time: now, Status: StatusFallbackNow}
	}

	if m := reRelativeKo.FindStringSubmatch(s); m != nil {
		if d, ok := relativeOffset(m[1], m[2]); ok {
			return Published{Time: now.Add(-d), Status: StatusRelative}
		}
		return Published{Time: now, Status: StatusFallbackNow}
	}
	if m := reRelativeEn.FindStringSubmatch(s); m != nil {
		if d, ok := relativeOffset(m[1], strings.ToLower(m[2])); ok {
			return Published{Time: now.Add(-d), Status: StatusRelative}
		}
		return Published{Time: now, Status: StatusFallbackNow}
	}
	if reJustNow.MatchString(s) {
		return Published{Time: now, Status: StatusRelative}
	}
	if reYesterdayKo.MatchString(s) {
		return Published{Time: now.Add(-24 * time.Hour), Status: StatusRelative}
	}

	if m := reDottedDate.FindStringSubmatch(s); m != nil {
		if t, ok := dottedDate(m[1], m[2], m[3]); ok {
			return Published{Time: t, Status: StatusAbsolute}
		}
	}

	return Published{Time: now, Status: StatusFallbackNow}
}

// NormalizeFeedTime converts a feed entry's date into UTC.
//
// parsed はgofeedが解釈済みの日時（nilの場合あり）、raw は元の文字列。
func NormalizeFeedTime(parsed *time.Time, raw string, now time.Time) Published {
	if parsed != nil && !parsed.IsZero() {
		return Published{Time: parsed.UTC(), Status: StatusFeed}
	}
	s := strings.TrimSpace(raw)
	if s != "" {
		for _, layout := range feedDateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return Published{Time: t.UTC(), Status: StatusFeed}
			}
		}
	}
	return Published{Time: now.UTC(), Status: StatusFallbackNow}
}

// normalizeCandidateTime picks the right normalizer for a candidate.
func normalizeCandidateTime(c NewsCandidate, fromFeed bool, now time.Time) Published {
	if fromFeed {
		return NormalizeFeedTime(c.FeedTime, c.RawPublished, now)
	}
	// 検索ページの日時は韓国時間で表記されている
	return NormalizePublished(c.RawPublished, now.In(KST))
}

func relativeOffset(num, unit string) (time.Duration, bool) {
	n, err := strconv.Atoi(num)
	if err != nil || n < 0 {
		return 0, false
	}
	var step time.Duration
	switch unit {
	case "분", "minute", "min":
		step = time.Minute
	case "시간", "hour":
		step = time.Hour
	case "일", "day":
		step = 24 * time.Hour
	case "주", "week":
		step = 7 * 24 * time.Hour
	default:
		return 0, false
	}
	// about 290 years of hours overflows time.Duration
	if n > int(time.Duration(1<<62)/step) {
		return 0, false
	}
	return time.Duration(n) * step, true
}

func dottedDate(y, m, d string) (time.Time, bool) {
	year, err := strconv.Atoi(y)
	if err != nil {
		return time.Time{}, false
	}
	month, err := strconv.Atoi(m)
	if err != nil || month < 1 || month > 12 {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(d)
	if err != nil || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, KST)
	// time.Date normalizes 2025.02.31 into March; treat that as out of range
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}
