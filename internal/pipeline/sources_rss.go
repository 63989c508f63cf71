// =============================================================================
// sources_rss.go - フィード検索ソース（Google News RSS）
// =============================================================================
//
// Google News の検索RSSを韓国語・韓国地域固定で取得し、候補記事に変換します。
// gofeed ライブラリを使用してRSS/Atomフィードを解析します。
//
// 【エンドポイント】
//
//	https://news.google.com/rss/search?q=<query>&hl=ko&gl=KR&ceid=KR:ko
//
// 【抽出ルール】
//   - タイトル/要約: HTMLタグ除去＋エンティティ復号
//   - リンク:        item.Link → item.Links[0]。どちらも空ならスキップ
//   - 公開日時:      Published を優先、なければ Updated
//   - 媒体名:        RSSの <source> 要素（gofeed の共通Itemには無いので rss.Parser で読む）
//
// =============================================================================
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/mmcdole/gofeed/rss"
)

// GoogleNewsSearchURL is the Korean-locale feed search endpoint.
const GoogleNewsSearchURL = "https://news.google.com/rss/search"

// FeedSearchSource is the feed-search adapter.
type FeedSearchSource struct {
	BaseURL string
	Config  SourceConfig
	// DateOperators adds after:/before: operators from the query's range.
	DateOperators bool
	SummaryLimit  int
}

// NewFeedSearchSource returns an adapter against Google News with Korean locale hints.
func NewFeedSearchSource(cfg SourceConfig) *FeedSearchSource {
	return &FeedSearchSource{BaseURL: GoogleNewsSearchURL, Config: cfg, SummaryLimit: DefaultSummaryLimit}
}

func (s *FeedSearchSource) Name() string    { return "feed" }
func (s *FeedSearchSource) Paginated() bool { return false }
func (s *FeedSearchSource) FeedDates() bool { return true }

// SearchURL builds the request URL for one query.
func (s *FeedSearchSource) SearchURL(q Query) string {
	text := q.Text
	if s.DateOperators && !q.Range.Start.IsZero() {
		// before: は排他的なので終了日の翌日を指定する
		text = fmt.Sprintf("%s after:%s before:%s", text,
			q.Range.Start.Format(dateLayout),
			q.Range.End.AddDate(0, 0, 1).Format(dateLayout))
	}
	v := url.Values{}
	v.Set("q", text)
	v.Set("hl", "ko")
	v.Set("gl", "KR")
	v.Set("ceid", "KR:ko")
	return s.BaseURL + "?" + v.Encode()
}

// Fetch retrieves one feed document and converts its entries.
func (s *FeedSearchSource) Fetch(ctx context.Context, q Query) ([]NewsCandidate, error) {
	feedURL := s.SearchURL(q)

	resp, err := httpGet(ctx, feedURL, s.Config, "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read feed body: %w", err)
	}
	return parseFeedCandidates(body, s.SummaryLimit)
}

// parseFeedCandidates turns a raw feed document into candidates.
func parseFeedCandidates(body []byte, summaryLimit int) ([]NewsCandidate, error) {
	fp := gofeed.NewParser()
	feed, err := fp.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("RSS parse failed: %w", err)
	}

	sources := rssSourceNames(body)

	out := make([]NewsCandidate, 0, len(feed.Items))
	for _, item := range feed.Items {
		link := strings.TrimSpace(item.Link)
		if link == "" && len(item.Links) > 0 {
			link = strings.TrimSpace(item.Links[0])
		}
		if link == "" {
			// リンクがないと重複排除キーが作れない
			continue
		}

		title := cleanHTMLTags(item.Title)
		if title == "" {
			continue
		}

		raw := item.Published
		parsed := item.PublishedParsed
		if raw == "" && parsed == nil {
			raw = item.Updated
			parsed = item.UpdatedParsed
		}

		out = append(out, NewsCandidate{
			Title:        title,
			Link:         link,
			Summary:      truncateRunes(cleanHTMLTags(item.Description), summaryLimit),
			RawPublished: raw,
			FeedTime:     parsed,
			Source:       sources[link],
		})
	}
	return out, nil
}

// rssSourceNames maps item link -> <source> title for RSS documents.
// Atom or unparseable documents yield an empty map.
func rssSourceNames(body []byte) map[string]string {
	names := map[string]string{}
	if gofeed.DetectFeedType(bytes.NewReader(body)) != gofeed.FeedTypeRSS {
		return names
	}
	rp := &rss.Parser{}
	feed, err := rp.Parse(bytes.NewReader(body))
	if err != nil {
		return names
	}
	for _, item := range feed.Items {
		if item.Source == nil {
			continue
		}
		name := strings.TrimSpace(item.Source.Title)
		if name != "" {
			names[strings.TrimSpace(item.Link)] = name
		}
	}
	return names
}
