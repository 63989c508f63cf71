// =============================================================================
// sources_html.go - HTML検索ソース（Naver ニュース検索）
// =============================================================================
//
// Naver のニュース検索結果ページをスクレイピングして候補記事に変換します。
// goquery ライブラリを使用してHTML構造から記事情報を抽出します。
//
// 【URLパラメータ】
//
//	where=news  sm=tab_opt  sort=1（最新順）  pd=3（期間指定）
//	ds/de       表示用の日付（YYYY.MM.DD）
//	nso         so:dd,p:fromYYYYMMDDtoYYYYMMDD（実際の期間フィルタ）
//	start       1, 11, 21, ...（1ページ10件）
//
// 【抽出ルール】
//   - カード:   div.news_wrap（旧レイアウト li.bx もフォールバック）
//   - タイトル: a.news_tit（無いカードはスキップ）
//   - 媒体名:   a.info.press → span.info.press
//   - 要約:     div.news_dsc → .dsc_wrap
//   - 日時:     span.info のうち日付らしい最初のテキスト
//
// =============================================================================
package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

// NaverNewsSearchURL is the HTML search endpoint.
const NaverNewsSearchURL = "https://search.naver.com/search.naver"

// ResultsPerPage is the page size of the HTML search.
const ResultsPerPage = 10

// dateIndicators mark an auxiliary info text as a publish date.
// "N분 전" style and dotted YYYY.MM.DD dates are recognised by the normalizer patterns.
var dateIndicators = []string{"방금", "어제"}

// HTMLSearchSource is the HTML-search adapter.
type HTMLSearchSource struct {
	BaseURL      string
	Config       SourceConfig
	SummaryLimit int
}

// NewHTMLSearchSource returns an adapter against Naver news search.
func NewHTMLSearchSource(cfg SourceConfig) *HTMLSearchSource {
	return &HTMLSearchSource{BaseURL: NaverNewsSearchURL, Config: cfg, SummaryLimit: DefaultSummaryLimit}
}

func (s *HTMLSearchSource) Name() string    { return "html" }
func (s *HTMLSearchSource) Paginated() bool { return true }
func (s *HTMLSearchSource) FeedDates() bool { return false }

// SearchURL builds the request URL for one query page.
func (s *HTMLSearchSource) SearchURL(q Query) string {
	page := q.Page
	if page < 1 {
		page = 1
	}
	start, end := q.Range.Start.In(KST), q.Range.End.In(KST)

	v := url.Values{}
	v.Set("where", "news")
	v.Set("query", q.Text)
	v.Set("sm", "tab_opt")
	v.Set("sort", "1")
	v.Set("pd", "3")
	v.Set("ds", start.Format("2006.01.02"))
	v.Set("de", end.Format("2006.01.02"))
	v.Set("nso", fmt.Sprintf("so:dd,p:from%sto%s", start.Format("20060102"), end.Format("20060102")))
	v.Set("start", strconv.Itoa(1+ResultsPerPage*(page-1)))
	return s.BaseURL + "?" + v.Encode()
}

// Fetch retrieves one result page. A non-2xx status is returned as *StatusError.
func (s *HTMLSearchSource) Fetch(ctx context.Context, q Query) ([]NewsCandidate, error) {
	pageURL := s.SearchURL(q)

	resp, err := httpGet(ctx, pageURL, s.Config, "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("decode charset: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse HTML failed: %w", err)
	}
	return parseHTMLCandidates(doc, pageURL, s.SummaryLimit), nil
}

// parseHTMLCandidates extracts one candidate per result card.
func parseHTMLCandidates(doc *goquery.Document, pageURL string, summaryLimit int) []NewsCandidate {
	cards := doc.Find("div.news_wrap")
	if cards.Length() == 0 {
		cards = doc.Find("ul.list_news > li.bx")
	}

	out := make([]NewsCandidate, 0, cards.Length())
	cards.Each(func(_ int, card *goquery.Selection) {
		anchor := card.Find("a.news_tit").First()
		title := cleanHTMLTags(anchor.AttrOr("title", ""))
		if title == "" {
			title = normalizeWhitespace(anchor.Text())
		}
		link := resolveURL(pageURL, anchor.AttrOr("href", ""))
		if title == "" || link == "" {
			return
		}

		press := card.Find("a.info.press").First()
		if press.Length() == 0 {
			press = card.Find("span.info.press").First()
		}
		// 「언론사 선정」などの付随ラベルは除去
		press.Find("i, span.spnew").Remove()
		source := normalizeWhitespace(press.Text())

		desc := card.Find("div.news_dsc").First()
		if desc.Length() == 0 {
			desc = card.Find(".dsc_wrap").First()
		}
		summary := truncateRunes(normalizeWhitespace(desc.Text()), summaryLimit)

		out = append(out, NewsCandidate{
			Title:        title,
			Link:         link,
			Summary:      summary,
			RawPublished: firstDateInfo(card),
			Source:       source,
		})
	})
	return out
}

// firstDateInfo returns the first span.info text that looks like a date.
func firstDateInfo(card *goquery.Selection) string {
	var found string
	card.Find("span.info").EachWithBreak(func(_ int, info *goquery.Selection) bool {
		if info.HasClass("press") {
			return true
		}
		text := normalizeWhitespace(info.Text())
		if looksLikeDate(text) {
			found = text
			return false
		}
		return true
	})
	return found
}

func looksLikeDate(text string) bool {
	if text == "" {
		return false
	}
	for _, ind := range dateIndicators {
		if strings.Contains(text, ind) {
			return true
		}
	}
	return reRelativeKo.MatchString(text) || reDottedDate.MatchString(text)
}

// resolveURL は相対URLを絶対URLに変換
//
// 既に絶対URLの場合はそのまま返す。エラー時は空文字列。
func resolveURL(baseURL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(u).String()
}
