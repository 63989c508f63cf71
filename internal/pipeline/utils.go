// =============================================================================
// utils.go - ユーティリティ関数
// =============================================================================
//
// このファイルはシステム全体で使用する汎用的なヘルパー関数を提供します。
//
// 【このファイルで提供する機能】
//   - 文字列操作: HTMLタグ除去、空白正規化、rune単位の切り詰め
//   - JSON操作: ファイル読み書き（非ASCII文字はエスケープしない）
//   - HTTP操作: ブラウザ風ヘッダー付きGET、ステータスエラー
//
// =============================================================================
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	reScriptTags = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	reHTMLTags   = regexp.MustCompile(`<[^>]*>`)
)

// -----------------------------------------------------------------------------
// 文字列操作関数
// -----------------------------------------------------------------------------

// normalizeWhitespace は文字列内の連続する空白を単一スペースに正規化する
//
//	normalizeWhitespace("  hello   world  ")  // "hello world"
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// cleanHTMLTags removes tags, decodes entities and collapses whitespace.
func cleanHTMLTags(htmlStr string) string {
	text := reScriptTags.ReplaceAllString(htmlStr, "")
	text = reHTMLTags.ReplaceAllString(text, " ")
	// Google News の description は二重エスケープされていることがある
	text = html.UnescapeString(html.UnescapeString(text))
	return normalizeWhitespace(text)
}

// truncateRunes は文字列を maxLen 文字（rune）以内に切り詰める
//
// 韓国語などのマルチバイト文字も正しく処理する。maxLen <= 0 の場合は切り詰めない。
//
//	truncateRunes("승인 획득", 2)  // "승인"
func truncateRunes(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen])
}

// -----------------------------------------------------------------------------
// JSON操作関数
// -----------------------------------------------------------------------------

// marshalJSON は2スペースインデント、HTMLエスケープなしでJSON化する
//
// json.MarshalIndent は "&" や "<" を \u0026 などにエスケープしてしまうため Encoder を使う。
func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeJSONFile は任意のデータをJSON形式でファイルに保存する
//
// 同じディレクトリに一時ファイルを書いてから rename するので、
// 読み手が書きかけのファイルを見ることはない。
//
// 【ファイル権限】0o644 = 所有者は読み書き可、他は読み取りのみ
func writeJSONFile(path string, v any) error {
	b, err := marshalJSON(v)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

// readJSONFile はJSONファイルを読み込んで指定した型に変換する
func readJSONFile(path string, out any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

// -----------------------------------------------------------------------------
// HTTP操作関数
// -----------------------------------------------------------------------------

// ErrUnexpectedStatus is wrapped by every non-2xx upstream response.
var ErrUnexpectedStatus = errors.New("unexpected status")

// StatusError carries the HTTP status of a rejected upstream request.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %s %d", e.URL, ErrUnexpectedStatus, e.Code)
}

func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatus
}

// httpGet はHTTP GETリクエストを実行する
//
// SourceConfig の User-Agent と Accept 系ヘッダーを設定し、共有クライアント
// （タイムアウト付き）で送信する。2xx 以外は *StatusError を返す。
// 呼び出し元でresp.Body.Close()を行う必要がある。
func httpGet(ctx context.Context, u string, cfg SourceConfig, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("request creation failed: %w", err)
	}
	// ブロッキング回避のため、ブラウザ風のヘッダーを設定
	req.Header.Set("User-Agent", cfg.UserAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9,en-US;q=0.6,en;q=0.4")

	resp, err := cfg.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, &StatusError{URL: u, Code: resp.StatusCode}
	}
	return resp, nil
}
