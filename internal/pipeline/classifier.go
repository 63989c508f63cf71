// =============================================================================
// classifier.go - 規制当局ラベル分類
// =============================================================================
//
// タイトル＋要約から FDA / EMA / 分類不能 を判定します。
//
// 【判定の優先順位】
//  1. EMAパターンに一致し、FDAパターンに一致しない → EMA
//  2. FDAパターンに一致                           → FDA
//  3. 承認・許可キーワードのみ一致                 → DefaultPolicy に従う
//     （PolicyDefaultFDA なら FDA、PolicyUnclassified なら分類不能）
//  4. それ以外                                     → 分類不能（アグリゲータで破棄）
//
// 大文字小文字は区別せず、"F D A" や "유럽 의약품청" のような
// 途中の空白も許容する。全角英字（ＦＤＡ）は半角に畳み込んでから判定する。
//
// =============================================================================
package pipeline

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/width"
)

// DefaultPolicy decides what happens when only a generic approval keyword matches.
type DefaultPolicy string

const (
	PolicyDefaultFDA   DefaultPolicy = "default-fda"
	PolicyUnclassified DefaultPolicy = "unclassified"
)

// ParseDefaultPolicy maps a config string onto a DefaultPolicy.
func ParseDefaultPolicy(s string) (DefaultPolicy, error) {
	switch DefaultPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyDefaultFDA:
		return PolicyDefaultFDA, nil
	case PolicyUnclassified:
		return PolicyUnclassified, nil
	default:
		return "", fmt.Errorf("unknown default label policy: %q", s)
	}
}

var (
	reAgencyFDA = regexp.MustCompile(`(?i)\bF\s*D\s*A\b|미국\s*식품\s*의약국|식품\s*의약국`)
	reAgencyEMA = regexp.MustCompile(`(?i)\bE\s*M\s*A\b|유럽\s*의약품\s*청`)
	reApproval  = regexp.MustCompile(`승인|허가|품목\s*허가`)
)

// Classifier assigns an agency label to a title/summary pair.
// The zero value uses PolicyDefaultFDA.
type Classifier struct {
	Policy DefaultPolicy
}

// NewClassifier returns a classifier with the given fallback policy.
func NewClassifier(policy DefaultPolicy) Classifier {
	return Classifier{Policy: policy}
}

// Classify returns LabelFDA, LabelEMA or LabelNone. It is pure.
func (c Classifier) Classify(title, summary string) Label {
	text := width.Fold.String(title + " " + summary)

	fda := reAgencyFDA.MatchString(text)
	ema := reAgencyEMA.MatchString(text)

	switch {
	case ema && !fda:
		return LabelEMA
	case fda:
		return LabelFDA
	case reApproval.MatchString(text):
		if c.Policy == PolicyUnclassified {
			return LabelNone
		}
		// 機関名なしの承認記事は FDA 扱い
		return LabelFDA
	default:
		return LabelNone
	}
}
