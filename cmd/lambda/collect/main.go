// =============================================================================
// Lambda: collect-approvals
// =============================================================================
//
// 承認関連ニュースを1回収集し、スナップショットJSONを保存するLambda関数
// （EventBridge のスケジュールから起動する想定）
//
// 環境変数:
//   - OUTPUT_DIR:           出力ディレクトリ (デフォルト: /tmp/data、EFSをマウントする場合はそのパス)
//   - SOURCES:              収集するソース (デフォルト: feed)
//   - START_DATE/END_DATE:  収集期間 (デフォルト: KSTの今日)
//   - MAX_PAGES, PAGE_DELAY, REQUEST_TIMEOUT, DEFAULT_LABEL_POLICY, SUMMARY_LIMIT
//
// =============================================================================
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"

	"approval-relay/internal/pipeline"
)

// Response はLambdaレスポンス
type Response struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Collected  int    `json:"collected"`
	RunID      string `json:"runId,omitempty"`
}

// lambdaEnv は OUTPUT_DIR 未設定時に書き込み可能な /tmp を使う
func lambdaEnv(key string) string {
	v := os.Getenv(key)
	if key == "OUTPUT_DIR" && v == "" {
		return "/tmp/data"
	}
	return v
}

// Handler はLambdaのメインハンドラー
func Handler(ctx context.Context, event interface{}) (Response, error) {
	pipeline.Log.Info("Starting collect-approvals Lambda...")

	cfg, err := pipeline.LoadRunConfig(nil, lambdaEnv, time.Now())
	if err != nil {
		return Response{StatusCode: 400, Message: err.Error()}, err
	}

	pipeline.Log.Infof("Config: sources=%v, range=%s..%s, out=%s",
		cfg.Sources, cfg.Range.Start.Format("2006-01-02"), cfg.Range.End.Format("2006-01-02"), cfg.Output.Dir)

	sources, err := pipeline.BuildSources(cfg, pipeline.DefaultSourceConfig(cfg.Timeout))
	if err != nil {
		return Response{StatusCode: 400, Message: err.Error()}, err
	}

	summary, err := pipeline.Run(ctx, cfg, sources, time.Now)
	if err != nil {
		pipeline.Log.Errorf("Error writing snapshot: %v", err)
		return Response{StatusCode: 500, Message: err.Error()}, err
	}

	return Response{
		StatusCode: 200,
		Message:    fmt.Sprintf("Saved %d items.", summary.Items),
		Collected:  summary.Items,
		RunID:      summary.RunID,
	}, nil
}

func main() {
	pipeline.InitLogger(os.Stderr)
	lambda.Start(Handler)
}
