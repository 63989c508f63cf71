// =============================================================================
// main.go - Approval Relay パイプラインのエントリーポイント
// =============================================================================
//
// FDA/EMA の承認関連ニュース（韓国語）を収集し、スナップショットJSONを保存するCLIです。
//
// 【使い方】
//
//	./pipeline                          今日（KST）の分を収集
//	./pipeline 2025-01-01               指定日の分を収集
//	./pipeline 2025-01-01 2025-01-07    期間を指定して収集
//	./pipeline -sources=feed,html -maxPages=3 -delay=1s
//	./pipeline -cron "0 */3 * * *"      定期実行モード（SIGINT/SIGTERMで終了）
//
// 【出力】
//
//	data/latest.json と data/YYYY-MM-DD.json（期間指定時は START_END.json）
//	標準出力には "Saved N items." の1行だけを出す（ログは標準エラー出力）
//
// =============================================================================
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv" // .env ファイル読み込み
	"github.com/robfig/cron/v3"

	"approval-relay/internal/pipeline"
)

func main() {
	pipeline.InitLogger(os.Stderr)

	// .env ファイルから環境変数を読み込み
	// ファイルが存在しない場合はログを出力するが、処理は続行する
	if err := godotenv.Load(); err != nil {
		pipeline.Log.Debugf(".env file not loaded: %v (using environment variables only)", err)
	}

	cfg, err := pipeline.LoadRunConfig(os.Args[1:], os.Getenv, time.Now())
	if err != nil {
		pipeline.Log.Errorf("invalid configuration: %v", err)
		os.Exit(2)
	}

	sources, err := pipeline.BuildSources(cfg, pipeline.DefaultSourceConfig(cfg.Timeout))
	if err != nil {
		pipeline.Log.Errorf("building sources: %v", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.CronSpec == "" {
		if err := runOnce(ctx, cfg, sources); err != nil {
			pipeline.Log.Errorf("run failed: %v", err)
			os.Exit(1)
		}
		return
	}

	if err := runScheduled(ctx, cfg, sources); err != nil {
		pipeline.Log.Errorf("scheduler: %v", err)
		os.Exit(1)
	}
}

func runOnce(ctx context.Context, cfg *pipeline.RunConfig, sources []pipeline.Source) error {
	summary, err := pipeline.Run(ctx, cfg, sources, time.Now)
	if err != nil {
		return err
	}
	fmt.Printf("Saved %d items.\n", summary.Items)
	return nil
}

// runScheduled re-runs the aggregation on cfg.CronSpec until ctx is cancelled.
//
// 定期実行では「今日」が毎回変わるので、日付指定がない場合は実行ごとに範囲を再計算する。
func runScheduled(ctx context.Context, cfg *pipeline.RunConfig, sources []pipeline.Source) error {
	// 前回の実行が終わっていなければスキップし、同時に2つの実行を走らせない
	c := cron.New(
		cron.WithLocation(pipeline.KST),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	_, err := c.AddFunc(cfg.CronSpec, func() {
		runCfg := *cfg
		if !cfg.RangeGiven {
			r, _, err := pipeline.ResolveRange("", "", time.Now())
			if err != nil {
				pipeline.Log.Errorf("resolving range: %v", err)
				return
			}
			runCfg.Range = r
		}
		if err := runOnce(ctx, &runCfg, sources); err != nil {
			pipeline.Log.Errorf("scheduled run failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", cfg.CronSpec, err)
	}

	pipeline.Log.Infof("scheduler started: %s", cfg.CronSpec)
	c.Start()
	<-ctx.Done()

	// 実行中のジョブが終わるのを待つ
	<-c.Stop().Done()
	pipeline.Log.Info("scheduler stopped")
	return nil
}
