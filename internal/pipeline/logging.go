// =============================================================================
// logging.go - ロガー
// =============================================================================
//
// パッケージ共通の logrus ロガーを提供します。
// 標準出力は "Saved N items." のために空けておき、ログは標準エラー出力へJSONで出します。
//
// 【環境変数】
//
//	DEBUG=true  クエリ／ページ単位の診断ログ（Debug）を有効にする
//
// =============================================================================
package pipeline

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Log is the package logger. stdout is reserved for the run summary, so it writes to stderr.
var Log = logrus.New()

// InitLogger configures Log. DEBUG=true enables per-query diagnostics.
func InitLogger(out io.Writer) {
	if out == nil {
		out = os.Stderr
	}
	Log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	Log.SetOutput(out)

	if os.Getenv("DEBUG") == "true" {
		Log.SetLevel(logrus.DebugLevel)
	} else {
		Log.SetLevel(logrus.InfoLevel)
	}
}
