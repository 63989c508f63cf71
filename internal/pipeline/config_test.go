package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadRunConfig_Defaults(t *testing.T) {
	// 2024-12-31 20:00 UTC は KST では 2025-01-01
	now := time.Date(2024, 12, 31, 20, 0, 0, 0, time.UTC)

	cfg, err := LoadRunConfig(nil, envMap(nil), now)
	require.NoError(t, err)

	assert.Equal(t, "2025-01-01", cfg.Range.Start.Format(dateLayout))
	assert.True(t, cfg.Range.SingleDay())
	assert.False(t, cfg.RangeGiven)
	assert.Equal(t, []string{"feed"}, cfg.Sources)
	assert.Equal(t, DefaultQueries, cfg.Queries)
	assert.Equal(t, 3, cfg.MaxPages)
	assert.Equal(t, time.Second, cfg.PageDelay)
	assert.Equal(t, 20*time.Second, cfg.Timeout)
	assert.Equal(t, PolicyDefaultFDA, cfg.Policy)
	assert.Equal(t, DefaultSummaryLimit, cfg.SummaryLimit)
	assert.Equal(t, "data", cfg.Output.Dir)
	assert.Empty(t, cfg.CronSpec)
	assert.False(t, cfg.History)
}

func TestLoadRunConfig_Env(t *testing.T) {
	env := envMap(map[string]string{
		"OUTPUT_DIR":           "/tmp/out",
		"SOURCES":              "Feed, html",
		"QUERIES":              "FDA 승인, EMA 허가 ,",
		"MAX_PAGES":            "5",
		"PAGE_DELAY":           "250ms",
		"REQUEST_TIMEOUT":      "3s",
		"DEFAULT_LABEL_POLICY": "unclassified",
		"SUMMARY_LIMIT":        "120",
		"START_DATE":           "2025-01-01",
		"END_DATE":             "2025-01-07",
		"CRON_SPEC":            "0 */3 * * *",
	})

	cfg, err := LoadRunConfig(nil, env, testNow)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/out", cfg.Output.Dir)
	assert.Equal(t, []string{"feed", "html"}, cfg.Sources)
	assert.Equal(t, []string{"FDA 승인", "EMA 허가"}, cfg.Queries)
	assert.Equal(t, 5, cfg.MaxPages)
	assert.Equal(t, 250*time.Millisecond, cfg.PageDelay)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, PolicyUnclassified, cfg.Policy)
	assert.Equal(t, 120, cfg.SummaryLimit)
	assert.True(t, cfg.RangeGiven)
	assert.Equal(t, "2025-01-07", cfg.Range.End.Format(dateLayout))
	assert.Equal(t, "0 */3 * * *", cfg.CronSpec)
}

func TestLoadRunConfig_ArgsOverrideEnv(t *testing.T) {
	env := envMap(map[string]string{
		"OUTPUT_DIR": "/tmp/out",
		"START_DATE": "2024-06-01",
		"END_DATE":   "2024-06-30",
	})

	cfg, err := LoadRunConfig([]string{"-out", "snapshots", "-sources=html", "-history", "2025-01-05"}, env, testNow)
	require.NoError(t, err)
	assert.Equal(t, "snapshots", cfg.Output.Dir)
	assert.Equal(t, []string{"html"}, cfg.Sources)
	assert.True(t, cfg.History)
	assert.True(t, cfg.RangeGiven)
	assert.Equal(t, "2025-01-05", cfg.Range.Start.Format(dateLayout))
	assert.Equal(t, "2025-01-05", cfg.Range.End.Format(dateLayout), "END_DATE is ignored when positional dates are given")
}

func TestLoadRunConfig_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		args []string
		env  map[string]string
	}{
		{"unknown source", []string{"-sources=feed,bing"}, nil},
		{"no sources", []string{"-sources=,"}, nil},
		{"zero pages", []string{"-maxPages=0"}, nil},
		{"negative delay", []string{"-delay=-1s"}, nil},
		{"zero timeout", []string{"-timeout=0s"}, nil},
		{"zero summary", []string{"-summaryLimit=0"}, nil},
		{"bad policy", nil, map[string]string{"DEFAULT_LABEL_POLICY": "ema"}},
		{"bad date", []string{"2025-13-01"}, nil},
		{"end before start", []string{"2025-01-07", "2025-01-01"}, nil},
		{"unknown flag", []string{"-verbose"}, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadRunConfig(tc.args, envMap(tc.env), testNow)
			require.Error(t, err)
		})
	}
}

func TestLoadRunConfig_BadEnvNumbersFallBack(t *testing.T) {
	cfg, err := LoadRunConfig(nil, envMap(map[string]string{"MAX_PAGES": "many", "PAGE_DELAY": "soon"}), testNow)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.MaxPages)
	assert.Equal(t, time.Second, cfg.PageDelay)
}

func TestResolveRange(t *testing.T) {
	r, given, err := ResolveRange("", "", testNow)
	require.NoError(t, err)
	assert.False(t, given)
	assert.Equal(t, "2025-01-01", r.Start.Format(dateLayout))
	assert.Equal(t, KST, r.Start.Location())

	r, given, err = ResolveRange("", "2025-01-03", testNow)
	require.NoError(t, err)
	assert.True(t, given)
	assert.True(t, r.SingleDay())
	assert.Equal(t, "2025-01-03", r.Start.Format(dateLayout))

	r, _, err = ResolveRange(" 2025-01-01 ", "2025-01-01", testNow)
	require.NoError(t, err)
	assert.True(t, r.SingleDay())

	_, _, err = ResolveRange("2025/01/01", "", testNow)
	require.Error(t, err)
}
