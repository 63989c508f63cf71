package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, KST)
}

func sampleItems() []NewsItem {
	src := "연합뉴스"
	return []NewsItem{
		{
			Title:     "FDA, 한국 기업 신약 승인 <속보> & 후속",
			Link:      "https://news.example/a?x=1&y=2",
			Summary:   "요약",
			Published: time.Date(2025, 1, 1, 9, 0, 0, 0, KST),
			Label:     LabelFDA,
			Source:    &src,
		},
		{
			Title:     "유럽 EMA 품목허가 획득",
			Link:      "https://news.example/b",
			Published: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			Label:     LabelEMA,
		},
	}
}

func TestRunFileName(t *testing.T) {
	assert.Equal(t, "2025-01-01.json", RunFileName(DateRange{Start: day(2025, 1, 1), End: day(2025, 1, 1)}))
	assert.Equal(t, "2025-01-01_2025-01-07.json", RunFileName(DateRange{Start: day(2025, 1, 1), End: day(2025, 1, 7)}))
}

func TestSnapshotWriter_WriteSingleDay(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	w := NewSnapshotWriter(OutputConfig{Dir: dir})
	r := DateRange{Start: day(2025, 1, 1), End: day(2025, 1, 1)}

	snap := NewSnapshot(time.Date(2025, 1, 1, 12, 0, 0, 123456789, KST), r, false, sampleItems())
	paths, err := w.Write(snap, r)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "latest.json"),
		filepath.Join(dir, "2025-01-01.json"),
	}, paths)

	latest, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	dated, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	assert.Equal(t, string(latest), string(dated))

	text := string(latest)
	assert.True(t, strings.HasPrefix(text, "{\n  \"generated_at\": \"2025-01-01T12:00:00+09:00\",\n  \"items\": ["))
	assert.NotContains(t, text, `"range"`)
	assert.Contains(t, text, `"title": "FDA, 한국 기업 신약 승인 <속보> & 후속"`)
	assert.Contains(t, text, `"link": "https://news.example/a?x=1&y=2"`)
	assert.Contains(t, text, `"published": "2025-01-01T09:00:00+09:00"`)
	assert.Contains(t, text, `"published": "2025-01-01T00:00:00Z"`)
	assert.Contains(t, text, `"label": "EMA"`)
	assert.Contains(t, text, `"source": null`)
	assert.NotContains(t, text, `\u`)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temp files left behind")
}

func TestSnapshotWriter_WriteRange(t *testing.T) {
	dir := t.TempDir()
	w := NewSnapshotWriter(OutputConfig{Dir: dir})
	r := DateRange{Start: day(2025, 1, 1), End: day(2025, 1, 7)}

	paths, err := w.Write(NewSnapshot(testNow, r, true, nil), r)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "2025-01-01_2025-01-07.json"), paths[1])

	b, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	text := string(b)
	assert.Contains(t, text, "\"range\": {\n    \"start\": \"2025-01-01\",\n    \"end\": \"2025-01-07\"\n  }")
	assert.Contains(t, text, `"items": []`)
}

func TestSnapshotWriter_Overwrites(t *testing.T) {
	dir := t.TempDir()
	w := NewSnapshotWriter(OutputConfig{Dir: dir})
	r := DateRange{Start: day(2025, 1, 1), End: day(2025, 1, 1)}

	_, err := w.Write(NewSnapshot(testNow, r, false, sampleItems()), r)
	require.NoError(t, err)
	_, err = w.Write(NewSnapshot(testNow, r, false, sampleItems()[:1]), r)
	require.NoError(t, err)

	snap, err := w.LoadLatest()
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Len(t, snap.Items, 1)
}

func TestSnapshotWriter_UnwritableDir(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	w := NewSnapshotWriter(OutputConfig{Dir: filepath.Join(blocker, "data")})
	r := DateRange{Start: day(2025, 1, 1), End: day(2025, 1, 1)}
	_, err := w.Write(NewSnapshot(testNow, r, false, nil), r)
	require.Error(t, err)
}

func TestLoadSnapshot(t *testing.T) {
	dir := t.TempDir()

	snap, err := LoadSnapshot(filepath.Join(dir, "missing.json"))
	require.NoError(t, err)
	assert.Nil(t, snap)

	w := NewSnapshotWriter(OutputConfig{Dir: dir})
	r := DateRange{Start: day(2025, 1, 1), End: day(2025, 1, 3)}
	_, err = w.Write(NewSnapshot(testNow, r, true, sampleItems()), r)
	require.NoError(t, err)

	snap, err = w.LoadLatest()
	require.NoError(t, err)
	require.NotNil(t, snap)
	require.NotNil(t, snap.Range)
	assert.Equal(t, "2025-01-03", snap.Range.End.Format(dateLayout))
	require.Len(t, snap.Items, 2)
	require.NotNil(t, snap.Items[0].Source)
	assert.Equal(t, "연합뉴스", *snap.Items[0].Source)
	assert.Nil(t, snap.Items[1].Source)
	assert.True(t, testNow.Equal(snap.GeneratedAt))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	_, err = LoadSnapshot(bad)
	require.Error(t, err)
}

func TestNewLinks(t *testing.T) {
	items := sampleItems()
	assert.Equal(t, 2, NewLinks(nil, items))
	assert.Equal(t, 1, NewLinks(&Snapshot{Items: items[:1]}, items))
	assert.Equal(t, 0, NewLinks(&Snapshot{Items: items}, items))
}
