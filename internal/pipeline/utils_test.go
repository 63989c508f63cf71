package pipeline

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanHTMLTags(t *testing.T) {
	testCases := []struct {
		in, want string
	}{
		{"<b>FDA</b> 승인", "FDA 승인"},
		{"R&amp;D &amp;amp; 허가", "R&D & 허가"},
		{"<script>alert(1)</script>본문<style>p{}</style>", "본문"},
		{"  여러   공백\n줄바꿈 ", "여러 공백 줄바꿈"},
		{"", ""},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, cleanHTMLTags(tc.in), tc.in)
	}
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "승인", truncateRunes("승인 획득", 2))
	assert.Equal(t, "승인 획득", truncateRunes("승인 획득", 5))
	assert.Equal(t, "승인 획득", truncateRunes("승인 획득", 0))
}

func TestMarshalJSON_NoHTMLEscape(t *testing.T) {
	b, err := marshalJSON(map[string]string{"t": "<a> & 한글"})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"t\": \"<a> & 한글\"\n}\n", string(b))
}

func TestInitLogger(t *testing.T) {
	t.Setenv("DEBUG", "")
	var buf bytes.Buffer
	InitLogger(&buf)
	t.Cleanup(func() { InitLogger(nil) })

	Log.Debug("hidden")
	Log.WithField("run_id", "abc").Info("visible")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "visible", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "abc", entry["run_id"])
	assert.Contains(t, entry, "timestamp")

	t.Setenv("DEBUG", "true")
	buf.Reset()
	InitLogger(&buf)
	Log.Debug("shown")
	assert.Contains(t, buf.String(), `"message":"shown"`)
}
