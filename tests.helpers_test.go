package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestIDsHandler(t *testing.T) {
	idh := NewIDsHandler()
	id := idh.Generate(BookIDPrefix)
	assert.True(t, strings.HasPrefix(id, "b:"))
	assert.True(t, idh.IsValid(id, BookIDPrefix))
	assert.False(t, idh.IsValid(id, RequestIDPrefix))
	assert.False(t, idh.IsValid("b:not-a-uuid", BookIDPrefix))
	assert.False(t, idh.IsValid("b:00000000-0000-0000-0000-000000000000", BookIDPrefix))
	assert.NotEqual(t, id, idh.Generate(BookIDPrefix))
}

func TestGetRequestSourceIP(t *testing.T) {
	testCases := []struct {
		name    string
		headers map[string]string
		remote  string
		ip      string
	}{
		{"real ip header", map[string]string{"X-Real-Ip": "10.0.0.9"}, "192.0.2.1:1234", "10.0.0.9"},
		{"forwarded for header", map[string]string{"X-Forwarded-For": "bad, 10.0.0.8, 10.0.0.7"}, "192.0.2.1:1234", "10.0.0.8"},
		{"remote address", nil, "192.0.2.1:1234", "192.0.2.1"},
		{"invalid remote address", nil, "nowhere", ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tc.remote
			for k, v := range tc.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tc.ip, GetRequestSourceIP(r))
		})
	}
}

func TestCreateLogFilePath(t *testing.T) {
	ts := time.Date(2023, 7, 2, 13, 4, 5, 0, time.UTC)
	assert.Equal(t, filepath.Join("logs", "20230702.130405.dev.log"), CreateLogFilePath("logs", false, ts))
	assert.Equal(t, filepath.Join("logs", "20230702.130405.prod.log"), CreateLogFilePath("logs", true, ts))
}

func TestRSyncWriter(t *testing.T) {
	dir := t.TempDir()
	clock := NewMockClocker()
	rsw := NewRSyncWriter(&Config{LogFolder: dir, LogMaxSize: 1}, clock)
	defer rsw.Close()

	t.Run("oversized entry", func(t *testing.T) {
		_, err := rsw.Write(make([]byte, megabyte+1))
		assert.Error(t, err)
	})

	t.Run("rotation on max size", func(t *testing.T) {
		chunk := bytes.Repeat([]byte("a"), 600*1024)
		n, err := rsw.Write(chunk)
		require.NoError(t, err)
		assert.Equal(t, len(chunk), n)
		require.NoError(t, rsw.Sync())

		clock.MockNow = clock.MockNow.Add(time.Second)
		_, err = rsw.Write(chunk)
		require.NoError(t, err)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})
}

func TestSetupLogging(t *testing.T) {
	var buf bytes.Buffer
	config := &Config{IsProduction: true, LogLevel: zapcore.InfoLevel, GitCommit: "abc"}
	logger, flush := SetupLogging(config, zapcore.AddSync(&buf), NewTickClock(NewMockClocker()))
	logger.Debug("hidden")
	logger.Info("shown")
	require.NoError(t, flush())
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"app.commit":"abc"`)
	assert.Contains(t, out, "2023-07-02T00:00:00")
}

func TestClockHelpers(t *testing.T) {
	clock := NewMockClocker()
	assert.Equal(t, "2023-07-02 00:00:00 +0000 UTC", Timestamp(clock))
	assert.Equal(t, 2023, CurrentYear(clock))

	ticker := NewTickerFrom(NewTickClock(clock), time.Hour)
	ticker.Stop()
	ticker = NewTickerFrom(clock, time.Hour)
	ticker.Stop()
}
