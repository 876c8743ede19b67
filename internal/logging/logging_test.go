package logging

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zap.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zap.WarnLevel, parseLevel("WARNING"))
	assert.Equal(t, zap.ErrorLevel, parseLevel("ERROR"))
	assert.Equal(t, zap.InfoLevel, parseLevel("anything"))
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	fields := entry.ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/api/documents", fields["path"])
	assert.Equal(t, int64(http.StatusTeapot), fields["status"])
}

func TestNew_WithFile(t *testing.T) {
	logger := New("INFO", t.TempDir()+"/cime.log")
	require.NotNil(t, logger)
	logger.Info("hello")
	_ = logger.Sync()
}

func TestNewWithSink(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithSink(zapcore.AddSync(&buf), "WARN", "")

	logger.Info("dropped")
	logger.Warn("kept", zap.String("k", "v"))
	require.NoError(t, logger.Sync())

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, `"msg":"kept"`)
	assert.Contains(t, out, `"k":"v"`)
}
