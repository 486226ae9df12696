package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureOutput redirects logger output to a buffer with colour disabled.
func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := new(bytes.Buffer)

	mu.Lock()
	prevOut, prevColor := output, useColor
	output, useColor = buf, false
	mu.Unlock()
	prevLevel := GetLevel()
	prevFormat, _ := currentFormat.Load().(string)
	reconfigure()

	t.Cleanup(func() {
		mu.Lock()
		output, useColor = prevOut, prevColor
		mu.Unlock()
		currentLevel.Store(int32(prevLevel))
		currentFormat.Store(prevFormat)
		reconfigure()
	})
	return buf
}

func TestLevelFiltering(t *testing.T) {
	t.Run("DebugShowsAll", func(t *testing.T) {
		buf := captureOutput(t)
		SetLevel("debug")

		Debug("d")
		Info("i")
		Warn("w")
		Error("e")

		out := buf.String()
		for _, lvl := range []string{"DEBUG", "INFO", "WARN", "ERROR"} {
			assert.Contains(t, out, "["+lvl+"]")
		}
	})

	t.Run("WarnFiltersDebugAndInfo", func(t *testing.T) {
		buf := captureOutput(t)
		SetLevel("WARN")

		Debug("hidden debug")
		Info("hidden info")
		Warn("visible warn")

		out := buf.String()
		assert.NotContains(t, out, "hidden")
		assert.Contains(t, out, "visible warn")
	})

	t.Run("ErrorAlwaysLogged", func(t *testing.T) {
		buf := captureOutput(t)
		SetLevel("ERROR")

		Errorf("boom %d", 42)
		assert.Contains(t, buf.String(), "boom 42")
	})

	t.Run("InvalidLevelIgnored", func(t *testing.T) {
		captureOutput(t)
		SetLevel("INFO")
		SetLevel("LOUD")
		assert.Equal(t, LevelInfo, GetLevel())
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
		ok   bool
	}{
		{"debug", LevelDebug, true},
		{" Info ", LevelInfo, true},
		{"warning", LevelWarn, true},
		{"ERROR", LevelError, true},
		{"verbose", LevelInfo, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseLevel(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTextFormat(t *testing.T) {
	buf := captureOutput(t)
	SetLevel("INFO")
	SetFormat("text")

	Info("tree connect", KeyShare, "PUBLIC", KeyUsername, "alice smith")
	line := buf.String()

	assert.Contains(t, line, "[INFO] tree connect")
	assert.Contains(t, line, "share=PUBLIC")
	assert.Contains(t, line, `username="alice smith"`)
	assert.True(t, strings.HasSuffix(line, "\n"))
}

func TestTextFormatGroups(t *testing.T) {
	buf := captureOutput(t)
	SetLevel("INFO")
	SetFormat("text")

	With(KeyHandler, "smb").WithGroup("req").Info("lock", LockRange(10, 20))

	line := buf.String()
	assert.Contains(t, line, "handler=smb")
	assert.Contains(t, line, "req.lock.offset=10")
	assert.Contains(t, line, "req.lock.length=20")
}

func TestJSONFormat(t *testing.T) {
	buf := captureOutput(t)
	SetLevel("INFO")
	SetFormat("json")

	Info("session opened", SessionID(0x2a), ClientIP("10.0.0.5"))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "session opened", rec["msg"])
	assert.Equal(t, "0x0000002a", rec[KeySessionID])
	assert.Equal(t, "10.0.0.5", rec[KeyClientIP])
}

func TestContextFields(t *testing.T) {
	buf := captureOutput(t)
	SetLevel("DEBUG")
	SetFormat("text")

	lc := NewLogContext("smb", "192.168.1.20").WithSession(7).WithUser("bob", "CORP")
	ctx := WithContext(context.Background(), lc.WithShare("DOCS"))

	InfoCtx(ctx, "access granted", KeyVerdict, "Allow")

	line := buf.String()
	assert.Contains(t, line, "protocol=smb")
	assert.Contains(t, line, "session_id=7")
	assert.Contains(t, line, "client_ip=192.168.1.20")
	assert.Contains(t, line, "username=bob")
	assert.Contains(t, line, "domain=CORP")
	assert.Contains(t, line, "share=DOCS")

	// The context fields come before the call-site fields.
	assert.Less(t, strings.Index(line, "protocol="), strings.Index(line, "verdict="))
}

func TestContextWithoutLogContext(t *testing.T) {
	buf := captureOutput(t)
	SetLevel("INFO")

	InfoCtx(context.Background(), "plain")
	InfoCtx(nil, "nil ctx") //nolint:staticcheck

	assert.Contains(t, buf.String(), "plain")
	assert.Contains(t, buf.String(), "nil ctx")
}

func TestLogContextClone(t *testing.T) {
	orig := NewLogContext("smb", "1.2.3.4")
	derived := orig.WithShare("IPC$")

	assert.Empty(t, orig.Share)
	assert.Equal(t, "IPC$", derived.Share)
	assert.Equal(t, orig.ClientIP, derived.ClientIP)

	var nilCtx *LogContext
	assert.Nil(t, nilCtx.Clone())
	assert.Nil(t, nilCtx.WithSession(1))
	assert.Zero(t, nilCtx.DurationMs())
}

func TestErrAttr(t *testing.T) {
	assert.True(t, Err(nil).Equal(slog.Attr{}))
	assert.Equal(t, "bad", Err(errors.New("bad")).Value.String())
}

func TestInitFileOutput(t *testing.T) {
	path := t.TempDir() + "/cifsgate.log"
	captureOutput(t)

	require.NoError(t, Init(Config{Level: "INFO", Format: "text", Output: path}))
	Info("to file")

	mu.Lock()
	f := logFile
	logFile = nil
	mu.Unlock()
	require.NotNil(t, f)
	require.NoError(t, f.Close())
}

func TestInitBadPath(t *testing.T) {
	err := Init(Config{Output: t.TempDir() + "/missing/dir/log"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open log file")
}
