package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, parseLevel(" DEBUG "))
	require.Equal(t, slog.LevelWarn, parseLevel("warn"))
	require.Equal(t, slog.LevelError, parseLevel("error"))
	require.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}

func TestBuildJSON(t *testing.T) {
	var buf bytes.Buffer
	log := build(&buf, "info", "json")
	log.Debug("hidden")
	log.Info("shown", slog.String("instrument", "005930"))

	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), `"instrument":"005930"`)
}
