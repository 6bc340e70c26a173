package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/pkg/logger"
)

func TestNew_JSONOutputWithService(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.Config{Env: "production", Level: "info", Service: "stock-ledger", Output: &buf})

	l.Debug().Msg("oculto")
	c := l.Component("relay")
	c.Info().Str("event_id", "e1").Msg("publicado")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "stock-ledger", entry["service"])
	assert.Equal(t, "relay", entry["component"])
	assert.Equal(t, "e1", entry["event_id"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, logger.ParseLevel("debug"))
	assert.Equal(t, zerolog.InfoLevel, logger.ParseLevel("ruido"))
}
