package logging_test

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/krakend/dex-mcp-server/internal/logging"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, logging.ParseLevel("debug"))
	assert.Equal(t, zerolog.InfoLevel, logging.ParseLevel("info"))
	assert.Equal(t, zerolog.WarnLevel, logging.ParseLevel("warn"))
	assert.Equal(t, zerolog.ErrorLevel, logging.ParseLevel("error"))
	assert.Equal(t, zerolog.InfoLevel, logging.ParseLevel(""))
}

func TestNew_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log := logging.Component(logging.New(&buf, "warn", "dex-test"), "router")

	log.Info().Msg("hidden")
	log.Warn().Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	// field names are colourised, so check key and value separately
	assert.Contains(t, out, "component=")
	assert.Contains(t, out, "router")
	assert.Contains(t, out, "dex-test")
}
