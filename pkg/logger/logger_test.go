package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/allocation-engine/pkg/logger"
)

func TestLogger_JSONConComponente(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Env: "production", Level: "info", Output: &buf}).Component("allocator")

	log.Info().Str("order_id", "o-1").Msg("orden confirmada")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "allocator", entry["component"])
	assert.Equal(t, "o-1", entry["order_id"])
	assert.Equal(t, "info", entry["level"])
}

func TestLogger_NivelFiltra(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Env: "production", Level: "warn", Output: &buf})

	log.Info().Msg("no debe salir")
	assert.Zero(t, buf.Len())

	log.Warn().Msg("sí sale")
	assert.NotZero(t, buf.Len())
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() { logger.Nop().Error().Msg("descartado") })
}
