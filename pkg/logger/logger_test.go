package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewCore(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		debugSeen bool
		json      bool
	}{
		{name: "defaults", cfg: Config{}, debugSeen: false, json: true},
		{name: "debug json", cfg: Config{Level: "debug", Encoding: "json"}, debugSeen: true, json: true},
		{name: "console", cfg: Config{Level: "info", Encoding: "console"}, debugSeen: false, json: false},
		{name: "unknown level", cfg: Config{Level: "loud"}, debugSeen: false, json: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := zap.New(newCore(tt.cfg, zap.NewProductionEncoderConfig(), zapcore.AddSync(&buf)))

			log.Debug("debug line")
			assert.Equal(t, tt.debugSeen, buf.Len() > 0)

			buf.Reset()
			log.Info("task created", zap.Int64("task_id", 1))
			require.NotZero(t, buf.Len())

			var entry map[string]any
			err := json.Unmarshal(buf.Bytes(), &entry)
			if tt.json {
				require.NoError(t, err)
				assert.Equal(t, "task created", entry["msg"])
				assert.EqualValues(t, 1, entry["task_id"])
			} else {
				assert.Error(t, err)
				assert.Contains(t, buf.String(), "task created")
			}
		})
	}
}

func TestNew(t *testing.T) {
	assert.NotNil(t, New(Config{Level: "warn"}))
}
