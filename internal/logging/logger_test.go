package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWriterRedactsCredentials(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriter(&buf, "debug")

	logger.Info("login", "mpin", 123456, "refresh_token", "abc.def.ghi", "user_id", 7)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, redacted, line["mpin"])
	assert.Equal(t, redacted, line["refresh_token"])
	assert.EqualValues(t, 7, line["user_id"])
	assert.Equal(t, "login", line["msg"])
}

func TestNewWriterLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriter(&buf, "warn")
	logger.Info("dropped")
	assert.Zero(t, buf.Len())

	logger = NewWriter(&buf, "nonsense")
	logger.Debug("dropped")
	logger.Info("kept")
	assert.Contains(t, buf.String(), "kept")
}
