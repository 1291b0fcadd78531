package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProdLogsJSON(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter("prod", &buf).Info("txn committed", "txn_id", "abc")

	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	assert.Equal(t, "txn committed", m["msg"])
	assert.Equal(t, "abc", m["txn_id"])
	assert.Equal(t, "mfs-backend", m["service"])
}

func TestDevLogsDebugText(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter("dev", &buf).Debug("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}
