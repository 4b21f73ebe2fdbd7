package logging_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/neurlang/denoise/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_WritesBothOutputs(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "train.log")
	l, err := logging.Open(&buf, path, "debug")
	require.NoError(t, err)

	_, err = uuid.Parse(l.RunID)
	assert.NoError(t, err)

	l.Banner()
	l.WithField("epoch", 3).Debug("epoch done")
	require.NoError(t, l.Close())
	assert.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, buf.String(), string(data))
	assert.Contains(t, buf.String(), "run="+l.RunID)
	assert.Contains(t, buf.String(), "epoch=3")
	assert.Contains(t, buf.String(), "msg=host")
}

func TestOpen_Level(t *testing.T) {
	var buf bytes.Buffer
	l, err := logging.Open(&buf, "", "")
	require.NoError(t, err)
	l.Debug("hidden")
	assert.Empty(t, buf.String())

	_, err = logging.Open(&buf, "", "loud")
	assert.Error(t, err)
}

func TestDiscard(t *testing.T) {
	l := logging.Discard()
	l.Info("nothing")
	assert.NoError(t, l.Close())
}
