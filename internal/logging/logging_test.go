package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestNew_Output(t *testing.T) {
	var buf bytes.Buffer
	log, closeLog, err := New(Options{Level: "debug", Output: &buf})
	require.NoError(t, err)
	defer closeLog()
	require.Equal(t, logrus.DebugLevel, log.GetLevel())

	log.WithFields(logrus.Fields{"job": "abc", "z": 4}).Debug("rendering metatile")
	require.Contains(t, buf.String(), "rendering metatile")
	require.Contains(t, buf.String(), "abc")
}

func TestNew_UnknownLevel(t *testing.T) {
	log, closeLog, err := New(Options{Level: "chatty", Quiet: true})
	require.NoError(t, err)
	require.NoError(t, closeLog())
	require.Equal(t, logrus.InfoLevel, log.GetLevel())
}

func TestNew_Dir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	log, closeLog, err := New(Options{Dir: dir, Quiet: true})
	require.NoError(t, err)
	log.Info("hello")
	require.NoError(t, closeLog())
	// The file is closed, so a second close fails.
	require.ErrorIs(t, closeLog(), os.ErrClosed)

	data, err := os.ReadFile(filepath.Join(dir, time.Now().Format("2006-01-02.log")))
	require.NoError(t, err)
	require.Contains(t, string(data), "hello")
}
