package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]logrus.Level{
		"silent":  logrus.PanicLevel,
		"ERROR":   logrus.ErrorLevel,
		" warn ":  logrus.WarnLevel,
		"debug":   logrus.DebugLevel,
		"":        logrus.InfoLevel,
		"verbose": logrus.InfoLevel,
	}
	for in, want := range cases {
		require.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(logrus.WarnLevel, &buf)
	l.Info("hidden")
	l.WithField("resource", "SelectEmployeeDemoProfile").Warn("shown")
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "resource=SelectEmployeeDemoProfile")
}

func TestFileLoggerAppends(t *testing.T) {
	dir := t.TempDir()
	f, l, err := FileLogger(logrus.InfoLevel, dir)
	require.NoError(t, err)
	l.Info("first")
	require.NoError(t, f.Close())

	raw, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	require.Contains(t, string(raw), `"msg":"first"`)
}
