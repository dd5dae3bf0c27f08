package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ankit-chaubey/media-metadata-guard/core"
)

var (
	gpsFound = core.Invalid{
		Reason:    core.InvalidReason{Code: core.GpsInfoFound},
		GPSReport: []byte("{\n  \"file\": \"a.jpg\",\n  \"gps\": {\n    \"GPSLatitudeRef\": \"N\"\n  }\n}"),
	}
	badFormat = core.Invalid{Reason: core.InvalidReason{Code: core.InvalidFormat, Detail: "jpeg: missing SOI marker"}}
	tooLarge  = core.Invalid{Reason: core.InvalidReason{Code: core.MetadataTooLarge, Detail: "too big"}}
	readErr   = core.Invalid{Reason: core.InvalidReason{Code: core.MetadataReadError, Detail: "boom"}}
	noGPS     = core.Valid{Reason: core.HasMetadataNoGps}
	noMeta    = core.Valid{Reason: core.NoMetadataPresent}
	blank     = core.Valid{Reason: core.BlankMetadataValues}
	skipped   = core.Skipped{Reason: core.SkippedExtension}
)

func newTestLogger(sink *bytes.Buffer) (*Logger, *bytes.Buffer) {
	var logs bytes.Buffer
	h := slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})
	if sink == nil {
		return NewLogger(slog.New(h), nil), &logs
	}
	return NewLogger(slog.New(h), sink), &logs
}

func TestPublishableAndLevel(t *testing.T) {
	tests := []struct {
		name        string
		o           core.Outcome
		publishable bool
		level       slog.Level
	}{
		{"gps", gpsFound, false, slog.LevelError},
		{"format", badFormat, false, slog.LevelError},
		{"too large", tooLarge, false, slog.LevelError},
		{"read error", readErr, false, slog.LevelError},
		{"no gps", noGPS, true, slog.LevelWarn},
		{"skipped", skipped, true, slog.LevelWarn},
		{"blank", blank, true, slog.LevelInfo},
		{"no metadata", noMeta, true, slog.LevelDebug},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.publishable, Publishable(tt.o))
			assert.Equal(t, tt.level, Level(tt.o))
			assert.NotEqual(t, "unknown outcome", Message(tt.o))
		})
	}
}

func TestLogger_GPSReportGoesToSink(t *testing.T) {
	var sink bytes.Buffer
	l, logs := newTestLogger(&sink)

	assert.False(t, l.Report("a.jpg", gpsFound))
	assert.Equal(t, string(gpsFound.GPSReport)+"\n", sink.String())

	line := logs.String()
	assert.Contains(t, line, "level=ERROR")
	assert.Contains(t, line, `msg="has GPS info"`)
	assert.Contains(t, line, "file=a.jpg")
	assert.Contains(t, line, "reason=GpsInfoFound")
}

func TestLogger_DetailIsLogged(t *testing.T) {
	l, logs := newTestLogger(nil)

	assert.False(t, l.Report("c.jpg", badFormat))
	assert.Contains(t, logs.String(), `detail="jpeg: missing SOI marker"`)
}

func TestLogger_ValidOutcomesWriteNothingToSink(t *testing.T) {
	var sink bytes.Buffer
	l, logs := newTestLogger(&sink)

	assert.True(t, l.Report("b.jpg", noGPS))
	assert.True(t, l.Report("n.md", skipped))
	assert.True(t, l.Report("p.png", noMeta))
	assert.Empty(t, sink.String())
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "level=DEBUG")
}

func TestLogger_ReportErrIsLogged(t *testing.T) {
	var sink bytes.Buffer
	l, logs := newTestLogger(&sink)

	o := core.Invalid{
		Reason:    core.InvalidReason{Code: core.GpsInfoFound},
		ReportErr: errors.New("gps: failed to format GPS data as JSON: nope"),
	}
	assert.False(t, l.Report("a.jpg", o))
	assert.Empty(t, sink.String())
	assert.Contains(t, logs.String(), `msg="failed to build GPS report"`)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestLogger_SinkFailureIsLogged(t *testing.T) {
	var logs bytes.Buffer
	l := NewLogger(slog.New(slog.NewTextHandler(&logs, nil)), failingWriter{})

	assert.False(t, l.Report("a.jpg", gpsFound))
	assert.Contains(t, logs.String(), "disk full")
}

func TestLogger_ConcurrentReportsDoNotInterleave(t *testing.T) {
	var sink bytes.Buffer
	l, _ := newTestLogger(&sink)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Report("a.jpg", gpsFound)
		}()
	}
	wg.Wait()

	reports := strings.Split(strings.TrimSuffix(sink.String(), "\n"), "}\n{")
	assert.Len(t, reports, 32)
}

func TestNewVerdict(t *testing.T) {
	v := NewVerdict("a.jpg", gpsFound, nil)
	assert.Equal(t, "invalid", v.Kind)
	assert.Equal(t, "GpsInfoFound", v.Reason)
	assert.False(t, v.Publishable)

	b, err := json.Marshal(v)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(b, &doc))
	assert.Equal(t, "a.jpg", doc["gps_report"].(map[string]any)["file"])

	v = NewVerdict("n.md", skipped, nil)
	assert.Equal(t, Verdict{File: "n.md", Kind: "skipped", Reason: "SkippedExtension", Publishable: true}, v)

	v = NewVerdict("gone.jpg", nil, &core.FileNotFoundError{Path: "gone.jpg"})
	assert.Equal(t, "error", v.Kind)
	assert.False(t, v.Publishable)
	assert.Equal(t, "file not found: gone.jpg", v.Error)
}
