// Package report turns classification outcomes into publish decisions,
// log lines and GPS diagnostics.
package report

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"

	"github.com/ankit-chaubey/media-metadata-guard/core"
)

// Reporter presents an outcome and returns whether the file may be
// published.
type Reporter interface {
	Report(path string, o core.Outcome) bool
}

// Publishable reports whether o allows publishing: Valid and Skipped do,
// Invalid does not.
func Publishable(o core.Outcome) bool {
	switch o.(type) {
	case core.Valid, core.Skipped:
		return true
	default:
		return false
	}
}

// Level returns the log severity for o.
func Level(o core.Outcome) slog.Level {
	switch v := o.(type) {
	case core.Invalid:
		return slog.LevelError
	case core.Valid:
		switch v.Reason {
		case core.HasMetadataNoGps:
			return slog.LevelWarn
		case core.BlankMetadataValues:
			return slog.LevelInfo
		default:
			return slog.LevelDebug
		}
	case core.Skipped:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// Message returns the human-readable log message for o.
func Message(o core.Outcome) string {
	switch v := o.(type) {
	case core.Valid:
		switch v.Reason {
		case core.HasMetadataNoGps:
			return "has EXIF metadata without GPS info"
		case core.NoMetadataPresent:
			return "no EXIF metadata"
		case core.BlankMetadataValues:
			return "EXIF metadata is blank"
		}
	case core.Invalid:
		switch v.Reason.Code {
		case core.GpsInfoFound:
			return "has GPS info"
		case core.InvalidFormat:
			return "invalid image format"
		case core.MetadataTooLarge:
			return "metadata too large to verify"
		case core.MetadataReadError:
			return "failed to read metadata"
		}
	case core.Skipped:
		return "skipped by extension"
	}
	return "unknown outcome"
}

// Logger is the default Reporter. It logs one line per outcome and writes
// GPS reports verbatim to a diagnostic sink.
type Logger struct {
	log  *slog.Logger
	mu   sync.Mutex
	sink io.Writer
}

// NewLogger returns a Logger. A nil sink discards GPS reports.
func NewLogger(log *slog.Logger, sink io.Writer) *Logger {
	if sink == nil {
		sink = io.Discard
	}
	return &Logger{log: log, sink: sink}
}

func (l *Logger) Report(path string, o core.Outcome) bool {
	attrs := []any{slog.String("file", path), slog.String("reason", core.ReasonCode(o))}
	inv, isInvalid := o.(core.Invalid)
	if isInvalid && inv.Reason.Detail != "" {
		attrs = append(attrs, slog.String("detail", inv.Reason.Detail))
	}
	l.log.Log(context.Background(), Level(o), Message(o), attrs...)

	if isInvalid {
		if inv.GPSReport != nil {
			l.mu.Lock()
			_, err := l.sink.Write(append(append([]byte{}, inv.GPSReport...), '\n'))
			l.mu.Unlock()
			if err != nil {
				l.log.Error("failed to write GPS report", "file", path, "error", err)
			}
		}
		if inv.ReportErr != nil {
			l.log.Error("failed to build GPS report", "file", path, "error", inv.ReportErr)
		}
	}
	return Publishable(o)
}

var _ Reporter = (*Logger)(nil)

// Verdict is the machine-readable form of an outcome.
type Verdict struct {
	File        string          `json:"file"`
	Kind        string          `json:"kind"`
	Reason      string          `json:"reason,omitempty"`
	Detail      string          `json:"detail,omitempty"`
	Publishable bool            `json:"publishable"`
	GPS         json.RawMessage `json:"gps_report,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// NewVerdict builds the Verdict for path. A non-nil err is a hard failure
// and makes the file unpublishable.
func NewVerdict(path string, o core.Outcome, err error) Verdict {
	if err != nil {
		return Verdict{File: path, Kind: "error", Error: err.Error()}
	}
	v := Verdict{
		File:        path,
		Kind:        core.Kind(o),
		Reason:      core.ReasonCode(o),
		Publishable: Publishable(o),
	}
	if inv, ok := o.(core.Invalid); ok {
		v.Detail = inv.Reason.Detail
		if inv.GPSReport != nil {
			v.GPS = json.RawMessage(inv.GPSReport)
		}
	}
	return v
}
