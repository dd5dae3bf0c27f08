// Package classify decides whether a media file may be published without
// leaking its location. It returns data only; presenting the verdict is
// the job of a report.Reporter.
package classify

import (
	"errors"
	"io/fs"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/rwcarlsen/goexif/exif"

	"github.com/ankit-chaubey/media-metadata-guard/core"
	"github.com/ankit-chaubey/media-metadata-guard/core/container"
	"github.com/ankit-chaubey/media-metadata-guard/core/gps"
)

// DefaultMaxMetadataBytes is the largest metadata block read from a file.
const DefaultMaxMetadataBytes int64 = 64 << 20

// Classifier holds immutable settings and is safe for concurrent use.
type Classifier struct {
	fs       billy.Basic
	maxBytes int64
	report   func(path string, entries gps.Entries) ([]byte, error)
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithFilesystem reads files from fsys instead of the OS filesystem.
func WithFilesystem(fsys billy.Basic) Option {
	return func(c *Classifier) { c.fs = fsys }
}

// WithMaxMetadataBytes sets the metadata size ceiling. Values <= 0 keep
// the default.
func WithMaxMetadataBytes(n int64) Option {
	return func(c *Classifier) {
		if n > 0 {
			c.maxBytes = n
		}
	}
}

// New returns a Classifier reading from the OS filesystem.
func New(opts ...Option) *Classifier {
	c := &Classifier{
		fs:       osfs.Default,
		maxBytes: DefaultMaxMetadataBytes,
		report:   gps.Report,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var std = New()

// Classify classifies path with the default Classifier.
func Classify(path string) (core.Outcome, error) {
	return std.Classify(path)
}

// Classify returns the outcome for path. The only errors returned are
// *core.FileNotFoundError and *core.OpenError; every metadata problem is
// folded into the Outcome.
func (c *Classifier) Classify(path string) (core.Outcome, error) {
	if core.ShouldSkip(path) {
		return core.Skipped{Reason: core.SkippedExtension}, nil
	}

	x, err := c.read(path)
	if err != nil {
		var ce *container.Error
		if errors.As(err, &ce) {
			return fromParseError(ce), nil
		}
		return nil, err
	}

	entries, err := gps.Scan(x)
	if err != nil {
		return core.Invalid{Reason: core.InvalidReason{Code: core.MetadataReadError, Detail: err.Error()}}, nil
	}
	if len(entries) == 0 {
		return core.Valid{Reason: core.HasMetadataNoGps}, nil
	}

	report, err := c.report(path, entries)
	return core.Invalid{
		Reason:    core.InvalidReason{Code: core.GpsInfoFound},
		GPSReport: report,
		ReportErr: err,
	}, nil
}

// read opens path and decodes its EXIF directory. The file is closed
// before read returns.
func (c *Classifier) read(path string) (*exif.Exif, error) {
	info, err := c.fs.Stat(path)
	if err != nil {
		return nil, openFailure(path, err)
	}
	if info.IsDir() {
		return nil, &core.OpenError{Path: path, Err: errors.New("is a directory")}
	}

	f, err := c.fs.Open(path)
	if err != nil {
		return nil, openFailure(path, err)
	}
	defer f.Close()

	p, err := container.Locate(f, info.Size(), c.maxBytes)
	if err != nil {
		return nil, err
	}
	return container.Decode(p, c.maxBytes)
}

func openFailure(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return &core.FileNotFoundError{Path: path}
	}
	return &core.OpenError{Path: path, Err: err}
}

// fromParseError maps a parse failure to its outcome. Missing or blank
// metadata is Valid; everything else blocks.
func fromParseError(err *container.Error) core.Outcome {
	switch err.Kind {
	case container.KindNotFound:
		return core.Valid{Reason: core.NoMetadataPresent}
	case container.KindBlank:
		return core.Valid{Reason: core.BlankMetadataValues}
	case container.KindInvalidFormat:
		return core.Invalid{Reason: core.InvalidReason{Code: core.InvalidFormat, Detail: err.Error()}}
	case container.KindTooLarge:
		return core.Invalid{Reason: core.InvalidReason{Code: core.MetadataTooLarge, Detail: err.Error()}}
	default:
		return core.Invalid{Reason: core.InvalidReason{Code: core.MetadataReadError, Detail: err.Error()}}
	}
}
