// Package container locates the EXIF directory inside an image file and
// decodes it with goexif. Every failure is returned as an *Error whose Kind
// tells the caller how to classify it.
package container

import (
	"errors"
	"fmt"
	"io"

	"github.com/ankit-chaubey/media-metadata-guard/core"
)

// Kind classifies a parse failure.
type Kind int

const (
	// KindInvalidFormat: malformed or unsupported container structure.
	KindInvalidFormat Kind = iota + 1
	// KindNotFound: the container holds no EXIF directory.
	KindNotFound
	// KindBlank: a directory exists but every value in it is blank.
	KindBlank
	// KindTooLarge: the directory exceeds the size ceiling.
	KindTooLarge
	// KindRead: any other failure while reading the directory.
	KindRead
)

func (k Kind) String() string {
	switch k {
	case KindInvalidFormat:
		return "invalid format"
	case KindNotFound:
		return "not found"
	case KindBlank:
		return "blank"
	case KindTooLarge:
		return "too large"
	case KindRead:
		return "read error"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is a classified parse failure.
type Error struct {
	Kind   Kind
	Format core.FormatID
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Format, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, or KindRead when err is not an *Error.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindRead
}

func newError(kind Kind, id core.FormatID, msg string, args ...any) *Error {
	return &Error{Kind: kind, Format: id, Err: fmt.Errorf(msg, args...)}
}

// readError maps an I/O error hit while walking a container. Running out of
// bytes means the structure is truncated; anything else is a read failure.
func readError(format core.FormatID, what string, err error) *Error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return newError(KindInvalidFormat, format, "truncated %s", what)
	}
	return &Error{Kind: KindRead, Format: format, Err: fmt.Errorf("reading %s: %w", what, err)}
}

// Payload is a TIFF-structured EXIF block lifted out of its container.
type Payload struct {
	Format core.FormatID
	TIFF   []byte
	// Truncated is set when only a prefix of the block was read because
	// the container was larger than the ceiling.
	Truncated bool
}

// exifHeader prefixes EXIF blocks in JPEG APP1 segments and, optionally,
// in PNG and WebP chunks.
var exifHeader = []byte("Exif\x00\x00")

// Locate detects the container in r by its magic bytes and extracts the
// EXIF block, reading at most max bytes of metadata.
func Locate(r io.ReaderAt, size, max int64) (*Payload, error) {
	head := make([]byte, core.MagicLen)
	n, err := r.ReadAt(head, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, &Error{Kind: KindRead, Format: core.FmtUnknown, Err: err}
	}
	id := core.DetectMagic(head[:n])

	var tiff []byte
	truncated := false
	switch id {
	case core.FmtJPEG:
		tiff, err = locateJPEG(r, size, max)
	case core.FmtPNG:
		tiff, err = locatePNG(r, size, max)
	case core.FmtWebP:
		tiff, err = locateWebP(r, size, max)
	case core.FmtHEIF:
		tiff, err = locateHEIF(r, size, max)
	case core.FmtTIFF:
		tiff, truncated, err = locateTIFF(r, size, max)
	default:
		if n == 0 {
			return nil, newError(KindInvalidFormat, id, "empty file")
		}
		return nil, newError(KindInvalidFormat, id, "unknown image format")
	}
	if err != nil {
		return nil, err
	}
	return &Payload{Format: id, TIFF: tiff, Truncated: truncated}, nil
}

// readChunk reads an n-byte metadata block, enforcing the ceiling first so
// nothing larger than max is ever allocated.
func readChunk(r io.Reader, format core.FormatID, what string, n, max int64) ([]byte, error) {
	if n > max {
		return nil, newError(KindTooLarge, format, "%s is %d bytes, limit is %d", what, n, max)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, readError(format, what, err)
	}
	return buf, nil
}
