// Package core defines the shared types, the outcome taxonomy and the
// extension gate for Media Metadata Guard.
package core

import "fmt"

// Outcome is the verdict produced for a single file. It is one of Valid,
// Invalid or Skipped; no other implementations exist.
type Outcome interface {
	outcome()
}

// Valid means the file carries nothing that could leak a location.
type Valid struct {
	Reason ValidReason
}

// Invalid means publishing must be blocked.
type Invalid struct {
	Reason InvalidReason

	// GPSReport is the pretty-printed {"file", "gps"} document. Only set
	// when Reason.Code is GpsInfoFound; nil when serialization failed.
	GPSReport []byte

	// ReportErr records why GPSReport could not be built.
	ReportErr error
}

// Skipped means the file was never opened.
type Skipped struct {
	Reason SkipReason
}

func (Valid) outcome()   {}
func (Invalid) outcome() {}
func (Skipped) outcome() {}

// ValidReason enumerates why a file is safe to publish.
type ValidReason int

const (
	HasMetadataNoGps ValidReason = iota + 1
	NoMetadataPresent
	BlankMetadataValues
)

func (r ValidReason) String() string {
	switch r {
	case HasMetadataNoGps:
		return "HasMetadataNoGps"
	case NoMetadataPresent:
		return "NoMetadataPresent"
	case BlankMetadataValues:
		return "BlankMetadataValues"
	default:
		return fmt.Sprintf("ValidReason(%d)", int(r))
	}
}

// InvalidCode enumerates why a file is blocked.
type InvalidCode int

const (
	GpsInfoFound InvalidCode = iota + 1
	InvalidFormat
	MetadataTooLarge
	MetadataReadError
)

func (c InvalidCode) String() string {
	switch c {
	case GpsInfoFound:
		return "GpsInfoFound"
	case InvalidFormat:
		return "InvalidFormat"
	case MetadataTooLarge:
		return "MetadataTooLarge"
	case MetadataReadError:
		return "MetadataReadError"
	default:
		return fmt.Sprintf("InvalidCode(%d)", int(c))
	}
}

// InvalidReason is an InvalidCode plus the parser's description of the
// problem. Detail is empty for GpsInfoFound.
type InvalidReason struct {
	Code   InvalidCode
	Detail string
}

func (r InvalidReason) String() string {
	if r.Detail == "" {
		return r.Code.String()
	}
	return r.Code.String() + "(" + r.Detail + ")"
}

// SkipReason enumerates why a file was not inspected.
type SkipReason int

const (
	SkippedExtension SkipReason = iota + 1
)

func (r SkipReason) String() string {
	switch r {
	case SkippedExtension:
		return "SkippedExtension"
	default:
		return fmt.Sprintf("SkipReason(%d)", int(r))
	}
}

// ReasonCode returns the reason code name of o, e.g. "GpsInfoFound".
func ReasonCode(o Outcome) string {
	switch v := o.(type) {
	case Valid:
		return v.Reason.String()
	case Invalid:
		return v.Reason.Code.String()
	case Skipped:
		return v.Reason.String()
	default:
		return "unknown"
	}
}

// Kind returns "valid", "invalid" or "skipped".
func Kind(o Outcome) string {
	switch o.(type) {
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// MetaField represents a single metadata key-value pair.
type MetaField struct {
	Key      string // Canonical field name (e.g. "Make", "GPSLatitude", "Title")
	Value    string // Display form of the value
	Category string // Category label (e.g. "EXIF", "GPS", "ID3v2")
}

// Metadata holds all metadata listed for a single file by the inspector.
type Metadata struct {
	FilePath string
	Format   string // Human-readable format name (e.g. "JPEG", "MP3")
	Fields   []MetaField
}
