package core

import (
	"bytes"
	"encoding/binary"
	"io"
	"strings"
)

// FormatID enumerates every recognised container.
type FormatID string

const (
	FmtJPEG FormatID = "jpeg"
	FmtPNG  FormatID = "png"
	FmtGIF  FormatID = "gif"
	FmtWebP FormatID = "webp"
	FmtTIFF FormatID = "tiff"
	FmtBMP  FormatID = "bmp"
	FmtHEIF FormatID = "heif"

	FmtMP3  FormatID = "mp3"
	FmtFLAC FormatID = "flac"
	FmtOGG  FormatID = "ogg"
	FmtM4A  FormatID = "m4a"
	FmtWAV  FormatID = "wav"

	FmtMP4 FormatID = "mp4"

	FmtUnknown FormatID = "unknown"
)

// MagicLen is the number of leading bytes DetectMagic looks at.
const MagicLen = 16

// extMap maps lowercase extensions to format IDs for files whose magic
// bytes are not conclusive.
var extMap = map[string]FormatID{
	".jpg":  FmtJPEG,
	".jpeg": FmtJPEG,
	".png":  FmtPNG,
	".gif":  FmtGIF,
	".webp": FmtWebP,
	".tiff": FmtTIFF,
	".tif":  FmtTIFF,
	".dng":  FmtTIFF,
	".bmp":  FmtBMP,
	".heic": FmtHEIF,
	".heif": FmtHEIF,
	".avif": FmtHEIF,

	".mp3":  FmtMP3,
	".flac": FmtFLAC,
	".ogg":  FmtOGG,
	".oga":  FmtOGG,
	".opus": FmtOGG,
	".m4a":  FmtM4A,
	".wav":  FmtWAV,
}

// DetectFormat returns the FormatID of the data in r, first by reading
// magic bytes and falling back to the extension of name.
func DetectFormat(r io.ReaderAt, name string) FormatID {
	buf := make([]byte, MagicLen)
	n, _ := r.ReadAt(buf, 0)
	if id := DetectMagic(buf[:n]); id != FmtUnknown {
		return id
	}
	dot := strings.LastIndex(name, ".")
	if dot >= 0 {
		if id, ok := extMap[strings.ToLower(name[dot:])]; ok {
			return id
		}
	}
	return FmtUnknown
}

// DetectMagic identifies a container from its leading bytes only.
func DetectMagic(b []byte) FormatID {
	if len(b) < 4 {
		return FmtUnknown
	}
	switch {
	// JPEG: FF D8 FF
	case b[0] == 0xFF && b[1] == 0xD8 && b[2] == 0xFF:
		return FmtJPEG
	// PNG: 89 50 4E 47 0D 0A 1A 0A
	case bytes.HasPrefix(b, PNGSignature):
		return FmtPNG
	case bytes.HasPrefix(b, []byte("GIF87a")) || bytes.HasPrefix(b, []byte("GIF89a")):
		return FmtGIF
	// WebP: RIFF????WEBP
	case len(b) >= 12 && bytes.Equal(b[0:4], []byte("RIFF")) && bytes.Equal(b[8:12], []byte("WEBP")):
		return FmtWebP
	case len(b) >= 12 && bytes.Equal(b[0:4], []byte("RIFF")) && bytes.Equal(b[8:12], []byte("WAVE")):
		return FmtWAV
	// TIFF and the TIFF-shaped RAW variants (ORF, RW2).
	case isTIFFMagic(b):
		return FmtTIFF
	case b[0] == 0x42 && b[1] == 0x4D:
		return FmtBMP
	case bytes.HasPrefix(b, []byte("ID3")):
		return FmtMP3
	case bytes.HasPrefix(b, []byte("fLaC")):
		return FmtFLAC
	case bytes.HasPrefix(b, []byte("OggS")):
		return FmtOGG
	// ISOBMFF: ftyp box at offset 4
	case len(b) >= 12 && bytes.Equal(b[4:8], []byte("ftyp")):
		return detectFtypBrand(b)
	// MPEG audio frame sync
	case b[0] == 0xFF && (b[1]&0xE0 == 0xE0):
		return FmtMP3
	}
	return FmtUnknown
}

// PNGSignature is the eight-byte PNG file signature.
var PNGSignature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

func isTIFFMagic(b []byte) bool {
	var magic uint16
	switch string(b[0:2]) {
	case "II":
		magic = binary.LittleEndian.Uint16(b[2:4])
	case "MM":
		magic = binary.BigEndian.Uint16(b[2:4])
	default:
		return false
	}
	switch magic {
	case 42, 0x4F52, 0x5352, 0x0055:
		return true
	}
	return false
}

func detectFtypBrand(b []byte) FormatID {
	switch string(b[8:12]) {
	case "heic", "heix", "hevc", "hevx", "heim", "heis", "hevm", "hevs",
		"mif1", "msf1", "avif", "avis":
		return FmtHEIF
	case "M4A ", "M4B ":
		return FmtM4A
	default:
		return FmtMP4
	}
}

// MediaTypeFor returns the broad media category for a format.
func MediaTypeFor(id FormatID) string {
	switch id {
	case FmtJPEG, FmtPNG, FmtGIF, FmtWebP, FmtTIFF, FmtBMP, FmtHEIF:
		return "image"
	case FmtMP3, FmtFLAC, FmtOGG, FmtM4A, FmtWAV:
		return "audio"
	case FmtMP4:
		return "video"
	default:
		return "unknown"
	}
}
