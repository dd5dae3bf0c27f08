package container

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/ankit-chaubey/media-metadata-guard/core"
)

// TIFF tags that point at sub-directories.
const (
	tagExifIFD    = 0x8769
	tagGPSIFD     = 0x8825
	tagInteropIFD = 0xA005
)

// maxGPSTag is the highest tag ID of the GPS sub-IFD.
const maxGPSTag = 0x1F

// maxIFDs bounds the number of directories followed in one block.
const maxIFDs = 64

// typeSize is the byte size of each TIFF field type (1..12).
var typeSize = [...]uint64{1: 1, 2: 1, 3: 2, 4: 4, 5: 8, 6: 1, 7: 1, 8: 2, 9: 4, 10: 8, 11: 4, 12: 8}

// locateTIFF returns the leading bytes of a TIFF-structured file (TIFF,
// DNG and most camera RAW formats), at most max of them.
func locateTIFF(r io.ReaderAt, size, max int64) ([]byte, bool, error) {
	n, truncated := size, false
	if n > max {
		n, truncated = max, true
	}
	buf := make([]byte, n)
	read, err := r.ReadAt(buf, 0)
	if err != nil && !(errors.Is(err, io.EOF) && int64(read) == n) {
		return nil, false, readError(core.FmtTIFF, "TIFF data", err)
	}
	normalizeMagic(buf)
	return buf, truncated, nil
}

// normalizeMagic rewrites the ORF ("IIRO", "IIRS") and RW2 ("IIU") magic
// numbers to the standard 42 so the directory decodes as plain TIFF.
func normalizeMagic(b []byte) {
	if len(b) < 4 {
		return
	}
	order := byteOrder(b)
	if order == nil {
		return
	}
	switch order.Uint16(b[2:4]) {
	case 0x4F52, 0x5352, 0x0055:
		order.PutUint16(b[2:4], 42)
	}
}

func byteOrder(b []byte) binary.ByteOrder {
	switch string(b[0:2]) {
	case "II":
		return binary.LittleEndian
	case "MM":
		return binary.BigEndian
	}
	return nil
}

type ifdSummary struct {
	dirs     int
	entries  int
	nonBlank int
	gps      int
}

// scanIFDs walks the IFD chain and the Exif, GPS and Interoperability
// sub-directories of a TIFF block before it is handed to the decoder. It
// checks that every directory and every value lies inside the block and
// below max, and counts the entries that hold a non-blank value and the
// GPS entries.
func scanIFDs(id core.FormatID, b []byte, truncated bool, max int64) (ifdSummary, error) {
	var sum ifdSummary
	if len(b) == 0 {
		return sum, newError(KindBlank, id, "empty EXIF block")
	}
	if len(b) < 8 {
		return sum, newError(KindInvalidFormat, id, "truncated TIFF header")
	}
	order := byteOrder(b)
	if order == nil {
		return sum, newError(KindInvalidFormat, id, "invalid TIFF byte order %q", b[0:2])
	}
	if magic := order.Uint16(b[2:4]); magic != 42 {
		return sum, newError(KindInvalidFormat, id, "invalid TIFF magic number %d", magic)
	}

	size := uint64(len(b))
	outOfRange := func(what string, off uint64) error {
		if truncated {
			return newError(KindTooLarge, id, "%s at offset %d extends beyond the %d byte limit", what, off, size)
		}
		return newError(KindInvalidFormat, id, "%s at offset %d is out of range", what, off)
	}

	type dir struct {
		off   uint64
		chain bool
		gps   bool
	}
	queue := []dir{{off: uint64(order.Uint32(b[4:8])), chain: true}}
	seen := map[uint64]bool{}

	for len(queue) > 0 {
		d := queue[0]
		queue = queue[1:]
		if d.off == 0 {
			continue
		}
		if d.off < 8 {
			return sum, newError(KindInvalidFormat, id, "IFD offset %d overlaps the TIFF header", d.off)
		}
		if seen[d.off] {
			return sum, newError(KindInvalidFormat, id, "IFD loop at offset %d", d.off)
		}
		seen[d.off] = true
		sum.dirs++
		if sum.dirs > maxIFDs {
			return sum, newError(KindInvalidFormat, id, "more than %d IFDs", maxIFDs)
		}

		if d.off+2 > size {
			return sum, outOfRange("IFD", d.off)
		}
		n := uint64(order.Uint16(b[d.off:]))
		if n >= 0x8000 {
			return sum, newError(KindInvalidFormat, id, "IFD at offset %d has invalid entry count %d", d.off, n)
		}
		end := d.off + 2 + 12*n + 4
		if end > size {
			return sum, outOfRange("IFD", d.off)
		}

		for i := uint64(0); i < n; i++ {
			e := b[d.off+2+12*i:]
			tag := order.Uint16(e[0:2])
			typ := order.Uint16(e[2:4])
			count := uint64(order.Uint32(e[4:8]))
			if int(typ) >= len(typeSize) || typeSize[typ] == 0 {
				return sum, newError(KindInvalidFormat, id, "tag 0x%04X has unknown type %d", tag, typ)
			}
			if count == 0 || count == 1<<32-1 {
				return sum, newError(KindInvalidFormat, id, "tag 0x%04X has invalid count %d", tag, count)
			}
			vlen := typeSize[typ] * count
			if vlen > uint64(max) {
				return sum, newError(KindTooLarge, id, "tag 0x%04X value is %d bytes, limit is %d", tag, vlen, max)
			}
			value := e[8:12]
			if vlen > 4 {
				off := uint64(order.Uint32(e[8:12]))
				if off+vlen > size {
					return sum, outOfRange("tag value", off)
				}
				value = b[off : off+vlen]
			} else {
				value = value[:vlen]
			}
			sum.entries++
			if d.gps && tag <= maxGPSTag {
				sum.gps++
			}

			switch tag {
			case tagExifIFD, tagGPSIFD, tagInteropIFD:
				var ptr uint64
				switch typ {
				case 3:
					ptr = uint64(order.Uint16(value))
				case 4, 9:
					ptr = uint64(order.Uint32(value))
				default:
					return sum, newError(KindInvalidFormat, id, "sub-IFD pointer 0x%04X has type %d", tag, typ)
				}
				queue = append(queue, dir{off: ptr, gps: tag == tagGPSIFD})
				continue
			}
			if !blankValue(typ, value) {
				sum.nonBlank++
			}
		}
		if d.chain {
			queue = append(queue, dir{off: uint64(order.Uint32(b[end-4:])), chain: true})
		}
	}
	return sum, nil
}

// blankValue reports whether an ASCII or UNDEFINED value holds only NUL
// and space bytes. Numeric values are never blank: zero is a value.
func blankValue(typ uint16, v []byte) bool {
	if typ != 2 && typ != 7 {
		return false
	}
	for _, c := range v {
		if c != 0 && c != ' ' {
			return false
		}
	}
	return true
}
