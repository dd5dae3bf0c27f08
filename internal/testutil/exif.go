// Package testutil builds small synthetic media files in memory for tests.
package testutil

import "encoding/binary"

// TIFF field types.
const (
	TypeByte      = 1
	TypeASCII     = 2
	TypeShort     = 3
	TypeLong      = 4
	TypeRational  = 5
	TypeUndefined = 7
)

// Sub-directory pointer tags.
const (
	TagExifIFD = 0x8769
	TagGPSIFD  = 0x8825
)

// Entry is one IFD entry. Its value is encoded when the block is built so
// the same entries work in either byte order.
type Entry struct {
	Tag   uint16
	Type  uint16
	Count uint32
	bytes []byte
	ints  []uint32
}

func (e Entry) encode(order binary.ByteOrder) []byte {
	if e.ints == nil {
		return e.bytes
	}
	switch e.Type {
	case TypeShort:
		b := make([]byte, 2*len(e.ints))
		for i, v := range e.ints {
			order.PutUint16(b[2*i:], uint16(v))
		}
		return b
	case TypeLong, TypeRational:
		b := make([]byte, 4*len(e.ints))
		for i, v := range e.ints {
			order.PutUint32(b[4*i:], v)
		}
		return b
	default:
		return e.bytes
	}
}

// ASCII is a NUL-terminated string entry.
func ASCII(tag uint16, s string) Entry {
	b := append([]byte(s), 0)
	return Entry{Tag: tag, Type: TypeASCII, Count: uint32(len(b)), bytes: b}
}

// Bytes is a BYTE entry.
func Bytes(tag uint16, b ...byte) Entry {
	return Entry{Tag: tag, Type: TypeByte, Count: uint32(len(b)), bytes: b}
}

// Undefined is an UNDEFINED entry.
func Undefined(tag uint16, b []byte) Entry {
	return Entry{Tag: tag, Type: TypeUndefined, Count: uint32(len(b)), bytes: b}
}

// Short is a SHORT entry.
func Short(tag uint16, v ...uint16) Entry {
	ints := make([]uint32, len(v))
	for i, x := range v {
		ints[i] = uint32(x)
	}
	return Entry{Tag: tag, Type: TypeShort, Count: uint32(len(v)), ints: ints}
}

// Long is a LONG entry.
func Long(tag uint16, v ...uint32) Entry {
	return Entry{Tag: tag, Type: TypeLong, Count: uint32(len(v)), ints: v}
}

// Rational is a RATIONAL entry from numerator/denominator pairs.
func Rational(tag uint16, pairs ...uint32) Entry {
	if len(pairs)%2 != 0 {
		panic("testutil: odd number of rational terms")
	}
	return Entry{Tag: tag, Type: TypeRational, Count: uint32(len(pairs) / 2), ints: pairs}
}

// Raw is an entry with an arbitrary type and count. value is stored as
// is: inline when it fits in four bytes, out of line otherwise.
func Raw(tag, typ uint16, count uint32, value []byte) Entry {
	return Entry{Tag: tag, Type: typ, Count: count, bytes: value}
}

// TIFF describes an EXIF block: the primary image directory and optional
// Exif and GPS sub-directories. A non-nil GPS slice adds a GPS pointer
// even when it is empty.
type TIFF struct {
	BigEndian bool
	IFD0      []Entry
	Exif      []Entry
	GPS       []Entry
}

func dirSize(entries []Entry, order binary.ByteOrder) int {
	n := 2 + 12*len(entries) + 4
	for _, e := range entries {
		if v := e.encode(order); len(v) > 4 {
			n += len(v) + len(v)%2
		}
	}
	return n
}

// Bytes lays the block out as header, IFD0, Exif IFD, GPS IFD, each
// directory followed by its out-of-line values.
func (t TIFF) Bytes() []byte {
	var order binary.ByteOrder = binary.LittleEndian
	hdr := []byte{'I', 'I', 42, 0, 8, 0, 0, 0}
	if t.BigEndian {
		order = binary.BigEndian
		hdr = []byte{'M', 'M', 0, 42, 0, 0, 0, 8}
	}

	ifd0 := append([]Entry(nil), t.IFD0...)
	exifAt, gpsAt := -1, -1
	if t.Exif != nil {
		exifAt = len(ifd0)
		ifd0 = append(ifd0, Long(TagExifIFD, 0))
	}
	if t.GPS != nil {
		gpsAt = len(ifd0)
		ifd0 = append(ifd0, Long(TagGPSIFD, 0))
	}

	off := 8 + dirSize(ifd0, order)
	if exifAt >= 0 {
		ifd0[exifAt] = Long(TagExifIFD, uint32(off))
		off += dirSize(t.Exif, order)
	}
	if gpsAt >= 0 {
		ifd0[gpsAt] = Long(TagGPSIFD, uint32(off))
		off += dirSize(t.GPS, order)
	}
	out := make([]byte, off)
	copy(out, hdr)
	next := writeDir(out, order, 8, ifd0)
	if exifAt >= 0 {
		next = writeDir(out, order, next, t.Exif)
	}
	if gpsAt >= 0 {
		writeDir(out, order, next, t.GPS)
	}
	return out
}

// writeDir writes one directory at off and returns the offset just past
// its value area. The next-IFD link is always zero.
func writeDir(out []byte, order binary.ByteOrder, off int, entries []Entry) int {
	order.PutUint16(out[off:], uint16(len(entries)))
	data := off + 2 + 12*len(entries) + 4
	for i, e := range entries {
		p := off + 2 + 12*i
		order.PutUint16(out[p:], e.Tag)
		order.PutUint16(out[p+2:], e.Type)
		order.PutUint32(out[p+4:], e.Count)
		v := e.encode(order)
		if len(v) <= 4 {
			copy(out[p+8:p+12], v)
			continue
		}
		order.PutUint32(out[p+8:], uint32(data))
		copy(out[data:], v)
		data += len(v) + len(v)%2
	}
	return data
}

// GPSFix returns a typical set of GPS entries for a photo taken in Paris.
func GPSFix() []Entry {
	return []Entry{
		Bytes(0x00, 2, 3, 0, 0),
		ASCII(0x01, "N"),
		Rational(0x02, 48, 1, 51, 1, 2957, 100),
		ASCII(0x03, "E"),
		Rational(0x04, 2, 1, 17, 1, 4013, 100),
	}
}

// Camera returns a typical non-GPS primary directory.
func Camera() []Entry {
	return []Entry{
		ASCII(0x010F, "Canon"),
		ASCII(0x0110, "Canon EOS 5D"),
		Short(0x0112, 1),
	}
}
