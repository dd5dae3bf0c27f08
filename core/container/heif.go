package container

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/ankit-chaubey/media-metadata-guard/core"
)

// locateHEIF finds the Exif item of a HEIF/HEIC/AVIF file: the meta box
// names it in iinf and places it with iloc. Only the meta box and the
// item's extents are read.
func locateHEIF(r io.ReaderAt, size, max int64) ([]byte, error) {
	var off int64
	for off+8 <= size {
		typ, hdrLen, boxSize, err := readBoxHeader(r, off, size)
		if err != nil {
			return nil, err
		}
		if typ == "meta" {
			body, err := readChunk(io.NewSectionReader(r, off+hdrLen, boxSize-hdrLen), core.FmtHEIF, "meta box", boxSize-hdrLen, max)
			if err != nil {
				return nil, err
			}
			return exifFromMeta(r, size, max, body)
		}
		off += boxSize
	}
	return nil, newError(KindInvalidFormat, core.FmtHEIF, "no meta box")
}

func readBoxHeader(r io.ReaderAt, off, limit int64) (typ string, hdrLen, boxSize int64, err error) {
	hdr := make([]byte, 16)
	if _, err := r.ReadAt(hdr[:8], off); err != nil {
		return "", 0, 0, readError(core.FmtHEIF, "box header", err)
	}
	boxSize = int64(binary.BigEndian.Uint32(hdr[0:4]))
	typ = string(hdr[4:8])
	hdrLen = 8
	switch boxSize {
	case 1:
		if _, err := r.ReadAt(hdr[8:16], off+8); err != nil {
			return "", 0, 0, readError(core.FmtHEIF, "box header", err)
		}
		large := binary.BigEndian.Uint64(hdr[8:16])
		if large > uint64(limit) {
			return "", 0, 0, newError(KindInvalidFormat, core.FmtHEIF, "box %q has invalid size %d", typ, large)
		}
		boxSize = int64(large)
		hdrLen = 16
	case 0:
		boxSize = limit - off
	}
	if boxSize < hdrLen || off+boxSize > limit {
		return "", 0, 0, newError(KindInvalidFormat, core.FmtHEIF, "box %q has invalid size %d", typ, boxSize)
	}
	return typ, hdrLen, boxSize, nil
}

// walkBoxes calls fn for each box laid out back to back in b.
func walkBoxes(b []byte, fn func(typ string, body []byte) error) error {
	for len(b) > 0 {
		if len(b) < 8 {
			return newError(KindInvalidFormat, core.FmtHEIF, "truncated box header")
		}
		size := uint64(binary.BigEndian.Uint32(b[0:4]))
		typ := string(b[4:8])
		hdrLen := uint64(8)
		switch size {
		case 1:
			if len(b) < 16 {
				return newError(KindInvalidFormat, core.FmtHEIF, "truncated box header")
			}
			size = binary.BigEndian.Uint64(b[8:16])
			hdrLen = 16
		case 0:
			size = uint64(len(b))
		}
		if size < hdrLen || size > uint64(len(b)) {
			return newError(KindInvalidFormat, core.FmtHEIF, "box %q has invalid size %d", typ, size)
		}
		if err := fn(typ, b[hdrLen:size]); err != nil {
			return err
		}
		b = b[size:]
	}
	return nil
}

type extent struct {
	offset, length uint64
}

func exifFromMeta(r io.ReaderAt, size, max int64, meta []byte) ([]byte, error) {
	if len(meta) < 4 {
		return nil, newError(KindInvalidFormat, core.FmtHEIF, "truncated meta box")
	}
	var iinf, iloc []byte
	err := walkBoxes(meta[4:], func(typ string, body []byte) error {
		switch typ {
		case "iinf":
			iinf = body
		case "iloc":
			iloc = body
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if iinf == nil {
		return nil, newError(KindNotFound, core.FmtHEIF, "no item info box")
	}

	id, found, err := exifItemID(iinf)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, newError(KindNotFound, core.FmtHEIF, "no Exif item")
	}
	if iloc == nil {
		return nil, newError(KindInvalidFormat, core.FmtHEIF, "Exif item %d has no location", id)
	}
	extents, err := itemExtents(iloc, id)
	if err != nil {
		return nil, err
	}

	var total uint64
	for i := range extents {
		e := &extents[i]
		if e.offset > uint64(size) {
			return nil, newError(KindInvalidFormat, core.FmtHEIF, "Exif item extent lies outside the file")
		}
		if e.length == 0 {
			e.length = uint64(size) - e.offset
		}
		if e.length > uint64(size)-e.offset {
			return nil, newError(KindInvalidFormat, core.FmtHEIF, "Exif item extent lies outside the file")
		}
		total += e.length
	}
	if total > uint64(max) {
		return nil, newError(KindTooLarge, core.FmtHEIF, "Exif item is %d bytes, limit is %d", total, max)
	}

	data := make([]byte, 0, total)
	for _, e := range extents {
		part, err := readChunk(io.NewSectionReader(r, int64(e.offset), int64(e.length)), core.FmtHEIF, "Exif item", int64(e.length), max)
		if err != nil {
			return nil, err
		}
		data = append(data, part...)
	}

	// The item starts with the offset of the TIFF header within it.
	if len(data) < 4 {
		return nil, newError(KindInvalidFormat, core.FmtHEIF, "truncated Exif item")
	}
	start := uint64(binary.BigEndian.Uint32(data[0:4])) + 4
	if start > uint64(len(data)) {
		return nil, newError(KindInvalidFormat, core.FmtHEIF, "Exif item header offset %d out of range", start-4)
	}
	return bytes.TrimPrefix(data[start:], exifHeader), nil
}

func exifItemID(iinf []byte) (uint32, bool, error) {
	c := &cursor{b: iinf}
	version := c.u8()
	c.skip(3)
	if version == 0 {
		c.u16()
	} else {
		c.u32()
	}
	if c.short {
		return 0, false, newError(KindInvalidFormat, core.FmtHEIF, "truncated item info box")
	}

	var id uint32
	var found bool
	err := walkBoxes(iinf[c.off:], func(typ string, body []byte) error {
		if typ != "infe" || found {
			return nil
		}
		e := &cursor{b: body}
		v := e.u8()
		e.skip(3)
		if v < 2 {
			return nil
		}
		var itemID uint32
		if v == 2 {
			itemID = uint32(e.u16())
		} else {
			itemID = e.u32()
		}
		e.u16() // protection index
		itemType := e.bytes(4)
		if e.short {
			return newError(KindInvalidFormat, core.FmtHEIF, "truncated item info entry")
		}
		if string(itemType) == "Exif" {
			id, found = itemID, true
		}
		return nil
	})
	return id, found, err
}

func itemExtents(iloc []byte, id uint32) ([]extent, error) {
	c := &cursor{b: iloc}
	version := c.u8()
	c.skip(3)
	sizes := c.u8()
	offSize, lenSize := int(sizes>>4), int(sizes&0x0F)
	sizes = c.u8()
	baseSize, idxSize := int(sizes>>4), 0
	if version == 1 || version == 2 {
		idxSize = int(sizes & 0x0F)
	}
	for _, s := range []int{offSize, lenSize, baseSize, idxSize} {
		if s != 0 && s != 4 && s != 8 {
			return nil, newError(KindInvalidFormat, core.FmtHEIF, "invalid iloc field size %d", s)
		}
	}

	var count uint32
	if version < 2 {
		count = uint32(c.u16())
	} else {
		count = c.u32()
	}
	for i := uint32(0); i < count && !c.short; i++ {
		var itemID uint32
		if version < 2 {
			itemID = uint32(c.u16())
		} else {
			itemID = c.u32()
		}
		method := 0
		if version == 1 || version == 2 {
			method = int(c.u16() & 0x0F)
		}
		c.u16() // data reference index
		base := c.uN(baseSize)
		n := int(c.u16())
		var extents []extent
		for j := 0; j < n && !c.short; j++ {
			c.uN(idxSize)
			off := c.uN(offSize)
			length := c.uN(lenSize)
			extents = append(extents, extent{offset: base + off, length: length})
		}
		if itemID != id || c.short {
			continue
		}
		if method != 0 {
			return nil, newError(KindRead, core.FmtHEIF, "unsupported iloc construction method %d", method)
		}
		if len(extents) == 0 {
			return nil, newError(KindInvalidFormat, core.FmtHEIF, "Exif item %d has no extents", id)
		}
		return extents, nil
	}
	if c.short {
		return nil, newError(KindInvalidFormat, core.FmtHEIF, "truncated item location box")
	}
	return nil, newError(KindInvalidFormat, core.FmtHEIF, "Exif item %d has no location", id)
}

// cursor reads big-endian fields from a byte slice. Reads past the end
// return zero and set short.
type cursor struct {
	b     []byte
	off   int
	short bool
}

func (c *cursor) bytes(n int) []byte {
	if c.short || c.off+n > len(c.b) {
		c.short = true
		return nil
	}
	p := c.b[c.off : c.off+n]
	c.off += n
	return p
}

func (c *cursor) skip(n int) { c.bytes(n) }

func (c *cursor) u8() uint8 {
	if p := c.bytes(1); p != nil {
		return p[0]
	}
	return 0
}

func (c *cursor) u16() uint16 {
	if p := c.bytes(2); p != nil {
		return binary.BigEndian.Uint16(p)
	}
	return 0
}

func (c *cursor) u32() uint32 {
	if p := c.bytes(4); p != nil {
		return binary.BigEndian.Uint32(p)
	}
	return 0
}

func (c *cursor) uN(n int) uint64 {
	switch n {
	case 4:
		return uint64(c.u32())
	case 8:
		if p := c.bytes(8); p != nil {
			return binary.BigEndian.Uint64(p)
		}
	}
	return 0
}
