package testutil

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
)

var exifHeader = []byte("Exif\x00\x00")

// JPEG wraps an EXIF block in a minimal JPEG stream. A nil block yields a
// JPEG with only a JFIF segment.
func JPEG(tiff []byte) []byte {
	var b bytes.Buffer
	b.Write([]byte{0xFF, 0xD8})
	segment(&b, 0xE0, []byte("JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00"))
	if tiff != nil {
		segment(&b, 0xE1, append(append([]byte{}, exifHeader...), tiff...))
	}
	segment(&b, 0xDB, make([]byte, 65))
	b.Write([]byte{0xFF, 0xDA, 0x00, 0x08, 0x01, 0x01, 0x00, 0x00, 0x3F, 0x00})
	b.Write([]byte{0x12, 0x34, 0xFF, 0xD9})
	return b.Bytes()
}

// JPEGWithXMP is JPEG with an additional XMP packet in APP1.
func JPEGWithXMP(tiff []byte, xmp string) []byte {
	j := JPEG(tiff)
	var seg bytes.Buffer
	segment(&seg, 0xE1, append([]byte("http://ns.adobe.com/xap/1.0/\x00"), xmp...))
	out := append([]byte{}, j[:2]...)
	out = append(out, seg.Bytes()...)
	return append(out, j[2:]...)
}

func segment(b *bytes.Buffer, marker byte, data []byte) {
	b.Write([]byte{0xFF, marker})
	binary.Write(b, binary.BigEndian, uint16(len(data)+2))
	b.Write(data)
}

// PNG wraps an EXIF block in an eXIf chunk of a 1x1 PNG. A nil block
// yields a PNG without eXIf.
func PNG(tiff []byte) []byte {
	var b bytes.Buffer
	b.Write([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'})
	chunk(&b, "IHDR", []byte{0, 0, 0, 1, 0, 0, 0, 1, 8, 2, 0, 0, 0})
	chunk(&b, "tEXt", []byte("Comment\x00synthetic"))
	if tiff != nil {
		chunk(&b, "eXIf", tiff)
	}
	chunk(&b, "IDAT", []byte{0x78, 0x9C, 0x63, 0x60, 0x00, 0x00, 0x00, 0x02, 0x00, 0x01})
	chunk(&b, "IEND", nil)
	return b.Bytes()
}

func chunk(b *bytes.Buffer, typ string, data []byte) {
	binary.Write(b, binary.BigEndian, uint32(len(data)))
	b.WriteString(typ)
	b.Write(data)
	crc := crc32.NewIEEE()
	crc.Write([]byte(typ))
	crc.Write(data)
	binary.Write(b, binary.BigEndian, crc.Sum32())
}

// WebP wraps an EXIF block, with the Exif header prefix, in a WebP
// container. A nil block yields a WebP without an EXIF chunk.
func WebP(tiff []byte) []byte {
	var body bytes.Buffer
	body.WriteString("WEBP")
	riffChunk(&body, "VP8L", []byte{0x2F, 0x00, 0x00, 0x00, 0x00})
	if tiff != nil {
		riffChunk(&body, "EXIF", append(append([]byte{}, exifHeader...), tiff...))
	}
	var b bytes.Buffer
	b.WriteString("RIFF")
	binary.Write(&b, binary.LittleEndian, uint32(body.Len()))
	b.Write(body.Bytes())
	return b.Bytes()
}

func riffChunk(b *bytes.Buffer, id string, data []byte) {
	b.WriteString(id)
	binary.Write(b, binary.LittleEndian, uint32(len(data)))
	b.Write(data)
	if len(data)%2 == 1 {
		b.WriteByte(0)
	}
}

// HEIF wraps an EXIF block in a HEIC file: ftyp, a meta box naming an Exif
// item and locating it with iloc, and the item itself in mdat. A nil block
// yields a meta box with no Exif item.
func HEIF(tiff []byte) []byte {
	ftyp := box("ftyp", []byte("heic\x00\x00\x00\x00mif1heic"))

	var infe []byte
	if tiff != nil {
		// version 2, item 1, protection 0, type Exif, empty name
		infe = box("infe", []byte{2, 0, 0, 0, 0, 1, 0, 0, 'E', 'x', 'i', 'f', 0})
	} else {
		infe = box("infe", []byte{2, 0, 0, 0, 0, 1, 0, 0, 'h', 'v', 'c', '1', 0})
	}
	iinf := box("iinf", append([]byte{0, 0, 0, 0, 0, 1}, infe...))

	item := append([]byte{0, 0, 0, 6}, exifHeader...)
	item = append(item, tiff...)

	// The item offset depends on the size of meta, which does not depend
	// on the offset value itself.
	ilocBody := func(offset uint32) []byte {
		b := []byte{0, 0, 0, 0, 0x44, 0x00, 0, 1, 0, 1, 0, 0, 0, 1}
		b = binary.BigEndian.AppendUint32(b, offset)
		return binary.BigEndian.AppendUint32(b, uint32(len(item)))
	}
	hdlr := box("hdlr", append([]byte{0, 0, 0, 0, 0, 0, 0, 0}, []byte("pict\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00")...))
	meta := func(offset uint32) []byte {
		body := []byte{0, 0, 0, 0}
		body = append(body, hdlr...)
		body = append(body, iinf...)
		body = append(body, box("iloc", ilocBody(offset))...)
		return box("meta", body)
	}

	itemOffset := uint32(len(ftyp) + len(meta(0)) + 8)
	out := append([]byte{}, ftyp...)
	out = append(out, meta(itemOffset)...)
	return append(out, box("mdat", item)...)
}

func box(typ string, body []byte) []byte {
	b := binary.BigEndian.AppendUint32(nil, uint32(8+len(body)))
	b = append(b, typ...)
	return append(b, body...)
}
