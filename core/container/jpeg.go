package container

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"

	"github.com/ankit-chaubey/media-metadata-guard/core"
)

const (
	markerAPP1 = 0xE1
	markerSOS  = 0xDA
	markerEOI  = 0xD9
)

// locateJPEG returns the TIFF block of the first APP1 segment carrying the
// Exif header.
func locateJPEG(r io.ReaderAt, size, max int64) ([]byte, error) {
	var tiff []byte
	err := WalkAPP1(r, size, max, func(data []byte) bool {
		if bytes.HasPrefix(data, exifHeader) {
			tiff = data[len(exifHeader):]
			return false
		}
		// XMP or another APP1 payload; keep looking.
		return true
	})
	if err != nil {
		return nil, err
	}
	if tiff == nil {
		return nil, newError(KindNotFound, core.FmtJPEG, "no Exif APP1 segment before image data")
	}
	return tiff, nil
}

// WalkAPP1 walks the marker segments after SOI and calls fn with the
// payload of every APP1 segment until fn returns false. The walk stops at
// the start of scan; other segment payloads are skipped without being
// buffered.
func WalkAPP1(r io.ReaderAt, size, max int64, fn func(data []byte) bool) error {
	br := bufio.NewReader(io.NewSectionReader(r, 0, size))

	soi := make([]byte, 2)
	if _, err := io.ReadFull(br, soi); err != nil {
		return readError(core.FmtJPEG, "SOI marker", err)
	}
	if soi[0] != 0xFF || soi[1] != 0xD8 {
		return newError(KindInvalidFormat, core.FmtJPEG, "missing SOI marker")
	}

	for {
		b, err := br.ReadByte()
		if err != nil {
			return readError(core.FmtJPEG, "marker", err)
		}
		if b != 0xFF {
			return newError(KindInvalidFormat, core.FmtJPEG, "expected marker, got 0x%02X", b)
		}
		// Any number of 0xFF fill bytes may precede the marker code.
		for b == 0xFF {
			if b, err = br.ReadByte(); err != nil {
				return readError(core.FmtJPEG, "marker", err)
			}
		}
		marker := b

		switch {
		case marker == markerSOS || marker == markerEOI:
			return nil
		case marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7):
			// standalone markers carry no length
			continue
		case marker == 0x00:
			return newError(KindInvalidFormat, core.FmtJPEG, "stuffed byte outside entropy-coded data")
		}

		lenBuf := make([]byte, 2)
		if _, err := io.ReadFull(br, lenBuf); err != nil {
			return readError(core.FmtJPEG, "segment length", err)
		}
		segLen := int64(binary.BigEndian.Uint16(lenBuf)) - 2
		if segLen < 0 {
			return newError(KindInvalidFormat, core.FmtJPEG, "segment 0xFF%02X has invalid length %d", marker, segLen+2)
		}

		if marker == markerAPP1 && segLen >= int64(len(exifHeader)) {
			data, err := readChunk(br, core.FmtJPEG, "APP1 segment", segLen, max)
			if err != nil {
				return err
			}
			if !fn(data) {
				return nil
			}
			continue
		}

		if _, err := br.Discard(int(segLen)); err != nil {
			return readError(core.FmtJPEG, "segment", err)
		}
	}
}
