package container

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"

	"github.com/ankit-chaubey/media-metadata-guard/core"
)

// locatePNG walks the chunk list looking for an eXIf chunk. Other chunks
// are skipped together with their CRC.
func locatePNG(r io.ReaderAt, size, max int64) ([]byte, error) {
	br := bufio.NewReader(io.NewSectionReader(r, 0, size))

	sig := make([]byte, len(core.PNGSignature))
	if _, err := io.ReadFull(br, sig); err != nil {
		return nil, readError(core.FmtPNG, "signature", err)
	}
	if !bytes.Equal(sig, core.PNGSignature) {
		return nil, newError(KindInvalidFormat, core.FmtPNG, "not a valid PNG")
	}

	hdr := make([]byte, 8)
	for {
		if _, err := io.ReadFull(br, hdr); err != nil {
			return nil, readError(core.FmtPNG, "chunk header", err)
		}
		length := int64(binary.BigEndian.Uint32(hdr[0:4]))
		typ := string(hdr[4:8])
		if length > 1<<31-1 {
			return nil, newError(KindInvalidFormat, core.FmtPNG, "chunk %q has invalid length %d", typ, length)
		}

		switch typ {
		case "eXIf":
			data, err := readChunk(br, core.FmtPNG, "eXIf chunk", length, max)
			if err != nil {
				return nil, err
			}
			return bytes.TrimPrefix(data, exifHeader), nil
		case "IEND":
			return nil, newError(KindNotFound, core.FmtPNG, "no eXIf chunk")
		}

		if _, err := br.Discard(int(length) + 4); err != nil {
			return nil, readError(core.FmtPNG, "chunk "+typ, err)
		}
	}
}
