package container

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"

	"github.com/ankit-chaubey/media-metadata-guard/core"
)

// locateWebP walks the RIFF chunks of a WebP file for the EXIF chunk.
func locateWebP(r io.ReaderAt, size, max int64) ([]byte, error) {
	br := bufio.NewReader(io.NewSectionReader(r, 0, size))

	hdr := make([]byte, 12)
	if _, err := io.ReadFull(br, hdr); err != nil {
		return nil, readError(core.FmtWebP, "RIFF header", err)
	}
	riffEnd := int64(binary.LittleEndian.Uint32(hdr[4:8])) + 8
	if riffEnd > size {
		return nil, newError(KindInvalidFormat, core.FmtWebP, "RIFF size %d exceeds file size %d", riffEnd, size)
	}

	offset := int64(12)
	chunk := make([]byte, 8)
	for offset+8 <= riffEnd {
		if _, err := io.ReadFull(br, chunk); err != nil {
			return nil, readError(core.FmtWebP, "chunk header", err)
		}
		id := string(chunk[0:4])
		chunkSize := int64(binary.LittleEndian.Uint32(chunk[4:8]))
		offset += 8
		if offset+chunkSize > riffEnd {
			return nil, newError(KindInvalidFormat, core.FmtWebP, "chunk %q overruns the RIFF container", id)
		}

		if id == "EXIF" {
			data, err := readChunk(br, core.FmtWebP, "EXIF chunk", chunkSize, max)
			if err != nil {
				return nil, err
			}
			return bytes.TrimPrefix(data, exifHeader), nil
		}

		// chunks are padded to an even size
		skip := chunkSize + chunkSize%2
		if offset+skip > riffEnd {
			skip = riffEnd - offset
		}
		if _, err := br.Discard(int(skip)); err != nil {
			return nil, readError(core.FmtWebP, "chunk "+id, err)
		}
		offset += skip
	}
	return nil, newError(KindNotFound, core.FmtWebP, "no EXIF chunk")
}
