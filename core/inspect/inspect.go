// Package inspect lists the metadata of a media file for a human who has
// to decide what to do with a blocked asset. It never modifies the file.
package inspect

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/go-git/go-billy/v5"

	"github.com/ankit-chaubey/media-metadata-guard/core"
)

// View reads path from fsys and returns every metadata field it can list.
// max bounds the size of the EXIF block read from images.
func View(fsys billy.Basic, path string, max int64) (*core.Metadata, error) {
	info, err := fsys.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &core.FileNotFoundError{Path: path}
		}
		return nil, &core.OpenError{Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, &core.OpenError{Path: path, Err: errors.New("is a directory")}
	}

	f, err := fsys.Open(path)
	if err != nil {
		return nil, &core.OpenError{Path: path, Err: err}
	}
	defer f.Close()

	id := core.DetectFormat(f, path)
	m := &core.Metadata{FilePath: path, Format: formatNames[id]}
	switch core.MediaTypeFor(id) {
	case "image":
		return viewImage(f, info.Size(), max, m)
	case "audio":
		return viewAudio(f, id, m)
	default:
		return m, fmt.Errorf("unsupported format: %s", id)
	}
}

var formatNames = map[core.FormatID]string{
	core.FmtJPEG:    "JPEG",
	core.FmtPNG:     "PNG",
	core.FmtGIF:     "GIF",
	core.FmtWebP:    "WebP",
	core.FmtTIFF:    "TIFF",
	core.FmtBMP:     "BMP",
	core.FmtHEIF:    "HEIF",
	core.FmtMP3:     "MP3",
	core.FmtFLAC:    "FLAC",
	core.FmtOGG:     "OGG",
	core.FmtM4A:     "M4A",
	core.FmtWAV:     "WAV",
	core.FmtMP4:     "MP4",
	core.FmtUnknown: "unknown",
}
