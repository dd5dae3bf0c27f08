package container

import (
	"bytes"

	"github.com/rwcarlsen/goexif/exif"
)

// Decode checks the layout of p and decodes it with goexif. A block that
// has no image directory reports KindNotFound; one whose values are all
// blank and that has no GPS entry reports KindBlank.
func Decode(p *Payload, max int64) (*exif.Exif, error) {
	sum, err := scanIFDs(p.Format, p.TIFF, p.Truncated, max)
	if err != nil {
		return nil, err
	}
	if sum.dirs == 0 {
		return nil, newError(KindNotFound, p.Format, "EXIF block has no image directory")
	}
	if sum.nonBlank == 0 && sum.gps == 0 {
		return nil, newError(KindBlank, p.Format, "all %d EXIF values are blank", sum.entries)
	}

	x, err := exif.Decode(bytes.NewReader(p.TIFF))
	if err != nil {
		// A nil result means the TIFF structure itself did not decode;
		// otherwise a sub-directory failed and x is only partially loaded.
		if x == nil {
			return nil, &Error{Kind: KindInvalidFormat, Format: p.Format, Err: err}
		}
		return nil, &Error{Kind: KindRead, Format: p.Format, Err: err}
	}
	return x, nil
}
