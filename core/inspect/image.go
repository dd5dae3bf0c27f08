package inspect

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"github.com/ankit-chaubey/media-metadata-guard/core"
	"github.com/ankit-chaubey/media-metadata-guard/core/container"
)

// viewImage lists the EXIF directory of an image. Missing or blank
// metadata is not an error; the listing is simply empty.
func viewImage(r io.ReaderAt, size, max int64, m *core.Metadata) (*core.Metadata, error) {
	p, err := container.Locate(r, size, max)
	if err == nil {
		x, derr := container.Decode(p, max)
		if derr == nil {
			fields, ferr := exifFields(x)
			m.Fields = append(m.Fields, fields...)
			if ferr != nil {
				return m, ferr
			}
		} else {
			err = derr
		}
	}
	if err != nil {
		switch container.KindOf(err) {
		case container.KindNotFound, container.KindBlank:
		default:
			return m, err
		}
	}

	if core.DetectMagic(head(r)) == core.FmtJPEG {
		if xmp := jpegXMP(r, size, max); len(xmp) > 0 {
			m.Fields = append(m.Fields, xmpFields(xmp)...)
		}
	}
	return m, nil
}

func head(r io.ReaderAt) []byte {
	b := make([]byte, core.MagicLen)
	n, _ := r.ReadAt(b, 0)
	return b[:n]
}

var xmpNamespace = []byte("http://ns.adobe.com/xap/1.0/\x00")

// jpegXMP returns the first XMP packet stored in an APP1 segment, or nil.
func jpegXMP(r io.ReaderAt, size, max int64) []byte {
	var xmp []byte
	container.WalkAPP1(r, size, max, func(data []byte) bool {
		if bytes.HasPrefix(data, xmpNamespace) {
			xmp = data[len(xmpNamespace):]
			return false
		}
		return true
	})
	return xmp
}

// xmpFields flattens an XMP packet into key/value pairs. Attributes and
// leaf text both count as values.
func xmpFields(data []byte) []core.MetaField {
	var fields []core.MetaField
	dec := xml.NewDecoder(bytes.NewReader(data))
	var current string
	for {
		tok, err := dec.Token()
		if err != nil {
			return fields
		}
		switch t := tok.(type) {
		case xml.StartElement:
			current = t.Name.Local
			for _, attr := range t.Attr {
				if attr.Name.Space == "xmlns" || attr.Name.Local == "xmlns" || attr.Value == "" {
					continue
				}
				fields = append(fields, core.MetaField{Key: "xmp:" + attr.Name.Local, Value: attr.Value, Category: "XMP"})
			}
		case xml.CharData:
			val := strings.TrimSpace(string(t))
			if val != "" && current != "" && current != "xmpmeta" && current != "RDF" {
				fields = append(fields, core.MetaField{Key: "xmp:" + current, Value: val, Category: "XMP"})
			}
		case xml.EndElement:
			current = ""
		}
	}
}
