package inspect

import (
	"sort"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"github.com/ankit-chaubey/media-metadata-guard/core"
	"github.com/ankit-chaubey/media-metadata-guard/core/gps"
)

// exifWalker collects the non-GPS fields of a decoded directory. GPS
// fields are listed separately from gps.Scan, which knows every GPS tag.
type exifWalker struct {
	fields []core.MetaField
}

func (w *exifWalker) Walk(name exif.FieldName, tag *tiff.Tag) error {
	key := string(name)
	if strings.HasPrefix(key, "GPS") && name != exif.GPSInfoIFDPointer {
		return nil
	}
	w.fields = append(w.fields, core.MetaField{
		Key:      key,
		Value:    gps.Display(tag),
		Category: "EXIF",
	})
	return nil
}

// exifFields lists x sorted by field name, followed by its GPS fields in
// tag order.
func exifFields(x *exif.Exif) ([]core.MetaField, error) {
	w := &exifWalker{}
	if err := x.Walk(w); err != nil {
		return nil, err
	}
	sort.Slice(w.fields, func(i, j int) bool { return w.fields[i].Key < w.fields[j].Key })

	entries, err := gps.Scan(x)
	if err != nil {
		return w.fields, err
	}
	for _, e := range entries {
		w.fields = append(w.fields, core.MetaField{Key: e.Name, Value: e.Value, Category: "GPS"})
	}
	return w.fields, nil
}
