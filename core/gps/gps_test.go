package gps_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ankit-chaubey/media-metadata-guard/core/gps"
	"github.com/ankit-chaubey/media-metadata-guard/internal/testutil"
)

func decode(t *testing.T, block testutil.TIFF) *exif.Exif {
	t.Helper()
	x, err := exif.Decode(bytes.NewReader(block.Bytes()))
	require.NoError(t, err)
	return x
}

func names(entries gps.Entries) []string {
	var out []string
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return out
}

func TestTagSet(t *testing.T) {
	set := gps.TagSet()
	require.Len(t, set, 32)
	for i, tag := range set {
		assert.Equal(t, uint16(i), tag.ID)
		assert.True(t, strings.HasPrefix(tag.Name, "GPS"), tag.Name)
	}
	assert.Equal(t, "GPSVersionID", set[0].Name)
	assert.Equal(t, "GPSHPositioningError", set[31].Name)

	set[0].Name = "changed"
	assert.Equal(t, "GPSVersionID", gps.TagSet()[0].Name)
}

func TestScan_NoGPSDirectory(t *testing.T) {
	x := decode(t, testutil.TIFF{IFD0: testutil.Camera()})
	entries, err := gps.Scan(x)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestScan_EmptyGPSDirectory(t *testing.T) {
	x := decode(t, testutil.TIFF{IFD0: testutil.Camera(), GPS: []testutil.Entry{}})
	entries, err := gps.Scan(x)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestScan_ReturnsTagSetOrder(t *testing.T) {
	fix := testutil.GPSFix()
	var reversed []testutil.Entry
	for i := len(fix) - 1; i >= 0; i-- {
		reversed = append(reversed, fix[i])
	}
	reversed = append(reversed,
		testutil.Rational(0x1F, 5, 1),
		testutil.ASCII(0x1D, "2024:06:01"),
	)

	for _, bigEndian := range []bool{false, true} {
		x := decode(t, testutil.TIFF{BigEndian: bigEndian, IFD0: testutil.Camera(), GPS: reversed})
		entries, err := gps.Scan(x)
		require.NoError(t, err)

		want := []string{
			"GPSVersionID", "GPSLatitudeRef", "GPSLatitude", "GPSLongitudeRef",
			"GPSLongitude", "GPSDateStamp", "GPSHPositioningError",
		}
		if diff := cmp.Diff(want, names(entries)); diff != "" {
			t.Errorf("names mismatch (-want +got):\n%s", diff)
		}
		assert.Equal(t, "N", entries[1].Value)
		assert.Contains(t, entries[2].Value, "2957/100")
		assert.Equal(t, "2024:06:01", entries[5].Value)
	}
}

func TestScan_IgnoresTagsOutsideTagSet(t *testing.T) {
	x := decode(t, testutil.TIFF{
		IFD0: testutil.Camera(),
		GPS:  []testutil.Entry{testutil.ASCII(0x01, "S"), testutil.ASCII(0x40, "vendor")},
	})
	entries, err := gps.Scan(x)
	require.NoError(t, err)
	assert.Equal(t, gps.Entries{{Name: "GPSLatitudeRef", Value: "S"}}, entries)
}

func TestReport(t *testing.T) {
	entries := gps.Entries{
		{Name: "GPSVersionID", Value: "[2,3,0,0]"},
		{Name: "GPSLatitudeRef", Value: "N"},
		{Name: "GPSAltitude", Value: `"weird" value`},
	}
	b, err := gps.Report("photos/a.jpg", entries)
	require.NoError(t, err)

	want := `{
  "file": "photos/a.jpg",
  "gps": {
    "GPSVersionID": "[2,3,0,0]",
    "GPSLatitudeRef": "N",
    "GPSAltitude": "\"weird\" value"
  }
}`
	assert.Equal(t, want, string(b))

	var doc struct {
		File string            `json:"file"`
		GPS  map[string]string `json:"gps"`
	}
	require.NoError(t, json.Unmarshal(b, &doc))
	assert.Equal(t, "N", doc.GPS["GPSLatitudeRef"])
}

func TestReport_EmptyEntries(t *testing.T) {
	b, err := gps.Report("x.jpg", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"file":"x.jpg","gps":{}}`, string(b))
}
