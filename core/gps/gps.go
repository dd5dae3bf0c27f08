// Package gps finds geolocation tags in a decoded EXIF directory and
// renders them as a JSON report.
package gps

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// Tag identifies one field of the GPS sub-IFD.
type Tag struct {
	ID   uint16
	Name string
}

// tagSet holds the GPS fields of EXIF 2.32 in tag ID order. The set is
// closed; goexif only names 0x00-0x1E, so the names are kept here.
var tagSet = [...]Tag{
	{0x00, "GPSVersionID"},
	{0x01, "GPSLatitudeRef"},
	{0x02, "GPSLatitude"},
	{0x03, "GPSLongitudeRef"},
	{0x04, "GPSLongitude"},
	{0x05, "GPSAltitudeRef"},
	{0x06, "GPSAltitude"},
	{0x07, "GPSTimeStamp"},
	{0x08, "GPSSatellites"},
	{0x09, "GPSStatus"},
	{0x0A, "GPSMeasureMode"},
	{0x0B, "GPSDOP"},
	{0x0C, "GPSSpeedRef"},
	{0x0D, "GPSSpeed"},
	{0x0E, "GPSTrackRef"},
	{0x0F, "GPSTrack"},
	{0x10, "GPSImgDirectionRef"},
	{0x11, "GPSImgDirection"},
	{0x12, "GPSMapDatum"},
	{0x13, "GPSDestLatitudeRef"},
	{0x14, "GPSDestLatitude"},
	{0x15, "GPSDestLongitudeRef"},
	{0x16, "GPSDestLongitude"},
	{0x17, "GPSDestBearingRef"},
	{0x18, "GPSDestBearing"},
	{0x19, "GPSDestDistanceRef"},
	{0x1A, "GPSDestDistance"},
	{0x1B, "GPSProcessingMethod"},
	{0x1C, "GPSAreaInformation"},
	{0x1D, "GPSDateStamp"},
	{0x1E, "GPSDifferential"},
	{0x1F, "GPSHPositioningError"},
}

// TagSet returns a copy of the GPS tag set in tag ID order.
func TagSet() []Tag {
	out := make([]Tag, len(tagSet))
	copy(out, tagSet[:])
	return out
}

// Entry is a GPS tag found in a file with its display value.
type Entry struct {
	Name  string
	Value string
}

// Entries marshals to a JSON object whose keys keep slice order.
type Entries []Entry

func (e Entries) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, en := range e {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(en.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(en.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Scan returns the GPS tags present in the primary image's GPS
// sub-directory, in TagSet order. It returns no entries when the image has
// no GPS directory.
func Scan(x *exif.Exif) (Entries, error) {
	ptr, err := x.Get(exif.GPSInfoIFDPointer)
	if err != nil {
		return nil, nil
	}
	off, err := ptr.Int64(0)
	if err != nil {
		return nil, fmt.Errorf("gps: invalid GPS IFD pointer: %w", err)
	}

	r := bytes.NewReader(x.Raw)
	if _, err := r.Seek(off, io.SeekStart); err != nil {
		return nil, fmt.Errorf("gps: seek to GPS IFD: %w", err)
	}
	dir, _, err := tiff.DecodeDir(r, x.Tiff.Order)
	if err != nil {
		return nil, fmt.Errorf("gps: decode GPS IFD: %w", err)
	}

	present := make(map[uint16]*tiff.Tag, len(dir.Tags))
	for _, t := range dir.Tags {
		present[t.Id] = t
	}
	var out Entries
	for _, tag := range tagSet {
		if t, ok := present[tag.ID]; ok {
			out = append(out, Entry{Name: tag.Name, Value: Display(t)})
		}
	}
	return out, nil
}

// Display returns goexif's rendering of a tag value with the quotes
// around string values removed.
func Display(t *tiff.Tag) string {
	val := t.String()
	if len(val) >= 2 && val[0] == '"' && val[len(val)-1] == '"' {
		val = val[1 : len(val)-1]
	}
	return val
}

type report struct {
	File string  `json:"file"`
	GPS  Entries `json:"gps"`
}

// Report renders {"file": path, "gps": {...}} as indented JSON.
func Report(path string, entries Entries) ([]byte, error) {
	b, err := json.MarshalIndent(report{File: path, GPS: entries}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("gps: failed to format GPS data as JSON: %w", err)
	}
	return b, nil
}
