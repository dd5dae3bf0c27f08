package inspect

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ankit-chaubey/media-metadata-guard/core"
	"github.com/ankit-chaubey/media-metadata-guard/internal/testutil"
)

const testMax = 1 << 20

func writeFS(t *testing.T, name string, data []byte) billy.Filesystem {
	t.Helper()
	fsys := memfs.New()
	require.NoError(t, util.WriteFile(fsys, name, data, 0o644))
	return fsys
}

func field(m *core.Metadata, category, key string) (string, bool) {
	for _, f := range m.Fields {
		if f.Category == category && f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

func TestView_ImageWithGPS(t *testing.T) {
	block := testutil.TIFF{IFD0: testutil.Camera(), GPS: testutil.GPSFix()}.Bytes()
	fsys := writeFS(t, "p.jpg", testutil.JPEG(block))

	m, err := View(fsys, "p.jpg", testMax)
	require.NoError(t, err)
	assert.Equal(t, "JPEG", m.Format)

	v, ok := field(m, "EXIF", "Make")
	require.True(t, ok)
	assert.Equal(t, "Canon", v)
	_, ok = field(m, "EXIF", "GPSInfoIFDPointer")
	assert.True(t, ok)
	_, ok = field(m, "EXIF", "GPSLatitude")
	assert.False(t, ok, "GPS fields are listed under GPS only")

	var gpsKeys []string
	for _, f := range m.Fields {
		if f.Category == "GPS" {
			gpsKeys = append(gpsKeys, f.Key)
		}
	}
	assert.Equal(t, []string{"GPSVersionID", "GPSLatitudeRef", "GPSLatitude", "GPSLongitudeRef", "GPSLongitude"}, gpsKeys)
}

func TestView_ExifFieldsSorted(t *testing.T) {
	block := testutil.TIFF{IFD0: []testutil.Entry{
		testutil.ASCII(0x0131, "darktable"),
		testutil.ASCII(0x010F, "Canon"),
		testutil.ASCII(0x013B, "Jane"),
	}}.Bytes()
	fsys := writeFS(t, "p.tif", block)

	m, err := View(fsys, "p.tif", testMax)
	require.NoError(t, err)
	var keys []string
	for _, f := range m.Fields {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{"Artist", "Make", "Software"}, keys)
}

func TestView_ImageWithoutMetadata(t *testing.T) {
	fsys := writeFS(t, "plain.png", testutil.PNG(nil))

	m, err := View(fsys, "plain.png", testMax)
	require.NoError(t, err)
	assert.Equal(t, "PNG", m.Format)
	assert.Empty(t, m.Fields)
}

func TestView_XMPPacket(t *testing.T) {
	xmp := `<x:xmpmeta xmlns:x="adobe:ns:meta/"><rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">` +
		`<rdf:Description xmlns:exif="http://ns.adobe.com/exif/1.0/" exif:GPSLatitude="48,51.49N">` +
		`<exif:GPSLongitude>2,17.67E</exif:GPSLongitude></rdf:Description></rdf:RDF></x:xmpmeta>`
	fsys := writeFS(t, "x.jpg", testutil.JPEGWithXMP(nil, xmp))

	m, err := View(fsys, "x.jpg", testMax)
	require.NoError(t, err)
	v, ok := field(m, "XMP", "xmp:GPSLatitude")
	require.True(t, ok)
	assert.Equal(t, "48,51.49N", v)
	v, ok = field(m, "XMP", "xmp:GPSLongitude")
	require.True(t, ok)
	assert.Equal(t, "2,17.67E", v)
}

func TestView_XMPAfterFillBytes(t *testing.T) {
	xmp := `<x:xmpmeta xmlns:x="adobe:ns:meta/"><rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">` +
		`<rdf:Description xmlns:exif="http://ns.adobe.com/exif/1.0/" exif:GPSLatitude="48,51.49N"/></rdf:RDF></x:xmpmeta>`
	block := testutil.TIFF{IFD0: testutil.Camera(), GPS: testutil.GPSFix()}.Bytes()
	j := testutil.JPEGWithXMP(block, xmp)
	// a standalone RST0 marker, then a fill byte ahead of the XMP APP1
	data := append([]byte{}, j[:2]...)
	data = append(data, 0xFF, 0xD0, 0xFF)
	data = append(data, j[2:]...)
	fsys := writeFS(t, "x.jpg", data)

	m, err := View(fsys, "x.jpg", testMax)
	require.NoError(t, err)
	_, ok := field(m, "GPS", "GPSLatitude")
	assert.True(t, ok)
	v, ok := field(m, "XMP", "xmp:GPSLatitude")
	require.True(t, ok)
	assert.Equal(t, "48,51.49N", v)
}

func TestView_CorruptImage(t *testing.T) {
	fsys := writeFS(t, "bad.jpg", []byte{0xFF, 0xD8, 0xFF, 0x00})

	m, err := View(fsys, "bad.jpg", testMax)
	assert.Error(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "bad.jpg", m.FilePath)
}

func TestView_MissingFile(t *testing.T) {
	_, err := View(memfs.New(), "gone.jpg", testMax)
	var nf *core.FileNotFoundError
	assert.ErrorAs(t, err, &nf)
}

func id3v23(title string) []byte {
	body := append([]byte{0}, title...)
	var frame bytes.Buffer
	frame.WriteString("TIT2")
	binary.Write(&frame, binary.BigEndian, uint32(len(body)))
	frame.Write([]byte{0, 0})
	frame.Write(body)

	n := frame.Len()
	out := []byte{'I', 'D', '3', 3, 0, 0, byte(n >> 21 & 0x7F), byte(n >> 14 & 0x7F), byte(n >> 7 & 0x7F), byte(n & 0x7F)}
	return append(out, frame.Bytes()...)
}

func TestView_MP3Tags(t *testing.T) {
	fsys := writeFS(t, "song.mp3", id3v23("Hello"))

	m, err := View(fsys, "song.mp3", testMax)
	require.NoError(t, err)
	assert.Equal(t, "MP3", m.Format)

	v, ok := field(m, "ID3v2.3", "Title")
	require.True(t, ok, "fields: %+v", m.Fields)
	assert.Equal(t, "Hello", v)
	v, ok = field(m, "ID3v2.3 frames", "TIT2")
	require.True(t, ok, "fields: %+v", m.Fields)
	assert.Equal(t, "Hello", v)
}

func wav(info map[string]string) []byte {
	var list bytes.Buffer
	list.WriteString("INFO")
	for id, val := range info {
		b := append([]byte(val), 0)
		list.WriteString(id)
		binary.Write(&list, binary.LittleEndian, uint32(len(b)))
		list.Write(b)
		if len(b)%2 == 1 {
			list.WriteByte(0)
		}
	}

	var body bytes.Buffer
	body.WriteString("WAVE")
	body.WriteString("fmt ")
	binary.Write(&body, binary.LittleEndian, uint32(16))
	binary.Write(&body, binary.LittleEndian, []uint16{1, 2})
	binary.Write(&body, binary.LittleEndian, []uint32{44100, 176400})
	binary.Write(&body, binary.LittleEndian, []uint16{4, 16})
	body.WriteString("LIST")
	binary.Write(&body, binary.LittleEndian, uint32(list.Len()))
	body.Write(list.Bytes())
	body.WriteString("data")
	binary.Write(&body, binary.LittleEndian, uint32(4))
	body.Write([]byte{0, 0, 0, 0})

	var out bytes.Buffer
	out.WriteString("RIFF")
	binary.Write(&out, binary.LittleEndian, uint32(body.Len()))
	out.Write(body.Bytes())
	return out.Bytes()
}

func TestView_WAVInfo(t *testing.T) {
	fsys := writeFS(t, "take.wav", wav(map[string]string{"INAM": "Take 1", "ZZZZ": "custom"}))

	m, err := View(fsys, "take.wav", testMax)
	require.NoError(t, err)
	assert.Equal(t, "WAV", m.Format)

	v, _ := field(m, "WAV Header", "SampleRate")
	assert.Equal(t, "44100 Hz", v)
	v, _ = field(m, "WAV Header", "Channels")
	assert.Equal(t, "2", v)
	v, _ = field(m, "WAV INFO", "Title")
	assert.Equal(t, "Take 1", v)
	v, _ = field(m, "WAV INFO", "ZZZZ")
	assert.Equal(t, "custom", v)
}

func TestView_UnsupportedFormat(t *testing.T) {
	fsys := writeFS(t, "clip.mp4", []byte("\x00\x00\x00\x18ftypisom\x00\x00\x00\x00"))

	_, err := View(fsys, "clip.mp4", testMax)
	assert.Error(t, err)
}
