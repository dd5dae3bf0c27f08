package inspect

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/dhowden/tag"

	"github.com/ankit-chaubey/media-metadata-guard/core"
)

type readSeekerAt interface {
	io.ReadSeeker
	io.ReaderAt
}

// viewAudio lists the tags of an audio file. WAV files also get their
// header and LIST/INFO chunk.
func viewAudio(f readSeekerAt, id core.FormatID, m *core.Metadata) (*core.Metadata, error) {
	if id == core.FmtWAV {
		return viewWAV(f, m)
	}

	t, err := tag.ReadFrom(f)
	if err != nil {
		return m, fmt.Errorf("could not read tags: %w", err)
	}
	cat := string(t.Format())
	if cat == "" {
		cat = "Audio Tags"
	}
	addFromTag(t, m, cat)

	if id == core.FmtMP3 {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return m, err
		}
		if err := addID3Frames(f, m); err != nil {
			return m, err
		}
		return m, nil
	}

	keys := make([]string, 0, len(t.Raw()))
	for k := range t.Raw() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if shownByTag[strings.ToLower(k)] {
			continue
		}
		val := rawString(t.Raw()[k])
		if val != "" && len(val) < 512 {
			m.Fields = append(m.Fields, core.MetaField{Key: k, Value: val, Category: cat + " (raw)"})
		}
	}
	return m, nil
}

var shownByTag = map[string]bool{
	"title": true, "artist": true, "album": true, "albumartist": true,
	"composer": true, "genre": true, "comment": true, "year": true,
	"date": true, "track": true, "tracknumber": true, "disc": true,
	"discnumber": true, "lyrics": true,
}

func rawString(v any) string {
	switch vt := v.(type) {
	case nil:
		return ""
	case string:
		return vt
	case []string:
		return strings.Join(vt, "; ")
	case int:
		return fmt.Sprintf("%d", vt)
	case *tag.Picture:
		return fmt.Sprintf("%s image, %d bytes", vt.MIMEType, len(vt.Data))
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}

func addFromTag(t tag.Metadata, m *core.Metadata, cat string) {
	add := func(k, v string) {
		if v != "" {
			m.Fields = append(m.Fields, core.MetaField{Key: k, Value: v, Category: cat})
		}
	}
	add("Title", t.Title())
	add("Artist", t.Artist())
	add("Album", t.Album())
	add("AlbumArtist", t.AlbumArtist())
	add("Composer", t.Composer())
	add("Genre", t.Genre())
	add("Comment", t.Comment())
	if t.Year() != 0 {
		add("Year", fmt.Sprintf("%d", t.Year()))
	}
	if track, total := t.Track(); track != 0 {
		if total != 0 {
			add("TrackNumber", fmt.Sprintf("%d/%d", track, total))
		} else {
			add("TrackNumber", fmt.Sprintf("%d", track))
		}
	}
	if disc, total := t.Disc(); disc != 0 {
		if total != 0 {
			add("DiscNumber", fmt.Sprintf("%d/%d", disc, total))
		} else {
			add("DiscNumber", fmt.Sprintf("%d", disc))
		}
	}
	add("Lyrics", t.Lyrics())
}

// addID3Frames lists every ID3v2 frame by its frame ID, sorted.
func addID3Frames(r io.Reader, m *core.Metadata) error {
	t, err := id3v2.ParseReader(r, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("could not read ID3v2 frames: %w", err)
	}
	if !t.HasFrames() {
		return nil
	}
	cat := fmt.Sprintf("ID3v2.%d frames", t.Version())

	frames := t.AllFrames()
	ids := make([]string, 0, len(frames))
	for id := range frames {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		for _, fr := range frames[id] {
			if val := frameValue(fr); val != "" {
				m.Fields = append(m.Fields, core.MetaField{Key: id, Value: val, Category: cat})
			}
		}
	}
	return nil
}

func frameValue(fr id3v2.Framer) string {
	switch f := fr.(type) {
	case id3v2.TextFrame:
		return f.Text
	case id3v2.CommentFrame:
		if f.Description != "" {
			return f.Description + ": " + f.Text
		}
		return f.Text
	case id3v2.UnsynchronisedLyricsFrame:
		return f.Lyrics
	case id3v2.UserDefinedTextFrame:
		return f.Description + "=" + f.Value
	case id3v2.PictureFrame:
		return fmt.Sprintf("%s %q, %d bytes", f.MimeType, f.Description, len(f.Picture))
	case id3v2.UnknownFrame:
		return fmt.Sprintf("%d bytes", len(f.Body))
	default:
		return fmt.Sprintf("%d bytes", fr.Size())
	}
}

// RIFF INFO chunk IDs.
var infoChunkNames = map[string]string{
	"IARL": "ArchivalLocation",
	"IART": "Artist",
	"ICMS": "Commissioned",
	"ICMT": "Comment",
	"ICOP": "Copyright",
	"ICRD": "DateCreated",
	"IENG": "Engineer",
	"IGNR": "Genre",
	"IKEY": "Keywords",
	"IMED": "Medium",
	"INAM": "Title",
	"IPRD": "Product",
	"ISBJ": "Subject",
	"ISFT": "Software",
	"ISRC": "Source",
	"ITCH": "Technician",
}

// maxInfoChunk bounds the LIST chunk read into memory.
const maxInfoChunk = 1 << 20

func viewWAV(r io.ReaderAt, m *core.Metadata) (*core.Metadata, error) {
	hdr := make([]byte, 12)
	if _, err := r.ReadAt(hdr, 0); err != nil {
		return m, fmt.Errorf("WAV too short: %w", err)
	}
	if string(hdr[0:4]) != "RIFF" || string(hdr[8:12]) != "WAVE" {
		return m, fmt.Errorf("not a RIFF/WAVE file")
	}

	ch := make([]byte, 8)
	for off := int64(12); ; {
		if _, err := r.ReadAt(ch, off); err != nil {
			return m, nil
		}
		id := string(ch[0:4])
		n := int64(binary.LittleEndian.Uint32(ch[4:8]))
		body := off + 8

		switch {
		case id == "fmt " && n >= 16:
			b := make([]byte, 16)
			if _, err := r.ReadAt(b, body); err == nil {
				m.Fields = append(m.Fields,
					core.MetaField{Key: "Channels", Value: fmt.Sprintf("%d", binary.LittleEndian.Uint16(b[2:4])), Category: "WAV Header"},
					core.MetaField{Key: "SampleRate", Value: fmt.Sprintf("%d Hz", binary.LittleEndian.Uint32(b[4:8])), Category: "WAV Header"},
					core.MetaField{Key: "BitsPerSample", Value: fmt.Sprintf("%d", binary.LittleEndian.Uint16(b[14:16])), Category: "WAV Header"},
				)
			}
		case id == "LIST" && n >= 4 && n <= maxInfoChunk:
			b := make([]byte, n)
			if _, err := r.ReadAt(b, body); err == nil && string(b[0:4]) == "INFO" {
				m.Fields = append(m.Fields, infoFields(b[4:])...)
			}
		}

		off = body + n + n%2
	}
}

func infoFields(b []byte) []core.MetaField {
	var fields []core.MetaField
	for pos := 0; pos+8 <= len(b); {
		id := string(b[pos : pos+4])
		n := int(binary.LittleEndian.Uint32(b[pos+4 : pos+8]))
		pos += 8
		if n < 0 || pos+n > len(b) {
			break
		}
		if val := strings.TrimRight(string(b[pos:pos+n]), "\x00"); val != "" {
			name := infoChunkNames[id]
			if name == "" {
				name = id
			}
			fields = append(fields, core.MetaField{Key: name, Value: val, Category: "WAV INFO"})
		}
		pos += n + n%2
	}
	return fields
}
