package core

import "strings"

// SkipExtensions lists suffixes of files that never carry EXIF location
// data: markup and documents, audio, video containers, vector graphics,
// slideshow packages and icons.
var SkipExtensions = []string{
	".md", ".markdown", ".mermaid", ".txt", ".pdf",
	".mp3", ".wav", ".flac", ".ogg", ".m4a",
	".mp4", ".mov", ".webm", ".mkv", ".avi",
	".svg",
	".pptx", ".key",
	".ico",
}

// ShouldSkip reports whether path ends with one of SkipExtensions,
// ignoring case. It never touches the filesystem.
func ShouldSkip(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range SkipExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
