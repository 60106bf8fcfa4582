// Package media knows which audio files can be analysed and how to label
// them.
package media

import "strings"

var audioExts = []string{".wav", ".mp3", ".flac", ".ogg"}

// IsSupportedExt returns true if files with this extension can be decoded
// for analysis.
func IsSupportedExt(ext string) bool {
	ext = strings.ToLower(ext)
	for _, e := range audioExts {
		if e == ext {
			return true
		}
	}
	return false
}

// SupportedExtsList returns a human-readable list of supported formats.
func SupportedExtsList() string {
	return strings.Join(audioExts, ", ")
}
