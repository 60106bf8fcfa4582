package media

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bogem/id3v2/v2"
)

func TestIsSupportedExt(t *testing.T) {
	for _, ext := range []string{".wav", ".MP3", ".flac", ".ogg"} {
		if !IsSupportedExt(ext) {
			t.Fatalf("expected %s to be supported", ext)
		}
	}
	for _, ext := range []string{".aac", ".m4a", ".txt", ""} {
		if IsSupportedExt(ext) {
			t.Fatalf("expected %q to be unsupported", ext)
		}
	}
}

func TestSupportedExtsList(t *testing.T) {
	list := SupportedExtsList()
	for _, ext := range audioExts {
		if !strings.Contains(list, ext) {
			t.Fatalf("expected supported ext list to include %s, got %q", ext, list)
		}
	}
}

func TestReadMetadataFallsBackToFileName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "warmup scale.wav")
	if err := os.WriteFile(path, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}
	m := ReadMetadata(path)
	if m.Title != "warmup scale" || m.Artist != "" {
		t.Fatalf("expected title from file name, got %+v", m)
	}
	if m.Display() != "warmup scale" {
		t.Fatalf("expected display to be the title, got %q", m.Display())
	}
}

func TestReadMetadataUsesID3Tags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "take.mp3")
	tag := id3v2.NewEmptyTag()
	tag.SetTitle("Vocalise")
	tag.SetArtist("Choir")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tag.WriteTo(f); err != nil {
		t.Fatalf("write tag: %v", err)
	}
	f.Close()

	m := ReadMetadata(path)
	if m.Title != "Vocalise" || m.Artist != "Choir" {
		t.Fatalf("expected tags to be read, got %+v", m)
	}
	if m.Display() != "Choir - Vocalise" {
		t.Fatalf("unexpected display %q", m.Display())
	}
}
