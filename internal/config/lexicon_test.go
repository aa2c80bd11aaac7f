package config

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/chandigest/internal/tone"
)

func TestLoadLexicon_Full(t *testing.T) {
	dir := t.TempDir()
	path := writeTestYAML(t, dir, DefaultLexiconFile, `
version: 2
development: ["Agreement", "growth"]
tension: ["attack"]
administrative: ["meeting", "meeting"]
noise: ["Subscribe to"]
`)

	lex, err := LoadLexicon(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if lex.Version != 2 {
		t.Errorf("version = %d, want 2", lex.Version)
	}
	if lex.Development[0] != "agreement" {
		t.Errorf("terms not lowercased: %v", lex.Development)
	}
	if len(lex.Administrative) != 1 {
		t.Errorf("administrative = %v, want deduplicated", lex.Administrative)
	}
	if _, ok := lex.NoiseMarker("Please SUBSCRIBE TO us"); !ok {
		t.Error("noise marker not matched case-insensitively")
	}
}

func TestLoadLexicon_MissingFileUsesDefault(t *testing.T) {
	lex, err := LoadLexicon(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if lex.Version != tone.LexiconVersion {
		t.Errorf("version = %d, want %d", lex.Version, tone.LexiconVersion)
	}
}

func TestLoadLexicon_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := writeTestYAML(t, dir, DefaultLexiconFile, `
version: 1
development: ["growth"]
tension: []
administrative: ["meeting"]
`)

	_, err := LoadLexicon(path)
	if err == nil {
		t.Fatal("expected error for empty category")
	}
	if want := "validate lexicon"; !strings.Contains(err.Error(), want) {
		t.Errorf("error = %q, want containing %q", err, want)
	}
}

func TestLoadLexicon_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeTestYAML(t, dir, DefaultLexiconFile, `{{{`)

	_, err := LoadLexicon(path)
	if err == nil || !strings.Contains(err.Error(), "parse lexicon") {
		t.Errorf("error = %v, want parse lexicon", err)
	}
}

func TestLoadLexicon_EmptyPath(t *testing.T) {
	if _, err := LoadLexicon(" "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
