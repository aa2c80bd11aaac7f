package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/ppiankov/chandigest/internal/tone"
	"gopkg.in/yaml.v3"
)

// LoadLexicon reads a lexicon YAML file and validates it. A missing file
// yields the built-in lexicon.
func LoadLexicon(path string) (*tone.Lexicon, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("lexicon path is required")
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return tone.DefaultLexicon(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}

	var lex tone.Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return nil, fmt.Errorf("parse lexicon: %w", err)
	}

	lex.Normalize()
	if err := lex.Validate(); err != nil {
		return nil, fmt.Errorf("validate lexicon: %w", err)
	}

	return &lex, nil
}
