package cli

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/ppiankov/chandigest/internal/config"
	"gopkg.in/yaml.v3"
)

var slugRe = regexp.MustCompile(`[^a-z0-9_]+`)

// appendSources reads config.yaml as a yaml.Node tree, appends srcs to the
// sources sequence, and writes it back preserving the rest of the file.
func appendSources(configPath string, srcs []config.SourceConfig) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse config YAML: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return errors.New("config.yaml must be a mapping")
	}
	root := doc.Content[0]

	seq := findMapValue(root, "sources")
	if seq == nil {
		seq = &yaml.Node{}
		root.Content = append(root.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "sources"}, seq)
	}
	switch seq.Kind {
	case yaml.SequenceNode:
	case yaml.ScalarNode, 0:
		if seq.Kind == yaml.ScalarNode && seq.Tag != "!!null" {
			return errors.New("sources in config.yaml must be a list")
		}
		seq.Kind = yaml.SequenceNode
		seq.Tag = "!!seq"
		seq.Value = ""
	default:
		return errors.New("sources in config.yaml must be a list")
	}
	seq.Style = 0

	for _, src := range srcs {
		var node yaml.Node
		if err := node.Encode(src); err != nil {
			return fmt.Errorf("encode source %s: %w", src.ID, err)
		}
		seq.Content = append(seq.Content, &node)
	}

	out, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(configPath, out, 0o644)
}

func findMapValue(mapping *yaml.Node, key string) *yaml.Node {
	if mapping.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

// slug turns a title or host into a source id.
func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "www.")
	s = slugRe.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// uniqueID returns base, or base with a numeric suffix, not present in taken.
// The returned id is added to taken.
func uniqueID(base string, taken map[string]bool) string {
	if base == "" {
		base = "source"
	}
	id := base
	for n := 2; taken[id]; n++ {
		id = base + "_" + strconv.Itoa(n)
	}
	taken[id] = true
	return id
}

func feedHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Host
}
