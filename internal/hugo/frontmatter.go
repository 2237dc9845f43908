package hugo

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// RenderDocument produces the complete local document: a YAML header block
// with keys in sorted order, then the opaque body. The rendering is
// byte-deterministic for a given fields map and body.
func RenderDocument(fields map[string]any, body string) (string, error) {
	header, err := renderFrontMatter(fields)
	if err != nil {
		return "", err
	}
	body = strings.TrimRight(body, "\n")
	if body == "" {
		return header, nil
	}
	return header + "\n" + body + "\n", nil
}

// renderFrontMatter renders fields as a fenced YAML block. Keys are sorted
// explicitly via a yaml.Node mapping so the output never depends on map
// iteration order.
func renderFrontMatter(fields map[string]any) (string, error) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	mapping := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range keys {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: k}
		valNode := &yaml.Node{}
		if err := valNode.Encode(fields[k]); err != nil {
			return "", fmt.Errorf("encode field %q: %w", k, err)
		}
		mapping.Content = append(mapping.Content, keyNode, valNode)
	}

	out, err := yaml.Marshal(mapping)
	if err != nil {
		return "", fmt.Errorf("render front matter: %w", err)
	}
	return "---\n" + string(out) + "---\n", nil
}
