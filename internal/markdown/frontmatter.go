package markdown

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

// ErrNoFrontmatter is returned by ParseRecord for a file without a leading
// "---" block.
var ErrNoFrontmatter = errors.New("missing frontmatter")

// Parse reads optional YAML frontmatter into T and returns the trimmed body.
// Input without frontmatter is all body.
func Parse[T any](r io.Reader) (T, string, error) {
	var meta T
	body, err := frontmatter.Parse(r, &meta)
	if err != nil {
		return meta, "", fmt.Errorf("parsing frontmatter: %w", err)
	}
	return meta, strings.TrimSpace(string(body)), nil
}

// ParseRecord is Parse for stored record files, where the frontmatter block
// is required.
func ParseRecord[T any](r io.Reader) (T, string, error) {
	var meta T
	body, err := frontmatter.MustParse(r, &meta)
	if errors.Is(err, frontmatter.ErrNotFound) {
		return meta, "", ErrNoFrontmatter
	}
	if err != nil {
		return meta, "", fmt.Errorf("parsing frontmatter: %w", err)
	}
	return meta, strings.TrimSpace(string(body)), nil
}

// Marshal writes meta as a two-space YAML frontmatter block, then a blank
// line and body when body is not empty. The result always ends in a newline.
func Marshal[T any](meta T, body string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(meta); err != nil {
		return nil, fmt.Errorf("marshaling frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("marshaling frontmatter: %w", err)
	}
	buf.WriteString("---\n")

	if body = strings.TrimSpace(body); body != "" {
		buf.WriteString("\n")
		buf.WriteString(body)
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}
