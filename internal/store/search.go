package store

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rogersnm/errand/internal/model"
)

type SearchResult struct {
	Kind    model.Kind `json:"kind"`
	ID      string     `json:"id"`
	Title   string     `json:"title"`
	Snippet string     `json:"snippet,omitempty"`
}

// Search matches query case-insensitively against names, task content and
// descriptions. A non-empty projectID limits projects, sections and tasks to
// that project; labels are global and always searched.
func (s *Store) Search(query, projectID string) []SearchResult {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var results []SearchResult

	for _, p := range s.projects.items {
		if projectID != "" && p.ID != projectID {
			continue
		}
		if r, ok := match(q, model.KindProject, p.ID, p.Name, p.Description); ok {
			results = append(results, r)
		}
	}
	for _, sec := range s.sections.items {
		if projectID != "" && sec.ProjectID != projectID {
			continue
		}
		if r, ok := match(q, model.KindSection, sec.ID, sec.Name, ""); ok {
			results = append(results, r)
		}
	}
	for _, l := range s.labels.items {
		if r, ok := match(q, model.KindLabel, l.ID, l.Name, ""); ok {
			results = append(results, r)
		}
	}

	tasks := s.items
	if projectID != "" {
		tasks = s.index.Project(projectID)
	}
	for _, t := range tasks {
		if r, ok := match(q, model.KindTask, t.ID, t.Content, t.Description); ok {
			results = append(results, r)
		}
	}
	return results
}

// match prefers a title hit; a body-only hit carries a snippet.
func match(q string, kind model.Kind, id, title, body string) (SearchResult, bool) {
	r := SearchResult{Kind: kind, ID: id, Title: title}
	if matchesQuery(q, title) {
		return r, true
	}
	if body != "" && matchesQuery(q, body) {
		r.Snippet = snippet(body, q)
		return r, true
	}
	return r, false
}

func matchesQuery(q, text string) bool {
	_, _, ok := foldIndex(text, q)
	return ok
}

// foldIndex finds q, already lowercased, in text comparing rune by rune
// through unicode.ToLower. It returns byte offsets into text itself, so the
// bounds stay valid when lowercasing changes a rune's encoded length.
func foldIndex(text, q string) (start, end int, ok bool) {
	if q == "" {
		return 0, 0, true
	}
	for start = 0; start < len(text); {
		if end, ok = foldPrefix(text[start:], q); ok {
			return start, start + end, true
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		start += size
	}
	return 0, 0, false
}

func foldPrefix(text, q string) (int, bool) {
	n := 0
	for _, qr := range q {
		if n >= len(text) {
			return 0, false
		}
		r, size := utf8.DecodeRuneInString(text[n:])
		if unicode.ToLower(r) != qr {
			return 0, false
		}
		n += size
	}
	return n, true
}

const snippetPad = 40

func snippet(body, query string) string {
	idx, matchEnd, ok := foldIndex(body, query)
	if !ok {
		return ""
	}
	start := max(idx-snippetPad, 0)
	for start > 0 && !utf8.RuneStart(body[start]) {
		start--
	}
	end := min(matchEnd+snippetPad, len(body))
	for end < len(body) && !utf8.RuneStart(body[end]) {
		end++
	}
	s := body[start:end]
	if start > 0 {
		s = "..." + s
	}
	if end < len(body) {
		s += "..."
	}
	return strings.ReplaceAll(s, "\n", " ")
}
