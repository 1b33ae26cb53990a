// Package query implements lookups and searches over normalized topic
// trees: exact path descent, id lookup, fuzzy path ranking, and
// multi-field text search.
package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dagrev/xmap/internal/apperr"
	"github.com/dagrev/xmap/internal/models"
)

// DefaultThreshold is the minimum confidence for fuzzy matches.
const DefaultThreshold = 0.5

// PathSeparator joins ancestor titles into a display path.
const PathSeparator = " > "

// FindByPath descends the tree following title segments, matched
// case-insensitively. The first segment addresses the root itself.
// Failure reports the first segment that cannot be matched and
// distinguishes a leaf from a mismatched child title.
func FindByPath(root *models.Topic, segments []string) (*models.Topic, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("query: empty path: %w", apperr.ErrNotFound)
	}
	if !strings.EqualFold(root.Title, segments[0]) {
		return nil, fmt.Errorf("query: no topic titled %q: %w", segments[0], apperr.ErrNotFound)
	}
	node := root
	for _, seg := range segments[1:] {
		if len(node.Children) == 0 {
			return nil, fmt.Errorf("query: topic %q has no children (looking for %q): %w", node.Title, seg, apperr.ErrNotFound)
		}
		var next *models.Topic
		for _, c := range node.Children {
			if strings.EqualFold(c.Title, seg) {
				next = c
				break
			}
		}
		if next == nil {
			return nil, fmt.Errorf("query: no child titled %q under %q: %w", seg, node.Title, apperr.ErrNotFound)
		}
		node = next
	}
	return node, nil
}

// FindByID searches the forest depth-first for an exact id match.
// A missing id returns nil, not an error.
func FindByID(forest []*models.Topic, id string) *models.Topic {
	for _, root := range forest {
		stack := []*models.Topic{root}
		for len(stack) > 0 {
			node := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if node.ID == id {
				return node
			}
			// Push in reverse so children are visited in order.
			for i := len(node.Children) - 1; i >= 0; i-- {
				stack = append(stack, node.Children[i])
			}
		}
	}
	return nil
}

// PathMatch is one fuzzy search hit.
type PathMatch struct {
	Topic      *models.Topic `json:"topic"`
	Path       string        `json:"path"`
	Confidence float64       `json:"confidence"`
}

// FuzzySearch ranks every node of the forest against a free-text query.
// Confidence is 1.0 when the node's ancestor path contains the query as a
// case-insensitive substring, otherwise the fraction of query words found
// as substrings of path words. Results at or above threshold are returned
// confidence-descending; limit > 0 truncates to the top entries.
func FuzzySearch(forest []*models.Topic, q string, threshold float64, limit int) []PathMatch {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	lq := strings.ToLower(q)
	qWords := pathWords(lq)

	var out []PathMatch
	for _, root := range forest {
		walkPaths(root, nil, func(node *models.Topic, path string) {
			c := confidence(strings.ToLower(path), lq, qWords)
			if c >= threshold {
				out = append(out, PathMatch{Topic: node, Path: path, Confidence: c})
			}
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func confidence(path, q string, qWords []string) float64 {
	if q == "" {
		return 0
	}
	if strings.Contains(path, q) {
		return 1.0
	}
	if len(qWords) == 0 {
		return 0
	}
	pWords := pathWords(path)
	matched := 0
	for _, qw := range qWords {
		for _, pw := range pWords {
			if strings.Contains(pw, qw) {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(qWords))
}

// pathWords splits on whitespace and the ">" path separator.
func pathWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == '>' || r == ' ' || r == '\t' || r == '\n'
	})
}

func hasField(fields []string, f string) bool {
	for _, have := range fields {
		if have == f {
			return true
		}
	}
	return false
}

// walkPaths visits every node with its "Ancestor > ... > Title" path.
func walkPaths(node *models.Topic, ancestors []string, visit func(*models.Topic, string)) {
	chain := make([]string, len(ancestors), len(ancestors)+1)
	copy(chain, ancestors)
	chain = append(chain, node.Title)
	visit(node, strings.Join(chain, PathSeparator))
	for _, c := range node.Children {
		walkPaths(c, chain, visit)
	}
}

// Searchable field names for Search.
const (
	FieldTitle      = "title"
	FieldNotes      = "notes"
	FieldLabels     = "labels"
	FieldCallouts   = "callouts"
	FieldTaskStatus = "taskStatus"
)

// SearchOptions selects which fields to test and how.
type SearchOptions struct {
	// Fields restricts matching to a subset of the searchable fields;
	// empty means all of them.
	Fields []string
	// CaseSensitive disables the default case folding.
	CaseSensitive bool
	// TaskStatus, when set, matches every node with that status even
	// when the query itself matches nothing.
	TaskStatus string
}

// FieldMatch is one multi-field search hit, recording which fields
// matched.
type FieldMatch struct {
	Topic  *models.Topic `json:"topic"`
	Path   string        `json:"path"`
	Fields []string      `json:"matchedFields"`
}

// Search scans every node of the forest. A node is returned when any
// selected field contains the query, or when the task-status filter
// matches; recursion always covers all descendants. An empty query with
// a status filter returns exactly the nodes of that status.
func Search(forest []*models.Topic, q string, opts SearchOptions) []FieldMatch {
	selected := make(map[string]bool, len(opts.Fields))
	for _, f := range opts.Fields {
		selected[f] = true
	}
	wants := func(f string) bool { return len(selected) == 0 || selected[f] }

	contains := strings.Contains
	if !opts.CaseSensitive {
		q = strings.ToLower(q)
		contains = func(s, sub string) bool { return strings.Contains(strings.ToLower(s), sub) }
	}

	var out []FieldMatch
	for _, root := range forest {
		walkPaths(root, nil, func(node *models.Topic, path string) {
			var fields []string
			if q != "" {
				if wants(FieldTitle) && contains(node.Title, q) {
					fields = append(fields, FieldTitle)
				}
				if wants(FieldNotes) && node.Notes != nil && contains(node.Notes.Content, q) {
					fields = append(fields, FieldNotes)
				}
				if wants(FieldLabels) {
					for _, l := range node.Labels {
						if contains(l, q) {
							fields = append(fields, FieldLabels)
							break
						}
					}
				}
				if wants(FieldCallouts) {
					for _, c := range node.Callouts {
						if contains(c.Title, q) {
							fields = append(fields, FieldCallouts)
							break
						}
					}
				}
				if wants(FieldTaskStatus) && node.TaskStatus != "" && contains(node.TaskStatus, q) {
					fields = append(fields, FieldTaskStatus)
				}
			}

			if opts.TaskStatus != "" && node.TaskStatus == opts.TaskStatus && !hasField(fields, FieldTaskStatus) {
				fields = append(fields, FieldTaskStatus)
			}
			if len(fields) > 0 {
				out = append(out, FieldMatch{Topic: node, Path: path, Fields: fields})
			}
		})
	}
	return out
}
