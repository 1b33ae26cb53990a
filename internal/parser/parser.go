// Package parser projects the archive's raw topic trees into the
// normalized query model.
package parser

import (
	"fmt"
	"time"

	"github.com/dagrev/xmap/internal/apperr"
	"github.com/dagrev/xmap/internal/archive"
	"github.com/dagrev/xmap/internal/models"
)

// maxDepth bounds topic recursion; tree depth is caller-controlled, so a
// pathological archive fails cleanly instead of exhausting the stack.
const maxDepth = 512

// Forest converts decoded sheets into one normalized tree per sheet.
func Forest(sheets []archive.Sheet) ([]*models.Topic, error) {
	forest := make([]*models.Topic, 0, len(sheets))
	for i, s := range sheets {
		if s.RootTopic == nil {
			return nil, fmt.Errorf("parser: sheet %d (%q) has no root topic: %w", i, s.Title, apperr.ErrFormat)
		}
		root, err := topic(s.RootTopic, s.Title, 0)
		if err != nil {
			return nil, err
		}
		// Relationships are sheet-scoped; they live on the root only.
		for _, r := range s.Relationships {
			root.Relationships = append(root.Relationships, models.Relationship{
				ID:     r.ID,
				End1ID: r.End1ID,
				End2ID: r.End2ID,
				Title:  r.Title,
			})
		}
		forest = append(forest, root)
	}
	return forest, nil
}

func topic(t *archive.Topic, sheetTitle string, depth int) (*models.Topic, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("parser: topic tree deeper than %d levels: %w", maxDepth, apperr.ErrFormat)
	}

	out := &models.Topic{
		Title:          t.Title,
		ID:             t.ID,
		SheetTitle:     sheetTitle,
		StructureClass: t.StructureClass,
		Href:           t.Href,
	}
	if len(t.Labels) > 0 {
		out.Labels = append(out.Labels, t.Labels...)
	}
	for _, m := range t.Markers {
		out.Markers = append(out.Markers, m.MarkerID)
	}

	// A topic with neither note body has no notes object at all.
	if t.Notes != nil {
		var n models.Notes
		if t.Notes.Plain != nil {
			n.Content = t.Notes.Plain.Content
		}
		if t.Notes.HTML != nil {
			n.HTML = t.Notes.HTML.Content
		}
		if n != (models.Notes{}) {
			out.Notes = &n
		}
	}

	for _, b := range t.Boundaries {
		out.Boundaries = append(out.Boundaries, models.Boundary{ID: b.ID, Range: b.Range, Title: b.Title})
	}

	// Summary records name a synthetic topic held in the separate summary
	// child collection; recover its human-readable title from there.
	summaryTitles := map[string]string{}
	if t.Children != nil {
		for _, st := range t.Children.Summary {
			summaryTitles[st.ID] = st.Title
		}
	}
	for _, s := range t.Summaries {
		out.Summaries = append(out.Summaries, models.Summary{
			ID:         s.ID,
			Range:      s.Range,
			TopicID:    s.TopicID,
			TopicTitle: summaryTitles[s.TopicID],
		})
	}

	info, err := archive.FindTaskInfo(t)
	if err != nil {
		return nil, err
	}
	if info != nil {
		out.TaskStatus = info.Status
		out.Progress = info.Progress
		out.Priority = info.Priority
		out.Duration = info.Duration
		if info.Start != 0 {
			out.StartDate = isoDate(info.Start)
		}
		if info.Due != 0 {
			out.DueDate = isoDate(info.Due)
		}
		for _, d := range info.Dependencies {
			out.Dependencies = append(out.Dependencies, models.Dependency{ID: d.ID, Type: d.Type, Lag: d.Lag})
		}
	}

	if t.Children != nil {
		for _, c := range t.Children.Callout {
			out.Callouts = append(out.Callouts, models.Callout{Title: c.Title})
		}
		for _, c := range t.Children.Attached {
			child, err := topic(c, sheetTitle, depth+1)
			if err != nil {
				return nil, err
			}
			out.Children = append(out.Children, child)
		}
	}
	return out, nil
}

// isoDate renders an epoch-millisecond timestamp as ISO-8601 UTC.
func isoDate(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
