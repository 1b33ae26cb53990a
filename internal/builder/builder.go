// Package builder compiles sheet descriptions into the archive's at-rest
// encoding, resolving title-based references into generated identifiers.
package builder

import (
	"fmt"
	"time"

	"github.com/dagrev/xmap/internal/apperr"
	"github.com/dagrev/xmap/internal/archive"
	"github.com/dagrev/xmap/internal/ident"
	"github.com/dagrev/xmap/internal/models"
)

// maxDepth bounds topic recursion during construction.
const maxDepth = 512

const millisPerDay = 24 * 60 * 60 * 1000

// builder holds the state of one build. Everything here is scoped to a
// single Build call, so concurrent builds never interfere.
//
// titles maps every registered topic title to its generated id, globally
// across all sheets, last write wins. Document authors must keep titles
// unique for reliable linking; colliding titles silently resolve to the
// most recently built topic.
type builder struct {
	titles       map[string]string
	pendingDeps  map[string][]models.DependencyDescription
	pendingLinks map[string]string
	nodes        map[string]*archive.Topic
	tasks        map[string]*archive.TaskInfo
}

// Build compiles descriptions into at-rest sheets in three passes:
// per-sheet construction, per-sheet dependency resolution (dependencies
// cannot cross sheets), then document-wide link resolution. A reference
// that resolves to no topic aborts the whole build.
func Build(sheets []models.SheetDescription) ([]archive.Sheet, error) {
	b := &builder{
		titles:       make(map[string]string),
		pendingDeps:  make(map[string][]models.DependencyDescription),
		pendingLinks: make(map[string]string),
		nodes:        make(map[string]*archive.Topic),
		tasks:        make(map[string]*archive.TaskInfo),
	}

	roots := make([]*archive.Topic, len(sheets))
	hasTasks := make([]bool, len(sheets))

	for i := range sheets {
		if sheets[i].RootTopic == nil {
			return nil, fmt.Errorf("builder: sheet %q has no root topic: %w", sheets[i].Title, apperr.ErrValidation)
		}

		// Pass 1: pre-order construction; titles register depth-first in
		// input order, references stay pending.
		root, tasked, err := b.buildTopic(sheets[i].RootTopic, 0)
		if err != nil {
			return nil, err
		}
		roots[i] = root
		hasTasks[i] = tasked

		// Pass 2: the sheet's tree is complete, so every legal dependency
		// target is registered.
		if err := b.resolveDependencies(); err != nil {
			return nil, err
		}
	}

	// Pass 3: links may point into any sheet, so they resolve only after
	// the whole document is constructed.
	if err := b.resolveLinks(); err != nil {
		return nil, err
	}

	out := make([]archive.Sheet, len(sheets))
	for i := range sheets {
		sheet, err := b.assembleSheet(&sheets[i], roots[i], hasTasks[i])
		if err != nil {
			return nil, err
		}
		out[i] = sheet
	}
	return out, nil
}

func (b *builder) buildTopic(t *models.TopicDescription, depth int) (*archive.Topic, bool, error) {
	if depth > maxDepth {
		return nil, false, fmt.Errorf("builder: topic tree deeper than %d levels: %w", maxDepth, apperr.ErrValidation)
	}

	node := &archive.Topic{
		ID:             ident.New(),
		Class:          "topic",
		Title:          t.Title,
		StructureClass: t.StructureClass,
		Href:           t.Href,
	}
	b.titles[t.Title] = node.ID
	b.nodes[node.ID] = node

	if len(t.Labels) > 0 {
		node.Labels = append(node.Labels, t.Labels...)
	}
	for _, m := range t.Markers {
		node.Markers = append(node.Markers, archive.Marker{MarkerID: m})
	}
	if t.Notes != nil && (t.Notes.Content != "" || t.Notes.HTML != "") {
		node.Notes = &archive.Notes{}
		if t.Notes.Content != "" {
			node.Notes.Plain = &archive.NoteBody{Content: t.Notes.Content}
		}
		if t.Notes.HTML != "" {
			node.Notes.HTML = &archive.NoteBody{Content: t.Notes.HTML}
		}
	}
	for _, bd := range t.Boundaries {
		node.Boundaries = append(node.Boundaries, archive.Boundary{
			ID:    ident.New(),
			Range: bd.Range,
			Title: bd.Title,
		})
	}
	for _, c := range t.Callouts {
		node.Children = ensureChildren(node.Children)
		node.Children.Callout = append(node.Children.Callout, &archive.Topic{
			ID:    ident.New(),
			Class: "topic",
			Title: c,
		})
	}
	for _, s := range t.Summaries {
		// The summary record points at a synthetic topic kept in the
		// separate summary child collection. Synthetic titles are not
		// registered as link targets.
		synthetic := &archive.Topic{ID: ident.New(), Class: "topic", Title: s.TopicTitle}
		node.Children = ensureChildren(node.Children)
		node.Children.Summary = append(node.Children.Summary, synthetic)
		node.Summaries = append(node.Summaries, archive.Summary{
			ID:      ident.New(),
			Range:   s.Range,
			TopicID: synthetic.ID,
		})
	}

	tasked := t.HasTaskFields()
	if tasked {
		info, err := taskInfo(t)
		if err != nil {
			return nil, false, err
		}
		b.tasks[node.ID] = info
		node.Extensions = append(node.Extensions, archive.Extension{
			Provider: archive.TaskProvider,
			Content:  info,
		})
	}
	if len(t.Dependencies) > 0 {
		b.pendingDeps[node.ID] = t.Dependencies
	}
	if t.LinkToTopic != "" {
		// The link target may not be built yet; resolution overwrites any
		// literal href in pass 3.
		b.pendingLinks[node.ID] = t.LinkToTopic
	}

	for _, c := range t.Children {
		child, childTasked, err := b.buildTopic(c, depth+1)
		if err != nil {
			return nil, false, err
		}
		node.Children = ensureChildren(node.Children)
		node.Children.Attached = append(node.Children.Attached, child)
		tasked = tasked || childTasked
	}
	return node, tasked, nil
}

// resolveDependencies drains the pending-dependency map, rewriting each
// target title into the generated id of the matching topic.
func (b *builder) resolveDependencies() error {
	for id, deps := range b.pendingDeps {
		resolved := make([]archive.TaskDependency, 0, len(deps))
		for _, d := range deps {
			target, ok := b.titles[d.TargetTitle]
			if !ok {
				return fmt.Errorf("builder: dependency target not found: %q: %w", d.TargetTitle, apperr.ErrReference)
			}
			resolved = append(resolved, archive.TaskDependency{ID: target, Type: d.Type, Lag: d.Lag})
		}
		b.tasks[id].Dependencies = resolved
		delete(b.pendingDeps, id)
	}
	return nil
}

// resolveLinks compiles every pending linkToTopic into an internal href
// of the form "xmind:#<id>".
func (b *builder) resolveLinks() error {
	for id, title := range b.pendingLinks {
		target, ok := b.titles[title]
		if !ok {
			return fmt.Errorf("builder: link target topic not found: %q: %w", title, apperr.ErrReference)
		}
		b.nodes[id].Href = "xmind:#" + target
		delete(b.pendingLinks, id)
	}
	return nil
}

func (b *builder) assembleSheet(sd *models.SheetDescription, root *archive.Topic, tasked bool) (archive.Sheet, error) {
	sheet := archive.Sheet{
		ID:               ident.New(),
		Class:            "sheet",
		Title:            sd.Title,
		RootTopic:        root,
		TopicOverlapping: "overlap",
		Theme:            Theme(sd.Theme),
	}
	for _, r := range sd.Relationships {
		source, ok := b.titles[r.SourceTitle]
		if !ok {
			return archive.Sheet{}, fmt.Errorf("builder: relationship source topic not found: %q: %w", r.SourceTitle, apperr.ErrReference)
		}
		target, ok := b.titles[r.TargetTitle]
		if !ok {
			return archive.Sheet{}, fmt.Errorf("builder: relationship target topic not found: %q: %w", r.TargetTitle, apperr.ErrReference)
		}
		sheet.Relationships = append(sheet.Relationships, archive.Relationship{
			ID:     ident.New(),
			End1ID: source,
			End2ID: target,
			Title:  r.Title,
		})
	}
	if tasked {
		sheet.Extensions = append(sheet.Extensions, archive.Extension{
			Provider: archive.CalendarProvider,
			Content:  archive.DefaultCalendar(),
		})
	}
	return sheet, nil
}

// taskInfo lifts the planned-task fields of a description into the task
// extension content. Dependencies stay empty until pass 2.
func taskInfo(t *models.TopicDescription) (*archive.TaskInfo, error) {
	info := &archive.TaskInfo{
		Status:   t.TaskStatus,
		Progress: t.Progress,
		Priority: t.Priority,
	}
	if t.StartDate != "" {
		ms, err := parseWhen(t.StartDate)
		if err != nil {
			return nil, fmt.Errorf("builder: topic %q: bad startDate %q: %w", t.Title, t.StartDate, apperr.ErrValidation)
		}
		info.Start = ms
	}
	if t.DueDate != "" {
		ms, err := parseWhen(t.DueDate)
		if err != nil {
			return nil, fmt.Errorf("builder: topic %q: bad dueDate %q: %w", t.Title, t.DueDate, apperr.ErrValidation)
		}
		info.Due = ms
	}
	switch {
	case info.Start != 0 && info.Due != 0:
		// Absolute planning: both dates given.
		info.Duration = info.Due - info.Start
	case t.DurationDays != 0 && t.StartDate == "":
		// Relative planning: the consumer derives absolute dates from the
		// dependency chain.
		info.Duration = int64(t.DurationDays * millisPerDay)
	}
	return info, nil
}

// parseWhen accepts RFC 3339 timestamps or bare dates and returns epoch
// milliseconds.
func parseWhen(s string) (int64, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts.UnixMilli(), nil
	}
	ts, err := time.Parse("2006-01-02", s)
	if err != nil {
		return 0, err
	}
	return ts.UnixMilli(), nil
}

func ensureChildren(c *archive.Children) *archive.Children {
	if c == nil {
		return &archive.Children{}
	}
	return c
}
