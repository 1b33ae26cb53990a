package models

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var rangeRe = regexp.MustCompile(`^\(\d+,\d+\)$`)

// SheetDescription describes one independently-rooted tree to build.
// Topics are referenced by title, not id; the builder resolves titles
// into generated identifiers.
type SheetDescription struct {
	Title         string                    `json:"title"`
	RootTopic     *TopicDescription         `json:"rootTopic"`
	Relationships []RelationshipDescription `json:"relationships,omitempty"`
	Theme         string                    `json:"theme,omitempty"`
}

// Validate checks the sheet and its whole topic tree.
func (s SheetDescription) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Title, validation.Required),
		validation.Field(&s.RootTopic, validation.Required),
		validation.Field(&s.Relationships),
	)
}

// TopicDescription describes one topic to build. Href and LinkToTopic
// are mutually exclusive in the output: LinkToTopic, when present, is
// compiled into Href and wins over a literal Href.
type TopicDescription struct {
	Title          string                  `json:"title"`
	StructureClass string                  `json:"structureClass,omitempty"`
	Href           string                  `json:"href,omitempty"`
	LinkToTopic    string                  `json:"linkToTopic,omitempty"`
	Labels         []string                `json:"labels,omitempty"`
	Markers        []string                `json:"markers,omitempty"`
	Notes          *Notes                  `json:"notes,omitempty"`
	Callouts       []string                `json:"callouts,omitempty"`
	Boundaries     []BoundaryDescription   `json:"boundaries,omitempty"`
	Summaries      []SummaryDescription    `json:"summaries,omitempty"`
	TaskStatus     string                  `json:"taskStatus,omitempty"`
	Progress       *float64                `json:"progress,omitempty"` // 0.0–1.0
	Priority       int                     `json:"priority,omitempty"` // 1–9
	StartDate      string                  `json:"startDate,omitempty"`
	DueDate        string                  `json:"dueDate,omitempty"`
	DurationDays   float64                 `json:"durationDays,omitempty"`
	Dependencies   []DependencyDescription `json:"dependencies,omitempty"`
	Children       []*TopicDescription     `json:"children,omitempty"`
}

// Validate checks the topic's own fields and recurses into children.
func (t TopicDescription) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Title, validation.Required),
		validation.Field(&t.TaskStatus, validation.In(TaskTodo, TaskDone)),
		validation.Field(&t.Progress, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&t.Priority, validation.Min(1), validation.Max(9)),
		validation.Field(&t.DurationDays, validation.Min(0.0)),
		validation.Field(&t.Boundaries),
		validation.Field(&t.Summaries),
		validation.Field(&t.Dependencies),
		validation.Field(&t.Children),
	)
}

// HasTaskFields reports whether the topic carries any planned-task data
// and therefore needs a task extension in the archive.
func (t *TopicDescription) HasTaskFields() bool {
	return t.TaskStatus != "" ||
		t.Progress != nil ||
		t.Priority != 0 ||
		t.StartDate != "" ||
		t.DueDate != "" ||
		t.DurationDays != 0 ||
		len(t.Dependencies) > 0
}

// BoundaryDescription describes a boundary over a child range.
type BoundaryDescription struct {
	Range string `json:"range"`
	Title string `json:"title,omitempty"`
}

// Validate checks the range syntax; index bounds are the caller's job.
func (b BoundaryDescription) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.Range, validation.Required, validation.Match(rangeRe)),
	)
}

// SummaryDescription describes a summary over a child range; TopicTitle
// becomes the title of the generated synthetic summary topic.
type SummaryDescription struct {
	Range      string `json:"range"`
	TopicTitle string `json:"topicTitle,omitempty"`
}

// Validate checks the range syntax.
func (s SummaryDescription) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Range, validation.Required, validation.Match(rangeRe)),
	)
}

// DependencyDescription references a predecessor task by title.
// Same-sheet only; cross-sheet dependencies are not supported.
type DependencyDescription struct {
	TargetTitle string `json:"targetTitle"`
	Type        string `json:"type"`
	Lag         int64  `json:"lag,omitempty"`
}

// Validate checks the target and the dependency type code.
func (d DependencyDescription) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.TargetTitle, validation.Required),
		validation.Field(&d.Type, validation.Required,
			validation.In(DepFinishToStart, DepFinishToFinish, DepStartToStart, DepStartToFinish)),
	)
}

// RelationshipDescription references both relationship ends by title.
// Both ends must live in the same sheet.
type RelationshipDescription struct {
	SourceTitle string `json:"sourceTitle"`
	TargetTitle string `json:"targetTitle"`
	Title       string `json:"title,omitempty"`
}

// Validate checks both ends are named.
func (r RelationshipDescription) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.SourceTitle, validation.Required),
		validation.Field(&r.TargetTitle, validation.Required),
	)
}
