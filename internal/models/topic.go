// Package models defines the domain types for xmap: the normalized
// query-side topic tree and the description types used to build archives.
package models

// Dependency type codes for planned tasks.
const (
	DepFinishToStart  = "FS"
	DepFinishToFinish = "FF"
	DepStartToStart   = "SS"
	DepStartToFinish  = "SF"
)

// Task status values.
const (
	TaskTodo = "todo"
	TaskDone = "done"
)

// Topic is one node of a decoded mind map, in query-friendly form.
// A root topic additionally carries SheetTitle for itself and all
// descendants, and Relationships (sheet-scoped, root only).
type Topic struct {
	Title          string         `json:"title"`
	ID             string         `json:"id"`
	SheetTitle     string         `json:"sheetTitle,omitempty"`
	StructureClass string         `json:"structureClass,omitempty"`
	Href           string         `json:"href,omitempty"`
	Labels         []string       `json:"labels,omitempty"`
	Markers        []string       `json:"markers,omitempty"`
	Notes          *Notes         `json:"notes,omitempty"`
	Callouts       []Callout      `json:"callouts,omitempty"`
	Boundaries     []Boundary     `json:"boundaries,omitempty"`
	Summaries      []Summary      `json:"summaries,omitempty"`
	TaskStatus     string         `json:"taskStatus,omitempty"`
	Progress       *float64       `json:"progress,omitempty"`
	Priority       int            `json:"priority,omitempty"`
	StartDate      string         `json:"startDate,omitempty"`
	DueDate        string         `json:"dueDate,omitempty"`
	Duration       int64          `json:"duration,omitempty"` // milliseconds
	Dependencies   []Dependency   `json:"dependencies,omitempty"`
	Relationships  []Relationship `json:"relationships,omitempty"`
	Children       []*Topic       `json:"children,omitempty"`
}

// Notes holds the two independent note bodies of a topic.
type Notes struct {
	Content string `json:"content,omitempty"`
	HTML    string `json:"html,omitempty"`
}

// Callout is a callout child attached to a topic.
type Callout struct {
	Title string `json:"title"`
}

// Boundary groups a contiguous range of a topic's children.
// Range uses the textual form "(start,end)", inclusive indices over the
// immediate children. Indices are not bounds-checked.
type Boundary struct {
	ID    string `json:"id"`
	Range string `json:"range"`
	Title string `json:"title,omitempty"`
}

// Summary is a synthetic summary spanning a child range. TopicID names
// the synthetic summary topic; TopicTitle is its recovered title.
type Summary struct {
	ID         string `json:"id"`
	Range      string `json:"range"`
	TopicID    string `json:"topicId"`
	TopicTitle string `json:"topicTitle,omitempty"`
}

// Dependency is a resolved scheduling precedence edge.
type Dependency struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Lag  int64  `json:"lag,omitempty"`
}

// Relationship is a resolved labeled edge between two topics of one sheet.
type Relationship struct {
	ID     string `json:"id"`
	End1ID string `json:"end1Id"`
	End2ID string `json:"end2Id"`
	Title  string `json:"title,omitempty"`
}
