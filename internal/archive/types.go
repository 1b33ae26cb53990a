package archive

// At-rest JSON types for the .xmind container. content.json holds a JSON
// array of Sheet objects; the remaining entries are fixed companions.

// Extension provider tags understood by this package.
const (
	TaskProvider     = "org.xmind.ui.taskInfo"
	CalendarProvider = "org.xmind.ui.workingCalendar"
)

// Sheet is one independently-rooted tree at rest.
type Sheet struct {
	ID               string         `json:"id"`
	Class            string         `json:"class"`
	Title            string         `json:"title,omitempty"`
	RootTopic        *Topic         `json:"rootTopic"`
	Relationships    []Relationship `json:"relationships,omitempty"`
	TopicOverlapping string         `json:"topicOverlapping,omitempty"`
	Theme            map[string]any `json:"theme,omitempty"`
	Extensions       []Extension    `json:"extensions,omitempty"`
}

// Topic is one node at rest, with the nested/extension-based encoding of
// notes, markers, boundaries, summaries, and task data.
type Topic struct {
	ID             string      `json:"id"`
	Class          string      `json:"class,omitempty"`
	Title          string      `json:"title"`
	StructureClass string      `json:"structureClass,omitempty"`
	Href           string      `json:"href,omitempty"`
	Labels         []string    `json:"labels,omitempty"`
	Notes          *Notes      `json:"notes,omitempty"`
	Markers        []Marker    `json:"markers,omitempty"`
	Boundaries     []Boundary  `json:"boundaries,omitempty"`
	Summaries      []Summary   `json:"summaries,omitempty"`
	Children       *Children   `json:"children,omitempty"`
	Extensions     []Extension `json:"extensions,omitempty"`
}

// Children separates the three child collections of a topic: regular
// attached children, callout children, and the synthetic summary topics
// referenced by Summary.TopicID.
type Children struct {
	Attached []*Topic `json:"attached,omitempty"`
	Callout  []*Topic `json:"callout,omitempty"`
	Summary  []*Topic `json:"summary,omitempty"`
}

// Notes holds the plain and HTML note bodies; either may be absent.
type Notes struct {
	Plain *NoteBody `json:"plain,omitempty"`
	HTML  *NoteBody `json:"html,omitempty"`
}

// NoteBody wraps one note body string.
type NoteBody struct {
	Content string `json:"content"`
}

// Marker is one marker record on a topic.
type Marker struct {
	MarkerID string `json:"markerId"`
}

// Boundary groups a contiguous child range, "(start,end)" inclusive.
type Boundary struct {
	ID    string `json:"id"`
	Range string `json:"range"`
	Title string `json:"title,omitempty"`
}

// Summary spans a child range and points at a synthetic summary topic in
// Children.Summary via TopicID.
type Summary struct {
	ID      string `json:"id"`
	Range   string `json:"range"`
	TopicID string `json:"topicId"`
}

// Relationship is a labeled edge between two topics of the same sheet.
type Relationship struct {
	ID     string `json:"id"`
	End1ID string `json:"end1Id"`
	End2ID string `json:"end2Id"`
	Title  string `json:"title,omitempty"`
}

// Extension is a provider-tagged record attached to a topic or sheet.
// Content is provider-specific; for TaskProvider it is a TaskInfo.
type Extension struct {
	Provider string `json:"provider"`
	Content  any    `json:"content,omitempty"`
}

// TaskInfo is the content of a TaskProvider extension. Start and Due are
// epoch milliseconds; Duration is milliseconds.
type TaskInfo struct {
	Status       string           `json:"status,omitempty"`
	Progress     *float64         `json:"progress,omitempty"`
	Priority     int              `json:"priority,omitempty"`
	Start        int64            `json:"start,omitempty"`
	Due          int64            `json:"due,omitempty"`
	Duration     int64            `json:"duration,omitempty"`
	Dependencies []TaskDependency `json:"dependencies,omitempty"`
}

// TaskDependency is one resolved predecessor edge inside a TaskInfo.
type TaskDependency struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Lag  int64  `json:"lag,omitempty"`
}

// WorkingCalendar is the content of a CalendarProvider sheet extension.
type WorkingCalendar struct {
	StartOfWeek string `json:"startOfWeek"`
	WorkingDays int    `json:"workingDays"`
	HoursPerDay int    `json:"hoursPerDay"`
}

// DefaultCalendar returns the fixed default working-calendar parameters
// written for sheets that carry planned tasks.
func DefaultCalendar() WorkingCalendar {
	return WorkingCalendar{StartOfWeek: "monday", WorkingDays: 5, HoursPerDay: 8}
}

// Metadata is the fixed metadata.json companion entry.
type Metadata struct {
	DataStructureVersion string  `json:"dataStructureVersion"`
	Creator              Creator `json:"creator"`
	LayoutEngineVersion  string  `json:"layoutEngineVersion"`
}

// Creator identifies the producing application.
type Creator struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}
