package builder

import (
	"errors"
	"strings"
	"testing"

	"github.com/dagrev/xmap/internal/apperr"
	"github.com/dagrev/xmap/internal/archive"
	"github.com/dagrev/xmap/internal/models"
)

func planSheet() models.SheetDescription {
	return models.SheetDescription{
		Title: "Plan",
		RootTopic: &models.TopicDescription{
			Title: "Deployment",
			Children: []*models.TopicDescription{
				{Title: "Analysis", DurationDays: 3},
				{
					Title:        "Development",
					DurationDays: 5,
					Dependencies: []models.DependencyDescription{
						{TargetTitle: "Analysis", Type: models.DepFinishToStart},
					},
				},
			},
		},
	}
}

func TestBuild_PlannedTasks(t *testing.T) {
	sheets, err := Build([]models.SheetDescription{planSheet()})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(sheets) != 1 {
		t.Fatalf("len(sheets) = %d, want 1", len(sheets))
	}
	s := sheets[0]
	if s.Class != "sheet" || s.Title != "Plan" || s.ID == "" {
		t.Errorf("sheet = %+v", s)
	}

	kids := s.RootTopic.Children.Attached
	if len(kids) != 2 {
		t.Fatalf("children = %d, want 2", len(kids))
	}
	analysis, development := kids[0], kids[1]

	// Relative planning: duration in ms, no dates.
	infoA, err := archive.FindTaskInfo(analysis)
	if err != nil || infoA == nil {
		t.Fatalf("analysis task info: %v, %+v", err, infoA)
	}
	if infoA.Duration != 3*millisPerDay || infoA.Start != 0 || infoA.Due != 0 {
		t.Errorf("analysis info = %+v", infoA)
	}

	// Dependency resolved to the generated id of Analysis.
	infoD, err := archive.FindTaskInfo(development)
	if err != nil || infoD == nil {
		t.Fatalf("development task info: %v, %+v", err, infoD)
	}
	if len(infoD.Dependencies) != 1 {
		t.Fatalf("dependencies = %+v", infoD.Dependencies)
	}
	if infoD.Dependencies[0].ID != analysis.ID {
		t.Errorf("dependency id = %q, want %q", infoD.Dependencies[0].ID, analysis.ID)
	}
	if infoD.Dependencies[0].Type != models.DepFinishToStart {
		t.Errorf("dependency type = %q", infoD.Dependencies[0].Type)
	}

	// A tasked sheet carries the working-calendar extension.
	var cal *archive.Extension
	for i := range s.Extensions {
		if s.Extensions[i].Provider == archive.CalendarProvider {
			cal = &s.Extensions[i]
		}
	}
	if cal == nil {
		t.Fatal("missing working-calendar sheet extension")
	}
	wc, ok := cal.Content.(archive.WorkingCalendar)
	if !ok {
		t.Fatalf("calendar content type %T", cal.Content)
	}
	if wc.StartOfWeek != "monday" || wc.WorkingDays != 5 || wc.HoursPerDay != 8 {
		t.Errorf("calendar = %+v", wc)
	}
}

func TestBuild_GeneratedIDsUnique(t *testing.T) {
	sheets, err := Build([]models.SheetDescription{planSheet()})
	if err != nil {
		t.Fatal(err)
	}
	seen := map[string]bool{}
	var walk func(*archive.Topic)
	walk = func(n *archive.Topic) {
		if seen[n.ID] {
			t.Errorf("duplicate id %q", n.ID)
		}
		seen[n.ID] = true
		if n.Children != nil {
			for _, c := range n.Children.Attached {
				walk(c)
			}
		}
	}
	walk(sheets[0].RootTopic)
	if len(seen) != 3 {
		t.Errorf("ids = %d, want 3", len(seen))
	}
}

func TestBuild_AbsoluteDates(t *testing.T) {
	sheets, err := Build([]models.SheetDescription{{
		Title: "Dated",
		RootTopic: &models.TopicDescription{
			Title:     "Task",
			StartDate: "2025-01-01",
			DueDate:   "2025-01-03",
		},
	}})
	if err != nil {
		t.Fatal(err)
	}
	info, _ := archive.FindTaskInfo(sheets[0].RootTopic)
	if info == nil {
		t.Fatal("missing task info")
	}
	if info.Start == 0 || info.Due == 0 {
		t.Fatalf("dates not parsed: %+v", info)
	}
	if info.Duration != info.Due-info.Start {
		t.Errorf("duration = %d, want %d", info.Duration, info.Due-info.Start)
	}
	if info.Duration != 2*millisPerDay {
		t.Errorf("duration = %d, want %d", info.Duration, 2*millisPerDay)
	}
}

func TestBuild_RFC3339Dates(t *testing.T) {
	sheets, err := Build([]models.SheetDescription{{
		Title: "Dated",
		RootTopic: &models.TopicDescription{
			Title:     "Task",
			StartDate: "2025-06-01T09:00:00Z",
			DueDate:   "2025-06-01T17:00:00Z",
		},
	}})
	if err != nil {
		t.Fatal(err)
	}
	info, _ := archive.FindTaskInfo(sheets[0].RootTopic)
	if info.Duration != 8*60*60*1000 {
		t.Errorf("duration = %d, want 8h in ms", info.Duration)
	}
}

func TestBuild_BadDate(t *testing.T) {
	_, err := Build([]models.SheetDescription{{
		Title:     "Bad",
		RootTopic: &models.TopicDescription{Title: "Task", StartDate: "tomorrow"},
	}})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestBuild_CrossSheetLinks(t *testing.T) {
	sheets, err := Build([]models.SheetDescription{
		{
			Title: "One",
			RootTopic: &models.TopicDescription{
				Title:       "Alpha",
				LinkToTopic: "Beta",
			},
		},
		{
			Title: "Two",
			RootTopic: &models.TopicDescription{
				Title:       "Beta",
				LinkToTopic: "Alpha",
			},
		},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	alpha, beta := sheets[0].RootTopic, sheets[1].RootTopic
	if alpha.Href != "xmind:#"+beta.ID {
		t.Errorf("alpha href = %q, want link to %q", alpha.Href, beta.ID)
	}
	if beta.Href != "xmind:#"+alpha.ID {
		t.Errorf("beta href = %q, want link to %q", beta.Href, alpha.ID)
	}
}

func TestBuild_LinkOverridesHref(t *testing.T) {
	sheets, err := Build([]models.SheetDescription{{
		Title: "S",
		RootTopic: &models.TopicDescription{
			Title: "Root",
			Children: []*models.TopicDescription{
				{Title: "Target"},
				{Title: "Source", Href: "https://example.com", LinkToTopic: "Target"},
			},
		},
	}})
	if err != nil {
		t.Fatal(err)
	}
	kids := sheets[0].RootTopic.Children.Attached
	if !strings.HasPrefix(kids[1].Href, "xmind:#") {
		t.Errorf("href = %q, want internal link", kids[1].Href)
	}
}

func TestBuild_DependencyTargetMissing(t *testing.T) {
	_, err := Build([]models.SheetDescription{{
		Title: "S",
		RootTopic: &models.TopicDescription{
			Title: "Root",
			Dependencies: []models.DependencyDescription{
				{TargetTitle: "Nowhere", Type: models.DepFinishToStart},
			},
		},
	}})
	if !errors.Is(err, apperr.ErrReference) {
		t.Errorf("err = %v, want ErrReference", err)
	}
}

func TestBuild_DependencyCannotCrossSheets(t *testing.T) {
	// The target lives in the second sheet, but dependencies resolve
	// per sheet, so the first sheet's reference must fail.
	_, err := Build([]models.SheetDescription{
		{
			Title: "One",
			RootTopic: &models.TopicDescription{
				Title: "Task",
				Dependencies: []models.DependencyDescription{
					{TargetTitle: "Elsewhere", Type: models.DepFinishToStart},
				},
			},
		},
		{
			Title:     "Two",
			RootTopic: &models.TopicDescription{Title: "Elsewhere"},
		},
	})
	if !errors.Is(err, apperr.ErrReference) {
		t.Errorf("err = %v, want ErrReference", err)
	}
}

func TestBuild_LinkTargetMissing(t *testing.T) {
	_, err := Build([]models.SheetDescription{{
		Title:     "S",
		RootTopic: &models.TopicDescription{Title: "Root", LinkToTopic: "Ghost"},
	}})
	if !errors.Is(err, apperr.ErrReference) {
		t.Errorf("err = %v, want ErrReference", err)
	}
}

func TestBuild_RelationshipResolution(t *testing.T) {
	sheets, err := Build([]models.SheetDescription{{
		Title: "S",
		RootTopic: &models.TopicDescription{
			Title: "Root",
			Children: []*models.TopicDescription{
				{Title: "A"}, {Title: "B"},
			},
		},
		Relationships: []models.RelationshipDescription{
			{SourceTitle: "A", TargetTitle: "B", Title: "blocks"},
		},
	}})
	if err != nil {
		t.Fatal(err)
	}
	rels := sheets[0].Relationships
	if len(rels) != 1 {
		t.Fatalf("relationships = %+v", rels)
	}
	kids := sheets[0].RootTopic.Children.Attached
	if rels[0].End1ID != kids[0].ID || rels[0].End2ID != kids[1].ID {
		t.Errorf("relationship ends = %+v, topics %q %q", rels[0], kids[0].ID, kids[1].ID)
	}
	if rels[0].Title != "blocks" {
		t.Errorf("title = %q", rels[0].Title)
	}
}

func TestBuild_RelationshipEndMissing(t *testing.T) {
	_, err := Build([]models.SheetDescription{{
		Title:     "S",
		RootTopic: &models.TopicDescription{Title: "Root"},
		Relationships: []models.RelationshipDescription{
			{SourceTitle: "Root", TargetTitle: "Missing"},
		},
	}})
	if !errors.Is(err, apperr.ErrReference) {
		t.Errorf("err = %v, want ErrReference", err)
	}
}

func TestBuild_SummariesAndBoundaries(t *testing.T) {
	sheets, err := Build([]models.SheetDescription{{
		Title: "S",
		RootTopic: &models.TopicDescription{
			Title:      "Root",
			Boundaries: []models.BoundaryDescription{{Range: "(0,1)", Title: "phase 1"}},
			Summaries:  []models.SummaryDescription{{Range: "(0,1)", TopicTitle: "first two"}},
			Children: []*models.TopicDescription{
				{Title: "A"}, {Title: "B"},
			},
		},
	}})
	if err != nil {
		t.Fatal(err)
	}
	root := sheets[0].RootTopic
	if len(root.Boundaries) != 1 || root.Boundaries[0].Range != "(0,1)" || root.Boundaries[0].ID == "" {
		t.Errorf("boundaries = %+v", root.Boundaries)
	}
	if len(root.Summaries) != 1 || len(root.Children.Summary) != 1 {
		t.Fatalf("summaries = %+v, children = %+v", root.Summaries, root.Children)
	}
	if root.Summaries[0].TopicID != root.Children.Summary[0].ID {
		t.Errorf("summary topicId %q does not match synthetic topic %q",
			root.Summaries[0].TopicID, root.Children.Summary[0].ID)
	}
	if root.Children.Summary[0].Title != "first two" {
		t.Errorf("synthetic title = %q", root.Children.Summary[0].Title)
	}
}

func TestBuild_SyntheticSummaryNotLinkable(t *testing.T) {
	_, err := Build([]models.SheetDescription{{
		Title: "S",
		RootTopic: &models.TopicDescription{
			Title:       "Root",
			LinkToTopic: "synthetic",
			Summaries:   []models.SummaryDescription{{Range: "(0,0)", TopicTitle: "synthetic"}},
			Children:    []*models.TopicDescription{{Title: "A"}},
		},
	}})
	if !errors.Is(err, apperr.ErrReference) {
		t.Errorf("err = %v, want ErrReference", err)
	}
}

func TestBuild_MissingRoot(t *testing.T) {
	_, err := Build([]models.SheetDescription{{Title: "empty"}})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestBuild_NotesAndMarkers(t *testing.T) {
	sheets, err := Build([]models.SheetDescription{{
		Title: "S",
		RootTopic: &models.TopicDescription{
			Title:   "Root",
			Labels:  []string{"infra"},
			Markers: []string{"flag-red"},
			Notes:   &models.Notes{Content: "plain body"},
		},
	}})
	if err != nil {
		t.Fatal(err)
	}
	root := sheets[0].RootTopic
	if len(root.Labels) != 1 || root.Labels[0] != "infra" {
		t.Errorf("labels = %v", root.Labels)
	}
	if len(root.Markers) != 1 || root.Markers[0].MarkerID != "flag-red" {
		t.Errorf("markers = %+v", root.Markers)
	}
	if root.Notes == nil || root.Notes.Plain == nil || root.Notes.Plain.Content != "plain body" {
		t.Errorf("notes = %+v", root.Notes)
	}
	if root.Notes.HTML != nil {
		t.Errorf("unexpected html note: %+v", root.Notes.HTML)
	}
}

func TestTheme_KnownAndUnknown(t *testing.T) {
	th := Theme("default")
	if len(th) == 0 {
		t.Error("default theme is empty")
	}
	if got := Theme("no-such-theme"); len(got) != 0 {
		t.Errorf("unknown theme = %v, want empty", got)
	}
}
