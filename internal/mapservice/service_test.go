package mapservice

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dagrev/xmap/internal/apperr"
	"github.com/dagrev/xmap/internal/models"
	"github.com/dagrev/xmap/internal/query"
	"github.com/dagrev/xmap/internal/testutil"
)

func newService(t *testing.T) (string, *Service) {
	t.Helper()
	dir, store := testutil.TestWorkspace(t)
	return dir, NewService(store, nil)
}

func planSheets() []models.SheetDescription {
	return []models.SheetDescription{
		{
			Title: "Plan",
			RootTopic: &models.TopicDescription{
				Title: "Deployment",
				Children: []*models.TopicDescription{
					{Title: "Analysis", DurationDays: 3, Notes: &models.Notes{Content: "scope the work"}},
					{
						Title:        "Development",
						DurationDays: 5,
						TaskStatus:   models.TaskTodo,
						Dependencies: []models.DependencyDescription{
							{TargetTitle: "Analysis", Type: models.DepFinishToStart},
						},
					},
				},
			},
		},
	}
}

func TestCreateAndReadMap_RoundTrip(t *testing.T) {
	dir, svc := newService(t)
	ctx := context.Background()
	p := filepath.Join(dir, "plan.xmind")

	abs, err := svc.CreateMap(ctx, p, planSheets(), false)
	if err != nil {
		t.Fatalf("CreateMap: %v", err)
	}
	if abs != p {
		t.Errorf("resolved path = %q, want %q", abs, p)
	}

	forest, err := svc.ReadMap(ctx, p)
	if err != nil {
		t.Fatalf("ReadMap: %v", err)
	}
	if len(forest) != 1 {
		t.Fatalf("forest = %d sheets", len(forest))
	}
	root := forest[0]
	if root.Title != "Deployment" || root.SheetTitle != "Plan" {
		t.Errorf("root = %+v", root)
	}
	if len(root.Children) != 2 {
		t.Fatalf("children = %d", len(root.Children))
	}
	dev := root.Children[1]
	if dev.TaskStatus != models.TaskTodo {
		t.Errorf("task status = %q", dev.TaskStatus)
	}
	// The title reference comes back as the generated id of Analysis.
	if len(dev.Dependencies) != 1 || dev.Dependencies[0].ID != root.Children[0].ID {
		t.Errorf("dependencies = %+v", dev.Dependencies)
	}
}

func TestCreateMap_WrongExtension(t *testing.T) {
	dir, svc := newService(t)
	_, err := svc.CreateMap(context.Background(), filepath.Join(dir, "plan.zip"), planSheets(), false)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestCreateMap_NoSheets(t *testing.T) {
	dir, svc := newService(t)
	_, err := svc.CreateMap(context.Background(), filepath.Join(dir, "plan.xmind"), nil, false)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestCreateMap_InvalidDescription(t *testing.T) {
	dir, svc := newService(t)
	bad := []models.SheetDescription{{
		Title:     "Bad",
		RootTopic: &models.TopicDescription{Title: "Root", Priority: 42},
	}}
	_, err := svc.CreateMap(context.Background(), filepath.Join(dir, "bad.xmind"), bad, false)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestCreateMap_OverwriteGuard(t *testing.T) {
	dir, svc := newService(t)
	ctx := context.Background()
	p := filepath.Join(dir, "plan.xmind")

	if _, err := svc.CreateMap(ctx, p, planSheets(), false); err != nil {
		t.Fatalf("first CreateMap: %v", err)
	}
	_, err := svc.CreateMap(ctx, p, planSheets(), false)
	if !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Fatalf("err = %v, want ErrAlreadyExists", err)
	}
	if _, err := svc.CreateMap(ctx, p, planSheets(), true); err != nil {
		t.Errorf("overwrite CreateMap: %v", err)
	}
}

func TestCreateMap_BrokenReferenceWritesNothing(t *testing.T) {
	dir, svc := newService(t)
	ctx := context.Background()
	p := filepath.Join(dir, "broken.xmind")
	bad := []models.SheetDescription{{
		Title:     "S",
		RootTopic: &models.TopicDescription{Title: "Root", LinkToTopic: "Ghost"},
	}}
	if _, err := svc.CreateMap(ctx, p, bad, false); !errors.Is(err, apperr.ErrReference) {
		t.Fatalf("err = %v, want ErrReference", err)
	}
	if _, err := svc.ReadMap(ctx, p); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("file should not exist after failed build, got %v", err)
	}
}

func TestReadMap_NotFound(t *testing.T) {
	dir, svc := newService(t)
	_, err := svc.ReadMap(context.Background(), filepath.Join(dir, "missing.xmind"))
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestReadMany_BatchIsolation(t *testing.T) {
	dir, svc := newService(t)
	ctx := context.Background()
	good := filepath.Join(dir, "good.xmind")
	if _, err := svc.CreateMap(ctx, good, planSheets(), false); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(dir, "missing.xmind")

	results := svc.ReadMany(ctx, []string{good, missing})
	if len(results) != 2 {
		t.Fatalf("results = %d", len(results))
	}
	if results[0].Error != "" || len(results[0].Sheets) != 1 {
		t.Errorf("good result = %+v", results[0])
	}
	if results[1].Error == "" || results[1].Sheets != nil {
		t.Errorf("missing result = %+v", results[1])
	}
}

func TestExtractNode(t *testing.T) {
	dir, svc := newService(t)
	ctx := context.Background()
	p := filepath.Join(dir, "plan.xmind")
	if _, err := svc.CreateMap(ctx, p, planSheets(), false); err != nil {
		t.Fatal(err)
	}

	node, err := svc.ExtractNode(ctx, p, "deployment > analysis")
	if err != nil {
		t.Fatalf("ExtractNode: %v", err)
	}
	if node.Title != "Analysis" {
		t.Errorf("node = %+v", node)
	}

	if _, err := svc.ExtractNode(ctx, p, "NoSuchRoot > x"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, err := svc.ExtractNode(ctx, p, "   "); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestExtractNodeByID(t *testing.T) {
	dir, svc := newService(t)
	ctx := context.Background()
	p := filepath.Join(dir, "plan.xmind")
	if _, err := svc.CreateMap(ctx, p, planSheets(), false); err != nil {
		t.Fatal(err)
	}
	forest, _ := svc.ReadMap(ctx, p)
	want := forest[0].Children[0]

	node, found, err := svc.ExtractNodeByID(ctx, p, want.ID)
	if err != nil || !found {
		t.Fatalf("ExtractNodeByID: %v, found=%v", err, found)
	}
	if node.Title != "Analysis" {
		t.Errorf("node = %+v", node)
	}

	_, found, err = svc.ExtractNodeByID(ctx, p, "nonexistent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Error("found = true for missing id")
	}
}

func TestSearchFuzzyAndFields(t *testing.T) {
	dir, svc := newService(t)
	ctx := context.Background()
	p := filepath.Join(dir, "plan.xmind")
	if _, err := svc.CreateMap(ctx, p, planSheets(), false); err != nil {
		t.Fatal(err)
	}

	fuzzy, err := svc.SearchFuzzy(ctx, p, "development", 0)
	if err != nil {
		t.Fatalf("SearchFuzzy: %v", err)
	}
	if len(fuzzy) == 0 || fuzzy[0].Topic.Title != "Development" {
		t.Errorf("fuzzy = %+v", fuzzy)
	}
	if !strings.Contains(fuzzy[0].Path, "Deployment > Development") {
		t.Errorf("path = %q", fuzzy[0].Path)
	}

	fields, err := svc.SearchFields(ctx, p, "scope", query.SearchOptions{Fields: []string{query.FieldNotes}})
	if err != nil {
		t.Fatalf("SearchFields: %v", err)
	}
	if len(fields) != 1 || fields[0].Topic.Title != "Analysis" {
		t.Errorf("fields = %+v", fields)
	}
}

func TestListAndFindFiles(t *testing.T) {
	dir, svc := newService(t)
	ctx := context.Background()
	if _, err := svc.CreateMap(ctx, filepath.Join(dir, "alpha.xmind"), planSheets(), false); err != nil {
		t.Fatal(err)
	}

	paths, err := svc.ListMaps(ctx, "")
	if err != nil {
		t.Fatalf("ListMaps: %v", err)
	}
	if len(paths) != 1 {
		t.Errorf("paths = %v", paths)
	}

	found, err := svc.FindFiles(ctx, "alpha")
	if err != nil {
		t.Fatalf("FindFiles: %v", err)
	}
	if len(found) != 1 {
		t.Errorf("found = %v", found)
	}
}

func TestCreateMap_IndexesCatalog(t *testing.T) {
	dir, store := testutil.TestWorkspace(t)
	db := testutil.TestCatalog(t)
	svc := NewService(store, db)

	p := filepath.Join(dir, "indexed.xmind")
	if _, err := svc.CreateMap(context.Background(), p, planSheets(), false); err != nil {
		t.Fatal(err)
	}
	rows, total, err := db.ListArchives(10, 0)
	if err != nil {
		t.Fatalf("ListArchives: %v", err)
	}
	if total != 1 || len(rows) != 1 || rows[0].Path != p {
		t.Errorf("rows = %+v, total = %d", rows, total)
	}
}
