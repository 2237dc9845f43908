package resolver

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/adalgu/notion-hugo-flow/internal/notion"
	"github.com/adalgu/notion-hugo-flow/pkg/types"
)

// fakeAPI is an in-memory remote for the state machine.
type fakeAPI struct {
	refStatus   string
	refErr      error
	schema      map[string]string
	addErr      error
	added       map[string]string
	createErr   error
	createdID   string
	recordCount int
}

func (f *fakeAPI) ValidateRef(ctx context.Context, ref string) (string, error) {
	return f.refStatus, f.refErr
}

func (f *fakeAPI) RetrieveContainer(ctx context.Context, id string) (*notion.ContainerInfo, error) {
	return &notion.ContainerInfo{ID: id, Title: "Posts", Properties: f.schema}, nil
}

func (f *fakeAPI) AddSchemaFields(ctx context.Context, containerID string, fields map[string]string) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.added = fields
	for name, kind := range fields {
		f.schema[name] = kind
	}
	return nil
}

func (f *fakeAPI) CreateContainer(ctx context.Context, parentPageID, title string, fields map[string]string) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.createdID = "new-db"
	f.schema = fields
	return f.createdID, nil
}

func (f *fakeAPI) EstimateRecordCount(ctx context.Context, containerID string, limit int) (int, error) {
	return f.recordCount, nil
}

func testRules() []types.MappingRule {
	return []types.MappingRule{
		{TargetKey: "title", SourceKeys: []string{"title"}, Required: true},
		{TargetKey: "date", SourceKeys: []string{"date", types.SourceCreatedTime}, Transform: types.TransformDatePassthrough, Required: true},
		{TargetKey: "draft", SourceKeys: []string{"isPublished"}, Transform: types.TransformInverseBoolean},
		{TargetKey: "notion_id", SourceKeys: []string{types.SourceRecordID}, Required: true},
	}
}

func TestResolveCompleteSchema(t *testing.T) {
	api := &fakeAPI{
		refStatus: notion.RefValidContainer,
		schema:    map[string]string{"title": "title", "isPublished": "checkbox"},
	}
	r := New(api, testRules(), Options{LargeThreshold: 100}, nil)

	res, err := r.Resolve(context.Background(), "db-1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.State != StateSchemaComplete {
		t.Errorf("state = %q, want schema_complete", res.State)
	}
	if len(res.CreatedFields) != 0 {
		t.Errorf("CreatedFields = %v, want none", res.CreatedFields)
	}
}

func TestResolveRequiredWithSystemFallbackIsSatisfied(t *testing.T) {
	// "date" is required but falls back to created_time, which always
	// exists; a schema without a date property is still complete.
	api := &fakeAPI{
		refStatus: notion.RefValidContainer,
		schema:    map[string]string{"title": "title"},
	}
	r := New(api, testRules(), Options{}, nil)

	res, err := r.Resolve(context.Background(), "db-1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.State != StateSchemaComplete {
		t.Errorf("state = %q, want schema_complete", res.State)
	}
}

func TestResolveIncompleteWithoutRepairBlocks(t *testing.T) {
	api := &fakeAPI{refStatus: notion.RefValidContainer, schema: map[string]string{}}
	r := New(api, testRules(), Options{AutoRepair: false}, nil)

	res, err := r.Resolve(context.Background(), "db-1")
	if res.State != StateSchemaIncomplete {
		t.Errorf("state = %q, want schema_incomplete", res.State)
	}
	var se *types.SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *types.SchemaError", err)
	}
	if len(se.MissingFields) != 1 || se.MissingFields[0] != "title" {
		t.Errorf("MissingFields = %v, want [title]", se.MissingFields)
	}
}

func TestResolveAutoRepairAdditive(t *testing.T) {
	api := &fakeAPI{refStatus: notion.RefValidContainer, schema: map[string]string{"existing": "rich_text"}}
	r := New(api, testRules(), Options{AutoRepair: true}, nil)

	res, err := r.Resolve(context.Background(), "db-1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.State != StateSchemaComplete {
		t.Errorf("state = %q, want schema_complete", res.State)
	}
	if len(res.CreatedFields) != 1 || res.CreatedFields[0] != "title" {
		t.Errorf("CreatedFields = %v, want [title]", res.CreatedFields)
	}
	// Repair only adds; the existing field is untouched.
	if _, ok := api.schema["existing"]; !ok {
		t.Error("existing schema field was removed")
	}
	if api.added["title"] != "title" {
		t.Errorf("created title field type = %q, want title", api.added["title"])
	}
}

func TestResolveRepairFailureWithoutFallbackNamesCreateCapability(t *testing.T) {
	api := &fakeAPI{
		refStatus: notion.RefValidContainer,
		schema:    map[string]string{},
		addErr:    &types.RemoteError{Status: http.StatusBadRequest, Message: "cannot update"},
	}
	r := New(api, testRules(), Options{AutoRepair: true}, nil)

	res, err := r.Resolve(context.Background(), "db-1")
	if res.State != StateSchemaIncomplete {
		t.Errorf("state = %q, want schema_incomplete", res.State)
	}
	var ce *types.CapabilityError
	if !errors.As(err, &ce) {
		t.Fatalf("error = %v, want *types.CapabilityError", err)
	}
	if ce.Capability != "create" {
		t.Errorf("capability = %q, want create", ce.Capability)
	}
}

func TestResolveRepairFailureFallsBackToNewContainer(t *testing.T) {
	api := &fakeAPI{
		refStatus: notion.RefValidContainer,
		schema:    map[string]string{},
		addErr:    &types.RemoteError{Status: http.StatusBadRequest, Message: "cannot update"},
	}
	r := New(api, testRules(), Options{
		AutoRepair:       true,
		ConfirmCreate:    true,
		FallbackParentID: "page-9",
	}, nil)

	res, err := r.Resolve(context.Background(), "db-1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.State != StateContainerCreated {
		t.Errorf("state = %q, want container_created", res.State)
	}
	if res.ContainerID != "new-db" {
		t.Errorf("ContainerID = %q, want new-db", res.ContainerID)
	}
	for _, field := range []string{"title", "date"} {
		if _, ok := api.schema[field]; !ok {
			t.Errorf("replacement container schema missing %q", field)
		}
	}
}

func TestResolveRepairDeclinedWithConfirmedFallbackCreates(t *testing.T) {
	api := &fakeAPI{refStatus: notion.RefValidContainer, schema: map[string]string{}}
	r := New(api, testRules(), Options{
		AutoRepair:       false,
		ConfirmCreate:    true,
		FallbackParentID: "page-9",
	}, nil)

	res, err := r.Resolve(context.Background(), "db-1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.State != StateContainerCreated {
		t.Errorf("state = %q, want container_created", res.State)
	}
	if api.added != nil {
		t.Error("declined repair must not touch the original schema")
	}
}

func TestResolvePageNeedsConfirmation(t *testing.T) {
	api := &fakeAPI{refStatus: notion.RefPageNoContainer}
	r := New(api, testRules(), Options{}, nil)

	res, err := r.Resolve(context.Background(), "page-1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.State != StatePageNoContainer {
		t.Errorf("state = %q, want valid_page_no_container", res.State)
	}
	if res.Recommendation == "" {
		t.Error("expected a recommendation explaining confirmation")
	}
}

func TestResolvePageCreatesContainerOnConfirm(t *testing.T) {
	api := &fakeAPI{refStatus: notion.RefPageNoContainer}
	r := New(api, testRules(), Options{ConfirmCreate: true}, nil)

	res, err := r.Resolve(context.Background(), "page-1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.State != StateContainerCreated {
		t.Errorf("state = %q, want container_created", res.State)
	}
	if res.ContainerID != "new-db" {
		t.Errorf("ContainerID = %q, want new-db", res.ContainerID)
	}
	// The new schema carries every required mapping field.
	for _, field := range []string{"title", "date"} {
		if _, ok := api.schema[field]; !ok {
			t.Errorf("new container schema missing %q", field)
		}
	}
}

func TestResolveInvalidNamesCapability(t *testing.T) {
	api := &fakeAPI{
		refStatus: notion.RefInvalid,
		refErr:    &types.RemoteError{Status: http.StatusForbidden, Message: "no access"},
	}
	r := New(api, testRules(), Options{}, nil)

	res, err := r.Resolve(context.Background(), "db-1")
	if res.State != StateInvalid {
		t.Errorf("state = %q, want invalid", res.State)
	}
	var ce *types.CapabilityError
	if !errors.As(err, &ce) {
		t.Fatalf("error = %v, want *types.CapabilityError", err)
	}
	if ce.Capability != "read" {
		t.Errorf("capability = %q, want read", ce.Capability)
	}
}

func TestResolveLargeContainerGuard(t *testing.T) {
	api := &fakeAPI{
		refStatus:   notion.RefValidContainer,
		schema:      map[string]string{"title": "title"},
		recordCount: 5000,
	}
	r := New(api, testRules(), Options{LargeThreshold: 1000}, nil)

	res, err := r.Resolve(context.Background(), "db-1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	// The guard recommends, never errors or truncates.
	if res.Recommendation == "" {
		t.Error("expected a sampling recommendation")
	}
	if res.EstimatedCount != 5000 {
		t.Errorf("EstimatedCount = %d, want 5000", res.EstimatedCount)
	}
}
