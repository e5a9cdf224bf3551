package template

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

type fakeRepository struct {
	templates []PhotoTemplate
}

func (f *fakeRepository) ListActive(_ context.Context) ([]PhotoTemplate, error) {
	var out []PhotoTemplate
	for _, t := range f.templates {
		if t.IsActive {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeRepository) GetByID(_ context.Context, id uuid.UUID) (*PhotoTemplate, error) {
	for i, t := range f.templates {
		if t.ID == id {
			return &f.templates[i], nil
		}
	}
	return nil, nil
}

func (f *fakeRepository) Upsert(_ context.Context, t *PhotoTemplate) error {
	f.templates = append(f.templates, *t)
	return nil
}

const secretPrompt = "dark moody secret steering text"

func testRepo() *fakeRepository {
	return &fakeRepository{templates: []PhotoTemplate{
		{
			ID:          uuid.New(),
			Slug:        "gourmet-escuro",
			Name:        "Gourmet Escuro",
			AspectRatio: "4:5",
			Prompt:      secretPrompt,
			IsActive:    true,
		},
		{
			ID:       uuid.New(),
			Slug:     "desativado",
			Name:     "Desativado",
			Prompt:   secretPrompt,
			IsActive: false,
		},
	}}
}

func TestListHidesPromptAndInactive(t *testing.T) {
	repo := testRepo()
	h := NewHandler(repo)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, secretPrompt) {
		t.Error("response leaked internal prompt text")
	}
	if strings.Contains(body, "prompt") {
		t.Error("response contains a prompt field")
	}

	var envelope struct {
		Data []ListItemResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatal(err)
	}
	if len(envelope.Data) != 1 {
		t.Errorf("listed %d templates, want 1 active", len(envelope.Data))
	}
	if envelope.Data[0].AspectRatio != "4:5" {
		t.Errorf("aspectRatio = %q, want 4:5", envelope.Data[0].AspectRatio)
	}
}

func TestGetIncludesInternalPrompt(t *testing.T) {
	repo := testRepo()
	h := NewHandler(repo)

	r := Routes(h)
	req := httptest.NewRequest(http.MethodGet, "/"+repo.templates[0].ID.String(), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var envelope struct {
		Data DetailResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatal(err)
	}
	if envelope.Data.InternalPrompt != secretPrompt {
		t.Errorf("internalPrompt = %q, want the stored prompt", envelope.Data.InternalPrompt)
	}
	if envelope.Data.AspectRatio != "4:5" {
		t.Errorf("aspectRatio = %q, want 4:5", envelope.Data.AspectRatio)
	}
}

func TestSeedCatalogHasAspectRatios(t *testing.T) {
	valid := map[string]bool{
		"1:1": true, "4:5": true, "5:4": true, "3:4": true,
		"4:3": true, "9:16": true, "16:9": true,
	}
	for _, tmpl := range SeedData {
		if !valid[tmpl.AspectRatio] {
			t.Errorf("template %s has aspect ratio %q", tmpl.Slug, tmpl.AspectRatio)
		}
	}
}

func TestGetInactiveIsNotFound(t *testing.T) {
	repo := testRepo()
	h := NewHandler(repo)

	r := Routes(h)
	req := httptest.NewRequest(http.MethodGet, "/"+repo.templates[1].ID.String(), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
