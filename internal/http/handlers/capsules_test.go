package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wardrobeapp/wardrobe/internal/domain/capsule"
	"github.com/wardrobeapp/wardrobe/internal/domain/item"
	"github.com/wardrobeapp/wardrobe/internal/http/handlers"
)

// Fake repository implementation of the handlers.CapsulesStore interface

type fakeCapsulesRepo struct {
	createFn func(ctx context.Context, userID int64, f capsule.Fields, imagePath *string) (capsule.Capsule, error)
	listFn   func(ctx context.Context, userID int64) ([]capsule.Capsule, error)
	getFn    func(ctx context.Context, userID, id int64) (capsule.Capsule, error)
	updateFn func(ctx context.Context, userID, id int64, f capsule.Fields, imagePath *string) (capsule.Capsule, error)
	deleteFn func(ctx context.Context, userID, id int64) error
}

func (f *fakeCapsulesRepo) Create(ctx context.Context, userID int64, fl capsule.Fields, imagePath *string) (capsule.Capsule, error) {
	if f.createFn != nil {
		return f.createFn(ctx, userID, fl, imagePath)
	}

	return capsule.Capsule{}, nil
}

func (f *fakeCapsulesRepo) ListByOwner(ctx context.Context, userID int64) ([]capsule.Capsule, error) {
	if f.listFn != nil {
		return f.listFn(ctx, userID)
	}

	return nil, nil
}

func (f *fakeCapsulesRepo) GetOwned(ctx context.Context, userID, id int64) (capsule.Capsule, error) {
	if f.getFn != nil {
		return f.getFn(ctx, userID, id)
	}

	return capsule.Capsule{}, nil
}

func (f *fakeCapsulesRepo) Update(ctx context.Context, userID, id int64, fl capsule.Fields, imagePath *string) (capsule.Capsule, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, userID, id, fl, imagePath)
	}

	return capsule.Capsule{}, nil
}

func (f *fakeCapsulesRepo) Delete(ctx context.Context, userID, id int64) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, userID, id)
	}

	return nil
}

func TestCreateCapsuleHandler(t *testing.T) {
	tests := []struct {
		name           string
		fields         map[string]string
		repoSetUp      func(*fakeCapsulesRepo)
		wantStatusCode int
		wantItemIDs    []int64
	}{
		{
			name: "success_with_items",
			fields: map[string]string{
				"name":     "Summer travel",
				"layout":   `{"positions": []}`,
				"item_ids": `[3, 5, 8]`,
			},
			repoSetUp: func(f *fakeCapsulesRepo) {
				f.createFn = func(ctx context.Context, userID int64, fl capsule.Fields, imagePath *string) (capsule.Capsule, error) {
					return capsule.Capsule{
						ID:     1,
						UserID: userID,
						Name:   fl.Name,
						Layout: fl.Layout,
						Items:  []item.Item{{ID: 3}, {ID: 5}, {ID: 8}},
					}, nil
				}
			},
			wantStatusCode: http.StatusCreated,
			wantItemIDs:    []int64{3, 5, 8},
		},
		{
			name: "empty_item_ids_list",
			fields: map[string]string{
				"name":     "Empty capsule",
				"layout":   `{}`,
				"item_ids": `[]`,
			},
			wantStatusCode: http.StatusCreated,
			wantItemIDs:    []int64{},
		},
		{
			// the association set is replaced on every write, so the field
			// can never be left out
			name: "missing_item_ids_field",
			fields: map[string]string{
				"name":   "Empty capsule",
				"layout": `{}`,
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "malformed_item_ids",
			fields: map[string]string{
				"name":     "Broken",
				"layout":   `{}`,
				"item_ids": `[3, "oops"]`,
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "missing_layout",
			fields: map[string]string{
				"name":     "No canvas",
				"item_ids": `[1]`,
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "missing_name",
			fields:         map[string]string{"layout": `{}`, "item_ids": `[1]`},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "repo_error",
			fields: map[string]string{
				"name":     "Summer travel",
				"layout":   `{}`,
				"item_ids": `[]`,
			},
			repoSetUp: func(f *fakeCapsulesRepo) {
				f.createFn = func(ctx context.Context, userID int64, fl capsule.Fields, imagePath *string) (capsule.Capsule, error) {
					return capsule.Capsule{}, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeCapsulesRepo{}

			var gotIDs []int64

			if tt.repoSetUp != nil {
				tt.repoSetUp(repo)
			}

			// wrap to capture parsed item ids on every variant
			inner := repo.createFn
			repo.createFn = func(ctx context.Context, userID int64, fl capsule.Fields, imagePath *string) (capsule.Capsule, error) {
				gotIDs = fl.ItemIDs

				if inner != nil {
					return inner(ctx, userID, fl, imagePath)
				}

				return capsule.Capsule{ID: 1, UserID: userID, Name: fl.Name}, nil
			}

			h := handlers.NewCapsulesHandler(repo, &fakeImageStore{})

			r := authedRouter(http.MethodPost, "/capsules/", h.CreateCapsule)

			req := multipartRequest(t, http.MethodPost, "/capsules/", tt.fields, "", "", nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatusCode != http.StatusCreated {
				return
			}

			if len(gotIDs) != len(tt.wantItemIDs) {
				t.Fatalf("parsed item ids %v, want %v", gotIDs, tt.wantItemIDs)
			}

			for i := range gotIDs {
				if gotIDs[i] != tt.wantItemIDs[i] {
					t.Fatalf("parsed item ids %v, want %v", gotIDs, tt.wantItemIDs)
				}
			}
		})
	}
}

func TestUpdateCapsuleClearsAssociations(t *testing.T) {
	var gotIDs []int64
	touched := false

	repo := &fakeCapsulesRepo{
		getFn: func(ctx context.Context, userID, id int64) (capsule.Capsule, error) {
			return capsule.Capsule{ID: id, UserID: userID, Name: "Summer travel"}, nil
		},
		updateFn: func(ctx context.Context, userID, id int64, fl capsule.Fields, imagePath *string) (capsule.Capsule, error) {
			touched = true
			gotIDs = fl.ItemIDs

			return capsule.Capsule{ID: id, UserID: userID, Name: fl.Name, Items: []item.Item{}}, nil
		},
	}

	h := handlers.NewCapsulesHandler(repo, &fakeImageStore{})

	r := authedRouter(http.MethodPut, "/capsules/:id", h.UpdateCapsule)

	req := multipartRequest(t, http.MethodPut, "/capsules/4", map[string]string{
		"name":     "Summer travel",
		"layout":   `{"positions": []}`,
		"item_ids": `[]`,
	}, "", "", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	if !touched {
		t.Fatal("update never reached the repo")
	}

	if gotIDs == nil || len(gotIDs) != 0 {
		t.Fatalf("want explicit empty id list, got %v", gotIDs)
	}
}

// A PUT that forgets item_ids must not slip through and wipe the capsule's
// associations.

func TestUpdateCapsuleRequiresItemIDs(t *testing.T) {
	touched := false

	repo := &fakeCapsulesRepo{
		getFn: func(ctx context.Context, userID, id int64) (capsule.Capsule, error) {
			return capsule.Capsule{ID: id, UserID: userID, Name: "Summer travel"}, nil
		},
		updateFn: func(ctx context.Context, userID, id int64, fl capsule.Fields, imagePath *string) (capsule.Capsule, error) {
			touched = true

			return capsule.Capsule{ID: id, UserID: userID, Name: fl.Name}, nil
		},
	}

	h := handlers.NewCapsulesHandler(repo, &fakeImageStore{})

	r := authedRouter(http.MethodPut, "/capsules/:id", h.UpdateCapsule)

	req := multipartRequest(t, http.MethodPut, "/capsules/1", map[string]string{
		"name":   "Summer travel",
		"layout": `{"positions": []}`,
	}, "", "", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400, body=%s", w.Code, w.Body.String())
	}

	if touched {
		t.Fatal("update reached the repo without an item_ids field")
	}
}

func TestGetCapsuleOwnership(t *testing.T) {
	tests := []struct {
		name           string
		repoErr        error
		wantStatusCode int
	}{
		{name: "unknown_id", repoErr: capsule.ErrNotFound, wantStatusCode: http.StatusNotFound},
		{name: "foreign_id", repoErr: capsule.ErrForbidden, wantStatusCode: http.StatusForbidden},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeCapsulesRepo{
				getFn: func(ctx context.Context, userID, id int64) (capsule.Capsule, error) {
					return capsule.Capsule{}, tt.repoErr
				},
			}

			h := handlers.NewCapsulesHandler(repo, &fakeImageStore{})

			r := authedRouter(http.MethodGet, "/capsules/:id", h.GetCapsule)

			req := httptest.NewRequest(http.MethodGet, "/capsules/4", nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestDeleteCapsuleHandler(t *testing.T) {
	screenshot := "static/uploads/capsule_shot.png"

	repo := &fakeCapsulesRepo{
		getFn: func(ctx context.Context, userID, id int64) (capsule.Capsule, error) {
			return capsule.Capsule{ID: id, UserID: userID, Name: "Summer travel", ImagePath: &screenshot}, nil
		},
	}

	files := &fakeImageStore{}

	h := handlers.NewCapsulesHandler(repo, files)

	r := authedRouter(http.MethodDelete, "/capsules/:id", h.DeleteCapsule)

	req := httptest.NewRequest(http.MethodDelete, "/capsules/4", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var resp map[string]bool

	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}

	if !resp["ok"] {
		t.Fatalf("want {\"ok\": true}, got %s", w.Body.String())
	}

	if len(files.deletes) != 1 || files.deletes[0] != screenshot {
		t.Fatalf("screenshot not cleaned up: %v", files.deletes)
	}
}
