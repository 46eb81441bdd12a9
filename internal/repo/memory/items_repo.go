package memory

import (
	"context"
	"sort"
	"time"

	"github.com/wardrobeapp/wardrobe/internal/domain/item"
)

type ItemsRepo struct {
	s *Store
}

func (r *ItemsRepo) Create(_ context.Context, userID int64, f item.Fields, imagePath *string) (item.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextItemID++

	it := item.Item{
		ID:        r.s.nextItemID,
		UserID:    userID,
		Name:      f.Name,
		Category:  f.Category,
		Color:     f.Color,
		Style:     f.Style,
		Season:    f.Season,
		ImagePath: imagePath,
		CreatedAt: time.Now().UTC(),
	}

	r.s.items[it.ID] = it

	return it, nil
}

func (r *ItemsRepo) ListByOwner(_ context.Context, userID int64) ([]item.Item, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]item.Item, 0)

	for _, it := range r.s.items {
		if it.UserID == userID {
			out = append(out, it)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (r *ItemsRepo) GetOwned(_ context.Context, userID, id int64) (item.Item, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	it, ok := r.s.items[id]

	if !ok {
		return item.Item{}, item.ErrNotFound
	}

	if it.UserID != userID {
		return item.Item{}, item.ErrForbidden
	}

	return it, nil
}

func (r *ItemsRepo) Update(_ context.Context, userID, id int64, f item.Fields, imagePath *string) (item.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	it, ok := r.s.items[id]

	if !ok || it.UserID != userID {
		return item.Item{}, item.ErrNotFound
	}

	it.Name = f.Name
	it.Category = f.Category
	it.Color = f.Color
	it.Style = f.Style
	it.Season = f.Season

	if imagePath != nil {
		it.ImagePath = imagePath
	}

	r.s.items[id] = it

	return it, nil
}

func (r *ItemsRepo) Delete(_ context.Context, userID, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	it, ok := r.s.items[id]

	if !ok || it.UserID != userID {
		return item.ErrNotFound
	}

	delete(r.s.items, id)

	// join rows cascade, capsules themselves are untouched
	for _, set := range r.s.links {
		delete(set, id)
	}

	return nil
}

func (r *ItemsRepo) AllImagePaths(_ context.Context) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]string, 0)

	for _, it := range r.s.items {
		if it.ImagePath != nil {
			out = append(out, *it.ImagePath)
		}
	}

	sort.Strings(out)

	return out, nil
}
