package memory

import (
	"context"
	"sort"
	"time"

	"github.com/wardrobeapp/wardrobe/internal/domain/capsule"
	"github.com/wardrobeapp/wardrobe/internal/domain/item"
)

type CapsulesRepo struct {
	s *Store
}

func (r *CapsulesRepo) Create(_ context.Context, userID int64, f capsule.Fields, imagePath *string) (capsule.Capsule, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextCapsuleID++

	c := capsule.Capsule{
		ID:        r.s.nextCapsuleID,
		UserID:    userID,
		Name:      f.Name,
		Layout:    f.Layout,
		ImagePath: imagePath,
		CreatedAt: time.Now().UTC(),
	}

	r.s.capsules[c.ID] = c
	r.s.links[c.ID] = r.ownedSet(userID, f.ItemIDs)

	c.Items = r.linkedItems(c.ID)

	return c, nil
}

func (r *CapsulesRepo) ListByOwner(_ context.Context, userID int64) ([]capsule.Capsule, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]capsule.Capsule, 0)

	for _, c := range r.s.capsules {
		if c.UserID == userID {
			c.Items = r.linkedItems(c.ID)
			out = append(out, c)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (r *CapsulesRepo) GetOwned(_ context.Context, userID, id int64) (capsule.Capsule, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.capsules[id]

	if !ok {
		return capsule.Capsule{}, capsule.ErrNotFound
	}

	if c.UserID != userID {
		return capsule.Capsule{}, capsule.ErrForbidden
	}

	c.Items = r.linkedItems(id)

	return c, nil
}

func (r *CapsulesRepo) Update(_ context.Context, userID, id int64, f capsule.Fields, imagePath *string) (capsule.Capsule, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.capsules[id]

	if !ok || c.UserID != userID {
		return capsule.Capsule{}, capsule.ErrNotFound
	}

	c.Name = f.Name
	c.Layout = f.Layout

	if imagePath != nil {
		c.ImagePath = imagePath
	}

	r.s.capsules[id] = c
	r.s.links[id] = r.ownedSet(userID, f.ItemIDs)

	c.Items = r.linkedItems(id)

	return c, nil
}

func (r *CapsulesRepo) Delete(_ context.Context, userID, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.capsules[id]

	if !ok || c.UserID != userID {
		return capsule.ErrNotFound
	}

	delete(r.s.capsules, id)
	delete(r.s.links, id)

	return nil
}

// ownedSet filters ids to the caller's items, silently dropping the rest.
func (r *CapsulesRepo) ownedSet(userID int64, ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{})

	for _, id := range ids {
		it, ok := r.s.items[id]

		if ok && it.UserID == userID {
			set[id] = struct{}{}
		}
	}

	return set
}

func (r *CapsulesRepo) linkedItems(capsuleID int64) []item.Item {
	out := make([]item.Item, 0)

	for id := range r.s.links[capsuleID] {
		if it, ok := r.s.items[id]; ok {
			out = append(out, it)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out
}
