// Package memory implements the repositories on maps, matching the postgres
// semantics closely enough to back handler and service tests without a DB.
package memory

import (
	"sync"

	"github.com/wardrobeapp/wardrobe/internal/domain/capsule"
	"github.com/wardrobeapp/wardrobe/internal/domain/item"
	"github.com/wardrobeapp/wardrobe/internal/domain/user"
)

// Store owns all entity maps so cross-entity rules (join-row cascade on item
// delete) behave like the real schema's ON DELETE CASCADE.
type Store struct {
	mu sync.RWMutex

	users    map[int64]user.User
	byEmail  map[string]int64
	items    map[int64]item.Item
	capsules map[int64]capsule.Capsule
	links    map[int64]map[int64]struct{} // capsule id -> item id set

	nextUserID    int64
	nextItemID    int64
	nextCapsuleID int64
}

func NewStore() *Store {
	return &Store{
		users:    make(map[int64]user.User),
		byEmail:  make(map[string]int64),
		items:    make(map[int64]item.Item),
		capsules: make(map[int64]capsule.Capsule),
		links:    make(map[int64]map[int64]struct{}),
	}
}

func (s *Store) Users() *UsersRepo       { return &UsersRepo{s: s} }
func (s *Store) Items() *ItemsRepo       { return &ItemsRepo{s: s} }
func (s *Store) Capsules() *CapsulesRepo { return &CapsulesRepo{s: s} }
