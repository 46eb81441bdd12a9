package memory

import (
	"context"
	"time"

	"github.com/wardrobeapp/wardrobe/internal/domain/user"
)

type UsersRepo struct {
	s *Store
}

func (r *UsersRepo) Create(_ context.Context, email, passwordHash, name string) (user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.byEmail[email]; exists {
		return user.User{}, user.ErrEmailTaken
	}

	r.s.nextUserID++

	u := user.User{
		ID:           r.s.nextUserID,
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	r.s.users[u.ID] = u
	r.s.byEmail[email] = u.ID

	return u, nil
}

func (r *UsersRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.byEmail[email]

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return r.s.users[id], nil
}
