package item

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("item not found")
	// ErrForbidden means the row exists but belongs to another user. The two
	// cases stay distinguishable on purpose: the true owner gets a 404 only
	// for ids that really do not exist.
	ErrForbidden = errors.New("item belongs to another user")
)

type Item struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	Category  *string   `json:"category"`
	Color     *string   `json:"color"`
	Style     *string   `json:"style"`
	Season    *string   `json:"season"`
	ImagePath *string   `json:"image_path"`
	CreatedAt time.Time `json:"created_at"`
}

// Fields is the editable attribute set, bound from a multipart form. Updates
// replace all of these wholesale; an omitted optional field becomes NULL.
type Fields struct {
	Name     string  `form:"name" binding:"required,max=100"`
	Category *string `form:"category" binding:"omitempty,max=50"`
	Color    *string `form:"color" binding:"omitempty,max=50"`
	Style    *string `form:"style" binding:"omitempty,max=50"`
	Season   *string `form:"season" binding:"omitempty,max=50"`
}
