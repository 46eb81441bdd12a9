package capsule

import (
	"errors"
	"time"

	"github.com/wardrobeapp/wardrobe/internal/domain/item"
)

var (
	ErrNotFound  = errors.New("capsule not found")
	ErrForbidden = errors.New("capsule belongs to another user")
)

type Capsule struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	// Layout is an opaque JSON string describing item positions on the
	// canvas. The backend stores and returns it verbatim; the schema belongs
	// to the frontend.
	Layout      *string     `json:"layout"`
	Description *string     `json:"description"`
	ImagePath   *string     `json:"image_path"`
	CreatedAt   time.Time   `json:"created_at"`
	Items       []item.Item `json:"items"`
}

// Fields is the writable attribute set. Layout and ItemIDs are mandatory on
// every write; ItemIDs always replaces the whole association set, and an
// empty list clears it. Ids owned by other users are silently dropped, never
// rejected.
type Fields struct {
	Name    string  `form:"name" binding:"required,max=100"`
	Layout  *string `form:"layout" binding:"required"`
	ItemIDs []int64 `form:"-"`
}
