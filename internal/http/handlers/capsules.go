package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wardrobeapp/wardrobe/internal/config"
	"github.com/wardrobeapp/wardrobe/internal/domain/capsule"
	"github.com/wardrobeapp/wardrobe/internal/http/middlewares"
	"github.com/wardrobeapp/wardrobe/internal/imaging"
)

type CapsulesStore interface {
	Create(ctx context.Context, userID int64, f capsule.Fields, imagePath *string) (capsule.Capsule, error)
	ListByOwner(ctx context.Context, userID int64) ([]capsule.Capsule, error)
	GetOwned(ctx context.Context, userID, id int64) (capsule.Capsule, error)
	Update(ctx context.Context, userID, id int64, f capsule.Fields, imagePath *string) (capsule.Capsule, error)
	Delete(ctx context.Context, userID, id int64) error
}

type CapsulesHandler struct {
	repo  CapsulesStore
	files ImageStore
}

func NewCapsulesHandler(repo CapsulesStore, files ImageStore) *CapsulesHandler {
	return &CapsulesHandler{repo: repo, files: files}
}

func (h *CapsulesHandler) CreateCapsule(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	f, ok := bindCapsuleForm(ctx)

	if !ok {
		return
	}

	data, filename, found, err := readFormFile(ctx, "file")

	if err != nil {
		RespondBadRequest(ctx, "Could not read uploaded file", nil)
		return
	}

	var imagePath *string

	if found {
		p, err := h.storeCapsuleImage(data, filename)

		if err != nil {
			RespondInternal(ctx, "Could not store image")
			return
		}

		imagePath = &p
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	c, err := h.repo.Create(cctx, userID, f, imagePath)

	if err != nil {
		if imagePath != nil {
			h.files.Delete(*imagePath)
		}

		RespondInternal(ctx, "Could not create capsule")
		return
	}

	ctx.JSON(http.StatusCreated, c)
}

func (h *CapsulesHandler) ListCapsules(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	capsules, err := h.repo.ListByOwner(cctx, userID)

	if err != nil {
		RespondInternal(ctx, "Could not list capsules")
		return
	}

	ctx.JSON(http.StatusOK, capsules)
}

func (h *CapsulesHandler) GetCapsule(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	id, ok := parseID(ctx)

	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	c, err := h.repo.GetOwned(cctx, userID, id)

	if err != nil {
		respondCapsuleError(ctx, err, "fetch")
		return
	}

	ctx.JSON(http.StatusOK, c)
}

func (h *CapsulesHandler) UpdateCapsule(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	id, ok := parseID(ctx)

	if !ok {
		return
	}

	f, ok := bindCapsuleForm(ctx)

	if !ok {
		return
	}

	data, filename, found, err := readFormFile(ctx, "file")

	if err != nil {
		RespondBadRequest(ctx, "Could not read uploaded file", nil)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	existing, err := h.repo.GetOwned(cctx, userID, id)

	if err != nil {
		respondCapsuleError(ctx, err, "update")
		return
	}

	var newPath *string

	if found {
		if existing.ImagePath != nil {
			h.files.Delete(*existing.ImagePath)
		}

		p, err := h.storeCapsuleImage(data, filename)

		if err != nil {
			RespondInternal(ctx, "Could not store image")
			return
		}

		newPath = &p
	}

	c, err := h.repo.Update(cctx, userID, id, f, newPath)

	if err != nil {
		respondCapsuleError(ctx, err, "update")
		return
	}

	ctx.JSON(http.StatusOK, c)
}

func (h *CapsulesHandler) DeleteCapsule(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	id, ok := parseID(ctx)

	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	existing, err := h.repo.GetOwned(cctx, userID, id)

	if err != nil {
		respondCapsuleError(ctx, err, "delete")
		return
	}

	err = h.repo.Delete(cctx, userID, id)

	if err != nil {
		respondCapsuleError(ctx, err, "delete")
		return
	}

	if existing.ImagePath != nil {
		h.files.Delete(*existing.ImagePath)
	}

	ctx.JSON(http.StatusOK, gin.H{"ok": true})
}

// bindCapsuleForm binds the multipart fields and decodes item_ids, which
// arrives as a JSON array serialized into an ordinary form value. The field
// is mandatory on every write: the association set is always replaced
// wholesale, so an omitted list is a client bug, not an implicit no-op, and
// clearing a capsule is spelled item_ids=[].
func bindCapsuleForm(ctx *gin.Context) (capsule.Fields, bool) {
	var f capsule.Fields

	if !BindForm(ctx, &f) {
		return f, false
	}

	raw, found := ctx.GetPostForm("item_ids")

	if !found || raw == "" {
		RespondBadRequest(ctx, "item_ids is required", nil)
		return f, false
	}

	if err := json.Unmarshal([]byte(raw), &f.ItemIDs); err != nil {
		RespondBadRequest(ctx, "item_ids must be a JSON array of integers", nil)
		return f, false
	}

	return f, true
}

func (h *CapsulesHandler) storeCapsuleImage(data []byte, filename string) (string, error) {
	processed, ok := imaging.FastPath(data)

	if ok {
		filename = "photo.png"
	}

	return h.files.Put(processed, filename, "capsule_")
}

func respondCapsuleError(ctx *gin.Context, err error, verb string) {
	switch {
	case errors.Is(err, capsule.ErrNotFound):
		RespondNotFound(ctx, "Capsule not found")
	case errors.Is(err, capsule.ErrForbidden):
		RespondForbidden(ctx, "Capsule belongs to another user")
	default:
		RespondInternal(ctx, "Could not "+verb+" capsule")
	}
}
