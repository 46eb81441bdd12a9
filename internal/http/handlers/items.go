package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wardrobeapp/wardrobe/internal/config"
	"github.com/wardrobeapp/wardrobe/internal/domain/item"
	"github.com/wardrobeapp/wardrobe/internal/http/middlewares"
	"github.com/wardrobeapp/wardrobe/internal/imaging"
)

type ItemsStore interface {
	Create(ctx context.Context, userID int64, f item.Fields, imagePath *string) (item.Item, error)
	ListByOwner(ctx context.Context, userID int64) ([]item.Item, error)
	GetOwned(ctx context.Context, userID, id int64) (item.Item, error)
	Update(ctx context.Context, userID, id int64, f item.Fields, imagePath *string) (item.Item, error)
	Delete(ctx context.Context, userID, id int64) error
}

type ImageStore interface {
	Put(data []byte, filename, prefix string) (string, error)
	DiskPath(stored string) (string, error)
	Delete(stored string)
}

type TaskScheduler interface {
	Go(taskType string, fn func(ctx context.Context) error) bool
}

type BackgroundRemover interface {
	RemoveBackground(path string) error
}

type ItemsHandler struct {
	repo    ItemsStore
	files   ImageStore
	tasks   TaskScheduler
	remover BackgroundRemover
	// skipRemoval mirrors the persistent-volume deployment flag: when the
	// upload dir survives restarts, images are never reprocessed.
	skipRemoval bool
}

func NewItemsHandler(repo ItemsStore, files ImageStore, tasks TaskScheduler, remover BackgroundRemover, skipRemoval bool) *ItemsHandler {
	return &ItemsHandler{
		repo:        repo,
		files:       files,
		tasks:       tasks,
		remover:     remover,
		skipRemoval: skipRemoval,
	}
}

func (h *ItemsHandler) CreateItem(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	var f item.Fields

	if !BindForm(ctx, &f) {
		return
	}

	data, filename, found, err := readFormFile(ctx, "file")

	if err != nil {
		RespondBadRequest(ctx, "Could not read uploaded file", nil)
		return
	}

	if !found {
		RespondBadRequest(ctx, "file is required", nil)
		return
	}

	path, err := h.storeItemImage(data, filename)

	if err != nil {
		RespondInternal(ctx, "Could not store image")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	it, err := h.repo.Create(cctx, userID, f, &path)

	if err != nil {
		h.files.Delete(path)
		RespondInternal(ctx, "Could not create item")
		return
	}

	ctx.JSON(http.StatusCreated, it)

	// response is already on the wire; the matte runs on its own time
	h.scheduleRemoval(path)
}

func (h *ItemsHandler) ListItems(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	items, err := h.repo.ListByOwner(cctx, userID)

	if err != nil {
		RespondInternal(ctx, "Could not list items")
		return
	}

	ctx.JSON(http.StatusOK, items)
}

func (h *ItemsHandler) GetItem(ctx *gin.Context) {
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

	it, err := h.repo.GetOwned(cctx, userID, id)

	if err != nil {
		respondItemError(ctx, err, "fetch")
		return
	}

	ctx.JSON(http.StatusOK, it)
}

func (h *ItemsHandler) UpdateItem(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	id, ok := parseID(ctx)

	if !ok {
		return
	}

	var f item.Fields

	if !BindForm(ctx, &f) {
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
		respondItemError(ctx, err, "update")
		return
	}

	var newPath *string

	if found {
		// the old file goes first so the directory does not accumulate
		// orphans; losing it on a later failure is acceptable
		if existing.ImagePath != nil {
			h.files.Delete(*existing.ImagePath)
		}

		p, err := h.storeItemImage(data, filename)

		if err != nil {
			RespondInternal(ctx, "Could not store image")
			return
		}

		newPath = &p
	}

	it, err := h.repo.Update(cctx, userID, id, f, newPath)

	if err != nil {
		respondItemError(ctx, err, "update")
		return
	}

	ctx.JSON(http.StatusOK, it)

	if newPath != nil {
		h.scheduleRemoval(*newPath)
	}
}

func (h *ItemsHandler) DeleteItem(ctx *gin.Context) {
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
		respondItemError(ctx, err, "delete")
		return
	}

	err = h.repo.Delete(cctx, userID, id)

	if err != nil {
		respondItemError(ctx, err, "delete")
		return
	}

	// file cleanup never blocks the row delete
	if existing.ImagePath != nil {
		h.files.Delete(*existing.ImagePath)
	}

	ctx.JSON(http.StatusOK, gin.H{"ok": true})
}

// storeItemImage runs the synchronous fast path: decode and re-encode as PNG,
// falling back to the raw bytes when the upload does not decode.
func (h *ItemsHandler) storeItemImage(data []byte, filename string) (string, error) {
	processed, ok := imaging.FastPath(data)

	if ok {
		filename = "photo.png"
	}

	return h.files.Put(processed, filename, "")
}

func (h *ItemsHandler) scheduleRemoval(stored string) {
	if h.skipRemoval || h.tasks == nil {
		return
	}

	disk, err := h.files.DiskPath(stored)

	if err != nil {
		return
	}

	h.tasks.Go("remove_background", func(ctx context.Context) error {
		return h.remover.RemoveBackground(disk)
	})
}

func respondItemError(ctx *gin.Context, err error, verb string) {
	switch {
	case errors.Is(err, item.ErrNotFound):
		RespondNotFound(ctx, "Item not found")
	case errors.Is(err, item.ErrForbidden):
		RespondForbidden(ctx, "Item belongs to another user")
	default:
		RespondInternal(ctx, "Could not "+verb+" item")
	}
}

func parseID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)

	if err != nil || id <= 0 {
		RespondBadRequest(ctx, "id must be a positive integer", nil)
		return 0, false
	}

	return id, true
}

// readFormFile pulls the optional binary part out of the multipart form.
// found=false simply means the client sent no file.
func readFormFile(ctx *gin.Context, field string) (data []byte, filename string, found bool, err error) {
	fh, err := ctx.FormFile(field)

	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, "", false, nil
		}

		return nil, "", false, err
	}

	f, err := fh.Open()

	if err != nil {
		return nil, "", true, err
	}

	defer f.Close()

	data, err = io.ReadAll(f)

	if err != nil {
		return nil, "", true, err
	}

	return data, fh.Filename, true, nil
}
