package handlers

import (
	"errors"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/wardrobeapp/wardrobe/internal/storage"
)

type FileOpener interface {
	Open(name string) (*os.File, error)
}

type UploadsHandler struct {
	files FileOpener
}

func NewUploadsHandler(files FileOpener) *UploadsHandler {
	return &UploadsHandler{files: files}
}

// ServeUpload streams a stored image back to the client. Names are opaque
// server-generated strings, so there is nothing to authorize here beyond
// refusing paths that escape the upload dir (the store handles that).
func (h *UploadsHandler) ServeUpload(ctx *gin.Context) {
	name := ctx.Param("name")

	f, err := h.files.Open(name)

	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			RespondNotFound(ctx, "File not found")
			return
		}

		RespondInternal(ctx, "Could not open file")
		return
	}

	defer f.Close()

	info, err := f.Stat()

	if err != nil || info.IsDir() {
		RespondNotFound(ctx, "File not found")
		return
	}

	http.ServeContent(ctx.Writer, ctx.Request, info.Name(), info.ModTime(), f)
}
