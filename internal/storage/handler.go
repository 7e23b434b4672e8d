// External pkg tusd to handle resumable menu image uploads with file chunking.

package storage

import (
	"Saffron/internal/entity"
	"Saffron/pkg/cleanup"
	"Saffron/pkg/log"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"github.com/tus/tusd/pkg/filestore"
	tusd "github.com/tus/tusd/pkg/handler"
)

// Route prefixes of the upload endpoints.
const (
	UploadBasePath = "/api/admin/uploads"
	ImageBasePath  = "/api/uploads"
)

// Accepted upload content types.
var imageTypes = map[string]string{"image/jpeg": "jpg", "image/png": "png", "image/webp": "webp", "image/gif": "gif"}

var (
	errNotImage        = tusd.NewHTTPError(errors.New("upload is not an image"), http.StatusUnsupportedMediaType)
	errUnknownMenuItem = tusd.NewHTTPError(errors.New("menu_item_id does not exist"), http.StatusNotFound)
	errMissingMenuItem = tusd.NewHTTPError(errors.New("menu_item_id metadata is required"), http.StatusBadRequest)
)

// MenuImages is the part of the menu an upload needs to look up and update items.
type MenuImages interface {
	GetMenuItem(ctx context.Context, logger log.Logger, id string) (entity.MenuItem, error)
}

// ImageAttacher points a menu item at its new image.
type ImageAttacher interface {
	AttachImage(ctx context.Context, id, image string) (entity.MenuItem, error)
}

type Config struct {
	Path    string
	MaxSize int64
}

// Handler wraps the tusd handler serving menu image uploads.
type Handler struct {
	*tusd.UnroutedHandler
	cfg      Config
	menu     MenuImages
	attacher ImageAttacher
	logger   log.Logger
}

// Returns a tusd Unrouted handler storing menu item images under cfg.Path.
func NewHandler(cfg Config, menu MenuImages, attacher ImageAttacher, logger log.Logger) (*Handler, error) {
	// Check if upload directory exists, if not make one
	if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
		return nil, err
	}
	if cfg.MaxSize <= 0 {
		// Default to 5MBs
		cfg.MaxSize = 5242880
	}
	h := &Handler{cfg: cfg, menu: menu, attacher: attacher, logger: logger}

	store := filestore.FileStore{Path: cfg.Path}
	composer := tusd.NewStoreComposer()
	store.UseIn(composer)

	unrouted, tusderr := tusd.NewUnroutedHandler(tusd.Config{
		BasePath:                  UploadBasePath,
		MaxSize:                   cfg.MaxSize,
		StoreComposer:             composer,
		NotifyCompleteUploads:     true,
		NotifyTerminatedUploads:   true,
		RespectForwardedHeaders:   true,
		PreUploadCreateCallback:   h.validateUpload,
		PreFinishResponseCallback: h.finishUpload,
	})
	if tusderr != nil {
		return nil, tusderr
	}
	h.UnroutedHandler = unrouted
	return h, nil
}

// validateUpload checks the metadata attached with the upload request.
func (h *Handler) validateUpload(hook tusd.HookEvent) error {
	if _, ok := imageTypes[hook.Upload.MetaData["filetype"]]; !ok {
		return errNotImage
	}
	id := hook.Upload.MetaData["menu_item_id"]
	if id == "" {
		return errMissingMenuItem
	}
	if _, err := h.menu.GetMenuItem(context.Background(), h.logger, id); err != nil {
		return errUnknownMenuItem
	}
	return nil
}

// finishUpload sniffs the stored bytes and attaches the image to its menu item.
func (h *Handler) finishUpload(hook tusd.HookEvent) error {
	ctx := context.Background()
	path := filepath.Join(h.cfg.Path, hook.Upload.ID)
	file, oserr := os.Open(path)
	if oserr != nil {
		h.logger.Error().Err(oserr).Msg("Cannot open upload - " + hook.Upload.ID)
		return tusd.ErrFileLocked
	}
	head := make([]byte, 261)
	n, rerr := io.ReadFull(file, head)
	file.Close()
	if rerr != nil && !errors.Is(rerr, io.ErrUnexpectedEOF) {
		h.logger.Error().Err(rerr).Msg("Cannot read upload - " + hook.Upload.ID)
		return tusd.ErrFileLocked
	}
	if !filetype.IsImage(head[:n]) {
		cleanup.DeleteUploadFiles(h.cfg.Path, hook.Upload.ID, h.logger)
		return errNotImage
	}

	menuItemID := hook.Upload.MetaData["menu_item_id"]
	previous, _ := h.menu.GetMenuItem(ctx, h.logger, menuItemID)
	if _, err := h.attacher.AttachImage(ctx, menuItemID, ImageURL(hook.Upload.ID)); err != nil {
		cleanup.DeleteUploadFiles(h.cfg.Path, hook.Upload.ID, h.logger)
		return tusd.NewHTTPError(err, http.StatusInternalServerError)
	}
	// Replaced images are not served anymore
	if old, ok := UploadID(previous.Image); ok && old != hook.Upload.ID {
		cleanup.DeleteUploadFiles(h.cfg.Path, old, h.logger)
	}
	return nil
}

// Watch logs completed and terminated uploads until ctx is done.
func (h *Handler) Watch(ctx context.Context) {
	for {
		select {
		case event := <-h.CompleteUploads:
			h.logger.Info().Str("upload_id", event.Upload.ID).Str("menu_item_id", event.Upload.MetaData["menu_item_id"]).Msg("Upload finished")
		case event := <-h.TerminatedUploads:
			h.logger.Info().Str("upload_id", event.Upload.ID).Msg("Upload terminated")
		case <-ctx.Done():
			return
		}
	}
}

// ImageURL is the public path an upload is served from.
func ImageURL(uploadID string) string {
	return ImageBasePath + "/" + uploadID
}

// UploadID extracts the upload id from an image URL served by Saffron.
func UploadID(image string) (string, bool) {
	id, found := strings.CutPrefix(image, ImageBasePath+"/")
	return id, found && id != ""
}
