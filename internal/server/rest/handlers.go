package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/cloudservice/internal/common"
	"github.com/dmitrijs2005/cloudservice/internal/logging"
	"github.com/dmitrijs2005/cloudservice/internal/server/auth"
	"github.com/dmitrijs2005/cloudservice/internal/server/models"
	"github.com/dmitrijs2005/cloudservice/internal/server/services"
	"github.com/go-playground/validator/v10"
)

// multipartMemory is the part of an upload kept in memory; the rest spills
// to temporary files.
const multipartMemory = 32 << 20

type UserService interface {
	Login(ctx context.Context, login, password string) (string, error)
	Logout(ctx context.Context, token string) error
}

type FileService interface {
	Upload(ctx context.Context, ownerID string, req services.UploadRequest) error
	Delete(ctx context.Context, ownerID, filename string) error
	Rename(ctx context.Context, ownerID, oldName, newName string) error
	Download(ctx context.Context, ownerID, filename string) (*services.Download, error)
	List(ctx context.Context, ownerID string, limit int) ([]models.FileInfo, error)
}

// TokenExtractor reads the bearer token from a request.
type TokenExtractor interface {
	ExtractToken(r *http.Request) (string, error)
}

type Handler struct {
	users         UserService
	files         FileService
	tokens        TokenExtractor
	validate      *validator.Validate
	logger        logging.Logger
	maxUploadSize int64
}

func NewHandler(us UserService, fs FileService, te TokenExtractor, maxUploadSize int64, l logging.Logger) *Handler {
	return &Handler{
		users:         us,
		files:         fs,
		tokens:        te,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
		logger:        l.With("module", "rest"),
		maxUploadSize: maxUploadSize,
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, h.logger, err)
}

func (h *Handler) decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: malformed json body", common.ErrorValidation)
	}
	if err := h.validate.Struct(v); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			return fmt.Errorf("%w: field %s failed on %s", common.ErrorValidation, ve[0].Field(), ve[0].Tag())
		}
		return fmt.Errorf("%w: %w", common.ErrorValidation, err)
	}
	return nil
}

// owner returns the id the gate put into the context.
func owner(r *http.Request) (string, error) {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return "", common.ErrorUnauthorized
	}
	return id, nil
}

// filenameParam reads the filename query parameter and applies the same
// rule as RenameRequest.Filename.
func (h *Handler) filenameParam(r *http.Request) (string, error) {
	name := r.URL.Query().Get("filename")
	if name == "" {
		return "", fmt.Errorf("%w: filename is required", common.ErrorValidation)
	}
	if err := h.validate.Var(name, filenameRule); err != nil {
		return "", fmt.Errorf("%w: filename is too long", common.ErrorValidation)
	}
	return name, nil
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	token, err := h.users.Login(r.Context(), req.Login, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{AuthToken: token})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token, err := h.tokens.ExtractToken(r)
	if err != nil {
		h.fail(w, r, fmt.Errorf("%w: %w", common.ErrorValidation, err))
		return
	}

	if err := h.users.Logout(r.Context(), token); err != nil {
		h.fail(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) UploadFile(w http.ResponseWriter, r *http.Request) {
	userID, err := owner(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	filename, err := h.filenameParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if h.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		h.fail(w, r, fmt.Errorf("%w: invalid multipart body: %w", common.ErrorValidation, err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.fail(w, r, fmt.Errorf("%w: part 'file' is required", common.ErrorValidation))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	// Only the multipart part counts; a hash in the query string is ignored.
	var hash *string
	if v := r.MultipartForm.Value["hash"]; len(v) > 0 && v[0] != "" {
		hash = &v[0]
	}

	err = h.files.Upload(r.Context(), userID, services.UploadRequest{
		Filename:    filename,
		Content:     file,
		Size:        header.Size,
		ContentType: contentType,
		Hash:        hash,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	userID, err := owner(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	filename, err := h.filenameParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.files.Delete(r.Context(), userID, filename); err != nil {
		h.fail(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) RenameFile(w http.ResponseWriter, r *http.Request) {
	userID, err := owner(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	filename, err := h.filenameParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req RenameRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.files.Rename(r.Context(), userID, filename, req.Filename); err != nil {
		h.fail(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// GetFile streams the file as multipart/form-data with a "hash" and a "file"
// part.
func (h *Handler) GetFile(w http.ResponseWriter, r *http.Request) {
	userID, err := owner(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	filename, err := h.filenameParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	d, err := h.files.Download(r.Context(), userID, filename)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	defer d.Content.Close()

	mw := multipart.NewWriter(w)
	w.Header().Set("Content-Type", mw.FormDataContentType())
	w.WriteHeader(http.StatusOK)

	// Headers are sent; from here on failures can only be logged.
	if err := writeDownload(mw, d); err != nil {
		h.logger.Error(r.Context(), "download interrupted", "user_id", userID, "filename", filename, "error", err)
	}
}

func writeDownload(mw *multipart.Writer, d *services.Download) error {
	hash := ""
	if d.Hash != nil {
		hash = *d.Hash
	}
	if err := mw.WriteField("hash", hash); err != nil {
		return err
	}

	part, err := mw.CreateFormFile("file", d.Filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, d.Content); err != nil {
		return err
	}
	return mw.Close()
}

func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	userID, err := owner(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		h.fail(w, r, fmt.Errorf("%w: limit must be an integer", common.ErrorValidation))
		return
	}

	files, err := h.files.List(r.Context(), userID, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, files)
}
