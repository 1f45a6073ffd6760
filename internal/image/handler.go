package image

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/homeguide/service/internal/middleware"
	"github.com/homeguide/service/internal/response"
	"github.com/homeguide/service/internal/storage"
)

// AccessTokenHeader is the alternative to the token query parameter.
const AccessTokenHeader = "x-access-token"

const maxUploadSize = 10 << 20 // 10 MiB

// Handler holds HTTP handlers for image signing, upload, and deletion.
type Handler struct {
	svc        *Service
	store      storage.Storage
	publicBase string
}

// NewHandler creates a new image Handler. publicBase is the URL prefix under
// which page markdown references private images.
func NewHandler(svc *Service, store storage.Storage, publicBase string) *Handler {
	return &Handler{svc: svc, store: store, publicBase: strings.TrimRight(publicBase, "/")}
}

// signResponse and signError are the issuer's fixed wire format. The endpoint
// is consumed cross-origin by guests with no platform login, so it does not
// use the owner API envelope.
type signResponse struct {
	SignedURL string `json:"signedUrl"`
}

type signError struct {
	Error string `json:"error"`
}

func writeSignJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// Sign godoc
//
//	@Summary		Issue signed image URL
//	@Description	Exchanges a space access token for a one-hour signed download URL for one private image. Token may arrive as the "token" query parameter or the x-access-token header.
//	@Tags			images
//	@Produce		json
//	@Param			path	query		string	true	"Image path ({ownerID}/{filename})"
//	@Param			token	query		string	false	"Space access token"
//	@Success		200		{object}	signResponse
//	@Failure		400		{object}	signError
//	@Failure		401		{object}	signError
//	@Failure		403		{object}	signError
//	@Failure		500		{object}	signError
//	@Router			/images/sign [get]
func (h *Handler) Sign(w http.ResponseWriter, r *http.Request) {
	imagePath := r.URL.Query().Get("path")
	if imagePath == "" {
		writeSignJSON(w, http.StatusBadRequest, signError{Error: "Missing image path"})
		return
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		token = r.Header.Get(AccessTokenHeader)
	}
	if token == "" {
		writeSignJSON(w, http.StatusUnauthorized, signError{Error: "Missing access token"})
		return
	}

	signedURL, err := h.svc.SignURL(r.Context(), imagePath, token)
	if err != nil {
		if errors.Is(err, ErrAccessDenied) {
			writeSignJSON(w, http.StatusForbidden, signError{Error: "Invalid token or access denied"})
			return
		}
		// Downstream detail stays server-side; the client gets a fixed message.
		log.Printf("image sign failed: %v", err)
		writeSignJSON(w, http.StatusInternalServerError, signError{Error: "Failed to generate signed URL"})
		return
	}

	writeSignJSON(w, http.StatusOK, signResponse{SignedURL: signedURL})
}

type uploadData struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

// Upload godoc
//
//	@Summary		Upload image
//	@Description	Stores an image under the caller's prefix and returns the path to embed in page markdown.
//	@Tags			images
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			file	formData	file	true	"Image file"
//	@Success		201		{object}	response.Envelope{data=uploadData}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/images [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		response.BadRequest(w, "file too large or malformed form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "file field is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		response.BadRequest(w, "only image uploads are allowed")
		return
	}

	ext := strings.ToLower(path.Ext(header.Filename))
	key := userID + "/" + uuid.NewString() + ext

	if err := h.store.Upload(r.Context(), key, file, header.Size, contentType); err != nil {
		log.Printf("image upload failed: %v", err)
		response.InternalError(w)
		return
	}

	response.Created(w, uploadData{
		Path: key,
		URL:  h.publicBase + "/" + key,
	})
}

// Delete godoc
//
//	@Summary		Delete image
//	@Description	Removes an image under the caller's own prefix.
//	@Tags			images
//	@Security		BearerAuth
//	@Param			filename	path	string	true	"Image filename"
//	@Success		204
//	@Failure		400	{object}	response.Envelope
//	@Failure		401	{object}	response.Envelope
//	@Failure		500	{object}	response.Envelope
//	@Router			/images/{filename} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	filename := chi.URLParam(r, "filename")

	// The key is always scoped under the caller's own prefix; a host can
	// never address another owner's objects.
	if _, err := ParsePath(userID + "/" + filename); err != nil {
		response.BadRequest(w, "invalid filename")
		return
	}

	if err := h.store.Delete(r.Context(), userID+"/"+filename); err != nil {
		log.Printf("image delete failed: %v", err)
		response.InternalError(w)
		return
	}
	response.NoContent(w)
}
