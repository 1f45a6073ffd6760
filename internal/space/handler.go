package space

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/homeguide/service/internal/middleware"
	"github.com/homeguide/service/internal/response"
)

// accessRequiredMsg is the single message every public-view failure maps to.
// Guests cannot tell an unknown token from a malformed one.
const accessRequiredMsg = "access required"

// Handler holds HTTP handlers for space and page endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new space Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type createSpaceRequest struct {
	Name        string `json:"name"        example:"Beach House"`
	Description string `json:"description" example:"Our seaside guest apartment"`
	Address     string `json:"address,omitempty"`
	Contact     string `json:"contact,omitempty"`
}

type updateSpaceRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Address     *string `json:"address,omitempty"`
	Contact     *string `json:"contact,omitempty"`
}

type createPageRequest struct {
	Title   string `json:"title"   example:"House rules"`
	Content string `json:"content" example:"# House rules\n\nNo parties."`
}

type updatePageRequest struct {
	Title     *string `json:"title,omitempty"`
	Content   *string `json:"content,omitempty"`
	SortOrder *int    `json:"sortOrder,omitempty"`
}

// publicSpace is the guest-visible subset of a space. The owner's ID and
// the access token itself are never echoed back.
type publicSpace struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Address     string `json:"address,omitempty"`
	Contact     string `json:"contact,omitempty"`
}

type publicPage struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	SortOrder int    `json:"sortOrder"`
}

type publicView struct {
	Space publicSpace  `json:"space"`
	Pages []publicPage `json:"pages"`
}

// CreateSpace godoc
//
//	@Summary		Create space
//	@Description	Creates a property guide with a fresh access token and an initial welcome page.
//	@Tags			spaces
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		createSpaceRequest	true	"Space details"
//	@Success		201		{object}	response.Envelope{data=Space}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/spaces [post]
func (h *Handler) CreateSpace(w http.ResponseWriter, r *http.Request) {
	var req createSpaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if req.Name == "" {
		response.BadRequest(w, "name is required")
		return
	}

	sp, err := h.svc.Create(r.Context(), middleware.UserID(r.Context()),
		req.Name, req.Description, req.Address, req.Contact)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.Created(w, sp)
}

// ListSpaces godoc
//
//	@Summary	List spaces
//	@Tags		spaces
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	response.Envelope{data=[]Space}
//	@Failure	401	{object}	response.Envelope
//	@Failure	500	{object}	response.Envelope
//	@Router		/spaces [get]
func (h *Handler) ListSpaces(w http.ResponseWriter, r *http.Request) {
	spaces, err := h.svc.List(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, spaces)
}

// GetSpace godoc
//
//	@Summary	Get space
//	@Tags		spaces
//	@Produce	json
//	@Security	BearerAuth
//	@Param		spaceID	path		string	true	"Space ID"
//	@Success	200		{object}	response.Envelope{data=Space}
//	@Failure	401		{object}	response.Envelope
//	@Failure	404		{object}	response.Envelope
//	@Failure	500		{object}	response.Envelope
//	@Router		/spaces/{spaceID} [get]
func (h *Handler) GetSpace(w http.ResponseWriter, r *http.Request) {
	sp, err := h.svc.Get(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "spaceID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, sp)
}

// UpdateSpace godoc
//
//	@Summary		Update space
//	@Description	Applies a partial update. Omitted fields are left unchanged.
//	@Tags			spaces
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			spaceID	path		string				true	"Space ID"
//	@Param			request	body		updateSpaceRequest	true	"Fields to update"
//	@Success		200		{object}	response.Envelope{data=Space}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		404		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/spaces/{spaceID} [patch]
func (h *Handler) UpdateSpace(w http.ResponseWriter, r *http.Request) {
	var req updateSpaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	sp, err := h.svc.Update(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "spaceID"),
		SpaceUpdate{Name: req.Name, Description: req.Description, Address: req.Address, Contact: req.Contact})
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, sp)
}

// DeleteSpace godoc
//
//	@Summary		Delete space
//	@Description	Deletes the space and all of its pages.
//	@Tags			spaces
//	@Security		BearerAuth
//	@Param			spaceID	path	string	true	"Space ID"
//	@Success		204
//	@Failure		401	{object}	response.Envelope
//	@Failure		404	{object}	response.Envelope
//	@Failure		500	{object}	response.Envelope
//	@Router			/spaces/{spaceID} [delete]
func (h *Handler) DeleteSpace(w http.ResponseWriter, r *http.Request) {
	err := h.svc.Delete(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "spaceID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.NoContent(w)
}

// CreatePage godoc
//
//	@Summary	Create page
//	@Tags		pages
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		spaceID	path		string				true	"Space ID"
//	@Param		request	body		createPageRequest	true	"Page details"
//	@Success	201		{object}	response.Envelope{data=Page}
//	@Failure	400		{object}	response.Envelope
//	@Failure	401		{object}	response.Envelope
//	@Failure	404		{object}	response.Envelope
//	@Failure	500		{object}	response.Envelope
//	@Router		/spaces/{spaceID}/pages [post]
func (h *Handler) CreatePage(w http.ResponseWriter, r *http.Request) {
	var req createPageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if req.Title == "" {
		response.BadRequest(w, "title is required")
		return
	}

	p, err := h.svc.CreatePage(r.Context(), middleware.UserID(r.Context()),
		chi.URLParam(r, "spaceID"), req.Title, req.Content)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.Created(w, p)
}

// ListPages godoc
//
//	@Summary	List pages
//	@Tags		pages
//	@Produce	json
//	@Security	BearerAuth
//	@Param		spaceID	path		string	true	"Space ID"
//	@Success	200		{object}	response.Envelope{data=[]Page}
//	@Failure	401		{object}	response.Envelope
//	@Failure	404		{object}	response.Envelope
//	@Failure	500		{object}	response.Envelope
//	@Router		/spaces/{spaceID}/pages [get]
func (h *Handler) ListPages(w http.ResponseWriter, r *http.Request) {
	pages, err := h.svc.ListPages(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "spaceID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, pages)
}

// GetPage godoc
//
//	@Summary	Get page
//	@Tags		pages
//	@Produce	json
//	@Security	BearerAuth
//	@Param		spaceID	path		string	true	"Space ID"
//	@Param		pageID	path		string	true	"Page ID"
//	@Success	200		{object}	response.Envelope{data=Page}
//	@Failure	401		{object}	response.Envelope
//	@Failure	404		{object}	response.Envelope
//	@Failure	500		{object}	response.Envelope
//	@Router		/spaces/{spaceID}/pages/{pageID} [get]
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetPage(r.Context(), middleware.UserID(r.Context()),
		chi.URLParam(r, "spaceID"), chi.URLParam(r, "pageID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, p)
}

// UpdatePage godoc
//
//	@Summary		Update page
//	@Description	Applies a partial update. Omitted fields are left unchanged.
//	@Tags			pages
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			spaceID	path		string				true	"Space ID"
//	@Param			pageID	path		string				true	"Page ID"
//	@Param			request	body		updatePageRequest	true	"Fields to update"
//	@Success		200		{object}	response.Envelope{data=Page}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		404		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/spaces/{spaceID}/pages/{pageID} [patch]
func (h *Handler) UpdatePage(w http.ResponseWriter, r *http.Request) {
	var req updatePageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	p, err := h.svc.UpdatePage(r.Context(), middleware.UserID(r.Context()),
		chi.URLParam(r, "spaceID"), chi.URLParam(r, "pageID"),
		PageUpdate{Title: req.Title, Content: req.Content, SortOrder: req.SortOrder})
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, p)
}

// DeletePage godoc
//
//	@Summary	Delete page
//	@Tags		pages
//	@Security	BearerAuth
//	@Param		spaceID	path	string	true	"Space ID"
//	@Param		pageID	path	string	true	"Page ID"
//	@Success	204
//	@Failure	401	{object}	response.Envelope
//	@Failure	404	{object}	response.Envelope
//	@Failure	500	{object}	response.Envelope
//	@Router		/spaces/{spaceID}/pages/{pageID} [delete]
func (h *Handler) DeletePage(w http.ResponseWriter, r *http.Request) {
	err := h.svc.DeletePage(r.Context(), middleware.UserID(r.Context()),
		chi.URLParam(r, "spaceID"), chi.URLParam(r, "pageID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.NoContent(w)
}

// PublicView godoc
//
//	@Summary		View space by access token
//	@Description	Public, unauthenticated view of a space and its pages. Any failure returns the same generic 404.
//	@Tags			public
//	@Produce		json
//	@Param			accessToken	path		string	true	"Space access token"
//	@Success		200			{object}	response.Envelope{data=publicView}
//	@Failure		404			{object}	response.Envelope
//	@Router			/view/{accessToken} [get]
func (h *Handler) PublicView(w http.ResponseWriter, r *http.Request) {
	sp, pages, err := h.svc.GetByToken(r.Context(), chi.URLParam(r, "accessToken"))
	if err != nil {
		// One response for every failure cause, valid-looking or not.
		response.NotFound(w, accessRequiredMsg)
		return
	}

	view := publicView{
		Space: publicSpace{
			Name:        sp.Name,
			Description: sp.Description,
			Address:     sp.Address,
			Contact:     sp.Contact,
		},
		Pages: make([]publicPage, 0, len(pages)),
	}
	for _, p := range pages {
		view.Pages = append(view.Pages, publicPage{
			ID:        p.ID,
			Title:     p.Title,
			Content:   p.Content,
			SortOrder: p.SortOrder,
		})
	}
	response.OK(w, view)
}

// writeError maps service errors to HTTP responses. Not-found covers
// ownership violations too; nothing else is disclosed.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if IsNotFound(err) {
		response.NotFound(w, "not found")
		return
	}
	response.InternalError(w)
}
