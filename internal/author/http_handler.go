package author

import (
	"net/http"

	"catalogue/internal/httpx"

	"go.uber.org/zap"
)

// Response is the public representation of an author. Ids stay internal.
type Response struct {
	Name string `json:"name"`
}

func toResponse(a Author) Response {
	return Response{Name: a.Name}
}

type HTTPHandler struct {
	service *Service
	log     *zap.Logger
}

func NewHTTPHandler(service *Service, logger *zap.Logger) *HTTPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPHandler{service: service, log: logger}
}

// Register mounts the author routes on mux.
func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/authors", h.List)
	mux.HandleFunc("POST /api/authors", h.Create)
	mux.HandleFunc("GET /api/authors/{id}", h.Get)
	mux.HandleFunc("PUT /api/authors/{id}", h.Rename)
	mux.HandleFunc("DELETE /api/authors/{id}", h.Delete)
}

// List handles GET /api/authors
// @Summary List authors
// @Tags authors
// @Produce json
// @Success 200 {array} author.Response
// @Failure 500 {object} httpx.ErrorResponse
// @Router /api/authors [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	authors, err := h.service.List(r.Context())
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}

	out := make([]Response, 0, len(authors))
	for _, a := range authors {
		out = append(out, toResponse(a))
	}
	httpx.JSON(w, http.StatusOK, out)
}

// Get handles GET /api/authors/{id}
// @Summary Get author by id
// @Tags authors
// @Produce json
// @Param id path string true "Author id"
// @Success 200 {object} author.Response
// @Failure 404 {object} httpx.ErrorResponse
// @Router /api/authors/{id} [get]
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(a))
}

// Create handles POST /api/authors. An existing name (any casing) returns
// the existing author.
// @Summary Create or reconcile an author
// @Tags authors
// @Accept json
// @Produce json
// @Param author body author.Input true "Author"
// @Success 200 {object} author.Response
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 409 {object} httpx.ErrorResponse
// @Router /api/authors [post]
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}

	a, err := h.service.Create(r.Context(), in)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(a))
}

// Rename handles PUT /api/authors/{id}
func (h *HTTPHandler) Rename(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}

	a, err := h.service.Rename(r.Context(), r.PathValue("id"), in)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(a))
}

// Delete handles DELETE /api/authors/{id}
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), r.PathValue("id")); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.Empty(w)
}
