package book

import (
	"net/http"

	"catalogue/internal/httpx"

	"go.uber.org/zap"
)

// Response is the public representation of a book. Authors are names only.
type Response struct {
	ISBN            string   `json:"isbn"`
	Title           string   `json:"title"`
	Authors         []string `json:"authors"`
	PublicationDate Date     `json:"publicationDate"`
	Summary         string   `json:"summary"`
	PageCount       int      `json:"pageCount"`
}

func toResponse(b Book) Response {
	return Response{
		ISBN:            b.ISBN,
		Title:           b.Title,
		Authors:         b.AuthorNames(),
		PublicationDate: b.PublicationDate,
		Summary:         b.Summary,
		PageCount:       b.PageCount,
	}
}

func toResponses(books []Book) []Response {
	out := make([]Response, 0, len(books))
	for _, b := range books {
		out = append(out, toResponse(b))
	}
	return out
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

// Register mounts the book routes on mux. The literal search route takes
// precedence over the {isbn} wildcard.
func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/books", h.List)
	mux.HandleFunc("GET /api/books/search", h.Search)
	mux.HandleFunc("GET /api/books/{isbn}", h.GetByISBN)
	mux.HandleFunc("POST /api/books", h.Create)
	mux.HandleFunc("PUT /api/books", h.Update)
	mux.HandleFunc("DELETE /api/books/{isbn}", h.Delete)
}

// List handles GET /api/books
// @Summary List books
// @Tags books
// @Produce json
// @Success 200 {array} book.Response
// @Failure 500 {object} httpx.ErrorResponse
// @Router /api/books [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.ListAll(r.Context())
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponses(books))
}

// Search handles GET /api/books/search
// @Summary Search books by title or author
// @Description A non-blank title wins; author is then ignored.
// @Tags books
// @Produce json
// @Param title query string false "Title substring"
// @Param author query string false "Author name substring"
// @Success 200 {array} book.Response
// @Router /api/books/search [get]
func (h *HTTPHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	books, err := h.service.Search(r.Context(), query.Get("title"), query.Get("author"))
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponses(books))
}

// GetByISBN handles GET /api/books/{isbn}
// @Summary Get book by ISBN
// @Tags books
// @Produce json
// @Param isbn path string true "Book ISBN"
// @Success 200 {object} book.Response
// @Failure 404 {object} httpx.ErrorResponse
// @Router /api/books/{isbn} [get]
func (h *HTTPHandler) GetByISBN(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.GetByISBN(r.Context(), r.PathValue("isbn"))
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(b))
}

// Create handles POST /api/books
// @Summary Create a book
// @Tags books
// @Accept json
// @Produce json
// @Param book body book.Input true "Book"
// @Success 200 {object} book.Response
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 409 {object} httpx.ErrorResponse
// @Router /api/books [post]
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}

	b, err := h.service.Create(r.Context(), in)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(b))
}

// Update handles PUT /api/books. The ISBN in the body selects the book.
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}

	b, err := h.service.Update(r.Context(), in)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(b))
}

// Delete handles DELETE /api/books/{isbn}
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), r.PathValue("isbn")); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.Empty(w)
}
