package book

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"catalogue/internal/platform/txn"
	"catalogue/internal/testutil"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMux(svc *Service) *http.ServeMux {
	mux := http.NewServeMux()
	NewHTTPHandler(svc, nil).Register(mux)
	return mux
}

func serve(mux *http.ServeMux, r *http.Request) testutil.RecordResponse {
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	return testutil.RecordHTTPResponse(w)
}

func TestHTTPHandler_LePetitPrince(t *testing.T) {
	mux := newTestMux(newMemoryStack().books)

	create := map[string]any{
		"isbn":      "1234567890123",
		"title":     "Le Petit Prince",
		"authors":   []string{"A. de Saint-Exupéry"},
		"pageCount": 96,
	}
	const want = `{
		"isbn": "1234567890123",
		"title": "Le Petit Prince",
		"authors": ["A. de Saint-Exupéry"],
		"publicationDate": null,
		"summary": "",
		"pageCount": 96
	}`

	res := serve(mux, testutil.NewRequest(http.MethodPost, "/api/books", create))
	require.Equal(t, http.StatusOK, res.Code)
	assert.JSONEq(t, want, string(res.Raw))

	res = serve(mux, testutil.NewRequest(http.MethodGet, "/api/books/1234567890123", nil))
	require.Equal(t, http.StatusOK, res.Code)
	assert.JSONEq(t, want, string(res.Raw))

	update := map[string]any{
		"isbn":      "1234567890123",
		"title":     "Le Petit Prince",
		"authors":   []string{},
		"pageCount": 96,
	}
	res = serve(mux, testutil.NewRequest(http.MethodPut, "/api/books", update))
	require.Equal(t, http.StatusOK, res.Code)

	res = serve(mux, testutil.NewRequest(http.MethodGet, "/api/books/1234567890123", nil))
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, []any{}, res.Body["authors"])
}

func TestHTTPHandler_Create_Errors(t *testing.T) {
	mux := newTestMux(newMemoryStack().books)

	res := serve(mux, testutil.NewRequest(http.MethodPost, "/api/books", Input{ISBN: "0123456789"}))
	require.Equal(t, http.StatusOK, res.Code)

	t.Run("duplicate isbn", func(t *testing.T) {
		res := serve(mux, testutil.NewRequest(http.MethodPost, "/api/books", Input{ISBN: "0123456789"}))

		assert.Equal(t, http.StatusBadRequest, res.Code)
		assert.Equal(t, "isbn: ISBN already used", res.Body["message"])
		assert.Equal(t, []any{map[string]any{"field": "isbn", "message": "ISBN already used"}}, res.Body["details"])
	})

	t.Run("bad format", func(t *testing.T) {
		res := serve(mux, testutil.NewRequest(http.MethodPost, "/api/books", Input{ISBN: "123"}))

		assert.Equal(t, http.StatusBadRequest, res.Code)
		assert.Equal(t, "isbn: ISBN format should be ISBN-10 or ISBN-13 format", res.Body["message"])
	})

	t.Run("bad date", func(t *testing.T) {
		res := serve(mux, testutil.NewRequest(http.MethodPost, "/api/books", `{"isbn":"1111111111","publicationDate":"06/04/1943"}`))

		assert.Equal(t, http.StatusBadRequest, res.Code)
		assert.Equal(t, "Invalid request body", res.Body["message"])
	})
}

func TestHTTPHandler_Routes(t *testing.T) {
	s := newMemoryStack()
	mux := newTestMux(s.books)
	ctx := context.Background()

	_, err := s.books.Create(ctx, Input{ISBN: "0000000001", Title: "Search me", Authors: []string{"Georges Perec"}})
	require.NoError(t, err)
	_, err = s.books.Create(ctx, Input{ISBN: "0000000002", Title: "La Disparition", Authors: []string{"Georges Perec"}})
	require.NoError(t, err)

	t.Run("list", func(t *testing.T) {
		res := serve(mux, testutil.NewRequest(http.MethodGet, "/api/books", nil))
		require.Equal(t, http.StatusOK, res.Code)
		assert.JSONEq(t, `[
			{"isbn":"0000000001","title":"Search me","authors":["Georges Perec"],"publicationDate":null,"summary":"","pageCount":0},
			{"isbn":"0000000002","title":"La Disparition","authors":["Georges Perec"],"publicationDate":null,"summary":"","pageCount":0}
		]`, string(res.Raw))
	})

	t.Run("search is not an isbn", func(t *testing.T) {
		res := serve(mux, testutil.NewRequest(http.MethodGet, "/api/books/search?title=disparition&author=nobody", nil))
		require.Equal(t, http.StatusOK, res.Code)
		assert.Contains(t, string(res.Raw), `"isbn":"0000000002"`)
		assert.NotContains(t, string(res.Raw), `"isbn":"0000000001"`)
	})

	t.Run("search by author", func(t *testing.T) {
		res := serve(mux, testutil.NewRequest(http.MethodGet, "/api/books/search?author=perec", nil))
		require.Equal(t, http.StatusOK, res.Code)
		assert.Contains(t, string(res.Raw), `"isbn":"0000000001"`)
		assert.Contains(t, string(res.Raw), `"isbn":"0000000002"`)
	})

	t.Run("get missing", func(t *testing.T) {
		res := serve(mux, testutil.NewRequest(http.MethodGet, "/api/books/9999999999", nil))
		assert.Equal(t, http.StatusNotFound, res.Code)
		assert.Equal(t, "Unable to find the book with ISBN: 9999999999", res.Body["message"])
		assert.Equal(t, "/api/books/9999999999", res.Body["path"])
	})

	t.Run("update missing", func(t *testing.T) {
		res := serve(mux, testutil.NewRequest(http.MethodPut, "/api/books", Input{ISBN: "9999999999"}))
		assert.Equal(t, http.StatusNotFound, res.Code)
		assert.Equal(t, "Book not found with ISBN: 9999999999", res.Body["message"])
	})

	t.Run("delete", func(t *testing.T) {
		res := serve(mux, testutil.NewRequest(http.MethodDelete, "/api/books/0000000001", nil))
		assert.Equal(t, http.StatusOK, res.Code)
		assert.Empty(t, res.Raw)

		res = serve(mux, testutil.NewRequest(http.MethodDelete, "/api/books/0000000001", nil))
		assert.Equal(t, http.StatusNotFound, res.Code)

		res = serve(mux, testutil.NewRequest(http.MethodGet, "/api/books/0000000001", nil))
		assert.Equal(t, http.StatusNotFound, res.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		res := serve(mux, testutil.NewRequest(http.MethodPatch, "/api/books", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, res.Code)
	})
}

func TestHTTPHandler_List_StoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := NewMockRepository(ctrl)
	mux := newTestMux(NewService(repo, NewMockAuthorReconciler(ctrl), txn.NewSerial(), nil, nil, nil))

	repo.EXPECT().List(gomock.Any()).Return(nil, context.DeadlineExceeded)

	res := serve(mux, testutil.NewRequest(http.MethodGet, "/api/books", nil))
	assert.Equal(t, http.StatusInternalServerError, res.Code)
	assert.Equal(t, "Something went wrong", res.Body["message"])
}
