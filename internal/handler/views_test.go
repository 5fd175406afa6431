package handler_test

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/iliyamo/sakila-admin/internal/events"
	"github.com/iliyamo/sakila-admin/internal/handler"
	"github.com/iliyamo/sakila-admin/internal/paging"
	"github.com/iliyamo/sakila-admin/internal/repository"
	"github.com/iliyamo/sakila-admin/internal/view"
)

var _ = Describe("ViewsHandler", func() {
	var (
		e     *echo.Echo
		pages *fakePages
		pub   *recorder
	)

	BeforeEach(func() {
		pages = &fakePages{catalog: view.Default()}
		pub = &recorder{}
		h := handler.NewViewsHandler(pages, pub, paging.Config{DefaultSize: 25, MaxSize: 100})
		e = newEcho()
		e.GET("/v1/admin/views", h.Catalog)
		e.GET("/v1/admin/views/:view", h.List)
		e.PUT("/v1/admin/views/:view/:id", h.Edit)
		e.DELETE("/v1/admin/views/:view/:id", h.Delete)
	})

	It("lists the catalog with row actions", func() {
		rec := do(e, http.MethodGet, "/v1/admin/views", "")
		Expect(rec.Code).To(Equal(http.StatusOK))

		var body struct {
			Views []struct {
				Name    string       `json:"name"`
				Actions view.Actions `json:"actions"`
			} `json:"views"`
		}
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		Expect(body.Views).To(HaveLen(len(view.Default().All())))
		Expect(body.Views[0].Actions.Edit).To(Equal(view.ActionDisabled))
	})

	It("translates query parameters into a page request", func() {
		pages.result = repository.PageResult{Rows: []repository.Row{{"film_id": int64(1)}}, TotalCount: 1}

		rec := do(e, http.MethodGet, "/v1/admin/views/films?page=2&page_size=500&order=title&dir=desc&filter.rating=PG&like.title=ace&search=+dino+", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(pages.last.View).To(Equal("films"))
		Expect(pages.last.Page).To(Equal(2))
		Expect(pages.last.PageSize).To(Equal(100))
		Expect(pages.last.OrderBy).To(Equal("title"))
		Expect(pages.last.Ascending).To(BeFalse())
		Expect(pages.last.Search).To(Equal("dino"))
		Expect(pages.last.Filters).To(ConsistOf(
			repository.Filter{Column: "rating", Value: "PG", Match: view.MatchExact},
			repository.Filter{Column: "title", Value: "ace", Match: view.MatchSubstring},
		))
	})

	It("defaults to page 1 and the configured size", func() {
		rec := do(e, http.MethodGet, "/v1/admin/views/films", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(pages.last.Page).To(Equal(1))
		Expect(pages.last.PageSize).To(Equal(25))
	})

	It("answers an empty search with the empty state, not an error", func() {
		pages.result = repository.PageResult{Rows: []repository.Row{}}

		rec := do(e, http.MethodGet, "/v1/admin/views/customers?page=1&search=zzz", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"state":"empty"`))
		Expect(rec.Body.String()).To(ContainSubstring(`"has_more":false`))
		Expect(rec.Body.String()).To(ContainSubstring(`"total_pages":1`))
	})

	It("answers a missing table with 404 and points the shell at the schema explorer", func() {
		pages.result = repository.PageResult{Err: &repository.FetchError{
			Kind: repository.KindTableNotFound, Table: "videos", Err: repository.ErrTableNotFound,
		}}

		rec := do(e, http.MethodGet, "/v1/admin/views/videos", "")
		Expect(rec.Code).To(Equal(http.StatusNotFound))
		Expect(rec.Body.String()).To(MatchJSON(`{"error":"table not found","state":"table_not_found","table":"videos","navigate":"schema"}`))

		Expect(pub.All()).To(HaveLen(1))
		ev := pub.All()[0]
		Expect(ev.Type).To(Equal(events.TypeTableNotFound))
		Expect(ev.View).To(Equal("videos"))
		Expect(ev.Tab).To(Equal(events.TabSchema))
	})

	It("marks query failures as retryable", func() {
		pages.result = repository.PageResult{Err: &repository.FetchError{Kind: repository.KindQuery, Table: "film", Err: errBoom}}

		rec := do(e, http.MethodGet, "/v1/admin/views/films", "")
		Expect(rec.Code).To(Equal(http.StatusBadGateway))
		Expect(rec.Body.String()).To(ContainSubstring(`"retryable":true`))
		Expect(pub.All()).To(BeEmpty())
	})

	It("answers 503 while the database breaker is open", func() {
		pages.result = repository.PageResult{Err: &repository.FetchError{Kind: repository.KindUnavailable, Err: errors.New("circuit breaker is open")}}

		rec := do(e, http.MethodGet, "/v1/admin/views/films", "")
		Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))
	})

	It("answers 400 for invalid requests", func() {
		pages.result = repository.PageResult{Err: &repository.FetchError{Kind: repository.KindInvalid, Table: "film", Err: repository.ErrUnknownColumn}}
		rec := do(e, http.MethodGet, "/v1/admin/views/films?order=description", "")
		Expect(rec.Code).To(Equal(http.StatusBadRequest))

		rec = do(e, http.MethodGet, "/v1/admin/views/films?dir=sideways", "")
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		rec = do(e, http.MethodGet, "/v1/admin/views/films?page=-1", "")
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("answers 404 for an unknown view without fetching", func() {
		rec := do(e, http.MethodGet, "/v1/admin/views/nope", "")
		Expect(rec.Code).To(Equal(http.StatusNotFound))
		Expect(pages.calls).To(BeZero())
	})

	It("declares edit and delete but does not perform them", func() {
		rec := do(e, http.MethodPut, "/v1/admin/views/films/1", `{"title":"X"}`)
		Expect(rec.Code).To(Equal(http.StatusNotImplemented))
		Expect(rec.Body.String()).To(ContainSubstring(`"error":"not_implemented"`))

		rec = do(e, http.MethodDelete, "/v1/admin/views/films/1", "")
		Expect(rec.Code).To(Equal(http.StatusNotImplemented))

		rec = do(e, http.MethodDelete, "/v1/admin/views/nope/1", "")
		Expect(rec.Code).To(Equal(http.StatusNotFound))
		Expect(pages.calls).To(BeZero())
	})
})
