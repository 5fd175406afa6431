package handler_test

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/iliyamo/sakila-admin/internal/events"
	"github.com/iliyamo/sakila-admin/internal/handler"
	"github.com/iliyamo/sakila-admin/internal/view"
)

var _ = Describe("marketing page", func() {
	It("serves the landing page as cacheable HTML", func() {
		e := newEcho()
		e.GET("/", handler.Landing)
		rec := do(e, http.MethodGet, "/", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get(echo.HeaderContentType)).To(HavePrefix(echo.MIMETextHTML))
		Expect(rec.Header().Get(echo.HeaderCacheControl)).To(ContainSubstring("max-age"))
		Expect(rec.Body.String()).To(ContainSubstring("Sakila Video"))
	})

	It("redirects /admin to the shell", func() {
		e := newEcho()
		e.GET("/admin", handler.AdminRedirect)
		rec := do(e, http.MethodGet, "/admin", "")
		Expect(rec.Code).To(Equal(http.StatusFound))
		Expect(rec.Header().Get(echo.HeaderLocation)).To(Equal("/v1/admin/shell"))
	})
})

var _ = Describe("health", func() {
	It("reports liveness without the database", func() {
		e := newEcho()
		e.GET("/healthz", handler.Health)
		Expect(do(e, http.MethodGet, "/healthz", "").Body.String()).To(Equal("ok"))
	})

	It("reports readiness from a live ping", func() {
		e := newEcho()
		e.GET("/up", handler.Ready(fakePinger{}))
		e.GET("/down", handler.Ready(fakePinger{err: errBoom}))
		Expect(do(e, http.MethodGet, "/up", "").Code).To(Equal(http.StatusOK))
		Expect(do(e, http.MethodGet, "/down", "").Code).To(Equal(http.StatusServiceUnavailable))
	})
})

var _ = Describe("ShellHandler", func() {
	It("records a failed startup check", func() {
		conn := handler.CheckConnectivity(context.Background(), fakePinger{err: errBoom}, time.Second)
		Expect(conn.OK).To(BeFalse())
		Expect(conn.Error).To(Equal("boom"))
	})

	It("lists every view under the data section", func() {
		conn := handler.CheckConnectivity(context.Background(), fakePinger{}, time.Second)
		Expect(conn.OK).To(BeTrue())

		e := newEcho()
		e.GET("/shell", handler.NewShellHandler(view.Default(), conn).Shell)
		rec := do(e, http.MethodGet, "/shell", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		body := rec.Body.String()
		Expect(body).To(ContainSubstring(`"default_tab":"` + events.TabDashboard + `"`))
		Expect(body).To(ContainSubstring(`"/v1/admin/views/films"`))
		Expect(body).To(ContainSubstring(`"ok":true`))
	})
})

var _ = Describe("EventsHandler.Navigate", func() {
	var (
		e   *echo.Echo
		bus *events.Bus
	)

	BeforeEach(func() {
		bus = events.NewBus()
		e = newEcho()
		e.POST("/navigate", handler.NewEventsHandler(bus).Navigate)
	})

	It("broadcasts a tab change to subscribers", func() {
		ch, cancel := bus.Subscribe()
		defer cancel()

		rec := do(e, http.MethodPost, "/navigate", `{"tab":"schema","reason":"look"}`)
		Expect(rec.Code).To(Equal(http.StatusAccepted))

		var got events.Event
		Eventually(ch).Should(Receive(&got))
		Expect(got.Type).To(Equal(events.TypeNavigate))
		Expect(got.Tab).To(Equal(events.TabSchema))
		Expect(got.Reason).To(Equal("look"))
	})

	It("rejects unknown tabs", func() {
		Expect(do(e, http.MethodPost, "/navigate", `{"tab":"settings"}`).Code).To(Equal(http.StatusBadRequest))
		Expect(do(e, http.MethodPost, "/navigate", `{}`).Code).To(Equal(http.StatusBadRequest))
	})
})
