package events_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/iliyamo/sakila-admin/internal/events"
)

var _ = Describe("audit log", func() {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	It("formats one line per event with only the set fields", func() {
		e := events.Event{ID: "e1", Type: events.TypeTableNotFound, Tab: "schema", Table: "videos", Reason: "table videos not found", At: at}
		Expect(events.FormatLine(e)).To(Equal(
			`[2024-03-01T12:00:00Z] table_not_found | id=e1 | tab=schema | table=videos | reason="table videos not found"` + "\n"))
	})

	It("appends decoded events to the log file", func() {
		dir := filepath.Join(GinkgoT().TempDir(), "logs")

		Expect(events.HandleMessage(dir, []byte(`{"id":"a","type":"navigate","tab":"dashboard","at":"2024-03-01T12:00:00Z"}`))).To(Succeed())
		Expect(events.HandleMessage(dir, []byte(`{"id":"b","type":"schema_invalidated","at":"2024-03-01T12:00:01Z"}`))).To(Succeed())

		b, err := os.ReadFile(filepath.Join(dir, events.LogFile))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(b)).To(Equal(
			"[2024-03-01T12:00:00Z] navigate | id=a | tab=dashboard\n" +
				"[2024-03-01T12:00:01Z] schema_invalidated | id=b\n"))
	})

	It("rejects bodies that are not events", func() {
		dir := GinkgoT().TempDir()
		Expect(events.HandleMessage(dir, []byte(`not json`))).To(MatchError(ContainSubstring("unmarshal")))
		Expect(events.HandleMessage(dir, []byte(`{"id":"x"}`))).To(HaveOccurred())
		_, err := os.Stat(filepath.Join(dir, events.LogFile))
		Expect(os.IsNotExist(err)).To(BeTrue())
	})
})

var _ = Describe("consumer supervision", func() {
	It("reconnects with backoff until the context ends", func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		b := backoff.NewExponentialBackOff()
		b.InitialInterval = time.Millisecond
		b.MaxElapsedTime = 0

		runs := 0
		var waits []time.Duration
		err := events.Supervise(ctx, b, func() error {
			runs++
			if runs == 3 {
				cancel()
				return nil
			}
			return errors.New("connection refused")
		}, func(_ error, d time.Duration) { waits = append(waits, d) })

		Expect(err).To(MatchError(context.Canceled))
		Expect(runs).To(Equal(3))
		Expect(waits).To(HaveLen(2))
	})

	It("treats a clean return as a disconnect", func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var reasons []error
		runs := 0
		err := events.Supervise(ctx, &backoff.ZeroBackOff{}, func() error {
			runs++
			if runs == 2 {
				cancel()
			}
			return nil
		}, func(err error, _ time.Duration) { reasons = append(reasons, err) })

		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		Expect(reasons).To(HaveLen(1))
		Expect(reasons[0]).To(MatchError("consume loop ended"))
	})
})
