package cache_test

import (
	"context"
	"fmt"
	"time"

	"github.com/alicebob/miniredis/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/sakila-admin/internal/cache"
)

// storeBehaviour runs the contract every Store must satisfy.
func storeBehaviour(newStore func() cache.Store) {
	var (
		ctx context.Context
		s   cache.Store
	)

	BeforeEach(func() {
		ctx = context.Background()
		s = newStore()
	})

	It("misses on an unknown key", func() {
		_, ok, err := s.Get(ctx, "schema:exists:film")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})

	It("returns what was stored", func() {
		Expect(s.Set(ctx, "schema:exists:film", []byte("1"), time.Minute)).To(Succeed())
		v, ok, err := s.Get(ctx, "schema:exists:film")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(string(v)).To(Equal("1"))
	})

	It("deletes single keys", func() {
		Expect(s.Set(ctx, "a", []byte("x"), 0)).To(Succeed())
		Expect(s.Set(ctx, "b", []byte("y"), 0)).To(Succeed())
		Expect(s.Delete(ctx, "a", "missing")).To(Succeed())

		_, ok, _ := s.Get(ctx, "a")
		Expect(ok).To(BeFalse())
		_, ok, _ = s.Get(ctx, "b")
		Expect(ok).To(BeTrue())
	})

	It("deletes by prefix only", func() {
		Expect(s.Set(ctx, "schema:exists:film", []byte("1"), 0)).To(Succeed())
		Expect(s.Set(ctx, "schema:exists:videos", []byte("0"), 0)).To(Succeed())
		Expect(s.Set(ctx, "sakila:resp:/v1/admin/views/films", []byte("{}"), 0)).To(Succeed())

		Expect(s.DeletePrefix(ctx, "schema:exists:")).To(Succeed())

		_, ok, _ := s.Get(ctx, "schema:exists:film")
		Expect(ok).To(BeFalse())
		_, ok, _ = s.Get(ctx, "schema:exists:videos")
		Expect(ok).To(BeFalse())
		_, ok, _ = s.Get(ctx, "sakila:resp:/v1/admin/views/films")
		Expect(ok).To(BeTrue())
	})
}

var _ = Describe("Memory", func() {
	storeBehaviour(func() cache.Store { return cache.NewMemory() })

	It("expires entries after their ttl", func() {
		m := cache.NewMemory()
		ctx := context.Background()
		Expect(m.Set(ctx, "k", []byte("v"), 20*time.Millisecond)).To(Succeed())
		Eventually(func() bool {
			_, ok, _ := m.Get(ctx, "k")
			return ok
		}).WithTimeout(time.Second).Should(BeFalse())
	})

	It("copies stored values", func() {
		m := cache.NewMemory()
		ctx := context.Background()
		buf := []byte("1")
		Expect(m.Set(ctx, "k", buf, 0)).To(Succeed())
		buf[0] = '0'
		v, _, _ := m.Get(ctx, "k")
		Expect(string(v)).To(Equal("1"))
	})

	Context("with a manual clock", func() {
		var (
			ctx context.Context
			now time.Time
		)

		BeforeEach(func() {
			ctx = context.Background()
			now = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		})

		clock := func() time.Time { return now }

		It("sweeps expired entries that are never read again", func() {
			m := cache.NewMemory(cache.WithClock(clock), cache.WithSweepInterval(time.Minute))
			Expect(m.Set(ctx, "q=a", []byte("1"), time.Second)).To(Succeed())
			Expect(m.Set(ctx, "q=b", []byte("2"), time.Second)).To(Succeed())
			Expect(m.Len()).To(Equal(2))

			now = now.Add(2 * time.Minute)
			Expect(m.Set(ctx, "q=c", []byte("3"), time.Second)).To(Succeed())
			Expect(m.Len()).To(Equal(1))
		})

		It("evicts the entry closest to expiry when full", func() {
			m := cache.NewMemory(cache.WithClock(clock), cache.WithMaxEntries(3))
			Expect(m.Set(ctx, "a", []byte("a"), time.Hour)).To(Succeed())
			Expect(m.Set(ctx, "b", []byte("b"), 10*time.Minute)).To(Succeed())
			Expect(m.Set(ctx, "c", []byte("c"), 0)).To(Succeed())

			Expect(m.Set(ctx, "a", []byte("a2"), time.Hour)).To(Succeed())
			Expect(m.Len()).To(Equal(3))

			Expect(m.Set(ctx, "d", []byte("d"), time.Hour)).To(Succeed())
			Expect(m.Len()).To(Equal(3))
			_, ok, _ := m.Get(ctx, "b")
			Expect(ok).To(BeFalse())
			for _, k := range []string{"a", "c", "d"} {
				_, ok, _ := m.Get(ctx, k)
				Expect(ok).To(BeTrue(), k)
			}
		})
	})
})

var _ = Describe("RedisStore", func() {
	var mr *miniredis.Miniredis

	BeforeEach(func() {
		mr = miniredis.RunT(GinkgoT())
	})

	storeBehaviour(func() cache.Store {
		return cache.NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	})

	It("expires entries after their ttl", func() {
		s := cache.NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
		ctx := context.Background()
		Expect(s.Set(ctx, "k", []byte("v"), time.Minute)).To(Succeed())
		mr.FastForward(2 * time.Minute)
		_, ok, err := s.Get(ctx, "k")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})

	It("deletes more keys than one scan batch", func() {
		s := cache.NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
		ctx := context.Background()
		for i := 0; i < 450; i++ {
			Expect(s.Set(ctx, fmt.Sprintf("p:%d", i), []byte("x"), 0)).To(Succeed())
		}
		Expect(s.DeletePrefix(ctx, "p:")).To(Succeed())
		Expect(mr.Keys()).To(BeEmpty())
	})
})
