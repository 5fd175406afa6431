package utils_test

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/sakila-admin/internal/utils"
)

var _ = Describe("access tokens", func() {
	It("round-trips the admin id and role", func() {
		at, err := utils.NewAccessToken("s3cret", 42, "ADMIN", 15)
		Expect(err).NotTo(HaveOccurred())
		Expect(at.Exp).To(BeTemporally("~", time.Now().Add(15*time.Minute), 5*time.Second))

		claims, tok, err := utils.ParseAccessToken("s3cret", at.Token)
		Expect(err).NotTo(HaveOccurred())
		Expect(tok.Valid).To(BeTrue())
		Expect(claims).To(Equal(utils.Claims{UserID: 42, Role: "ADMIN"}))
	})

	It("rejects a token signed with another secret", func() {
		at, _ := utils.NewAccessToken("one", 1, "VIEWER", 15)
		_, _, err := utils.ParseAccessToken("two", at.Token)
		Expect(err).To(MatchError(utils.ErrInvalidToken))
	})

	It("rejects expired tokens", func() {
		at, _ := utils.NewAccessToken("s", 1, "VIEWER", -1)
		_, _, err := utils.ParseAccessToken("s", at.Token)
		Expect(err).To(MatchError(utils.ErrInvalidToken))
	})

	It("rejects the none algorithm", func() {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "1"}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		Expect(err).NotTo(HaveOccurred())
		_, _, err = utils.ParseAccessToken("s", raw)
		Expect(err).To(MatchError(utils.ErrInvalidToken))
	})
})

var _ = Describe("refresh tokens", func() {
	It("are random and hashed deterministically", func() {
		a, err := utils.NewRefreshToken(7)
		Expect(err).NotTo(HaveOccurred())
		b, _ := utils.NewRefreshToken(7)

		Expect(a.Raw).To(HaveLen(96))
		Expect(a.Raw).NotTo(Equal(b.Raw))
		Expect(utils.HashRefreshRaw(a.Raw)).To(Equal(utils.HashRefreshRaw(a.Raw)))
		Expect(utils.HashRefreshRaw(a.Raw)).To(HaveLen(64))
		Expect(a.Exp).To(BeTemporally("~", time.Now().Add(7*24*time.Hour), 5*time.Second))
	})
})

var _ = Describe("passwords", func() {
	It("hashes and verifies", func() {
		h, err := utils.HashPassword("correct horse", bcrypt.MinCost)
		Expect(err).NotTo(HaveOccurred())
		Expect(utils.VerifyPassword(h, "correct horse")).To(BeTrue())
		Expect(utils.VerifyPassword(h, "wrong horse")).To(BeFalse())
	})

	It("refuses short passwords", func() {
		_, err := utils.HashPassword("short", bcrypt.MinCost)
		Expect(err).To(MatchError(utils.ErrWeakPassword))
	})
})
