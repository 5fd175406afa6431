package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sakila-admin/internal/cache"
	"github.com/iliyamo/sakila-admin/internal/config"
	"github.com/iliyamo/sakila-admin/internal/logging"
)

// captureWriter copies the response body, up to limit bytes, while
// forwarding it to the client.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	size   int64
	limit  int64
}

func (cw *captureWriter) WriteHeader(code int) { cw.status = code; cw.ResponseWriter.WriteHeader(code) }

func (cw *captureWriter) Write(b []byte) (int, error) {
	switch {
	case cw.limit <= 0:
		cw.buf.Write(b)
	case cw.size < cw.limit:
		remain := cw.limit - cw.size
		if int64(len(b)) <= remain {
			cw.buf.Write(b)
		} else {
			cw.buf.Write(b[:remain])
		}
	}
	cw.size += int64(len(b))
	return cw.ResponseWriter.Write(b)
}

// cacheKeyFrom builds a stable key under cfg.Prefix.  The caller's role is
// part of every key so ADMIN-only fields never leak to a VIEWER.
func cacheKeyFrom(cfg config.CacheConfig, c echo.Context) string {
	r := c.Request()
	parts := []string{"role", Role(c)}
	switch strings.ToLower(cfg.KeyStrategy) {
	case "route":
		parts = append(parts, "route", c.Path())
	case "method_route":
		parts = append(parts, "method", r.Method, "route", c.Path())
	case "method_route_query":
		parts = append(parts, "method", r.Method, "route", c.Path(), "q", r.URL.RawQuery)
	default: // route_query; c.Path() is the pattern, so the concrete path keeps :view apart
		parts = append(parts, "route", r.URL.Path, "q", r.URL.RawQuery)
	}
	sum := sha1.Sum([]byte(strings.Join(parts, ":")))
	return fmt.Sprintf("%s:%x", cfg.Prefix, sum[:])
}

// encodePayload packs [4 bytes status][4 bytes header length][header JSON][body].
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
	hdrJSON, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 8+len(hdrJSON)+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
	copy(out[8:], hdrJSON)
	copy(out[8+len(hdrJSON):], body)
	return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
	if len(bs) < 8 {
		return 0, nil, nil, false
	}
	status = int(binary.BigEndian.Uint32(bs[0:4]))
	hlen := int(binary.BigEndian.Uint32(bs[4:8]))
	if hlen < 0 || 8+hlen > len(bs) {
		return 0, nil, nil, false
	}
	header = make(http.Header)
	if hlen > 0 {
		if err := json.Unmarshal(bs[8:8+hlen], &header); err != nil {
			return 0, nil, nil, false
		}
	}
	return status, header, bs[8+hlen:], true
}

func bypassCache(r *http.Request) bool {
	cc := strings.ToLower(r.Header.Get("Cache-Control"))
	return strings.Contains(cc, "no-cache") || strings.Contains(cc, "no-store")
}

// ResponseCache serves repeated requests from store.  A request carrying
// Cache-Control: no-cache skips the lookup but still refreshes the entry.
// Only 200 responses are stored.
func ResponseCache(cfg config.CacheConfig, store cache.Store) echo.MiddlewareFunc {
	if !cfg.Enabled || store == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	maxBody := int64(cfg.MaxBodyBytes)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !cfg.Methods[strings.ToUpper(req.Method)] {
				return next(c)
			}
			key := cacheKeyFrom(cfg, c)

			if !bypassCache(req) {
				if bs, ok, err := store.Get(req.Context(), key); err == nil && ok {
					if status, hdr, body, ok := decodePayload(bs); ok {
						for k, vals := range hdr {
							if strings.EqualFold(k, echo.HeaderContentLength) || strings.EqualFold(k, "X-Cache") {
								continue
							}
							for _, v := range vals {
								c.Response().Header().Add(k, v)
							}
						}
						c.Response().Header().Set("X-Cache", "HIT")
						c.Response().WriteHeader(status)
						if len(body) > 0 {
							_, _ = c.Response().Write(body)
						}
						return nil
					}
				}
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: maxBody}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}
			if cw.status != http.StatusOK || (maxBody > 0 && cw.size > maxBody) {
				return nil
			}
			hdr := c.Response().Header().Clone()
			payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes())
			if err != nil {
				return nil
			}
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := store.Set(ctx, key, payload, ttl); err != nil {
				logging.Warn().Err(err).Msg("response cache write failed")
			}
			return nil
		}
	}
}

// PurgeResponses drops every cached response under cfg.Prefix.
func PurgeResponses(ctx context.Context, cfg config.CacheConfig, store cache.Store) error {
	if store == nil {
		return nil
	}
	return store.DeletePrefix(ctx, cfg.Prefix+":")
}
