package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lumen-agency/site-core/internal/pkg/response"
	"github.com/redis/go-redis/v9"
)

const (
	idempotenceHeader    = "X-Idempotence"
	idempotenceTTL       = 60 * time.Second
	idempotenceKeyPrefix = "site-core:idempotence:"

	idemPending = "0"
	idemDone    = "1"
)

// Idempotence rejects a POST or PUT identical to one seen in the last
// idempotenceTTL with 409. Identity is the X-Idempotence header when sent,
// otherwise a hash over route, body and caller. A failed request releases
// its key so it can be retried. Paths ending in one of exempt pass through.
func Idempotence(rdb *redis.Client, exempt ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil || !idempotent(c.Request.Method) || isExempt(c.Request.URL.Path, exempt) {
			c.Next()
			return
		}

		key, err := idempotenceKey(c)
		if err != nil || key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		acquired, err := rdb.SetNX(ctx, key, idemPending, idempotenceTTL).Result()
		if err != nil {
			// redis unavailable; serve the request unguarded
			c.Next()
			return
		}
		if !acquired {
			state, getErr := rdb.Get(ctx, key).Result()
			if getErr != nil && !errors.Is(getErr, redis.Nil) {
				c.Next()
				return
			}
			if state == idemPending {
				response.Conflict(c, "identical request is still being processed")
				return
			}
			response.Conflict(c, "identical request already succeeded within the last 60 seconds")
			return
		}

		c.Next()

		if status := c.Writer.Status(); status >= 200 && status < 300 {
			rdb.SetXX(ctx, key, idemDone, idempotenceTTL)
			return
		}
		rdb.Del(ctx, key)
	}
}

func idempotent(method string) bool {
	return method == http.MethodPost || method == http.MethodPut
}

func isExempt(path string, exempt []string) bool {
	path = strings.TrimRight(path, "/")
	for _, suffix := range exempt {
		if suffix != "" && strings.HasSuffix(path, strings.TrimRight(suffix, "/")) {
			return true
		}
	}
	return false
}

func idempotenceKey(c *gin.Context) (string, error) {
	if hdr := strings.TrimSpace(c.GetHeader(idempotenceHeader)); hdr != "" {
		return idempotenceKeyPrefix + "h:" + hdr, nil
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return "", err
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	caller := extractToken(c)
	if caller == "" {
		caller = c.ClientIP() + "|" + c.Request.UserAgent()
	}
	if len(body) == 0 && strings.Trim(caller, "|") == "" {
		return "", nil
	}

	h := sha256.New()
	for _, part := range []string{c.Request.Method, c.Request.URL.String(), caller} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	h.Write(body)
	return idempotenceKeyPrefix + hex.EncodeToString(h.Sum(nil)), nil
}
