package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"wallet-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const idempotencyKeyHeader = "Idempotency-Key"

type storedResponse struct {
	Status int    `json:"status"`
	Body   string `json:"body"`
}

// bodyCapture tees the response body so a successful response can be
// replayed for retries carrying the same idempotency key.
type bodyCapture struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyCapture) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays completed responses for requests that repeat an
// Idempotency-Key header. Keys are scoped per authenticated user and route.
// Requests without the header pass through untouched; the ledger core itself
// never dedupes.
func Idempotency(cache ports.IdempotencyCache, ttl time.Duration, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(idempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}

		userID, _ := c.Get(CtxUserID)
		scoped := key + ":" + c.Request.Method + ":" + c.FullPath()
		if id, ok := userID.(uuid.UUID); ok {
			scoped = id.String() + ":" + scoped
		}

		ctx := c.Request.Context()

		cached, err := cache.Get(ctx, scoped)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("idempotency lookup failed, processing request")
		}
		if cached != nil {
			var stored storedResponse
			if err := json.Unmarshal(cached, &stored); err == nil {
				c.Header("Idempotency-Replayed", "true")
				c.Data(stored.Status, "application/json; charset=utf-8", []byte(stored.Body))
				c.Abort()
				return
			}
			log.Warn().Str("key", key).Msg("stored idempotent response undecodable, processing request")
		}

		claimed, err := cache.SetInProgress(ctx, scoped, ttl)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("idempotency claim failed, processing request")
		} else if !claimed {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"error_code": "SYS_003",
				"message":    "A request with this idempotency key is already in progress",
			})
			return
		}

		capture := &bodyCapture{ResponseWriter: c.Writer}
		c.Writer = capture

		c.Next()

		status := c.Writer.Status()
		if status >= http.StatusBadRequest {
			// Release the claim so the caller can retry after a failure.
			if err := cache.Delete(ctx, scoped); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("failed to release idempotency claim")
			}
			return
		}

		payload, err := json.Marshal(storedResponse{Status: status, Body: capture.buf.String()})
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("failed to encode idempotent response")
			return
		}
		if err := cache.Set(ctx, scoped, payload, ttl); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("failed to persist idempotent response")
		}
	}
}
