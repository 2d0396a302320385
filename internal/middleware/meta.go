package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dept-scheduler-api/pkg/middleware/requestid"
)

const (
	responseMetaKey = "response_meta"
	metaStartedKey  = "response_meta_started"

	// RevisionHeader lets clients compare a listing with the change feed.
	RevisionHeader = "X-Schedule-Revision"
	cacheHeader    = "X-Cache"
)

// WithResponseMeta starts the per-request meta block carried in the envelope.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(metaStartedKey, time.Now())
		c.Set(responseMetaKey, map[string]interface{}{})
		c.Next()
	}
}

// SetCacheHit records whether the listing came from the schedule cache.
func SetCacheHit(c *gin.Context, hit bool) {
	ensureMeta(c)["cache_hit"] = hit
	if c == nil {
		return
	}
	if hit {
		c.Header(cacheHeader, "HIT")
	} else {
		c.Header(cacheHeader, "MISS")
	}
}

// SetRevision records the department revision a response was built at.
func SetRevision(c *gin.Context, revision int64) {
	ensureMeta(c)["revision"] = revision
	if c != nil {
		c.Header(RevisionHeader, strconv.FormatInt(revision, 10))
	}
}

// ExtractMeta returns the meta block, stamped with the request id and the
// time spent so far. It is nil outside WithResponseMeta.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	meta, ok := lookupMeta(c)
	if !ok {
		return nil
	}
	if id := requestid.Value(c); id != "" {
		meta["request_id"] = id
	}
	if started, ok := c.Get(metaStartedKey); ok {
		if at, ok := started.(time.Time); ok {
			meta["processing_time_ms"] = time.Since(at).Milliseconds()
		}
	}
	return meta
}

func lookupMeta(c *gin.Context) (map[string]interface{}, bool) {
	if meta, exists := c.Get(responseMetaKey); exists {
		if typed, ok := meta.(map[string]interface{}); ok {
			return typed, true
		}
	}
	return nil, false
}

func ensureMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return map[string]interface{}{}
	}
	if meta, ok := lookupMeta(c); ok {
		return meta
	}
	meta := make(map[string]interface{})
	c.Set(responseMetaKey, meta)
	return meta
}
