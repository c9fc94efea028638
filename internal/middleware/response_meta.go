package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	responseMetaKey  = "response_meta"
	requestStartKey  = "request_start"
	metaCacheHit     = "cache_hit"
	metaView         = "view"
	metaRole         = "role"
	metaProcessingMS = "processing_time_ms"
)

// WithResponseMeta gives each request an empty envelope meta map and notes
// when the request arrived.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(requestStartKey, time.Now())
		c.Set(responseMetaKey, map[string]interface{}{})
		c.Next()
	}
}

// RecordViewCache notes whether the rendered view was served from the Redis
// view cache. Cached views are scoped per role, so the caller's role is
// recorded next to the view path.
func RecordViewCache(c *gin.Context, view string, hit bool) {
	meta := ensureMeta(c)
	meta[metaCacheHit] = hit
	if view != "" {
		meta[metaView] = view
	}
	if caller := CallerFromContext(c); caller != nil {
		meta[metaRole] = caller.Role
	}
}

// ResponseMeta returns the meta map for the envelope, stamped with the time
// spent since WithResponseMeta saw the request.
func ResponseMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	meta := ensureMeta(c)
	if start, ok := c.Get(requestStartKey); ok {
		if at, ok := start.(time.Time); ok {
			meta[metaProcessingMS] = time.Since(at).Milliseconds()
		}
	}
	return meta
}

func ensureMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return map[string]interface{}{}
	}
	if meta, exists := c.Get(responseMetaKey); exists {
		if typed, ok := meta.(map[string]interface{}); ok {
			return typed
		}
	}
	meta := make(map[string]interface{})
	c.Set(responseMetaKey, meta)
	return meta
}
