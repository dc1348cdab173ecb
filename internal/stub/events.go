package stub

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// handleEvent ingests one analytics event. The stub validates shape loosely,
// counts per family and discards the payload.
func (s *Server) handleEvent(family string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil {
			fail(c, http.StatusBadRequest, "bad_request", "invalid body")
			return
		}
		if sid, _ := body["sessionId"].(string); sid == "" {
			fail(c, http.StatusBadRequest, "bad_request", "sessionId is required")
			return
		}
		s.mu.Lock()
		s.events[family]++
		s.mu.Unlock()
		s.log.Debug().Str("family", family).Msg("event ingested")
		c.Status(http.StatusAccepted)
	}
}

// EventCount reports how many events of a family have been ingested.
func (s *Server) EventCount(family string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events[family]
}
