package stub

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cartiq/cartiq-go/internal/domain"
)

// handleChat serves a canned but signal-aware assistant reply. Products in
// the reply come from the caller's recent categories where possible, so the
// demo client visibly reacts to browsing context.
func (s *Server) handleChat(c *gin.Context) {
	var req domain.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		fail(c, http.StatusBadRequest, "bad_request", "message is required")
		return
	}

	sessionID := c.GetHeader("X-Session-Id")
	s.mu.Lock()
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	s.chatTurns[sessionID]++
	turn := s.chatTurns[sessionID]

	wantCategories := make(map[string]struct{}, len(req.RecentCategories))
	for _, cat := range req.RecentCategories {
		wantCategories[cat] = struct{}{}
	}
	var picks []domain.ChatProduct
	for _, p := range s.products {
		if len(picks) == 3 {
			break
		}
		_, recent := wantCategories[p.CategoryName]
		if len(wantCategories) > 0 && !recent {
			continue
		}
		reason := "popular right now"
		if recent {
			reason = "matches what you have been browsing"
		}
		picks = append(picks, domain.ChatProduct{
			ID:           p.ID,
			Name:         p.Name,
			Brand:        p.Brand,
			Price:        p.Price,
			ThumbnailURL: p.ThumbnailURL,
			CategoryName: p.CategoryName,
			Reason:       reason,
		})
	}
	s.mu.Unlock()

	msg := fmt.Sprintf("Here are some picks for %q.", strings.TrimSpace(req.Message))
	if turn > 1 {
		msg = fmt.Sprintf("Following up on our chat, here is what I found for %q.", strings.TrimSpace(req.Message))
	}
	c.JSON(http.StatusOK, domain.ChatResponse{
		Message:   msg,
		Products:  picks,
		SessionID: sessionID,
	})
}

func (s *Server) handleChatHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
