package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cartiq/cartiq-go/internal/domain"
	"github.com/cartiq/cartiq-go/internal/utils"
)

// welcomeMessageID is the fixed id of the seeded assistant greeting, so a
// transcript reset always converges to the same first message.
const welcomeMessageID = "welcome"

// compareLimit caps how many products can be selected for comparison.
const compareLimit = 2

const welcomeText = "Hi! I'm your shopping assistant. Ask me for product " +
	"recommendations, compare items, or get help finding what you need."

const fallbackText = "Sorry, I'm having trouble responding right now. " +
	"Please try again in a moment."

// ChatAPI is the backend surface the chat controller depends on.
type ChatAPI interface {
	SendChatMessage(ctx context.Context, req domain.ChatRequest, sessionID string) (*domain.ChatResponse, error)
}

// ChatSignals supplies the contextual signals attached to every chat turn.
// The cmd wiring adapts the auth, cart and recency services behind this.
type ChatSignals interface {
	UserID() string
	RecentProductIDs() []string
	RecentCategories() []string
	CartProductIDs() []string
	CartTotal() *float64
}

// ChatController owns one assistant conversation: the transcript, the
// backend-assigned session id and the compare selection. A backend failure
// never surfaces as an error; the transcript absorbs it as an apologetic
// assistant message so the conversation stays coherent.
type ChatController struct {
	api      ChatAPI
	signals  ChatSignals
	currency string
	log      zerolog.Logger

	mu        sync.Mutex
	messages  []domain.ChatMessage
	loading   bool
	sessionID string
	compare   []domain.ChatProduct

	now func() time.Time

	notifier notifier
}

// NewChatController returns a controller seeded with the welcome greeting.
// currency is the ISO 4217 code used when composing compare prompts.
func NewChatController(chatAPI ChatAPI, signals ChatSignals, currency string, log zerolog.Logger) *ChatController {
	c := &ChatController{
		api:      chatAPI,
		signals:  signals,
		currency: currency,
		log:      log,
		now:      time.Now,
	}
	c.messages = []domain.ChatMessage{c.welcome()}
	return c
}

func (c *ChatController) welcome() domain.ChatMessage {
	return domain.ChatMessage{
		ID:        welcomeMessageID,
		Role:      domain.RoleAssistant,
		Content:   welcomeText,
		Timestamp: c.now(),
	}
}

// Messages returns a copy of the transcript in order.
func (c *ChatController) Messages() []domain.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.ChatMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

// Loading reports whether an assistant reply is pending.
func (c *ChatController) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// SessionID returns the backend-assigned conversation id, or "" before the
// first reply.
func (c *ChatController) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Subscribe registers fn to run after every transcript or selection change
// and returns a cancel func.
func (c *ChatController) Subscribe(fn func()) func() { return c.notifier.subscribe(fn) }

// Reset clears the transcript back to the greeting and drops the session id,
// starting a fresh conversation. The compare selection survives.
func (c *ChatController) Reset() {
	c.mu.Lock()
	c.messages = []domain.ChatMessage{c.welcome()}
	c.sessionID = ""
	c.mu.Unlock()
	c.notifier.broadcast()
}

// Send appends text as a user message and requests the assistant's reply,
// attaching the caller's browsing and cart signals. Blank input and calls
// made while a reply is pending are ignored. Send never returns the backend
// error; failures become an apologetic assistant message.
func (c *ChatController) Send(ctx context.Context, text string) {
	text = strings.TrimSpace(text)

	c.mu.Lock()
	if text == "" || c.loading {
		c.mu.Unlock()
		return
	}
	c.messages = append(c.messages, domain.ChatMessage{
		ID:        uuid.NewString(),
		Role:      domain.RoleUser,
		Content:   text,
		Timestamp: c.now(),
	})
	c.loading = true
	sessionID := c.sessionID
	c.mu.Unlock()
	c.notifier.broadcast()

	req := domain.ChatRequest{Message: text}
	if c.signals != nil {
		req.UserID = c.signals.UserID()
		req.RecentlyViewedProductIDs = c.signals.RecentProductIDs()
		req.RecentCategories = c.signals.RecentCategories()
		req.CartProductIDs = c.signals.CartProductIDs()
		req.CartTotal = c.signals.CartTotal()
	}

	resp, err := c.api.SendChatMessage(ctx, req, sessionID)

	c.mu.Lock()
	c.loading = false
	if err != nil {
		c.log.Debug().Err(err).Msg("chat turn failed; falling back")
		c.messages = append(c.messages, domain.ChatMessage{
			ID:        uuid.NewString(),
			Role:      domain.RoleAssistant,
			Content:   fallbackText,
			Timestamp: c.now(),
		})
		c.mu.Unlock()
		c.notifier.broadcast()
		return
	}
	if c.sessionID == "" && resp.SessionID != "" {
		c.sessionID = resp.SessionID
	}
	c.messages = append(c.messages, domain.ChatMessage{
		ID:        uuid.NewString(),
		Role:      domain.RoleAssistant,
		Content:   resp.Message,
		Timestamp: c.now(),
		Products:  resp.Products,
	})
	c.mu.Unlock()
	c.notifier.broadcast()
}

// ToggleCompare adds a recommended product to the compare selection, or
// removes it when already selected. A third distinct product is silently
// rejected; the selection never exceeds two.
func (c *ChatController) ToggleCompare(p domain.ChatProduct) {
	c.mu.Lock()
	for i, sel := range c.compare {
		if sel.ID == p.ID {
			c.compare = append(c.compare[:i], c.compare[i+1:]...)
			c.mu.Unlock()
			c.notifier.broadcast()
			return
		}
	}
	if len(c.compare) >= compareLimit {
		c.mu.Unlock()
		return
	}
	c.compare = append(c.compare, p)
	c.mu.Unlock()
	c.notifier.broadcast()
}

// InCompare reports whether the product is currently selected.
func (c *ChatController) InCompare(productID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, sel := range c.compare {
		if sel.ID == productID {
			return true
		}
	}
	return false
}

// CompareSelection returns a copy of the current selection.
func (c *ChatController) CompareSelection() []domain.ChatProduct {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.ChatProduct, len(c.compare))
	copy(out, c.compare)
	return out
}

// ClearCompare empties the selection.
func (c *ChatController) ClearCompare() {
	c.mu.Lock()
	c.compare = nil
	c.mu.Unlock()
	c.notifier.broadcast()
}

// Compare sends a comparison prompt for the two selected products and clears
// the selection. A no-op unless exactly two products are selected and no
// reply is pending.
func (c *ChatController) Compare(ctx context.Context) {
	c.mu.Lock()
	if len(c.compare) != compareLimit || c.loading {
		c.mu.Unlock()
		return
	}
	a, b := c.compare[0], c.compare[1]
	c.compare = nil
	c.mu.Unlock()
	c.notifier.broadcast()

	prompt := fmt.Sprintf("Compare %q (%s, %s) with %q (%s, %s). Help me decide which one to buy.",
		a.Name, a.Brand, utils.FormatPrice(a.Price, c.currency),
		b.Name, b.Brand, utils.FormatPrice(b.Price, c.currency))
	c.Send(ctx, prompt)
}
