package stub

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cartiq/cartiq-go/internal/domain"
)

// fail writes the standard error envelope the client's API layer decodes.
func fail(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"code": code, "message": message})
}

// authed resolves the bearer token to an account, or writes a 401.
func (s *Server) authed(c *gin.Context) (*account, bool) {
	h := c.GetHeader("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		fail(c, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	email, ok := s.tokens[strings.TrimPrefix(h, "Bearer ")]
	if !ok {
		fail(c, http.StatusUnauthorized, "unauthorized", "invalid token")
		return nil, false
	}
	return s.accounts[email], true
}

func (s *Server) handleRegister(c *gin.Context) {
	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "bad_request", "invalid body")
		return
	}
	if req.Email == "" || req.Password == "" {
		fail(c, http.StatusBadRequest, "bad_request", "email and password are required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[req.Email]; exists {
		fail(c, http.StatusConflict, "conflict", "email already registered")
		return
	}
	now := time.Now()
	acct := &account{
		user: domain.User{
			ID:        uuid.NewString(),
			Email:     req.Email,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Phone:     req.Phone,
			Role:      "CUSTOMER",
			Enabled:   true,
			CreatedAt: now,
			UpdatedAt: now,
		},
		password: req.Password,
		prefs:    domain.UserPreference{ID: uuid.NewString(), Currency: "INR", Language: "en"},
	}
	s.accounts[req.Email] = acct
	c.JSON(http.StatusCreated, domain.AuthResponse{
		AccessToken: s.issueToken(req.Email),
		TokenType:   "Bearer",
		ExpiresIn:   86400,
		User:        acct.user,
	})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "bad_request", "invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[req.Email]
	if !ok || acct.password != req.Password {
		fail(c, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
		return
	}
	c.JSON(http.StatusOK, domain.AuthResponse{
		AccessToken: s.issueToken(req.Email),
		TokenType:   "Bearer",
		ExpiresIn:   86400,
		User:        acct.user,
	})
}

func (s *Server) handleLogout(c *gin.Context) {
	h := c.GetHeader("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		s.mu.Lock()
		delete(s.tokens, strings.TrimPrefix(h, "Bearer "))
		s.mu.Unlock()
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleCurrentUser(c *gin.Context) {
	acct, ok := s.authed(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, acct.user)
}

func (s *Server) handleUpdateProfile(c *gin.Context) {
	acct, ok := s.authed(c)
	if !ok {
		return
	}
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		fail(c, http.StatusBadRequest, "bad_request", "invalid body")
		return
	}
	s.mu.Lock()
	if v, ok := fields["firstName"].(string); ok {
		acct.user.FirstName = v
	}
	if v, ok := fields["lastName"].(string); ok {
		acct.user.LastName = v
	}
	if v, ok := fields["phone"].(string); ok {
		acct.user.Phone = v
	}
	acct.user.UpdatedAt = time.Now()
	out := acct.user
	s.mu.Unlock()
	c.JSON(http.StatusOK, out)
}

func (s *Server) handlePreferences(c *gin.Context) {
	acct, ok := s.authed(c)
	if !ok {
		return
	}
	s.mu.Lock()
	out := acct.prefs
	s.mu.Unlock()
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleUpdatePreferences(c *gin.Context) {
	acct, ok := s.authed(c)
	if !ok {
		return
	}
	var prefs domain.UserPreference
	if err := c.ShouldBindJSON(&prefs); err != nil {
		fail(c, http.StatusBadRequest, "bad_request", "invalid body")
		return
	}
	s.mu.Lock()
	prefs.ID = acct.prefs.ID
	acct.prefs = prefs
	s.mu.Unlock()
	c.JSON(http.StatusOK, prefs)
}
