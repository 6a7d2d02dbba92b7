package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/gradeboard/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type AuthTestSuite struct {
	suite.Suite
	router *gin.Engine
}

func (s *AuthTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	store := cookie.NewStore([]byte("test-secret-key"))
	s.router.Use(sessions.Sessions(SessionCookieName, store))

	s.router.GET("/me", RequireSession(), func(c *gin.Context) {
		c.String(http.StatusOK, SessionID(c))
	})
	s.router.DELETE("/me", RequireSession(), func(c *gin.Context) {
		if err := ForgetSession(c); err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusNoContent)
	})
	s.router.GET("/collab", RequireAPIKey("secret"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
}

func (s *AuthTestSuite) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *AuthTestSuite) TestRequireSession_MintsAndReuses() {
	w := s.get("/me")
	s.Equal(http.StatusOK, w.Code)
	id := w.Body.String()
	s.True(session.ValidID(id))

	cookies := w.Result().Cookies()
	s.Require().NotEmpty(cookies)

	w2 := s.get("/me", cookies...)
	s.Equal(id, w2.Body.String(), "the cookie keeps the session")

	w3 := s.get("/me")
	s.NotEqual(id, w3.Body.String(), "a new visitor gets a new session")
}

func (s *AuthTestSuite) TestForgetSession() {
	w := s.get("/me")
	cookies := w.Result().Cookies()

	req := httptest.NewRequest(http.MethodDelete, "/me", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusNoContent, w.Code)

	expired := w.Result().Cookies()
	s.Require().NotEmpty(expired)
	s.Less(expired[len(expired)-1].MaxAge, 0)
}

func (s *AuthTestSuite) TestRequireAPIKey() {
	w := s.get("/collab")
	s.Equal(http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/collab", nil)
	req.Header.Set(APIKeyHeader, "secret")
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/collab", nil)
	req.Header.Set(APIKeyHeader, "wrong")
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func TestAuthTestSuite(t *testing.T) {
	suite.Run(t, new(AuthTestSuite))
}

func TestRequireAPIKey_EmptyKeyDisables(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/collab", RequireAPIKey(""), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/collab", nil)
	req.Header.Set(APIKeyHeader, "")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid API key")
}
