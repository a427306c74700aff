package devserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tOgg1/thinkchat/internal/api"
	"github.com/tOgg1/thinkchat/internal/logging"
)

const (
	tokenKey       = "token"
	maxMessageSize = 4000
)

// Server serves the messaging API from a Store.
type Server struct {
	store  *Store
	engine *gin.Engine
	logger zerolog.Logger
}

// New builds a Server backed by store.
func New(store *Store) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		store:  store,
		engine: gin.New(),
		logger: logging.Component("devserver"),
	}
	s.engine.Use(gin.Recovery(), s.requestLogger())
	s.routes()
	return s
}

// Store returns the backing store.
func (s *Server) Store() *Store { return s.store }

// Handler returns the HTTP handler, for use with httptest.
func (s *Server) Handler() http.Handler { return s.engine }

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("dev server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) routes() {
	s.engine.POST("/api/authenticate", s.handleAuthenticate)

	authed := s.engine.Group("/api", s.requireBearer())
	authed.GET("/children", s.handleChildren)
	authed.GET("/messages/:id", s.handleListMessages)
	authed.POST("/messages/:id", s.handlePostMessage)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}

func (s *Server) requireBearer() gin.HandlerFunc {
	return func(c *gin.Context) {
		scheme, token, ok := strings.Cut(c.GetHeader("Authorization"), " ")
		token = strings.TrimSpace(token)
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		c.Set(tokenKey, token)
		c.Next()
	}
}

// handleAuthenticate answers 200 for both outcomes; failures carry an error field.
func (s *Server) handleAuthenticate(c *gin.Context) {
	if c.PostForm("type") != "parent" {
		c.JSON(http.StatusOK, gin.H{"error": "Only parent accounts can sign in here."})
		return
	}
	token, err := s.store.Login(c.PostForm("email"), c.PostForm("password"))
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"error": "Invalid email or password."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (s *Server) handleChildren(c *gin.Context) {
	children, err := s.store.Children(c.GetString(tokenKey))
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, children)
}

func (s *Server) handleListMessages(c *gin.Context) {
	msgs, err := s.store.Messages(c.GetString(tokenKey), c.Param("id"))
	if err != nil {
		s.abort(c, err)
		return
	}
	out := make([]gin.H, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, gin.H{
			"id":      m.ID,
			"message": m.Text,
			"from":    m.From,
			"created": api.FormatServerTime(m.Created),
		})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handlePostMessage(c *gin.Context) {
	text := c.PostForm("message")
	if strings.TrimSpace(text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}
	if len(text) > maxMessageSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is too long"})
		return
	}
	id, err := s.store.Post(c.GetString(tokenKey), c.Param("id"), text)
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

func (s *Server) abort(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrUnknownToken):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
	case errors.Is(err, ErrUnknownChild):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
	default:
		s.logger.Warn().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
