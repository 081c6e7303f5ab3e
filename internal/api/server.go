package api

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/playreply/internal/api/auth"
	"github.com/playreply/internal/reply"
	"github.com/playreply/internal/storefront"
	"github.com/playreply/pkg/models"
)

// Server represents the API server
type Server struct {
	echo         *echo.Echo
	addr         string
	orchestrator *reply.Orchestrator
	store        storefront.ReviewStore
	users        *auth.UserStore
	tokens       *auth.TokenService
}

// Options carries the collaborators for the API server.
type Options struct {
	Addr         string
	Orchestrator *reply.Orchestrator
	Store        storefront.ReviewStore
	Users        *auth.UserStore
	Tokens       *auth.TokenService
}

// NewServer creates a new API server
func NewServer(opts Options) *Server {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	server := &Server{
		echo:         e,
		addr:         opts.Addr,
		orchestrator: opts.Orchestrator,
		store:        opts.Store,
		users:        opts.Users,
		tokens:       opts.Tokens,
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures all API endpoints
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status": "healthy",
		})
	})

	s.echo.POST("/api/v1/auth/login", s.login)

	// Everything past login requires a bearer token.
	v1 := s.echo.Group("/api/v1", auth.RequireAuth(s.tokens))

	v1.GET("/reviews", s.getReviews)
	v1.POST("/preview", s.previewReply)
	v1.POST("/runs", s.startRun)
	v1.GET("/stats", s.getStats)
	v1.GET("/history", s.getHistory)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	user, err := s.users.Authenticate(req.Username, req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}

	token, expiresAt, err := s.tokens.CreateToken(user)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create access token")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create token")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"access_token": token,
		"expires_at":   expiresAt,
		"token_type":   "Bearer",
	})
}

func (s *Server) getReviews(c echo.Context) error {
	maxResults := 20
	if v := c.QueryParam("max_results"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "max_results must be a positive integer")
		}
		maxResults = n
	}

	reviews, err := s.store.ListReviews(c.Request().Context(), maxResults)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list reviews")
		return echo.NewHTTPError(http.StatusBadGateway, "Failed to fetch reviews from the storefront")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"reviews": reviews,
		"count":   len(reviews),
	})
}

type previewRequest struct {
	ReviewID string `json:"review_id"`
	Rating   int    `json:"rating"`
	Text     string `json:"text"`
}

func (s *Server) previewReply(c echo.Context) error {
	var req previewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return echo.NewHTTPError(http.StatusBadRequest, "rating must be between 1 and 5")
	}

	review := models.Review{ID: req.ReviewID, Rating: req.Rating, Text: req.Text}
	gen, err := s.orchestrator.PreviewOne(c.Request().Context(), review)
	if err != nil {
		if gen != nil {
			// Generated but rejected: surface the draft with the reason.
			return c.JSON(http.StatusUnprocessableEntity, map[string]interface{}{
				"error": err.Error(),
				"raw":   gen.Raw,
			})
		}
		log.Error().Err(err).Msg("Preview generation failed")
		return echo.NewHTTPError(http.StatusBadGateway, "Failed to generate response")
	}
	return c.JSON(http.StatusOK, gen)
}

type runRequest struct {
	Mode       string `json:"mode"`
	MaxResults int    `json:"max_results"`
}

func (s *Server) startRun(c echo.Context) error {
	var req runRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	mode := reply.ModeDryRun
	switch req.Mode {
	case "", string(reply.ModeDryRun):
	case string(reply.ModeLive):
		mode = reply.ModeLive
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "mode must be dry_run or live")
	}
	if req.MaxResults <= 0 {
		req.MaxResults = 20
	}

	summary, err := s.orchestrator.RunOnce(c.Request().Context(), req.MaxResults, mode)
	if err != nil {
		if summary != nil {
			// Partial run: report what was processed along with the error.
			return c.JSON(http.StatusOK, map[string]interface{}{
				"summary": summary,
				"error":   err.Error(),
			})
		}
		log.Error().Err(err).Msg("Auto-reply run failed")
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, summary)
}

func (s *Server) getStats(c echo.Context) error {
	return c.JSON(http.StatusOK, s.orchestrator.Stats())
}

func (s *Server) getHistory(c echo.Context) error {
	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must not be negative")
		}
		limit = n
	}

	entries := s.orchestrator.History(limit)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}

// Start begins the API server and blocks until interrupted.
func (s *Server) Start() error {
	go func() {
		if err := s.echo.Start(s.addr); err != nil && err != http.ErrServerClosed {
			s.echo.Logger.Fatal("shutting down the server")
		}
	}()
	log.Info().Str("addr", s.addr).Msg("API server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.echo.Shutdown(ctx)
}

// Handler exposes the echo engine, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}
