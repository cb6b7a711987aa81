package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"emittr/connectfour/internal/analytics"
	"emittr/connectfour/internal/game"
	"emittr/connectfour/internal/leaderboard"

	"github.com/gin-gonic/gin"
)

type Server struct {
	router        *gin.Engine
	manager       *game.Manager
	leaderboard   *leaderboard.Service
	analytics     *analytics.Producer
	hub           *hub
	botDelay      time.Duration
	idleTimeout   time.Duration
	sweepInterval time.Duration

	botMu   sync.Mutex
	botSeq  uint64
	pending map[string]pendingBot
}

// pendingBot is the delayed bot reply scheduled for one match.
type pendingBot struct {
	timer *time.Timer
	seq   uint64
}

type Config struct {
	// BotDelay is the cosmetic pause before the bot answers. Zero plays the
	// bot inside the request that handed it the turn.
	BotDelay      time.Duration
	IdleTimeout   time.Duration
	SweepInterval time.Duration
	Leaderboard   *leaderboard.Service
	Analytics     *analytics.Producer
	Rand          game.RandSource
	StaticDir     string
}

func New(cfg Config) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()
	s := &Server{
		router:        router,
		leaderboard:   cfg.Leaderboard,
		analytics:     cfg.Analytics,
		hub:           newHub(),
		botDelay:      cfg.BotDelay,
		idleTimeout:   cfg.IdleTimeout,
		sweepInterval: cfg.SweepInterval,
		pending:       make(map[string]pendingBot),
	}
	s.manager = game.NewManager(cfg.Rand, s.onFinish)

	router.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	api := router.Group("/api")
	api.POST("/games", s.handleCreate)
	api.GET("/games/:id", s.handleGet)
	api.POST("/games/:id/moves", s.handleMove)
	api.POST("/games/:id/restart", s.handleRestart)
	api.DELETE("/games/:id", s.handleDelete)
	api.GET("/games/:id/ws", s.handleWS)
	api.GET("/leaderboard", s.handleLeaderboard)
	api.GET("/leaderboard/:name", s.handlePlayerStats)
	api.DELETE("/leaderboard", s.handleClearLeaderboard)

	if cfg.StaticDir != "" {
		router.StaticFile("/", filepath.Join(cfg.StaticDir, "index.html"))
		router.Static("/static", cfg.StaticDir)
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go s.sweeper(ctx)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Println("server is shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s.hub.closeAll()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) sweeper(ctx context.Context) {
	if s.sweepInterval <= 0 || s.idleTimeout <= 0 {
		return
	}
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepIdle()
		}
	}
}

// sweepIdle drops idle matches along with their sockets and pending bot moves.
func (s *Server) sweepIdle() {
	removed := s.manager.SweepIdle(s.idleTimeout)
	for _, id := range removed {
		s.cancelBot(id)
		s.hub.closeGame(id)
	}
	if len(removed) > 0 {
		log.Printf("[SWEEP] removed %d idle games", len(removed))
	}
}

type createRequest struct {
	Mode    string `json:"mode"`
	Player1 string `json:"player1"`
	Player2 string `json:"player2"`
}

type moveRequest struct {
	Column *int `json:"column"`
}

func (s *Server) handleCreate(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON: " + err.Error()})
		return
	}
	mode, err := game.ParseMode(req.Mode)
	if err != nil {
		writeError(c, err)
		return
	}
	g, err := s.manager.Create(mode, req.Player1, req.Player2)
	if err != nil {
		writeError(c, err)
		return
	}
	s.analytics.GameStarted(context.Background(), g)
	c.JSON(http.StatusCreated, newGameView(g))
}

func (s *Server) handleGet(c *gin.Context) {
	g, ok := s.manager.Get(c.Param("id"))
	if !ok {
		writeError(c, game.ErrGameNotFound)
		return
	}
	c.JSON(http.StatusOK, newGameView(g))
}

func (s *Server) handleMove(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Column == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "column required"})
		return
	}
	g, err := s.applyMove(c.Param("id"), *req.Column)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newGameView(g))
}

// applyMove plays a human move, pushes the new state, and hands the turn to
// the bot when it is due.
func (s *Server) applyMove(id string, col int) (game.Match, error) {
	g, res, err := s.manager.Play(id, col)
	if err != nil {
		return g, err
	}
	s.afterMove(g, res)
	if g.IsBotTurn() {
		if s.botDelay <= 0 {
			s.playBotTurn(id)
			g, _ = s.manager.Get(id)
		} else {
			s.scheduleBot(id)
		}
	}
	return g, nil
}

func (s *Server) scheduleBot(id string) {
	s.botMu.Lock()
	defer s.botMu.Unlock()
	if old, ok := s.pending[id]; ok {
		old.timer.Stop()
	}
	s.botSeq++
	seq := s.botSeq
	s.pending[id] = pendingBot{
		timer: time.AfterFunc(s.botDelay, func() { s.runScheduledBot(id, seq) }),
		seq:   seq,
	}
}

// runScheduledBot plays the bot only if seq is still the match's pending reply.
func (s *Server) runScheduledBot(id string, seq uint64) {
	s.botMu.Lock()
	p, ok := s.pending[id]
	if !ok || p.seq != seq {
		s.botMu.Unlock()
		return
	}
	delete(s.pending, id)
	s.botMu.Unlock()
	s.playBotTurn(id)
}

func (s *Server) cancelBot(id string) {
	s.botMu.Lock()
	defer s.botMu.Unlock()
	if p, ok := s.pending[id]; ok {
		p.timer.Stop()
		delete(s.pending, id)
	}
}

func (s *Server) botPending(id string) bool {
	s.botMu.Lock()
	defer s.botMu.Unlock()
	_, ok := s.pending[id]
	return ok
}

// restart resets a match, drops any bot reply queued for the old board and
// pushes the empty board to watchers.
func (s *Server) restart(id string) (game.Match, error) {
	s.cancelBot(id)
	g, err := s.manager.Restart(id)
	if err != nil {
		return g, err
	}
	s.hub.broadcast(g.ID, stateMessage(g))
	return g, nil
}

func (s *Server) playBotTurn(id string) {
	g, res, err := s.manager.PlayBot(id)
	if err != nil {
		// the match may have been removed or restarted while the bot waited
		if !errors.Is(err, game.ErrGameNotFound) && !errors.Is(err, game.ErrInvalidTurn) {
			log.Printf("bot move failed for game %s: %v", id, err)
		}
		return
	}
	s.afterMove(g, res)
}

func (s *Server) afterMove(g game.Match, res game.Result) {
	s.hub.broadcast(g.ID, stateMessage(g))
	s.analytics.MovePlayed(context.Background(), g, res)
}

func (s *Server) handleRestart(c *gin.Context) {
	g, err := s.restart(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newGameView(g))
}

func (s *Server) handleDelete(c *gin.Context) {
	id := c.Param("id")
	if !s.manager.Remove(id) {
		writeError(c, game.ErrGameNotFound)
		return
	}
	s.cancelBot(id)
	s.hub.closeGame(id)
	c.Status(http.StatusNoContent)
}

func (s *Server) onFinish(g game.Match) {
	ctx := context.Background()
	if s.leaderboard != nil {
		if err := s.leaderboard.RecordMatch(ctx, g); err != nil {
			log.Printf("leaderboard update failed for game %s: %v", g.ID, err)
		}
	}
	s.analytics.GameFinished(ctx, g)
}

func (s *Server) handleLeaderboard(c *gin.Context) {
	if s.leaderboard == nil {
		c.JSON(http.StatusOK, []leaderboardRow{})
		return
	}
	entries, err := s.leaderboard.List(c.Request.Context(), leaderboard.ParseSort(c.Query("sort")))
	if err != nil {
		log.Printf("leaderboard error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "leaderboard unavailable"})
		return
	}
	rows := make([]leaderboardRow, 0, len(entries))
	for i, e := range entries {
		rows = append(rows, newLeaderboardRow(i+1, e))
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) handlePlayerStats(c *gin.Context) {
	if s.leaderboard == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
		return
	}
	e, ok, err := s.leaderboard.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		log.Printf("leaderboard error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "leaderboard unavailable"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
		return
	}
	c.JSON(http.StatusOK, newLeaderboardRow(0, e))
}

func (s *Server) handleClearLeaderboard(c *gin.Context) {
	if s.leaderboard != nil {
		if err := s.leaderboard.Clear(c.Request.Context()); err != nil {
			log.Printf("leaderboard clear failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "leaderboard unavailable"})
			return
		}
	}
	c.Status(http.StatusNoContent)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrGameNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrInvalidName), errors.Is(err, game.ErrInvalidMode):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrIllegalMove), errors.Is(err, game.ErrInvalidTurn),
		errors.Is(err, game.ErrGameFinished), errors.Is(err, game.ErrNoLegalMove):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}
