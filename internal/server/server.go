package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/journey-copilot/journey-copilot/internal/llm"
	"github.com/journey-copilot/journey-copilot/internal/session"
	"github.com/journey-copilot/journey-copilot/internal/stats"
	"github.com/journey-copilot/journey-copilot/internal/store"
)

const sessionCacheSize = 256

// GeneratorFactory builds the model client on first use, so a missing
// credential surfaces per request instead of at startup.
type GeneratorFactory func(ctx context.Context) (llm.Generator, error)

type Options struct {
	Port        int
	TokenFile   string
	Token       string // generated when empty
	DailyVolume int
	Generator   GeneratorFactory
	Logger      *zap.Logger
}

type Server struct {
	store       store.Store
	port        int
	token       string
	tokenFile   string
	dailyVolume int
	router      *http.ServeMux
	startTime   time.Time
	logger      *zap.Logger

	newGenerator GeneratorFactory
	genMu        sync.Mutex
	generator    llm.Generator

	cache *lru.Cache[string, *session.Session]
	locks sync.Map // session id -> *sync.Mutex
}

func New(s store.Store, opts Options) *Server {
	cache, err := lru.New[string, *session.Session](sessionCacheSize)
	if err != nil {
		// only fails for a non-positive size
		panic(err)
	}

	srv := &Server{
		store:        s,
		port:         opts.Port,
		token:        opts.Token,
		tokenFile:    opts.TokenFile,
		dailyVolume:  opts.DailyVolume,
		router:       http.NewServeMux(),
		startTime:    time.Now(),
		logger:       opts.Logger,
		newGenerator: opts.Generator,
		cache:        cache,
	}
	if srv.token == "" {
		srv.token = generateToken()
	}
	if srv.dailyVolume <= 0 {
		srv.dailyVolume = stats.DefaultDailyVolume
	}
	if srv.logger == nil {
		srv.logger = zap.NewNop()
	}
	if srv.newGenerator == nil {
		srv.newGenerator = func(context.Context) (llm.Generator, error) {
			return nil, fmt.Errorf("%w: no provider configured", llm.ErrMissingAPIKey)
		}
	}

	srv.setupRoutes()
	return srv
}

func (s *Server) setupRoutes() {
	// Public endpoints
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /api/personas", s.handlePersonas)
	s.router.HandleFunc("GET /api/personas/{persona}/diagram", s.handleDiagram)
	s.router.HandleFunc("POST /api/sample-size", s.handleSampleSize)
	s.router.HandleFunc("POST /api/evaluate", s.handleEvaluate)

	s.router.HandleFunc("POST /api/sessions", s.handleCreateSession)
	s.router.HandleFunc("GET /api/sessions/{id}", s.handleGetSession)
	s.router.HandleFunc("PUT /api/sessions/{id}/persona", s.handleSwitchPersona)
	s.router.HandleFunc("POST /api/sessions/{id}/events", s.handleAddEvent)
	s.router.HandleFunc("POST /api/sessions/{id}/reset", s.handleReset)
	s.router.HandleFunc("PUT /api/sessions/{id}/highlight", s.handleHighlight)

	// Protected endpoints
	s.router.Handle("POST /api/sessions/{id}/generate/{category}", s.authMiddleware(http.HandlerFunc(s.handleGenerate)))
	s.router.Handle("GET /dashboard", s.authMiddleware(http.HandlerFunc(s.handleDashboard)))
	s.router.Handle("GET /dashboard/sessions/{id}", s.authMiddleware(http.HandlerFunc(s.handleDashboardSession)))
}

func (s *Server) Start() error {
	s.announce(context.Background())

	addr := fmt.Sprintf(":%d", s.port)

	fmt.Println()
	fmt.Printf("journey-copilot running on %s\n", s.URL())
	fmt.Printf("Dashboard: %s/dashboard?token=%s\n", s.URL(), s.token)
	fmt.Println()
	fmt.Println("Press Ctrl+C to stop")

	s.logger.Info("server listening", zap.String("addr", addr))
	return http.ListenAndServe(addr, s.router)
}

// announce leaves the token file and the server URL behind for the token
// command.
func (s *Server) announce(ctx context.Context) {
	if s.tokenFile != "" {
		if err := os.WriteFile(s.tokenFile, []byte(s.token), 0600); err != nil {
			s.logger.Warn("failed to write token file", zap.String("path", s.tokenFile), zap.Error(err))
		}
	}
	if err := s.store.SetSetting(ctx, store.SettingServerURL, s.URL()); err != nil {
		s.logger.Warn("failed to record server url", zap.Error(err))
	}
}

func (s *Server) URL() string {
	return fmt.Sprintf("http://localhost:%d", s.port)
}

func (s *Server) Token() string {
	return s.token
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// generatorFor returns the shared model client, building it on first use.
// A failed build is not cached.
func (s *Server) generatorFor(ctx context.Context) (llm.Generator, error) {
	s.genMu.Lock()
	defer s.genMu.Unlock()

	if s.generator != nil {
		return s.generator, nil
	}
	g, err := s.newGenerator(ctx)
	if err != nil {
		return nil, err
	}
	s.generator = g
	return g, nil
}

func generateToken() string {
	bytes := make([]byte, 4)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to a simple token if crypto/rand fails
		return "a1b2c3d4"
	}
	return hex.EncodeToString(bytes)
}
