package fiber

import (
	"errors"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"go.uber.org/zap"

	"github.com/cuonglevan23/ybproject/core"
	"github.com/cuonglevan23/ybproject/pkg/crypto"
	"github.com/cuonglevan23/ybproject/pkg/logger"
)

const (
	DefaultBasePath = "/api"
	DefaultTokenTTL = 24 * time.Hour
	minSecretLength = 32
)

var ErrSecretTooShort = errors.New("jwt secret should be at least 32 characters long")

// Config configures the mock backend
type Config struct {
	Secret   string
	BasePath string
	TokenTTL time.Duration

	// DemoPassword, when set, lets login with an unknown email and this
	// password create the account, matching the client's demo rule
	DemoPassword string

	Fixtures  *Fixtures              // optional, defaults to the embedded set
	Passwords crypto.PasswordHandler // optional, defaults to argon2id
	Logger    *zap.Logger
}

// Server is a stand-in for the dashboard backend: the auth endpoints plus
// the analytics, research, coach and optimization endpoints, all answering
// with the {data, success, message} envelope
type Server struct {
	app      *fiber.App
	basePath string
	fixtures *Fixtures
	accounts *accountRegistry
	tokens   *tokenIssuer
	ids      *crypto.IDGenerator
	logger   *zap.Logger
	demoPass string

	chatMu sync.Mutex
	chats  map[string][]core.ChatMessage // user id -> history
}

func New(cfg Config) (*Server, error) {
	if len(cfg.Secret) < minSecretLength {
		return nil, ErrSecretTooShort
	}
	if cfg.BasePath == "" {
		cfg.BasePath = DefaultBasePath
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultTokenTTL
	}
	if cfg.Fixtures == nil {
		f, err := DefaultFixtures()
		if err != nil {
			return nil, err
		}
		cfg.Fixtures = f
	}
	if cfg.Passwords == nil {
		cfg.Passwords = crypto.NewArgon2()
	}

	s := &Server{
		basePath: cfg.BasePath,
		fixtures: cfg.Fixtures,
		accounts: newAccountRegistry(cfg.Passwords),
		tokens:   newTokenIssuer([]byte(cfg.Secret), cfg.TokenTTL),
		ids:      crypto.MustIDGenerator(),
		logger:   logger.OrNop(cfg.Logger),
		demoPass: cfg.DemoPassword,
		chats:    make(map[string][]core.ChatMessage),
	}

	for _, a := range cfg.Fixtures.Accounts {
		if _, err := s.accounts.Register(a.Name, a.Email, a.Password); err != nil {
			return nil, err
		}
	}

	s.app = fiber.New(fiber.Config{
		AppName:      "yb-mock",
		BodyLimit:    1024 * 1024,
		ReadTimeout:  30 * time.Second,
		ErrorHandler: s.handleError,
	})
	s.app.Use(recoverer.New())
	s.app.Use(s.logRequests)
	s.RegisterRoutes()

	return s, nil
}

// App exposes the fiber app, for Listen and for tests
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	s.logger.Info("mock backend listening", zap.String("addr", addr), zap.String("base_path", s.basePath))
	return s.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
}

// Shutdown stops accepting connections and waits up to timeout for
// in-flight requests
func (s *Server) Shutdown(timeout time.Duration) error {
	return s.app.ShutdownWithTimeout(timeout)
}

func (s *Server) logRequests(c fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.logger.Debug("mock request",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", c.Response().StatusCode()),
		zap.Duration("duration", time.Since(start)),
		zap.String("request_id", c.Get("X-Request-ID")),
	)
	return err
}
