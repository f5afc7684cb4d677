package yb

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cuonglevan23/ybproject/adapters/file"
	"github.com/cuonglevan23/ybproject/adapters/pgx"
	"github.com/cuonglevan23/ybproject/core"
	"github.com/cuonglevan23/ybproject/pkg/cache"
	"github.com/cuonglevan23/ybproject/pkg/env"
	"github.com/cuonglevan23/ybproject/pkg/logger"
	"github.com/cuonglevan23/ybproject/services"
)

// interfaces
type (
	Store         = core.Store
	HTTPDoer      = core.HTTPDoer
	TokenSource   = core.TokenSource
	Authenticator = core.Authenticator
)

// structs
type (
	User              = core.User
	Session           = core.Session
	AuthState         = core.AuthState
	AuthResult        = core.AuthResult
	LoginInput        = core.LoginInput
	SignUpInput       = core.SignUpInput
	APIError          = core.APIError
	ClientConfig      = core.ClientConfig
	RetryConfig       = core.RetryConfig
	AppInfo           = core.AppInfo
	ChannelOverview   = core.ChannelOverview
	Keyword           = core.Keyword
	Competitor        = core.Competitor
	ChatMessage       = core.ChatMessage
	VideoOptimization = core.VideoOptimization
)

const (
	AuthModeDemo   = "demo"
	AuthModeRemote = "remote"

	// DemoPassword is accepted by the demo authenticator and by a mock
	// backend configured with it
	DemoPassword = services.DemoPassword

	defaultBaseURL = "http://localhost:8080/api"
)

// Constructors & helpers (convenience re-exports)
var (
	DefaultRetryConfig = core.DefaultRetryConfig
	FormatCount        = core.FormatCount
	AsAPIError         = core.AsAPIError
)

var (
	ErrTimeout  = core.ErrTimeout
	ErrHTTP     = core.ErrHTTP
	ErrNetwork  = core.ErrNetwork
	ErrCanceled = core.ErrCanceled
	ErrUnknown  = core.ErrUnknown
)

var (
	ErrInvalidCredentials = core.ErrInvalidCredentials
	ErrUserExists         = core.ErrUserExists
	ErrNotAuthenticated   = core.ErrNotAuthenticated
	ErrPasswordMismatch   = core.ErrPasswordMismatch
	ErrPasswordTooShort   = core.ErrPasswordTooShort
	ErrEmailRequired      = core.ErrEmailRequired
)

var (
	ErrBaseURLRequired = core.ErrBaseURLRequired
	ErrInvalidBaseURL  = core.ErrInvalidBaseURL
	ErrInvalidAuthMode = core.ErrInvalidAuthMode
)

type Config struct {
	App    AppInfo
	Client ClientConfig

	// AuthMode selects the demo rules or the backend auth endpoints
	AuthMode string

	// Store persists the session; nil keeps it in memory only
	Store Store

	// Where OpenStore persists the session when Store is nil
	SessionFile string
	DatabaseURL string

	HTTP   HTTPDoer // optional
	Logger *zap.Logger
}

// YB is the wired client side of the dashboard: one resilient client, the
// session it authenticates with and the typed endpoints on top
type YB struct {
	App       AppInfo
	Client    *services.APIClient
	Sessions  *services.SessionManager
	Auth      *services.AuthService
	Dashboard *services.DashboardService
	Logger    *zap.Logger
}

func New(config Config) (*YB, error) {
	if strings.TrimSpace(config.Client.BaseURL) == "" {
		return nil, ErrBaseURLRequired
	}

	// Set Defaults

	authMode := config.AuthMode
	if authMode == "" {
		authMode = AuthModeDemo
	}
	if authMode != AuthModeDemo && authMode != AuthModeRemote {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAuthMode, authMode)
	}

	log := config.Logger
	if log == nil {
		log = logger.New(config.App.Mode)
	}
	log = log.With(zap.String("app", config.App.Name), zap.String("version", config.App.Version))

	store := config.Store
	if store == nil {
		store = cache.NewMemoryStore(cache.Config{})
	}

	sessions := services.NewSessionManager(store, log)

	client, err := services.NewAPIClient(config.Client, config.HTTP, sessions, log)
	if err != nil {
		return nil, err
	}

	var authenticator Authenticator = services.NewDemoAuthenticator()
	if authMode == AuthModeRemote {
		authenticator = services.NewRemoteAuthenticator(client)
	}

	return &YB{
		App:       config.App,
		Client:    client,
		Sessions:  sessions,
		Auth:      services.NewAuthService(authenticator, sessions, log),
		Dashboard: services.NewDashboardService(client),
		Logger:    log,
	}, nil
}

// ConfigFromEnv assembles a Config from YB_* variables, after loading .env
// when present
func ConfigFromEnv() (Config, error) {
	if err := env.Load(); err != nil {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	retry := core.DefaultRetryConfig()
	retry.MaxAttempts = env.GetInt("YB_RETRY_ATTEMPTS", retry.MaxAttempts)
	retry.RetryAll = env.GetBool("YB_RETRY_ALL", false)

	return Config{
		App: AppInfo{
			Name:    env.GetString("YB_APP_NAME", "YB Project"),
			Version: env.GetString("YB_APP_VERSION", "dev"),
			Mode:    env.GetString("YB_MODE", "development"),
		},
		Client: ClientConfig{
			BaseURL:   env.GetString("YB_API_BASE_URL", defaultBaseURL),
			Timeout:   env.GetDuration("YB_REQUEST_TIMEOUT", core.DefaultTimeout),
			Retry:     retry,
			RateLimit: env.GetFloat("YB_RATE_LIMIT", 0),
			RateBurst: env.GetInt("YB_RATE_BURST", 1),
		},
		AuthMode:    env.GetString("YB_AUTH_MODE", AuthModeDemo),
		SessionFile: env.GetString("YB_SESSION_FILE", ""),
		DatabaseURL: env.GetString("YB_DATABASE_URL", ""),
	}, nil
}

// OpenStore picks the session store for config: Postgres when a database
// URL is set, then the session file, then memory. The returned func
// releases it.
func OpenStore(ctx context.Context, config Config) (Store, func(), error) {
	switch {
	case config.DatabaseURL != "":
		pg, err := pgx.Connect(ctx, config.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return pg, pg.Close, nil

	case config.SessionFile != "":
		fs, err := file.New(config.SessionFile)
		if err != nil {
			return nil, nil, err
		}
		return fs, func() {}, nil

	default:
		return cache.NewMemoryStore(cache.Config{}), func() {}, nil
	}
}
