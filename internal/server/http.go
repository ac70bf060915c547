package server

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"resumelens/internal/analysis"
	"resumelens/internal/config"
	"resumelens/internal/credstore"
	resumelensErrors "resumelens/internal/errors"
	"resumelens/internal/session"
	"resumelens/internal/store"
	"resumelens/internal/upload"
)

// SignupRequest represents the request body for the signup endpoint
// LoginRequest represents the request body for the login endpoint
// ErrorResponse represents an error response
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// TLS Configuration
	TLSConfig config.TLSConfig

	// Certificate management
	CertificateManager *CertificateManager

	// Session cookie
	CookieName   string
	CookieSecure bool
	cookieKey    []byte

	// Domain components
	Blobs       *store.FileStore
	BlobWatcher *store.BlobWatcher
	Creds       *credstore.Store
	Sessions    *session.Manager
	Uploads     *upload.Manager
	Analyzer    *analysis.Client
	shells      *shellRegistry

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	// Logger
	Logger *resumelensErrors.Logger
}

// ServerConfig holds configuration for creating a Server instance
// (Refactored to reduce long parameter list in NewServer)
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	TLSConfig      config.TLSConfig
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	RateLimit      *config.RateLimitConfig
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, logger *resumelensErrors.Logger) (*Server, error) {
	blobs, err := store.NewFileStore(appCfg.Store.Dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open blob store: %w", err)
	}

	var blobWatcher *store.BlobWatcher
	if appCfg.Store.Watcher.Enabled {
		blobWatcher = store.NewBlobWatcher(blobs, appCfg.Store.Watcher.DebounceDelay, logger)
	}

	creds := credstore.New(blobs)
	sessions := session.NewManager(creds, logger)

	uploads, err := upload.NewManager(appCfg.App.Upload.SpoolDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open upload spool: %w", err)
	}

	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(
			cfg.RateLimit.RequestsPerMin,
			cfg.RateLimit.Window,
			cfg.RateLimit.BurstCapacity,
			logger,
		)
	}

	cookieKey, err := resolveCookieKey(appCfg.Session.Secret, logger)
	if err != nil {
		return nil, err
	}

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		TLSConfig:      cfg.TLSConfig,
		CookieName:     appCfg.Session.CookieName,
		CookieSecure:   appCfg.Session.CookieSecure,
		cookieKey:      cookieKey,
		Blobs:          blobs,
		BlobWatcher:    blobWatcher,
		Creds:          creds,
		Sessions:       sessions,
		Uploads:        uploads,
		Analyzer:       analysis.NewClient(&appCfg.Backend, logger),
		shells:         newShellRegistry(),
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		Logger:         logger,
	}, nil
}

// resolveCookieKey returns the configured session HMAC key, or generates an
// ephemeral one. Ephemeral keys invalidate all sessions on restart.
func resolveCookieKey(secret string, logger *resumelensErrors.Logger) ([]byte, error) {
	if secret != "" {
		return []byte(secret), nil
	}

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate session key: %w", err)
	}
	if logger != nil {
		logger.Warn("No session secret configured, generated ephemeral key",
			"key_prefix", hex.EncodeToString(key[:4]))
	}
	return key, nil
}
