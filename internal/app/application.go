package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"time"

	"pairchat/internal/api"
	"pairchat/internal/config"
	"pairchat/internal/identity"
	"pairchat/internal/pairing"
	"pairchat/internal/room"
	"pairchat/internal/session"
	"pairchat/internal/store"
	wsocket "pairchat/internal/websocket"
	"pairchat/pkg/database"
	"pairchat/pkg/interfaces"
)

// Application coordinates all system components.
// Initialization follows strict dependency order:
// Store → Pairing → Identity → Room Router → Session Manager → HTTP.
type Application struct {
	config       *config.Config
	messageStore interfaces.MessageStore
	directory    interfaces.PairingDirectory
	broadcast    *room.Router
	sessions     *session.Manager
	apiServer    *api.Server
	httpServer   *http.Server
	pairingDB    *sql.DB
}

// NewApplication creates an application with all components initialized.
func NewApplication(cfg *config.Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// STEP 1: message store (foundation layer). With the sqlite backend
	// the store owns the database handle and closes it on shutdown.
	var messageStore interfaces.MessageStore
	var sqliteDB *sql.DB

	switch cfg.Storage.Backend {
	case "sqlite":
		db, err := database.Open(database.DefaultConfig(cfg.Storage.SQLitePath))
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := database.NewSchemaValidator(db).Validate(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("schema validation failed: %w", err)
		}
		messageStore = store.NewSQLiteStore(db)
		sqliteDB = db

	case "redis":
		messageStore = store.NewRedisStore(store.RedisOptions{
			Addr:     cfg.Storage.RedisAddr,
			Password: cfg.Storage.RedisPassword,
			DB:       cfg.Storage.RedisDB,
		})

	default:
		return nil, store.ErrUnknownBackend
	}

	// STEP 2: pairing directory. The sqlite directory shares the store's
	// handle when both live in the same database.
	var directory interfaces.PairingDirectory
	var pairingDB *sql.DB

	switch cfg.Storage.PairingBackend {
	case "sqlite":
		db := sqliteDB
		if db == nil {
			opened, err := database.Open(database.DefaultConfig(cfg.Storage.SQLitePath))
			if err != nil {
				_ = messageStore.Close()
				return nil, fmt.Errorf("failed to open pairing database: %w", err)
			}
			db = opened
			pairingDB = opened
		}
		directory = pairing.NewSQLiteDirectory(db)

	case "memory":
		memory := pairing.NewMemoryDirectory()
		if err := memory.SeedPairs(cfg.Storage.PairingSeed); err != nil {
			_ = messageStore.Close()
			return nil, fmt.Errorf("failed to seed pairing directory: %w", err)
		}
		directory = memory

	default:
		_ = messageStore.Close()
		return nil, fmt.Errorf("unknown pairing backend %q", cfg.Storage.PairingBackend)
	}

	// STEP 3: identity provider.
	identityProvider := identity.NewJWTProvider(cfg.Auth.JWTSecret)

	// STEP 4: room broadcast router.
	broadcast := room.NewRouter()

	// STEP 5: connection session manager.
	sessions := session.NewManager(identityProvider, directory, messageStore, broadcast, cfg.WebSocket.HistoryLimit)

	// STEP 6: WebSocket handler and HTTP surface.
	wsHandler := wsocket.NewHandler(sessions, wsocket.Options{
		WriteTimeout: cfg.WebSocket.WriteTimeout,
		ReadTimeout:  cfg.WebSocket.ReadTimeout,
		SendBuffer:   cfg.WebSocket.SendBuffer,
	})
	apiServer := api.NewServer(wsHandler, broadcast, messageStore)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      apiServer,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	return &Application{
		config:       cfg,
		messageStore: messageStore,
		directory:    directory,
		broadcast:    broadcast,
		sessions:     sessions,
		apiServer:    apiServer,
		httpServer:   httpServer,
		pairingDB:    pairingDB,
	}, nil
}

// Start begins serving. Blocks until the listener fails or Stop is called.
func (a *Application) Start() error {
	log.Printf("Starting pairchat server: addr=%s backend=%s", a.httpServer.Addr, a.config.Storage.Backend)
	if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	return nil
}

// Stop shuts the application down: HTTP listener first so no new
// connections arrive, then the message store.
func (a *Application) Stop(ctx context.Context) error {
	log.Println("Shutting down pairchat server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}

	if err := a.messageStore.Close(); err != nil {
		return fmt.Errorf("failed to close message store: %w", err)
	}
	if a.pairingDB != nil {
		if err := a.pairingDB.Close(); err != nil {
			log.Printf("Failed to close pairing database: %v", err)
		}
	}

	log.Println("Shutdown complete")
	return nil
}
