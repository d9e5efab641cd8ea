// Command sokoban serves Sokoban levels to humans and AI agents.
//
// Subcommands:
//  1. "serve" (default) runs the HTTP server exposing the REST API, WebSocket
//     updates and an /mcp endpoint
//  2. "mcp" runs an MCP stdio server and spins up an internal HTTP API if
//     none is available
//  3. "validate" checks level files for structure, connectivity and
//     solvability
//  4. "play" plays a level in the terminal
//
// Flags can also be set from the environment or a .env file, and the server
// can optionally be exposed through an ngrok tunnel.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/sokoban/api"
	"github.com/wricardo/mcp-training/sokoban/game/config"
	"github.com/wricardo/mcp-training/sokoban/game/service"
	"github.com/wricardo/mcp-training/sokoban/game/session"
	"github.com/wricardo/mcp-training/sokoban/transport/mcp"
	"github.com/wricardo/mcp-training/sokoban/transport/websocket"
	"github.com/wricardo/mcp-training/sokoban/validate"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "3.0.0"
	AppName = "Sokoban Server"
)

const (
	cleanupInterval = time.Hour
	syncInterval    = 5 * time.Second
	shutdownTimeout = 10 * time.Second
)

// Session store backends
const (
	storeMemory   = "memory"
	storeFile     = "file"
	storeSQLite   = "sqlite"
	storePostgres = "postgres"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: error loading .env file: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		log.Error().Err(err).Msg("exiting")
		stop()
		os.Exit(1)
	}
}

// newApp builds the command tree
func newApp() *cli.Command {
	return &cli.Command{
		Name:           "sokoban",
		Usage:          AppName,
		Version:        Version,
		DefaultCommand: "serve",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "log level (trace, debug, info, warn, error)",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "enable debug logging",
				Sources: cli.EnvVars("DEBUG"),
			},
			&cli.StringFlag{
				Name:    "levels-dir",
				Value:   "levels",
				Usage:   "directory containing level files",
				Sources: cli.EnvVars("LEVELS_DIR"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			return ctx, setupLogging(cmd.String("log-level"), cmd.Bool("debug"))
		},
		Commands: []*cli.Command{
			serveCommand(),
			mcpCommand(),
			validateCommand(),
			playCommand(),
		},
	}
}

// setupLogging configures the global zerolog logger. Logs go to stderr so
// stdout stays free for the MCP stdio transport.
func setupLogging(level string, debug bool) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if debug {
		lvl = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()
	return nil
}

func storeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "store",
			Value:   storeFile,
			Usage:   "session store: memory, file, sqlite or postgres",
			Sources: cli.EnvVars("STORE"),
		},
		&cli.StringFlag{
			Name:    "sessions-dir",
			Value:   "sessions",
			Usage:   "directory for the file store",
			Sources: cli.EnvVars("SESSIONS_DIR"),
		},
		&cli.StringFlag{
			Name:    "sqlite-path",
			Value:   "data/sessions.db",
			Usage:   "database file for the sqlite store",
			Sources: cli.EnvVars("SQLITE_PATH"),
		},
		&cli.StringFlag{
			Name:    "database-url",
			Usage:   "connection string for the postgres store",
			Sources: cli.EnvVars("DATABASE_URL"),
		},
		&cli.StringFlag{
			Name:    "default-level",
			Usage:   "level used when a session does not name one",
			Sources: cli.EnvVars("DEFAULT_LEVEL"),
		},
		&cli.IntFlag{
			Name:    "hint-limit",
			Usage:   "positions the hint solver may explore (0 uses the solver default)",
			Sources: cli.EnvVars("HINT_LIMIT"),
		},
		&cli.DurationFlag{
			Name:    "session-ttl",
			Value:   24 * time.Hour,
			Usage:   "idle time after which sessions are evicted",
			Sources: cli.EnvVars("SESSION_TTL"),
		},
	}
}

func serviceOptionsFrom(cmd *cli.Command) serviceOptions {
	return serviceOptions{
		LevelsDir:    cmd.String("levels-dir"),
		DefaultLevel: cmd.String("default-level"),
		Store:        cmd.String("store"),
		SessionsDir:  cmd.String("sessions-dir"),
		SQLitePath:   cmd.String("sqlite-path"),
		DatabaseURL:  cmd.String("database-url"),
		HintLimit:    cmd.Int("hint-limit"),
	}
}

func serveCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "host",
			Value:   "localhost",
			Usage:   "HTTP server host",
			Sources: cli.EnvVars("HOST"),
		},
		&cli.IntFlag{
			Name:    "port",
			Value:   8080,
			Usage:   "HTTP server port",
			Sources: cli.EnvVars("PORT"),
		},
		&cli.BoolFlag{
			Name:    "ngrok",
			Usage:   "expose the server through an ngrok tunnel",
			Sources: cli.EnvVars("NGROK_ENABLED"),
		},
		&cli.StringFlag{
			Name:    "ngrok-auth",
			Usage:   "ngrok auth token",
			Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
		},
		&cli.StringFlag{
			Name:    "ngrok-domain",
			Usage:   "custom ngrok domain",
			Sources: cli.EnvVars("NGROK_DOMAIN"),
		},
	}

	return &cli.Command{
		Name:   "serve",
		Usage:  "run the HTTP server with REST API, WebSocket and MCP endpoint",
		Flags:  append(flags, storeFlags()...),
		Action: runHTTPServer,
	}
}

func mcpCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "api-url",
			Value:   "http://localhost:8080",
			Usage:   "API server to reuse when it is running",
			Sources: cli.EnvVars("SOKOBAN_API_URL"),
		},
	}

	return &cli.Command{
		Name:    "mcp",
		Aliases: []string{"stdio-mcp", "mcp-stdio"},
		Usage:   "run an MCP stdio server, starting an internal HTTP API when none is available",
		Flags:   append(flags, storeFlags()...),
		Action:  runStdioMCP,
	}
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "check level files for structure, connectivity and solvability",
		ArgsUsage: "[dir]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "solver-limit",
				Usage: "positions the solver may explore per level (0 uses the solver default)",
			},
			&cli.BoolFlag{
				Name:  "skip-solve",
				Usage: "skip the solvability search",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir := cmd.Args().First()
			if dir == "" {
				dir = cmd.String("levels-dir")
			}

			results, err := validate.ValidateDir(dir, validate.Options{
				SolverLimit: cmd.Int("solver-limit"),
				SkipSolve:   cmd.Bool("skip-solve"),
			})
			if err != nil {
				return err
			}
			if !validate.Report(cmd.Root().Writer, results) {
				return errors.New("some levels are invalid")
			}
			return nil
		},
	}
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub and the
// /mcp endpoint. If ngrok is enabled it also provisions a public tunnel.
func runHTTPServer(ctx context.Context, cmd *cli.Command) error {
	log.Info().Str("version", Version).Msgf("starting %s", AppName)

	svcs, err := initializeServices(ctx, serviceOptionsFrom(cmd))
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer svcs.Close()
	defer svcs.flush()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	svcs.startRoutines(ctx, &wg, cmd.Duration("session-ttl"))

	hub := websocket.NewHub()
	wg.Add(1)
	go func() {
		defer wg.Done()
		hub.Run(ctx)
	}()

	addr := fmt.Sprintf("%s:%d", cmd.String("host"), cmd.Int("port"))
	mcpClient := mcp.NewClient("http://"+addr, Version)
	apiServer := api.NewServer(svcs.game, hub,
		api.WithMCPHandler(mcpClient.Handler()),
		api.WithVersion(Version),
	)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      apiServer,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", addr).
			Str("api", "http://"+addr+"/api").
			Str("ws", "ws://"+addr+"/ws?session=<session_id>").
			Str("mcp", "http://"+addr+"/mcp").
			Msg("HTTP server listening")

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	if cmd.Bool("ngrok") {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, cmd.String("ngrok-auth"), cmd.String("ngrok-domain"), apiServer)
		}()
	}

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-serveErr:
		if err != nil {
			cancel()
			wg.Wait()
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	wg.Wait()
	log.Info().Msg("server stopped")
	return nil
}

// runNgrokTunnel serves handler through an ngrok tunnel until ctx is done
func runNgrokTunnel(ctx context.Context, authToken, domain string, handler http.Handler) {
	if authToken == "" {
		log.Warn().Msg("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN or NGROK_AUTH_TOKEN)")
		return
	}

	tunnel := ngrokConfig.HTTPEndpoint()
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		log.Info().Str("domain", domain).Msg("using custom ngrok domain")
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		log.Error().Err(err).Msg("failed to start ngrok tunnel")
		return
	}

	url := tun.URL()
	log.Info().
		Str("url", url).
		Str("api", url+"/api").
		Str("mcp", url+"/mcp").
		Msg("ngrok tunnel established")

	tunnelServer := &http.Server{Handler: handler}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		tunnelServer.Shutdown(shutdownCtx)
	}()

	if err := tunnelServer.Serve(tun); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("ngrok server error")
	}
	log.Info().Msg("ngrok tunnel closed")
}

// runStdioMCP runs an MCP stdio server. It reuses the API at --api-url when
// it answers a health check; otherwise it starts an internal HTTP API on a
// random loopback port and targets that.
func runStdioMCP(ctx context.Context, cmd *cli.Command) error {
	baseURL := cmd.String("api-url")

	if apiAvailable(ctx, baseURL) {
		log.Info().Str("url", baseURL).Msg("external API server found, using it for MCP")
	} else {
		log.Info().Msg("no external API server found, starting internal HTTP server")

		svcs, err := initializeServices(ctx, serviceOptionsFrom(cmd))
		if err != nil {
			return fmt.Errorf("failed to initialize services: %w", err)
		}
		defer svcs.Close()
	defer svcs.flush()

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		var wg sync.WaitGroup
		defer wg.Wait()

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		svcs.startRoutines(ctx, &wg, cmd.Duration("session-ttl"))

		hub := websocket.NewHub()
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.Run(ctx)
		}()

		httpServer := &http.Server{Handler: api.NewServer(svcs.game, hub, api.WithVersion(Version))}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("internal HTTP server error")
			}
		}()
		defer httpServer.Close()

		baseURL = "http://" + listener.Addr().String()
		log.Info().Str("url", baseURL).Msg("internal HTTP server started for MCP stdio")
	}

	mcpClient := mcp.NewClient(baseURL, Version)
	log.Info().Msg("MCP stdio server ready")
	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// apiAvailable reports whether an API server answers at baseURL
func apiAvailable(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/health", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

type serviceOptions struct {
	LevelsDir    string
	DefaultLevel string
	Store        string
	SessionsDir  string
	SQLitePath   string
	DatabaseURL  string
	HintLimit    int
}

// sessionStore is a persistence backend that can also drop stale sessions
type sessionStore interface {
	session.SessionPersistence
	PruneOlderThan(maxAge time.Duration) (int, error)
}

type services struct {
	game     service.GameService
	sessions *session.Manager
	store    sessionStore
	closers  []func()
}

// Close releases the session store
func (s *services) Close() {
	for _, c := range s.closers {
		c()
	}
}

// flush writes every in-memory session to the store. It runs once the
// servers and routines have stopped.
func (s *services) flush() {
	if err := s.sessions.SaveAllSessions(); err != nil {
		log.Error().Err(err).Msg("failed to flush sessions")
		return
	}
	log.Debug().Int("sessions", s.sessions.Count()).Msg("flushed sessions")
}

// initializeServices wires the level and session managers into the game
// service. It does not start background routines; see startRoutines.
func initializeServices(ctx context.Context, opts serviceOptions) (*services, error) {
	configManager, err := config.NewManager(opts.LevelsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}
	if opts.DefaultLevel != "" {
		if err := configManager.SetDefault(opts.DefaultLevel); err != nil {
			return nil, err
		}
	}

	svcs := &services{}
	switch opts.Store {
	case storeMemory:
	case storeFile, "":
		store, err := session.NewFilePersistence(opts.SessionsDir, configManager)
		if err != nil {
			return nil, fmt.Errorf("failed to create session persistence: %w", err)
		}
		svcs.store = store
	case storeSQLite:
		store, err := session.NewSQLitePersistence(opts.SQLitePath, configManager)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		svcs.store = store
		svcs.closers = append(svcs.closers, func() {
			if err := store.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close sqlite store")
			}
		})
	case storePostgres:
		if opts.DatabaseURL == "" {
			return nil, errors.New("postgres store requires --database-url or DATABASE_URL")
		}
		store, err := session.NewPostgresPersistence(ctx, opts.DatabaseURL, configManager)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres store: %w", err)
		}
		svcs.store = store
		svcs.closers = append(svcs.closers, store.Close)
	default:
		return nil, fmt.Errorf("unknown session store %q", opts.Store)
	}

	if svcs.store != nil {
		svcs.sessions = session.NewManagerWithPersistence(svcs.store)
		if err := svcs.sessions.LoadPersistedSessions(); err != nil {
			log.Warn().Err(err).Msg("failed to load persisted sessions")
		}
	} else {
		svcs.sessions = session.NewManager()
	}

	var svcOpts []service.Option
	if opts.HintLimit > 0 {
		svcOpts = append(svcOpts, service.WithHintLimit(opts.HintLimit))
	}
	svcs.game = service.NewGameService(svcs.sessions, configManager, svcOpts...)

	log.Info().
		Str("levels", opts.LevelsDir).
		Str("store", opts.Store).
		Int("sessions", svcs.sessions.Count()).
		Msg("services initialized")
	return svcs, nil
}

// startRoutines runs session cleanup and store sync until ctx is done
func (s *services) startRoutines(ctx context.Context, wg *sync.WaitGroup, ttl time.Duration) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		sessionCleanupRoutine(ctx, s.sessions, s.store, ttl)
	}()

	if s.store == nil {
		return
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		storeSyncRoutine(ctx, s.sessions, s.store)
	}()
}

// sessionCleanupRoutine periodically evicts idle sessions from memory and
// prunes the store of sessions past the same retention window.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, store sessionStore, maxAge time.Duration) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cleanupSessions(manager, store, maxAge)
		}
	}
}

func cleanupSessions(manager *session.Manager, store sessionStore, maxAge time.Duration) {
	if removed := manager.CleanupExpiredSessions(maxAge); removed > 0 {
		log.Info().Int("count", removed).Msg("evicted expired sessions")
	}
	if store == nil {
		return
	}
	pruned, err := store.PruneOlderThan(maxAge)
	if err != nil {
		log.Error().Err(err).Msg("failed to prune session store")
		return
	}
	if pruned > 0 {
		log.Info().Int("count", pruned).Msg("pruned stored sessions")
	}
}

// storeSyncRoutine periodically drops in-memory sessions whose stored copy
// has been deleted out from under the server.
func storeSyncRoutine(ctx context.Context, manager *session.Manager, store session.SessionPersistence) {
	ticker := time.NewTicker(syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			syncSessions(manager, store)
		}
	}
}

func syncSessions(manager *session.Manager, store session.SessionPersistence) int {
	pruned := 0
	for _, s := range manager.List() {
		if store.Exists(s.ID) {
			continue
		}
		if err := manager.DeleteFromMemory(s.ID); err == nil {
			pruned++
			log.Debug().Str("session", s.ID).Msg("pruned session from memory (stored copy deleted)")
		}
	}
	if pruned > 0 {
		log.Info().Int("count", pruned).Msg("store sync: pruned orphaned sessions")
	}
	return pruned
}
