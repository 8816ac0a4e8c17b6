package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"

	"prizedraw/internal/access"
	"prizedraw/internal/config"
	"prizedraw/internal/handlers"
	"prizedraw/internal/services"
	"prizedraw/internal/storage/sqlite"
	"prizedraw/internal/web"
)

const usage = `usage: prizedraw [command]

commands:
  serve              run the drawing console (default)
  init-db            create the database and import the initial roster if it is empty
  import <file.csv>  import members from a roster CSV
  clean-test-data    delete members whose badge id starts with TEST
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 2
	}

	logOut := io.Discard
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open log file: %v\n", err)
			return 2
		}
		defer f.Close()
		logOut = f
	}
	defer logger.Init("prizedraw", cfg.Verbose, false, logOut).Close()

	command := "serve"
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	switch command {
	case "serve":
		err = serve(cfg)
	case "init-db":
		err = initDB(cfg)
	case "import":
		if len(args) != 1 {
			fmt.Fprint(os.Stderr, usage)
			return 2
		}
		err = importFile(cfg, args[0])
	case "clean-test-data":
		err = cleanTestData(cfg)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return 0
	default:
		fmt.Fprint(os.Stderr, usage)
		return 2
	}
	if err != nil {
		logger.Errorf("%s: %v", command, err)
		return 1
	}
	return 0
}

func serve(cfg config.Config) error {
	// 1. Open the roster store and the drawing service
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()
	drawingService := services.NewDrawingService(store)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := importInitialRoster(ctx, drawingService, cfg.InitialCSV); err != nil {
		logger.Warningf("Initial roster import failed: %v", err)
	}

	// 2. Access gate and operator sessions
	if cfg.EphemeralKey {
		logger.Warning("DRAWING_SECRET_KEY is not set; using a random key, sessions will not survive a restart")
	}
	gate, err := access.NewGate(cfg.Access())
	if err != nil {
		return err
	}
	sessions := services.NewSessionManager(cfg.SessionTTL)

	// 3. Load HTML templates and assets from the embedded filesystem
	templates, err := web.Templates()
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}
	assets, err := web.Assets()
	if err != nil {
		return fmt.Errorf("load assets: %w", err)
	}

	// 4. Set up the Gin router
	if cfg.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	httpHandler := handlers.NewHTTPHandler(drawingService, sessions, gate, templates)
	httpHandler.Register(r, assets)

	// 5. Start the background janitor to clean up inactive sessions
	go func() {
		ticker := time.NewTicker(cfg.JanitorInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sessions.CleanUpInactiveSessions()
			}
		}
	}()

	// 6. Run the server until interrupted
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on %s", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("run server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
