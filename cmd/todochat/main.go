package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/todochat/internal/config"
	"github.com/dukerupert/todochat/internal/database"
	"github.com/dukerupert/todochat/internal/email"
	"github.com/dukerupert/todochat/internal/logging"
	"github.com/dukerupert/todochat/internal/seed"
	"github.com/dukerupert/todochat/internal/server"
	"github.com/dukerupert/todochat/internal/store"
)

const usage = `usage: todochat <command> [flags]

commands:
  serve                   run the GraphQL server
  migrate [up|down|status|version]
                          manage the database schema (default up)
  seed                    replace all data with the demo data set
  make-admin <email>      grant admin rights to an existing user
  send-test-email <to>    send a test message through the configured transport
`

const limiterSweepInterval = 5 * time.Minute

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stdout, usage)
		return errors.New("no command given")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	cmd, rest := args[0], args[1:]
	flags := pflag.NewFlagSet("todochat "+cmd, pflag.ContinueOnError)
	flags.StringVar(&cfg.DatabasePath, "db", cfg.DatabasePath, "SQLite database path")
	if cmd == "serve" {
		flags.StringVar(&cfg.Port, "port", cfg.Port, "HTTP listen port")
	}
	if err := flags.Parse(rest); err != nil {
		return err
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)
	database.SetLogger(logger)

	switch cmd {
	case "serve":
		return serve(cfg, logger)
	case "migrate":
		command := "up"
		if flags.NArg() > 0 {
			command = flags.Arg(0)
		}
		return migrate(cfg, command)
	case "seed":
		return seedDatabase(cfg, stdout)
	case "make-admin":
		if flags.NArg() != 1 {
			return errors.New("usage: todochat make-admin <email>")
		}
		return makeAdmin(cfg, flags.Arg(0), stdout)
	case "send-test-email":
		if flags.NArg() != 1 {
			return errors.New("usage: todochat send-test-email <to>")
		}
		return sendTestEmail(cfg, logger, flags.Arg(0), stdout)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprint(stdout, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func serve(cfg *config.Config, logger *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	srv, err := server.New(db, cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for _, l := range srv.Limiters() {
		go l.Run(ctx, limiterSweepInterval)
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", httpServer.Addr, "env", cfg.Env,
			"graphql", fmt.Sprintf("http://localhost:%s/graphql", cfg.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func migrate(cfg *config.Config, command string) error {
	db, err := database.OpenWithoutMigrations(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()
	return database.Migrate(db, command)
}

func seedDatabase(cfg *config.Config, stdout io.Writer) error {
	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	stats, err := seed.Run(context.Background(), db, bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	fmt.Fprintf(stdout, "seeded %d users, %d todos, %d rooms, %d messages (password %q)\n",
		stats.TotalUsers, stats.TotalTodos, stats.TotalChatRooms, stats.TotalMessages, seed.Password)
	return nil
}

func makeAdmin(cfg *config.Config, addr string, stdout io.Writer) error {
	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	users := store.NewUserStore(db)
	u, err := users.GetByEmail(ctx, addr)
	if err != nil {
		return err
	}
	if u == nil {
		return fmt.Errorf("no user with email %s", addr)
	}
	if u.IsAdmin {
		fmt.Fprintf(stdout, "%s is already an admin\n", u.Email)
		return nil
	}
	if _, err := users.SetAdmin(ctx, u.ID, true); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s is now an admin\n", u.Email)
	return nil
}

func sendTestEmail(cfg *config.Config, logger *slog.Logger, to string, stdout io.Writer) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	mailer := server.NewMailer(cfg, logger)
	if err := mailer.Send(ctx, email.TestMessage(to)); err != nil {
		return fmt.Errorf("send test email: %w", err)
	}
	fmt.Fprintf(stdout, "test email sent to %s\n", to)
	return nil
}
