package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/tmarkhart/stacks/internal/handler"
	"github.com/tmarkhart/stacks/internal/logging"
	"github.com/tmarkhart/stacks/internal/repository/sqlite"
	"github.com/tmarkhart/stacks/internal/service"
)

var version = "dev"

var (
	port      string
	dbPath    string
	jwtSecret string
	logFile   string
	verbosity int

	bcryptCost int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "stacks",
		Short: "Stacks - library catalog server",
		Long:  `Stacks is a library catalog server: users register, log in, and browse, add, borrow, return, and delete books over a JSON API.`,
	}

	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "./stacks.db", "SQLite database path (or set DB_PATH env var)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v debug, -vv trace)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the catalog server",
		RunE:  runServe,
	}
	serveCmd.Flags().StringVarP(&port, "port", "p", "8080", "HTTP server port (or set PORT env var)")
	serveCmd.Flags().StringVar(&jwtSecret, "jwt-secret", "", "secret for signing session tokens (or set JWT_SECRET env var)")
	serveCmd.Flags().StringVar(&logFile, "log-file", "", "rotating log file path (console only when empty)")
	serveCmd.Flags().IntVar(&bcryptCost, "bcrypt-cost", 12, "bcrypt cost for password hashing")

	useraddCmd := &cobra.Command{
		Use:   "useradd <name> <email>",
		Short: "Register a user directly against the store",
		Args:  cobra.ExactArgs(2),
		RunE:  runUseradd,
	}
	useraddCmd.Flags().IntVar(&bcryptCost, "bcrypt-cost", 12, "bcrypt cost for password hashing")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(useraddCmd)
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("stacks %s\n", version)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	applyEnvFallbacks()
	logging.Setup(verbosity, logFile)

	if jwtSecret == "" {
		return fmt.Errorf("--jwt-secret flag or JWT_SECRET environment variable is required")
	}
	if len(jwtSecret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters for HMAC-SHA256 security")
	}

	log.Info().
		Str("version", version).
		Str("port", port).
		Str("database", dbPath).
		Msg("starting stacks")

	db, err := sqlite.New(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	log.Info().Msg("database migrations applied")

	authService := service.NewAuthService(db.Users(), jwtSecret, bcryptCost)
	catalogService := service.NewCatalogService(db.Books(), db.Covers())
	coverService := service.NewCoverService(db.Covers(), nil)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler.NewRouter(authService, catalogService, coverService),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, gCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-gCtx.Done()
		log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}

func runUseradd(cmd *cobra.Command, args []string) error {
	applyEnvFallbacks()
	logging.Setup(verbosity, "")

	name, email := args[0], args[1]

	password, err := readPassword("Password: ")
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		return fmt.Errorf("read password confirmation: %w", err)
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	db, err := sqlite.New(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	// Token signing is not needed here, so the secret is irrelevant.
	auth := service.NewAuthService(db.Users(), "unused", bcryptCost)
	user, err := auth.Register(context.Background(), name, email, password)
	if err != nil {
		return err
	}

	fmt.Printf("user %d (%s) created\n", user.ID, user.Email)
	return nil
}

// readPassword reads a password from the terminal without echoing it.
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	fmt.Println()
	return strings.TrimSpace(string(bytePassword)), nil
}

func applyEnvFallbacks() {
	if envPort := os.Getenv("PORT"); envPort != "" && port == "8080" {
		port = envPort
	}
	if envDB := os.Getenv("DB_PATH"); envDB != "" && dbPath == "./stacks.db" {
		dbPath = envDB
	}
	if jwtSecret == "" {
		jwtSecret = os.Getenv("JWT_SECRET")
	}
}
