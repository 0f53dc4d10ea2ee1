package main

import (
	"context"
	"fmt"
	"maps"
	"net"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/saltyorg/smalltalk/internal/auth"
	"github.com/saltyorg/smalltalk/internal/config"
	"github.com/saltyorg/smalltalk/internal/database"
	"github.com/saltyorg/smalltalk/internal/logging"
	"github.com/saltyorg/smalltalk/internal/maintenance"
	"github.com/saltyorg/smalltalk/internal/social"
	"github.com/saltyorg/smalltalk/internal/web"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const defaultDBPath = "./smalltalk.db"

// CLI flags
var (
	port                int
	bind                string
	allowSubnet         string
	dbPath              string
	verbosity           int
	quiet               bool
	hashPasswords       bool
	maintenanceSchedule string

	// Timeout flags (advanced)
	requestTimeout  time.Duration
	shutdownTimeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "smalltalk",
		Short: "Smalltalk - micro-blogging API server",
		Long:  `Smalltalk serves account registration, login, and short text messages over a JSON HTTP API.`,
		RunE:  run,
	}

	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", defaultDBPath, "SQLite database path (or set DB_PATH env var)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v debug, -vv trace)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only log warnings and errors")

	rootCmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP server port (required, or set PORT env var)")
	rootCmd.Flags().StringVarP(&bind, "bind", "b", "", "IP address to bind to (e.g., 127.0.0.1, 0.0.0.0)")
	rootCmd.Flags().StringVarP(&allowSubnet, "allow-subnet", "a", "", "CIDR subnet allowed to connect (e.g., 192.168.1.0/24)")
	rootCmd.Flags().BoolVar(&hashPasswords, "hash-passwords", false, "Store new passwords as bcrypt hashes and verify logins against them")
	rootCmd.Flags().StringVar(&maintenanceSchedule, "maintenance-schedule", maintenance.DefaultSchedule, "Cron schedule for database maintenance (empty disables)")

	// Advanced timeout flags
	rootCmd.Flags().DurationVar(&requestTimeout, "request-timeout", 30*time.Second, "Timeout for a single API request")
	rootCmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 10*time.Second, "Time allowed for in-flight requests on shutdown")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("smalltalk %s (commit: %s, built: %s)\n", version, commit, date)
		},
	})
	rootCmd.AddCommand(migrateCmd(), settingsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveDBPath applies the DB_PATH env var when the flag was left at its default
func resolveDBPath() string {
	if dbPath == defaultDBPath {
		if envDB := os.Getenv("DB_PATH"); envDB != "" {
			return envDB
		}
	}
	return dbPath
}

// openDB opens and migrates the database, then routes logs next to it
func openDB(ctx context.Context) (*database.DB, error) {
	path := resolveDBPath()

	db, err := database.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	logging.Apply(logging.LevelFor(verbosity, quiet), logging.RotationFromSettings(config.NewLoader(db)), logging.FilePathForDB(path))
	return db, nil
}

func run(cmd *cobra.Command, args []string) error {
	// Check for PORT env var if flag not set
	if port == 0 {
		if envPort := os.Getenv("PORT"); envPort != "" {
			if _, err := fmt.Sscanf(envPort, "%d", &port); err != nil {
				return fmt.Errorf("invalid PORT environment variable %q: %w", envPort, err)
			}
		}
	}

	if port == 0 {
		return fmt.Errorf("--port flag or PORT environment variable is required")
	}

	if bind != "" {
		if ip := net.ParseIP(bind); ip == nil {
			return fmt.Errorf("invalid bind address: %s", bind)
		}
	}

	var allowedNet *net.IPNet
	if allowSubnet != "" {
		_, parsedNet, err := net.ParseCIDR(allowSubnet)
		if err != nil {
			return fmt.Errorf("invalid allow-subnet CIDR: %s", allowSubnet)
		}
		allowedNet = parsedNet
	}

	// Setup graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	loader := config.NewLoader(db)

	timeouts := config.DefaultTimeoutConfig()
	timeouts.Request = requestTimeout
	timeouts.Shutdown = shutdownTimeout
	timeouts.FeedHeartbeat = loader.Duration(config.KeyFeedHeartbeat, timeouts.FeedHeartbeat)
	config.SetGlobalTimeouts(timeouts)

	// Warn if binding to all interfaces without an allow list
	if (bind == "" || bind == "0.0.0.0" || bind == "::") && allowSubnet == "" {
		log.Warn().Msg("Server is accessible from all interfaces without subnet restrictions. Consider using --bind or --allow-subnet for security.")
	}

	if !cmd.Flags().Changed("hash-passwords") {
		hashPasswords = loader.Bool(config.KeyHashPasswords, false)
	}
	var hasher social.PasswordHasher
	if hashPasswords {
		hasher = auth.NewBcryptHasher(loader.Int(config.KeyBcryptCost, auth.DefaultBcryptCost))
	}

	accounts, err := db.CountAccounts(ctx)
	if err != nil {
		return err
	}

	log.Info().
		Str("version", version).
		Int("port", port).
		Str("bind", bind).
		Str("allow_subnet", allowSubnet).
		Str("database", db.Path()).
		Int64("accounts", accounts).
		Bool("hash_passwords", hashPasswords).
		Msg("Starting Smalltalk")

	schedule := maintenanceSchedule
	if !cmd.Flags().Changed("maintenance-schedule") {
		schedule = loader.String(config.KeyMaintenanceSchedule, maintenance.DefaultSchedule)
		if schedule == "off" {
			schedule = ""
		}
	}
	maintenanceMgr := maintenance.NewManager(db, maintenance.Config{
		Schedule: schedule,
		Vacuum:   loader.Bool(config.KeyMaintenanceVacuum, false),
	})
	if err := maintenanceMgr.Start(); err != nil {
		return err
	}
	defer maintenanceMgr.Stop()

	server := web.NewServer(db, hasher, port, bind, allowedNet)
	if origins := loader.String(config.KeyFeedOrigins, ""); origins != "" {
		server.Broker().AllowOrigins(strings.Split(origins, ","))
	}
	if err := server.Start(ctx); err != nil {
		log.Error().Err(err).Msg("Server error")
		return err
	}

	log.Info().Msg("Smalltalk stopped")
	return nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			log.Info().Str("database", db.Path()).Msg("Database is up to date")
			return nil
		},
	}
}

func settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect or change runtime settings",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List all settings",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				db, err := openDB(cmd.Context())
				if err != nil {
					return err
				}
				defer db.Close()

				settings, err := db.GetAllSettings()
				if err != nil {
					return err
				}
				for _, key := range slices.Sorted(maps.Keys(settings)) {
					fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", key, settings[key])
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "get <key>",
			Short: "Print a setting value",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				db, err := openDB(cmd.Context())
				if err != nil {
					return err
				}
				defer db.Close()

				value, err := db.GetSetting(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), value)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Store a setting value",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				db, err := openDB(cmd.Context())
				if err != nil {
					return err
				}
				defer db.Close()

				if err := db.SetSetting(args[0], args[1]); err != nil {
					return err
				}
				log.Info().Str("key", args[0]).Str("value", args[1]).Msg("Setting updated")
				return nil
			},
		},
		&cobra.Command{
			Use:   "unset <key>",
			Short: "Remove a setting so its default applies",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				db, err := openDB(cmd.Context())
				if err != nil {
					return err
				}
				defer db.Close()

				return db.DeleteSetting(args[0])
			},
		},
	)

	return cmd
}
