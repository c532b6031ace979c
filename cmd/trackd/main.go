package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pasearch/trackd/pkg/client"
	"github.com/pasearch/trackd/pkg/config"
	"github.com/pasearch/trackd/pkg/log"
	"github.com/pasearch/trackd/pkg/session"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var cfgFile string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "trackd",
	Short: "Trackd - live tracking console for lost and stolen devices",
	Long: `Trackd is the tracking client for the Pasearch lost/stolen-device
platform. It follows the backend's live tracking channel, keeps a bounded
registry of device positions and movement trails, and performs lookups and
reports against the backend API.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Trackd version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(statusCmd)
}

// loadConfig loads configuration and initializes logging
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	log.Init(log.Config{
		Level:      log.Level(cfg.Log.Level),
		JSONOutput: cfg.Log.JSON,
	})
	return cfg, nil
}

// openSession opens the persisted session store
func openSession(cfg *config.Config) (*session.Store, error) {
	store, err := session.Open(cfg.Session.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	return store, nil
}

func newClient(cfg *config.Config, store *session.Store) *client.Client {
	return client.New(client.Config{
		BaseURL:    cfg.API.BaseURL,
		HealthPath: cfg.API.HealthPath,
		Timeout:    cfg.API.Timeout,
	}, store)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate against the backend and persist the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		password, _ := cmd.Flags().GetString("password")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := openSession(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx, cancel := context.WithTimeout(context.Background(), cfg.API.Timeout)
		defer cancel()

		sess, err := newClient(cfg, store).Login(ctx, username, password)
		if err != nil {
			return fmt.Errorf("login failed: %v", err)
		}

		fmt.Printf("Logged in as %s (%s)\n", sess.User.Username, sess.User.Role)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the persisted session",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := openSession(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		guard := session.NewGuard(store, nil, session.GuardConfig{
			Grace: cfg.Session.GraceBuffer,
		})
		if err := guard.Logout(); err != nil {
			return fmt.Errorf("logout failed: %v", err)
		}
		fmt.Println("Logged out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := openSession(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		sess, ok := store.Load()
		if !ok {
			fmt.Println("Not logged in")
			return nil
		}

		guard := session.NewGuard(store, nil, session.GuardConfig{
			Grace: cfg.Session.GraceBuffer,
		})
		if guard.IsExpired(sess) {
			fmt.Println("Session expired, please log in again")
			return nil
		}

		fmt.Printf("User:     %s\n", sess.User.Username)
		fmt.Printf("Role:     %s\n", sess.User.Role)
		if sess.User.Email != "" {
			fmt.Printf("Email:    %s\n", sess.User.Email)
		}
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Probe backend reachability once",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := openSession(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := newClient(cfg, store).Ping(ctx); err != nil {
			fmt.Printf("Backend unreachable: %v\n", err)
			return nil
		}
		fmt.Println("Backend online")
		return nil
	},
}

func init() {
	loginCmd.Flags().String("username", "", "account username")
	loginCmd.Flags().String("password", "", "account password")
	loginCmd.MarkFlagRequired("username")
	loginCmd.MarkFlagRequired("password")
}
