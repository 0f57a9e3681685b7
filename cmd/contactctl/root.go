package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/eeeflix-contacts/internal/client"
	"github.com/noah-isme/eeeflix-contacts/pkg/config"
	"github.com/noah-isme/eeeflix-contacts/pkg/logger"
)

// passwordEnv holds the password used with --user.
const passwordEnv = "CONTACTS_PASSWORD"

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	apiURL  string
	apiKey  string
	user    string
	timeout time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "contactctl",
		Short:         "Manage EEEFLIX student contacts",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&opts.apiURL, "api", "", "contacts API base URL (default CONTACTS_API_URL)")
	root.PersistentFlags().StringVar(&opts.apiKey, "api-key", "", "write API key (default CLIENT_API_KEY)")
	root.PersistentFlags().StringVar(&opts.user, "user", "", "log in as this user; the password is read from "+passwordEnv)
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 0, "per-request timeout (default CLIENT_TIMEOUT)")

	root.AddCommand(
		newManageCmd(opts),
		newEditCmd(opts),
		newSeedCmd(),
		newValidateCmd(),
	)
	return root
}

// session is what the interactive commands need to run.
type session struct {
	cfg    *config.Config
	api    *client.Client
	logger *zap.Logger
}

func (o *rootOptions) open(ctx context.Context) (*session, error) {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return nil, fmt.Errorf("requires a terminal (TTY)")
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logr, err := logger.NewFile(cfg.Client.LogFile, cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	api := o.newClient(cfg, logr)

	if o.user != "" {
		if _, err := api.Login(ctx, o.user, os.Getenv(passwordEnv)); err != nil {
			_ = logr.Sync()
			return nil, fmt.Errorf("login: %w", err)
		}
		logr.Info("logged in", zap.String("user", o.user))
	}
	return &session{cfg: cfg, api: api, logger: logr}, nil
}

// newClient applies flag overrides on top of the client config.
func (o *rootOptions) newClient(cfg *config.Config, logr *zap.Logger) *client.Client {
	baseURL := cfg.Client.BaseURL
	if o.apiURL != "" {
		baseURL = o.apiURL
	}
	apiKey := cfg.Client.APIKey
	if o.apiKey != "" {
		apiKey = o.apiKey
	}
	timeout := cfg.Client.Timeout
	if o.timeout > 0 {
		timeout = o.timeout
	}
	return client.New(client.Options{
		BaseURL:   baseURL,
		StorePath: "/assets/" + cfg.Store.ContactsFile,
		APIKey:    apiKey,
		Timeout:   timeout,
		Logger:    logr,
	})
}
