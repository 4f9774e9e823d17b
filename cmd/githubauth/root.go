// SPDX-FileCopyrightText: Copyright 2024 Olavo Dias
// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	githubauth "github.com/olavodias/GitHubAuth"
)

// buildVersion is set at link time.
var buildVersion = "dev"

// rootCommand wires flags, config and subcommands.
func rootCommand() *cobra.Command {
	var (
		cfgFile string
		cfg     *config
	)

	root := &cobra.Command{
		Use:           "githubauth",
		Short:         "Issue GitHub App credentials",
		Long:          "Issues signed GitHub App JWTs and exchanges them for installation access tokens.",
		Version:       buildVersion,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			v := viper.New()
			if err := bindFlags(v, cmd); err != nil {
				return err
			}

			var err error
			cfg, err = loadConfig(v, cfgFile)
			if err != nil {
				return err
			}

			setupLogging(cfg.LogLevel)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./githubauth.{yaml,json,toml})")
	root.PersistentFlags().String("app-id", "", "GitHub App id (issuer)")
	root.PersistentFlags().String("key", "", "path to the PEM private key file")
	root.PersistentFlags().String("api-url", "", "REST API endpoint")
	root.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(appTokenCommand(&cfg))
	root.AddCommand(installationsCommand(&cfg))
	root.AddCommand(installationTokenCommand(&cfg))
	return root
}

// bindFlags maps persistent flags onto viper keys so flags take
// precedence over environment and file values.
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for flag, key := range map[string]string{
		"app-id":    "app_id",
		"key":       "private_key",
		"api-url":   "api_url",
		"log-level": "log_level",
	} {
		f := cmd.Root().PersistentFlags().Lookup(flag)
		if f == nil {
			return fmt.Errorf("unknown flag: %s", flag)
		}
		if f.Changed {
			v.Set(key, f.Value.String())
		}
	}
	return nil
}

// setupLogging configures the process-wide slog handler. Diagnostics go
// to stderr so stdout stays reserved for tokens.
func setupLogging(level string) {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
}

// newStore builds the token cache, collaborator and store from config.
func newStore(cfg *config) (*githubauth.AppTokenCache, *githubauth.InstallationTokenStore, error) {
	cache, err := githubauth.NewAppTokenCacheFromFile(cfg.AppID, cfg.PrivateKey)
	if err != nil {
		return nil, nil, err
	}

	collab, err := githubauth.NewCollaborator(githubauth.WithEndpoint(cfg.APIURL))
	if err != nil {
		return nil, nil, err
	}

	store, err := githubauth.NewInstallationTokenStore(cache, collab)
	if err != nil {
		return nil, nil, err
	}
	return cache, store, nil
}

// appTokenCommand prints a signed app JWT.
func appTokenCommand(cfg **config) *cobra.Command {
	return &cobra.Command{
		Use:   "app-token",
		Short: "Print a signed app JWT",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cache, err := githubauth.NewAppTokenCacheFromFile((*cfg).AppID, (*cfg).PrivateKey)
			if err != nil {
				return err
			}

			token, err := cache.Current()
			if err != nil {
				return err
			}

			slog.Info("signed app assertion", slog.Any("token", token))
			fmt.Fprintln(cmd.OutOrStdout(), token.Token)
			return nil
		},
	}
}

// installationsCommand lists installations available to the app.
func installationsCommand(cfg **config) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "installations",
		Short: "List installations available to the app",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, store, err := newStore(*cfg)
			if err != nil {
				return err
			}

			list, err := store.Installations(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(list)
			}
			for _, item := range list {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", item.ID, item.Owner)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

// installationTokenCommand exchanges the app JWT for an installation
// access token.
func installationTokenCommand(cfg **config) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "installation-token <installation-id>",
		Short: "Print an access token for an installation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid installation id %q: %w", args[0], err)
			}

			_, store, err := newStore(*cfg)
			if err != nil {
				return err
			}

			token, err := store.TokenFor(cmd.Context(), id)
			if err != nil {
				return err
			}

			slog.Info("issued installation access token", slog.Any("token", &token))
			if asJSON {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(token)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token.Token)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}
