package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/podlens/podlens/internal/shared"
)

// AuthLogin exchanges credentials for a session token and persists it.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if r.insight == nil {
		return fmt.Errorf("%w: analysis service not initialized", shared.ErrServiceUnavailable)
	}

	username := cmd.String("username")
	if username == "" {
		username = r.config.Auth.Username
	}
	if username == "" {
		return fmt.Errorf("%w: username", shared.ErrMissingCredentials)
	}

	password := cmd.String("password")
	if password == "" {
		r.writePlain("Password: ")

		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = strings.TrimSpace(line)
	}

	if password == "" {
		return fmt.Errorf("%w: password", shared.ErrMissingCredentials)
	}

	r.logger.Info("logging in", "username", username)

	token, err := r.insight.Login(ctx, username, password)
	if err != nil {
		return err
	}

	r.config.Auth.Username = username
	r.config.Auth.Token = token

	if r.configPath != "" {
		if err := shared.SaveConfig(r.configPath, r.config); err != nil {
			r.logger.Warn("failed to persist session token", "error", err)
		} else {
			r.logger.Info("session saved", "path", r.configPath)
		}
	}

	return r.writePlain("✓ Logged in as %s\n", username)
}

// AuthStatus checks connectivity and session validity.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("checking session")

	if err := r.api.Health(ctx); err != nil {
		classified := shared.Classify(err)
		if classified.Kind == shared.KindUnauthorized {
			return r.writePlain("✗ Session expired. Run 'podlens auth login'.\n")
		}
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}

	r.writePlain("✓ Service is reachable\n")

	if r.config.Auth.Username != "" {
		r.writePlain("Logged in as: %s\n", r.config.Auth.Username)
	}

	return nil
}
