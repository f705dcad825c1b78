package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/conslogger/conslogger/internal/client/auth"
	"github.com/conslogger/conslogger/internal/client/sites"
	"github.com/conslogger/conslogger/internal/client/storage"
)

func (c *Cli) runRegister(ctx context.Context) error {
	c.io.Println("=== Registration ===")
	c.io.Println()

	handle, err := c.io.ReadInput("Handle: ")
	if err != nil {
		return fmt.Errorf("failed to read handle: %w", err)
	}

	displayName, err := c.io.ReadInput("Display name: ")
	if err != nil {
		return fmt.Errorf("failed to read display name: %w", err)
	}

	password, err := c.io.ReadPassword("Password (min 8 chars): ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	confirm, err := c.io.ReadPassword("Confirm password: ")
	if err != nil {
		return fmt.Errorf("failed to read confirmation: %w", err)
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	c.io.Println()
	c.io.Println("Registering...")

	authData, err := c.auth.Register(ctx, handle, displayName, password)
	if err != nil {
		return err
	}

	c.io.Println()
	c.io.Println("Registration successful!")
	c.io.Printf("Handle:  %s\n", authData.Handle)
	c.io.Printf("User ID: %s\n", authData.UserID)
	c.io.Println()
	c.io.Println("Your session has been saved. Local data recorded before signup")
	c.io.Println("stays on this device.")
	return nil
}

func (c *Cli) runLogin(ctx context.Context) error {
	c.io.Println("=== Login ===")
	c.io.Println()

	handle, err := c.io.ReadInput("Handle: ")
	if err != nil {
		return fmt.Errorf("failed to read handle: %w", err)
	}

	password, err := c.io.ReadPassword("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	c.io.Println()
	c.io.Println("Authenticating...")

	authData, err := c.auth.Login(ctx, handle, password)
	if err != nil {
		return err
	}

	c.io.Println()
	c.io.Println("Login successful!")
	c.io.Printf("Handle: %s\n", authData.Handle)
	if authData.DisplayName != "" {
		c.io.Printf("Name:   %s\n", authData.DisplayName)
	}
	return nil
}

func (c *Cli) runLogout(ctx context.Context) error {
	if err := c.auth.Logout(ctx); err != nil {
		return err
	}
	c.io.Println("Logged out. Local session cleared.")
	return nil
}

func (c *Cli) runStatus(ctx context.Context) error {
	c.io.Println("=== Status ===")
	c.io.Println()

	isAuth, err := c.auth.IsAuthenticated(ctx)
	if err != nil {
		return fmt.Errorf("failed to check authentication: %w", err)
	}

	if !isAuth {
		c.io.Println("Session: guest (local only)")
		c.io.Println("Run 'conslogger login' to sync with partners.")
	} else {
		authData, err := c.auth.CurrentUser(ctx)
		if err != nil {
			return fmt.Errorf("failed to get session: %w", err)
		}
		c.io.Println("Session: authenticated")
		c.io.Printf("Handle:  %s\n", authData.Handle)
		c.io.Printf("Token expires: %s\n", authData.ExpiresAt.Format(time.RFC3339))
	}

	selected, err := c.sites.Selected(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve selected site: %w", err)
	}
	c.io.Println()
	c.io.Printf("Site: %s (%s)\n", selected.Name, selected.ID)

	running, err := c.halts.Running(ctx, selected.ID)
	switch {
	case err == nil:
		elapsed := time.Since(running.ArrivalTime()).Round(time.Second)
		c.io.Printf("Halt: running for %s", elapsed)
		if running.Category != "" {
			c.io.Printf(" (%s)", running.Category)
		}
		c.io.Println()
	case errors.Is(err, storage.ErrLogNotFound):
		c.io.Println("Halt: none running")
	default:
		return fmt.Errorf("failed to check running halt: %w", err)
	}
	return nil
}

func (c *Cli) runProfile(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing display name. Usage: conslogger profile <display name>")
	}
	displayName := strings.Join(args, " ")

	authData, err := c.auth.UpdateProfile(ctx, displayName)
	if err != nil {
		if errors.Is(err, auth.ErrNotAuthenticated) {
			return fmt.Errorf("not authenticated. Run 'conslogger login' first")
		}
		return err
	}

	c.io.Printf("Display name updated: %s\n", authData.DisplayName)
	return nil
}

// selectedSite резолвит активную площадку для команд, которым она нужна
func (c *Cli) selectedSite(ctx context.Context) (string, string, error) {
	site, err := c.sites.Selected(ctx)
	if err != nil {
		if errors.Is(err, sites.ErrSiteNotFound) {
			return "", "", fmt.Errorf("no site selected. Run 'conslogger site select <id>'")
		}
		return "", "", err
	}
	return site.ID, site.Name, nil
}
