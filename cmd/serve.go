package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/playreply/internal/api"
	"github.com/playreply/internal/api/auth"
)

// ServeCommand returns the CLI command for starting the API server
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the PlayReply API server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address for the API server",
			},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.Server.JWTSecret == "" {
		return fmt.Errorf("server.jwt_secret is required to run the API server")
	}

	ctx := context.Background()
	orch, store, err := buildOrchestrator(ctx, c, cfg)
	if err != nil {
		return err
	}

	users, err := auth.NewUserStore(cfg.Server.UsersFile)
	if err != nil {
		return fmt.Errorf("failed to load users file: %w", err)
	}
	if users.Count() == 0 {
		fmt.Println("Warning: no API users exist yet, create one with 'playreply user add'")
	}

	addr := cfg.Server.Addr
	if c.IsSet("addr") {
		addr = c.String("addr")
	}

	fmt.Printf("Starting PlayReply API server on %s\n", addr)
	server := api.NewServer(api.Options{
		Addr:         addr,
		Orchestrator: orch,
		Store:        store,
		Users:        users,
		Tokens:       auth.NewTokenService(cfg.Server.JWTSecret),
	})
	return server.Start()
}

// UserCommand returns the user management command
func UserCommand() *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "Manage API server accounts",
		Subcommands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Create a new API account",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "username",
						Aliases:  []string{"u"},
						Usage:    "Account username",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Aliases:  []string{"p"},
						Usage:    "Account password",
						Required: true,
					},
				},
				Action: runUserAdd,
			},
		},
	}
}

func runUserAdd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	users, err := auth.NewUserStore(cfg.Server.UsersFile)
	if err != nil {
		return fmt.Errorf("failed to load users file: %w", err)
	}

	if err := users.Create(c.String("username"), c.String("password")); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Printf("Created API user %s\n", c.String("username"))
	return nil
}
