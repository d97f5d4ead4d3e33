// Package main provides a utility for issuing development bearer tokens.
//
// Usage:
//
//	go run ./cmd/tokengen -user <uuid>
//
// The signing secret and issuer come from the regular server configuration.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/config"
	"github.com/phrazzld/scry-scheduler/internal/service/auth"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("tokengen", flag.ContinueOnError)
	userFlag := fs.String("user", "", "user ID to issue the token for (random if empty)")
	configPath := fs.String("config", "", "path to a config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	userID := uuid.New()
	if *userFlag != "" {
		parsed, err := uuid.Parse(*userFlag)
		if err != nil {
			return fmt.Errorf("invalid user ID: %w", err)
		}
		userID = parsed
	}

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		return err
	}

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return err
	}

	token, err := jwtService.GenerateToken(context.Background(), userID)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "user_id: %s\ntoken:   %s\n", userID, token)
	return nil
}
