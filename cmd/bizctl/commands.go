package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"bizzytrack/backend/internal/platform/rbac"
	"bizzytrack/backend/internal/security"
)

var errPasswordMismatch = errors.New("password does not match hash")

func newApp() *cli.App {
	return &cli.App{
		Name:  "bizctl",
		Usage: "Password hashes and session tokens for bizzytrack",
		Commands: []*cli.Command{
			hashCommand(),
			verifyCommand(),
			tokenCommand(),
		},
	}
}

func hashCommand() *cli.Command {
	return &cli.Command{
		Name:  "hash",
		Usage: "Hash a password with bcrypt",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Required: true},
			&cli.IntFlag{Name: "cost", Value: security.DefaultBcryptCost, EnvVars: []string{"BCRYPT_COST"}},
		},
		Action: func(c *cli.Context) error {
			h, err := security.NewHasher(c.Int("cost")).Hash(c.String("password"))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.App.Writer, h)
			return err
		},
	}
}

func verifyCommand() *cli.Command {
	return &cli.Command{
		Name:  "verify",
		Usage: "Check a password against a bcrypt hash",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Required: true},
			&cli.StringFlag{Name: "hash", Required: true},
		},
		Action: func(c *cli.Context) error {
			ok, err := security.NewHasher(0).Verify(c.String("password"), c.String("hash"))
			if err != nil {
				return err
			}
			if !ok {
				return errPasswordMismatch
			}
			_, err = fmt.Fprintln(c.App.Writer, "ok")
			return err
		},
	}
}

func secretFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "secret", EnvVars: []string{"JWT_SECRET"}},
		&cli.StringFlag{Name: "secret-file", EnvVars: []string{"JWT_SECRET_FILE"}},
		&cli.StringFlag{Name: "issuer", Value: "bizzytrack-api", EnvVars: []string{"JWT_ISSUER"}},
		&cli.StringFlag{Name: "ttl", Value: "7d", EnvVars: []string{"JWT_EXPIRES_IN"}},
	}
}

func tokenProvider(c *cli.Context) (*security.TokenProvider, error) {
	secret, err := security.LoadSecret(c.String("secret"), c.String("secret-file"))
	if err != nil {
		return nil, err
	}
	ttl, err := security.ParseTTL(c.String("ttl"))
	if err != nil {
		return nil, fmt.Errorf("ttl: %w", err)
	}
	return security.NewTokenProvider(secret, c.String("issuer"), ttl)
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Issue or inspect session tokens",
		Subcommands: []*cli.Command{
			{
				Name:  "issue",
				Usage: "Issue a session token",
				Flags: append(secretFlags(),
					&cli.StringFlag{Name: "user", Required: true},
					&cli.StringFlag{Name: "business", Required: true},
					&cli.StringFlag{Name: "role", Value: rbac.RoleStaff},
					&cli.StringFlag{Name: "email"},
				),
				Action: tokenIssue,
			},
			{
				Name:      "verify",
				Usage:     "Verify a session token and print its claims",
				ArgsUsage: "TOKEN",
				Flags:     secretFlags(),
				Action:    tokenVerify,
			},
		},
	}
}

func tokenIssue(c *cli.Context) error {
	p, err := tokenProvider(c)
	if err != nil {
		return err
	}
	token, exp, err := p.Issue(security.Claims{
		UserID:     c.String("user"),
		BusinessID: c.String("business"),
		Role:       c.String("role"),
		Email:      c.String("email"),
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(c.App.Writer, "%s\nexpires_at: %s\n", token, exp.Format(time.RFC3339))
	return err
}

func tokenVerify(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: token verify TOKEN", 2)
	}
	p, err := tokenProvider(c)
	if err != nil {
		return err
	}
	claims, err := p.Verify(c.Args().First())
	if err != nil {
		return err
	}
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(claims)
}
