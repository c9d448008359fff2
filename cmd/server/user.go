package main

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/Frans06/website/internal/logger"
	"github.com/Frans06/website/internal/store"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage post authors",
	}
	cmd.AddCommand(newUserCreateCmd())
	return cmd
}

func newUserCreateCmd() *cobra.Command {
	var email, name, password string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an author account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			email = strings.TrimSpace(email)
			if _, err := mail.ParseAddress(email); err != nil {
				return fmt.Errorf("invalid --email %q: %w", email, err)
			}
			if strings.TrimSpace(name) == "" {
				return errors.New("--name must not be empty")
			}
			if len(password) < 8 {
				return errors.New("--password must be at least 8 characters")
			}

			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			ctx := logger.ContextWithLogger(cmd.Context(), log)

			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}

			handle := store.NewPoolHandle(cfg.Database.URL, store.PoolOptions{MaxConns: 1})
			defer handle.Close()
			pool, err := handle.Get(ctx)
			if err != nil {
				return err
			}

			user, err := store.NewUserStore(pool).CreateUser(ctx, email, strings.TrimSpace(name), string(hash))
			if err != nil {
				if errors.Is(err, store.ErrConstraintViolation) {
					return fmt.Errorf("a user with email %s already exists", email)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s)\n", user.ID, user.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Author email address")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&password, "password", "", "Login password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
