package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/narvanalabs/vaulty/internal/auth"
	"github.com/narvanalabs/vaulty/internal/bootstrap"
	"github.com/narvanalabs/vaulty/internal/models"
	"github.com/narvanalabs/vaulty/internal/store"
	"github.com/narvanalabs/vaulty/pkg/config"
)

func (c *cli) newTokenCmd() *cobra.Command {
	var (
		userID string
		email  string
		expiry time.Duration
		verify bool
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for an account",
		Long: `Mints a token signed with JWT_SECRET whose subject is the account's user id.

With --user alone no database is opened. With --email the account is looked
up by email, and --verify checks that the --user account exists.

Examples:
  # Token for a user id, default lifetime (JWT_EXPIRY)
  vaultctl token --user 6f1c...

  # Token for the account registered with this email
  vaultctl token --email alice@example.com

  # Short-lived token for a user id that must exist
  vaultctl token --user 6f1c... --verify --expiry 15m`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" && email == "" {
				return errors.New("one of --user or --email is required")
			}

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if expiry > 0 {
				cfg.JWTExpiry = expiry
			}

			if userID == "" || verify {
				user, err := c.lookupUser(cmd.Context(), cfg, userID, email)
				if err != nil {
					return err
				}
				userID, email = user.ID, user.Email
			}

			if cfg.UsingDefaultKeys() {
				c.log.Warn("signing with the development fallback JWT_SECRET")
			}

			svc := bootstrap.NewAuthService(cfg, c.log.Logger)
			token, err := svc.GenerateToken(auth.Identity(userID), email)
			if err != nil {
				return fmt.Errorf("generating token: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "user id to place in the token subject")
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email (looked up when --user is not given)")
	cmd.Flags().DurationVar(&expiry, "expiry", 0, "token lifetime (defaults to JWT_EXPIRY)")
	cmd.Flags().BoolVar(&verify, "verify", false, "fail unless the --user account exists")

	return cmd
}

// lookupUser resolves the account by id when one is given, otherwise by email.
func (c *cli) lookupUser(ctx context.Context, cfg *config.Config, userID, email string) (*models.User, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := bootstrap.OpenStore(cfg, c.log.Logger)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	var user *models.User
	if userID != "" {
		user, err = st.Users().GetByID(ctx, userID)
	} else {
		user, err = st.Users().GetByEmail(ctx, email)
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil, errors.New("no such account")
	}
	if err != nil {
		return nil, fmt.Errorf("looking up account: %w", err)
	}
	return user, nil
}
