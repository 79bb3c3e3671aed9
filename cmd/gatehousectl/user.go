package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
	"github.com/aussiebroadwan/gatehouse/internal/auth/service"
	"github.com/aussiebroadwan/gatehouse/internal/auth/store"
	"github.com/spf13/cobra"
)

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}
	cmd.AddCommand(
		userCreateCmd(),
		userSetRoleCmd(),
		userShowCmd(),
		userRevokeCmd(),
	)
	return cmd
}

// withStore runs fn against a freshly opened store and closes it afterwards.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, st store.Store) error) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	return fn(ctx, st)
}

func userCreateCmd() *cobra.Command {
	var (
		in   service.RegisterInput
		role string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a password account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Parsed up front: a bad role must not leave a half-made account.
			r, err := domain.ParseRole(role)
			if err != nil {
				return err
			}
			return withStore(cmd, func(ctx context.Context, st store.Store) error {
				id, err := (&service.CredentialService{Store: st}).Register(ctx, in)
				if err != nil {
					return err
				}
				if r != id.Role {
					if id, err = (&service.UserService{Store: st}).SetRole(ctx, id.Email, r); err != nil {
						return err
					}
				}
				printIdentity(cmd.OutOrStdout(), id)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&in.Email, "email", "", "account email")
	cmd.Flags().StringVar(&in.Name, "name", "", "display name")
	cmd.Flags().StringVar(&in.Password, "password", "", "initial password")
	cmd.Flags().StringVar(&role, "role", string(domain.DefaultRole), "role (user, admin)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func userSetRoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <email> <role>",
		Short: "Change an account's role",
		Long: `Change an account's role. Access tokens already issued keep the old
role until they expire or are renewed.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := domain.ParseRole(args[1])
			if err != nil {
				return err
			}
			return withStore(cmd, func(ctx context.Context, st store.Store) error {
				id, err := (&service.UserService{Store: st}).SetRole(ctx, args[0], r)
				if err != nil {
					return err
				}
				printIdentity(cmd.OutOrStdout(), id)
				return nil
			})
		},
	}
}

func userShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <email>",
		Short: "Show an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, st store.Store) error {
				u, err := (&service.UserService{Store: st}).GetUserByEmail(ctx, args[0])
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintf(tw, "id\t%s\n", u.ID)
				fmt.Fprintf(tw, "email\t%s\n", u.Email)
				fmt.Fprintf(tw, "name\t%s\n", u.Name)
				fmt.Fprintf(tw, "role\t%s\n", u.Role)
				fmt.Fprintf(tw, "password\t%t\n", u.HasPassword())
				fmt.Fprintf(tw, "created\t%s\n", u.CreatedAt.Format(time.RFC3339))
				return tw.Flush()
			})
		},
	}
}

func userRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke-sessions <email>",
		Short: "End every refresh session of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, st store.Store) error {
				u, err := (&service.UserService{Store: st}).GetUserByEmail(ctx, args[0])
				if err != nil {
					return err
				}
				if err := (&service.TokenService{Store: st}).RevokeAll(ctx, u.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "sessions revoked for %s\n", u.Email)
				return nil
			})
		},
	}
}

func printIdentity(w io.Writer, id domain.Identity) {
	fmt.Fprintf(w, "%s\t%s\t%s\n", id.ID, id.Email, id.Role)
}
