package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/goliatone/go-taskboard/app"
	"github.com/goliatone/go-taskboard/auth"
	"github.com/spf13/cobra"
)

func newUsersCmd() *cobra.Command {
	users := &cobra.Command{
		Use:   "users",
		Short: "Administer user accounts",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List active users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				all, err := a.Auther().ListActive(ctx)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tEMAIL\tNAME\tROLE")
				for _, u := range all {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.ID, u.Email, u.Name, u.Role)
				}
				return w.Flush()
			})
		},
	}

	var role string
	promote := &cobra.Command{
		Use:   "promote <email>",
		Short: "Change the role of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				u, err := a.Auther().SetRole(ctx, args[0], auth.UserRole(role))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", u.Email, u.Role)
				return nil
			})
		},
	}
	promote.Flags().StringVar(&role, "role", string(auth.RoleAdmin), "Role to assign: user or admin")

	deactivate := &cobra.Command{
		Use:   "deactivate <email>",
		Short: "Deactivate a user account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				u, err := a.Auther().DeactivateByEmail(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s deactivated\n", u.Email)
				return nil
			})
		},
	}

	users.AddCommand(list, promote, deactivate)
	return users
}
