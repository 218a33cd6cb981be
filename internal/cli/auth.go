package cli

import (
	"fmt"
	"strings"

	"erpconsole/internal/rbac"

	"github.com/spf13/cobra"
)

func loginCommand(c *console) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session in the token store",
		Example: `  erpconsole login --email admin@example.com
  echo "$PASSWORD" | erpconsole login --email admin@example.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := c.app
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")

			if email == "" {
				fmt.Fprint(app.errw, "Email: ")
				line, err := readLine(app.in)
				if err != nil {
					return fmt.Errorf("read email: %w", err)
				}
				email = line
			}
			if password == "" {
				fmt.Fprint(app.errw, "Password: ")
				line, err := readLine(app.in)
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				password = line
			}
			if email == "" || password == "" {
				return fmt.Errorf("email and password are required")
			}

			if err := app.Session.Login(cmd.Context(), email, password); err != nil {
				return err
			}
			u := app.Session.User()
			fmt.Fprintf(app.out, "Signed in as %s (%s)\n", u.Email, app.Session.Role())
			return nil
		},
	}
	cmd.Flags().String("email", "", "Account email")
	cmd.Flags().String("password", "", "Account password (read from stdin when omitted)")
	return cmd
}

func logoutCommand(c *console) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the refresh token and clear the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := c.app
			if err := app.Session.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(app.out, "Signed out")
			return nil
		},
	}
}

func whoamiCommand(c *console) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user and what the role may do",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := c.app
			if err := app.requireSession(); err != nil {
				return err
			}
			u := app.Session.User()
			name := strings.TrimSpace(u.FirstName + " " + u.LastName)
			if name == "" {
				name = "-"
			}
			var perms []string
			for _, p := range rbac.Permissions {
				if app.Session.Can(p) {
					perms = append(perms, string(p))
				}
			}
			fmt.Fprintf(app.out, "Email:       %s\n", u.Email)
			fmt.Fprintf(app.out, "Name:        %s\n", name)
			fmt.Fprintf(app.out, "Role:        %s\n", app.Session.Role())
			fmt.Fprintf(app.out, "Permissions: %s\n", strings.Join(perms, ", "))
			fmt.Fprintf(app.out, "Backend:     %s\n", app.Config.APIURL)
			return nil
		},
	}
}
