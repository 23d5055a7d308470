package cli

import (
	"bufio"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pizzeria-pos/waiter/internal/session"
	"github.com/spf13/cobra"
)

type loginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// newLoginCmd creates and returns a new login command
func newLoginCmd(a *app) *cobra.Command {
	var in loginInput

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the ordering API",
		Long: `Sign in with your email and password. The session is stored locally and
reused by later commands until you log out.

When --password is not given it is read from the terminal without echo.

Example:
  waiter login --email ana@pizzeria.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reader := bufio.NewReader(cmd.InOrStdin())
			w := cmd.ErrOrStderr()

			var err error
			if in.Email == "" {
				if in.Email, err = getSimpleText(reader, "Email", w); err != nil {
					return fmt.Errorf("%w: unable to read email: %v", ErrInvalidLogin, err)
				}
			}
			if in.Password == "" {
				if in.Password, err = getPassword(w); err != nil {
					return fmt.Errorf("%w: unable to read password: %v", ErrInvalidLogin, err)
				}
			}
			if err := validator.New().Struct(in); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidLogin, err)
			}

			s, err := a.sessions.SignIn(cmdContext(cmd), in.Email, in.Password)
			if err != nil {
				return err
			}

			if a.jsonOutput {
				printJSON(cmd.OutOrStdout(), map[string]string{
					"status": "success",
					"id":     s.ID,
					"name":   s.Name,
					"email":  s.Email,
				})
				return nil
			}
			okLabel.Fprintf(cmd.OutOrStdout(), "✓ Signed in as %s\n", s.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&in.Password, "password", "", "Password (prompted when omitted)")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and remove all locally stored data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.sessions.SignOut(cmdContext(cmd)); err != nil {
				return err
			}
			if a.jsonOutput {
				printJSON(cmd.OutOrStdout(), map[string]string{"status": "success"})
				return nil
			}
			okLabel.Fprintln(cmd.OutOrStdout(), "✓ Signed out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireSession(); err != nil {
				return err
			}
			u := a.sessions.User()

			var expires string
			if info, err := session.InspectToken(u.Token); err == nil && !info.ExpiresAt.IsZero() {
				expires = info.ExpiresAt.Format(time.RFC3339)
				if info.Expired(time.Now()) {
					expires += " (expired)"
				}
			}

			if a.jsonOutput {
				out := map[string]string{"id": u.ID, "name": u.Name, "email": u.Email}
				if expires != "" {
					out["token_expires_at"] = expires
				}
				printJSON(cmd.OutOrStdout(), out)
				return nil
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Name:  %s\n", u.Name)
			fmt.Fprintf(w, "Email: %s\n", u.Email)
			fmt.Fprintf(w, "ID:    %s\n", u.ID)
			if expires != "" {
				fmt.Fprintf(w, "Token expires at: %s\n", expires)
			}
			return nil
		},
	}
}
