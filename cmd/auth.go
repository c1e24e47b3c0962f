package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/CrazyNoDota/nomadway-sub000/internal/output"
	"github.com/CrazyNoDota/nomadway-sub000/internal/session"
)

var authCmd = &cobra.Command{
	Use:     "auth",
	Short:   "Manage your account session",
	GroupID: "account",
}

var (
	flagEmail    string
	flagPassword string
	flagName     string
)

var authRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, password, err := credentials()
		if err != nil {
			return err
		}
		name := flagName
		if name == "" {
			name, err = prompt("Name: ")
			if err != nil {
				return err
			}
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			return fail(output.ErrCodeStorage, err)
		}
		defer a.Close()

		if err := a.sess.Register(cmd.Context(), email, password, name); err != nil {
			return fail(output.ErrCodeInternal, fmt.Errorf("register: %w", err))
		}
		mergeLocal(cmd, a)

		output.Success("Account created. Signed in as %s", email)
		return nil
	},
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to your account",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, password, err := credentials()
		if err != nil {
			return err
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			return fail(output.ErrCodeStorage, err)
		}
		defer a.Close()

		if a.sess.Status() == session.StatusAuthenticated {
			output.Info("Already signed in. Run 'nomadway auth logout' first.")
			return nil
		}

		if err := a.sess.Login(cmd.Context(), email, password); err != nil {
			return fail(output.ErrCodeInternal, fmt.Errorf("login: %w", err))
		}
		mergeLocal(cmd, a)

		output.Success("Signed in as %s", email)
		return nil
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and clear stored credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return fail(output.ErrCodeStorage, err)
		}
		defer a.Close()

		a.sess.Logout(cmd.Context())
		output.Success("Signed out")
		return nil
	},
}

var authWhoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return fail(output.ErrCodeStorage, err)
		}
		defer a.Close()

		user := a.sess.CurrentUser()
		if flagJSON {
			return output.JSON(map[string]any{
				"status": a.sess.Status(),
				"user":   user,
			})
		}
		output.Info("%s", output.FormatUser(user))
		output.Info("status: %s", a.sess.Status())
		return nil
	},
}

// mergeLocal pushes device-local cart and favorites into the account right
// after sign-in, then reloads the authoritative lists.
func mergeLocal(cmd *cobra.Command, a *app) {
	if err := a.cart.SyncLocalToRemote(cmd.Context()); err != nil {
		output.Warning("cart sync: %v", err)
	}
	if err := a.favs.SyncLocalToRemote(cmd.Context()); err != nil {
		output.Warning("favorites sync: %v", err)
	}
	if err := a.cart.Load(cmd.Context()); err != nil {
		a.log.Warn("reload cart", "err", err)
	}
	if err := a.favs.Load(cmd.Context()); err != nil {
		a.log.Warn("reload favorites", "err", err)
	}
}

func credentials() (email, password string, err error) {
	email = flagEmail
	if email == "" {
		email, err = prompt("Email: ")
		if err != nil {
			return "", "", err
		}
	}
	if email == "" {
		return "", "", fmt.Errorf("email required")
	}

	password = flagPassword
	if password == "" {
		fmt.Print("Password: ")
		raw, rerr := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if rerr != nil {
			return "", "", fmt.Errorf("read password: %w", rerr)
		}
		password = string(raw)
	}
	if password == "" {
		return "", "", fmt.Errorf("password required")
	}
	return email, password, nil
}

func prompt(label string) (string, error) {
	fmt.Print(label)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func init() {
	for _, c := range []*cobra.Command{authRegisterCmd, authLoginCmd} {
		c.Flags().StringVar(&flagEmail, "email", "", "account email")
		c.Flags().StringVar(&flagPassword, "password", "", "account password (prompted when omitted)")
	}
	authRegisterCmd.Flags().StringVar(&flagName, "name", "", "display name")

	authCmd.AddCommand(authRegisterCmd, authLoginCmd, authLogoutCmd, authWhoamiCmd)
	rootCmd.AddCommand(authCmd)
}
