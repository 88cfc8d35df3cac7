package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/fivetwenty-io/storeadmin/internal/constants"
	"github.com/fivetwenty-io/storeadmin/pkg/admin"
)

// NewLoginCommand creates the login command.
func NewLoginCommand() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in as an administrator",
		Long:  "Authenticate against the admin API and save the session token in the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reader := bufio.NewReader(cmd.InOrStdin())

			if username == "" {
				username = prompt(cmd.OutOrStdout(), reader, "Username: ")
			}

			if password == "" {
				var err error

				password, err = readPassword(cmd.OutOrStdout(), reader)
				if err != nil {
					return err
				}
			}

			if password == "" {
				return constants.ErrPasswordRequired
			}

			return withSession(cmd, func(ctx context.Context, sess *session) error {
				token, err := sess.client.Auth().Login(ctx, username, password)
				if err != nil {
					return err
				}

				return finishLogin(cmd.OutOrStdout(), username, token)
			})
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "administrator username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "administrator password")

	return cmd
}

// NewSignupCommand creates the signup command.
func NewSignupCommand() *cobra.Command {
	var req admin.SignupRequest

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Register an administrator",
		Long:  "Create an administrator account using the signup secret code, then log in as it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Password == "" {
				password, err := readPassword(cmd.OutOrStdout(), bufio.NewReader(cmd.InOrStdin()))
				if err != nil {
					return err
				}

				req.Password = password
			}

			if req.Password == "" {
				return constants.ErrPasswordRequired
			}

			return withSession(cmd, func(ctx context.Context, sess *session) error {
				token, err := sess.client.Auth().Signup(ctx, &req)
				if err != nil {
					return err
				}

				return finishLogin(cmd.OutOrStdout(), req.Username, token)
			})
		},
	}

	cmd.Flags().StringVarP(&req.Username, "username", "u", "", "administrator username")
	cmd.Flags().StringVar(&req.Email, "email", "", "administrator email")
	cmd.Flags().StringVarP(&req.Password, "password", "p", "", "administrator password")
	cmd.Flags().StringVar(&req.SecretCode, "secret-code", "", "signup secret code")

	for _, name := range []string{"username", "email", "secret-code"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out",
		Long:  "Forget the saved session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()
			config.Token = ""
			config.TokenExpiresAt = nil

			if err := saveConfigStruct(config); err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Successfully logged out")

			return nil
		},
	}
}

// withSession opens a session for commands that are not bound to a resource.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, sess *session) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	sess, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	return fn(ctx, sess)
}

// finishLogin records the username; the token itself was already written by
// the persistent token store.
func finishLogin(w io.Writer, username string, token *admin.Token) error {
	config := loadConfig()
	config.Username = username

	if err := saveConfigStruct(config); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	_, _ = fmt.Fprintf(w, "Logged in to %s as %s\n", config.API, username)

	if token != nil && !token.ExpiresAt.IsZero() {
		_, _ = fmt.Fprintf(w, "Session expires at %s\n", token.ExpiresAt.Local().Format("2006-01-02 15:04"))
	}

	return nil
}

func prompt(w io.Writer, reader *bufio.Reader, label string) string {
	_, _ = fmt.Fprint(w, label)

	line, _ := reader.ReadString('\n')

	return strings.TrimSpace(line)
}

// readPassword reads without echo from a terminal, or a line otherwise.
func readPassword(w io.Writer, reader *bufio.Reader) (string, error) {
	_, _ = fmt.Fprint(w, "Password: ")

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		password, err := term.ReadPassword(fd)
		_, _ = fmt.Fprintln(w)

		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}

		return string(password), nil
	}

	line, _ := reader.ReadString('\n')

	return strings.TrimSpace(line), nil
}
