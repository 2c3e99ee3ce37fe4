package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/phrazzld/taskboard/internal/redact"
	"github.com/phrazzld/taskboard/internal/service/auth"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// passwordEnv lets scripts sign in without a prompt.
const passwordEnv = "TASKBOARD_PASSWORD"

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session locally",
		Long: `Sign in with the hosted auth service and store the session for the
other client commands.

The password is read from $` + passwordEnv + ` when set, otherwise it is
prompted for (without echo on a terminal).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := opts.openClient(cmd)
			if err != nil {
				return err
			}
			defer client.close()

			in := bufio.NewReader(cmd.InOrStdin())
			if email == "" {
				if email, err = prompt(cmd, in, "Email: "); err != nil {
					return err
				}
			}
			password, err := readPassword(cmd, in)
			if err != nil {
				return err
			}

			session, err := client.authenticator.SignIn(cmd.Context(), strings.TrimSpace(email), password)
			if err != nil {
				if errors.Is(err, auth.ErrInvalidCredentials) {
					return errors.New("invalid email or password")
				}
				return err
			}

			if err := saveSession(client.sessionPath, newStoredSession(session)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", session.User.Email)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	return cmd
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := opts.openClient(cmd)
			if err != nil {
				return err
			}
			defer client.close()

			s, err := loadSession(client.sessionPath)
			if errors.Is(err, errNotLoggedIn) {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
				return nil
			}
			if err != nil {
				return err
			}

			if err := client.authenticator.SignOut(cmd.Context(), s.AccessToken); err != nil {
				client.logger.Warn("sign-out request failed, forgetting session anyway", "error", redact.Error(err))
			}
			if err := removeSession(client.sessionPath); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func prompt(cmd *cobra.Command, in *bufio.Reader, label string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), label)
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func readPassword(cmd *cobra.Command, in *bufio.Reader) (string, error) {
	if pw := os.Getenv(passwordEnv); pw != "" {
		return pw, nil
	}
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		pw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(pw), nil
	}
	return prompt(cmd, in, "Password: ")
}
