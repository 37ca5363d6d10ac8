package main

import (
	"errors"
	"fmt"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"shopfront/app/api"
)

var (
	authEmail    string
	authPassword string
	authName     string
)

func init() {
	for _, c := range []*cobra.Command{registerCmd, loginCmd} {
		c.Flags().StringVar(&authEmail, "email", "", "account email")
		c.Flags().StringVar(&authPassword, "password", "", "account password (prompted if omitted)")
	}
	registerCmd.Flags().StringVar(&authName, "name", "", "display name")
}

// shopfront register — create an account and sign in.
var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account on the backend and sign in",
	RunE: func(cmd *cobra.Command, args []string) error {
		session, _, err := boot(cmd.Context())
		if err != nil {
			return err
		}

		if authName == "" || authEmail == "" {
			return errors.New("--name and --email are required")
		}
		password, err := resolvePassword()
		if err != nil {
			return err
		}

		creds, err := api.NewClient("").Register(cmd.Context(), authName, authEmail, password)
		if err != nil {
			return fmt.Errorf("register: %w", err)
		}

		session.Login(creds.User, creds.Token)
		fmt.Printf("✅  Registered and signed in as %s <%s>\n", creds.User.Name, creds.User.Email)
		return nil
	},
}

// shopfront login — sign in with an existing account.
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and make the cart yours",
	RunE: func(cmd *cobra.Command, args []string) error {
		session, _, err := boot(cmd.Context())
		if err != nil {
			return err
		}

		if authEmail == "" {
			return errors.New("--email is required")
		}
		password, err := resolvePassword()
		if err != nil {
			return err
		}

		creds, err := api.NewClient("").Login(cmd.Context(), authEmail, password)
		if err != nil {
			if errors.Is(err, api.ErrUnauthorized) {
				return errors.New("login: invalid email or password")
			}
			return fmt.Errorf("login: %w", err)
		}

		session.Login(creds.User, creds.Token)
		fmt.Printf("✅  Signed in as %s <%s>\n", creds.User.Name, creds.User.Email)
		return nil
	},
}

// shopfront logout — clear the local session and return to the guest cart.
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out of this machine",
	RunE: func(cmd *cobra.Command, args []string) error {
		session, _, err := boot(cmd.Context())
		if err != nil {
			return err
		}

		if !session.IsAuthenticated() {
			fmt.Println("Not signed in.")
			return nil
		}

		session.Logout()
		fmt.Println("Signed out. You are browsing as a guest.")
		return nil
	},
}

// shopfront whoami — print the current identity.
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show who is signed in",
	RunE: func(cmd *cobra.Command, args []string) error {
		session, _, err := boot(cmd.Context())
		if err != nil {
			return err
		}

		user, ok := session.Current()
		if !ok {
			fmt.Println("guest")
			return nil
		}

		fmt.Printf("%s <%s> role=%s\n", user.Name, user.Email, user.Role)
		return nil
	},
}

func resolvePassword() (string, error) {
	if authPassword != "" {
		return authPassword, nil
	}
	fmt.Print("Password: ")
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(raw), nil
}
