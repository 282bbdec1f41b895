package auth

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/nsetools/project-scheduler/cmd/cli/config"
	"github.com/spf13/cobra"
)

// InitAuth registers the auth-related CLI commands on the root command.
func InitAuth(rootCmd *cobra.Command) {
	rootCmd.AddCommand(signupCmd(), loginCmd(), logoutCmd(), profileCmd())
}

func signupCmd() *cobra.Command {
	var name, email, password, dateOfBirth string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and store a JWT token locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				Token string `json:"token"`
			}
			payload := map[string]string{
				"name":        name,
				"email":       email,
				"password":    password,
				"dateOfBirth": dateOfBirth,
			}
			if err := postJSON("/auth/signup", payload, &resp); err != nil {
				return fmt.Errorf("signup failed: %w", err)
			}
			if resp.Token == "" {
				return fmt.Errorf("signup succeeded but no token returned")
			}
			if err := config.SaveToken(resp.Token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}
			fmt.Println("Account created. Token stored locally.")
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Full name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password (min 8 characters)")
	cmd.Flags().StringVar(&dateOfBirth, "dob", "", "Date of birth (YYYY-MM-DD)")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	cmd.MarkFlagRequired("dob")

	return cmd
}

func loginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the Project Scheduler API",
		Long:  "Authenticate with the Project Scheduler API and store a JWT token for subsequent CLI commands.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				Token string `json:"token"`
			}
			if err := postJSON("/auth/login", map[string]string{"email": email, "password": password}, &resp); err != nil {
				return fmt.Errorf("failed to login: %w", err)
			}
			if resp.Token == "" {
				return fmt.Errorf("login succeeded but no token returned")
			}
			if err := config.SaveToken(resp.Token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}
			fmt.Println("Login successful. Token stored locally.")
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")

	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the locally stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.RemoveToken(); err != nil {
				return err
			}
			fmt.Println("Logged out.")
			return nil
		},
	}
}

func profileCmd() *cobra.Command {
	profile := &cobra.Command{
		Use:   "profile",
		Short: "View or update your profile",
	}

	get := &cobra.Command{
		Use:   "get",
		Short: "Show the authenticated user's profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := Request("GET", "/auth/profile", nil)
			if err != nil {
				return err
			}
			fmt.Println(string(body))
			return nil
		},
	}

	var name, dateOfBirth string
	update := &cobra.Command{
		Use:   "update",
		Short: "Update name and date of birth",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]string{"name": name}
			if dateOfBirth != "" {
				payload["dateOfBirth"] = dateOfBirth
			}
			body, err := Request("PUT", "/auth/profile", payload)
			if err != nil {
				return err
			}
			fmt.Println(string(body))
			return nil
		},
	}
	update.Flags().StringVar(&name, "name", "", "Full name")
	update.Flags().StringVar(&dateOfBirth, "dob", "", "Date of birth (YYYY-MM-DD)")
	update.MarkFlagRequired("name")

	profile.AddCommand(get, update)
	return profile
}

func postJSON(path string, payload interface{}, out interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := http.Post(config.APIURL()+path, "application/json", bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}

	if out != nil {
		return json.Unmarshal(body, out)
	}
	return nil
}

// Request performs a request with the stored bearer token and returns
// the raw response body.
func Request(method, path string, payload interface{}) ([]byte, error) {
	token, err := config.LoadToken()
	if err != nil {
		return nil, fmt.Errorf("please login first")
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, config.APIURL()+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
