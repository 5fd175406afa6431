package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/iliyamo/sakila-admin/internal/client"
)

const sessionFile = ".sakilactl.json"

// session is what login persists between invocations.
type session struct {
	Server  string    `json:"server"`
	Token   string    `json:"token"`
	Email   string    `json:"email"`
	Expires time.Time `json:"expires"`
}

var (
	serverFlag  string
	timeoutFlag time.Duration
)

var rootCmd = &cobra.Command{
	Use:          "sakilactl [command]",
	Short:        "Terminal client for the Sakila admin dashboard",
	Long:         `Browse the Sakila store and streaming tables, the dashboard cards and the analytics report through the admin API.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", "", "API base URL (default from session, then http://localhost:8080)")
	rootCmd.PersistentFlags().DurationVar(&timeoutFlag, "timeout", 30*time.Second, "per-command timeout")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func sessionPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, sessionFile), nil
}

func loadSession() (session, error) {
	var s session
	path, err := sessionPath()
	if err != nil {
		return s, err
	}
	bs, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, err
	}
	if err := json.Unmarshal(bs, &s); err != nil {
		return s, fmt.Errorf("read %s: %w", path, err)
	}
	return s, nil
}

func saveSession(s session) error {
	path, err := sessionPath()
	if err != nil {
		return err
	}
	bs, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, bs, 0o600)
}

func serverURL(s session) string {
	switch {
	case serverFlag != "":
		return serverFlag
	case s.Server != "":
		return s.Server
	}
	return "http://localhost:8080"
}

// apiClient builds a client from the stored session.
func apiClient() (*client.Client, error) {
	s, err := loadSession()
	if err != nil {
		return nil, err
	}
	if s.Token == "" {
		return nil, errors.New("not logged in; run sakilactl login")
	}
	if !s.Expires.IsZero() && time.Now().After(s.Expires) {
		return nil, errors.New("session expired; run sakilactl login")
	}
	return client.New(serverURL(s), s.Token), nil
}

func printJSON(cmd *cobra.Command, v any) error {
	bs, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(bs))
	return err
}
