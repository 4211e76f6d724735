package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	tea "github.com/charmbracelet/bubbletea"
)

// ConsoleConfig is read from the environment.
type ConsoleConfig struct {
	APIBaseURL  string        `env:"API_BASE_URL" envDefault:"http://localhost:8080"`
	Timeout     time.Duration `env:"CONSOLE_TIMEOUT" envDefault:"30s"`
	CharacterID string        `env:"CONSOLE_CHARACTER"` // skips the selection modal when set
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func loadConsoleConfig() (*ConsoleConfig, error) {
	var cfg ConsoleConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	return &cfg, nil
}

func main() {
	cfg, err := loadConsoleConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	client := &http.Client{Timeout: cfg.Timeout}
	if !testConnection(client, cfg.APIBaseURL) {
		fmt.Fprintf(os.Stderr, "Could not reach %s. Start the API with: go run ./cmd/api\n", cfg.APIBaseURL)
		os.Exit(1)
	}

	// The event stream outlives the request timeout.
	streamClient := &http.Client{}

	p := tea.NewProgram(NewConsoleUI(cfg, client, streamClient),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}
