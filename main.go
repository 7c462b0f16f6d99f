// reverie TUI - A terminal interface for the reverie chat gateway.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/jeranaias/reverie-tui/internal/config"
	"github.com/jeranaias/reverie-tui/internal/debug"
	"github.com/jeranaias/reverie-tui/internal/gateway"
	"github.com/jeranaias/reverie-tui/internal/model"
	"github.com/jeranaias/reverie-tui/internal/parse"
	"github.com/jeranaias/reverie-tui/internal/stream"
	"github.com/jeranaias/reverie-tui/internal/ui/chat"
	"github.com/jeranaias/reverie-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.2.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Global program reference for async streaming
var (
	programRef *tea.Program
	programMu  sync.Mutex
)

func main() {
	modelFlag := flag.String("model", "", "override the configured model")
	configFlag := flag.String("config", "", "path to the config file (default ~/.reverie/config.toml)")
	askFlag := flag.String("ask", "", "send one prompt, print the answer, and exit")
	versionFlag := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("reverie %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	cfg, err := loadConfig(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *modelFlag != "" {
		cfg.Gateway.Model = *modelFlag
	}

	// First run: ask for the API key before entering the alternate screen.
	if cfg.Gateway.APIKey == "" {
		key, err := promptAPIKey()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cfg.Gateway.APIKey = key
		if err := saveConfig(cfg, *configFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not save config: %v\n", err)
		}
	}

	if cfg.Debug {
		if dir, err := config.ConfigDir(); err == nil {
			if err := debug.Enable(filepath.Join(dir, "debug.log")); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
			}
			defer debug.Close()
		}
	}

	if *askFlag != "" {
		runAsk(cfg, *askFlag)
		return
	}

	runTUI(cfg, *configFlag)
}

// runAsk performs one non-interactive completion and prints the answer body,
// reasoning stripped, to stdout.
func runAsk(cfg *config.Config, prompt string) {
	client := newGatewayClient(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	resp, err := client.Chat(ctx, []gateway.ChatMessage{gateway.NewUserMessage(prompt)})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(parse.Parse(resp.GetContent(), false).Body)
}

// newGatewayClient builds a gateway client from the loaded config.
func newGatewayClient(cfg *config.Config) *gateway.Client {
	client := gateway.NewClientWithBaseURL(cfg.Gateway.APIKey, cfg.Gateway.BaseURL)
	client.SetModel(cfg.Gateway.Model)
	client.SetRequestsPerMinute(cfg.Gateway.RequestsPerMinute)
	return client
}

// loadConfig loads from the explicit path when given, otherwise from the
// default location.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

// saveConfig persists the config back to wherever it was loaded from.
func saveConfig(cfg *config.Config, path string) error {
	if path != "" {
		return config.SaveTOML(cfg, path)
	}
	return config.Save(cfg)
}

// promptAPIKey reads the gateway API key from the terminal without echo.
func promptAPIKey() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no API key configured; set REVERIE_API_KEY or add gateway.api_key to the config file")
	}

	fmt.Print("Enter your reverie API key: ")
	raw, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("reading API key: %w", err)
	}

	key := strings.TrimSpace(string(raw))
	if key == "" {
		return "", fmt.Errorf("no API key entered")
	}
	return key, nil
}

// runTUI starts the TUI interface.
func runTUI(cfg *config.Config, configPath string) {
	client := newGatewayClient(cfg)

	theme := styles.NewTheme()
	m := NewModel(theme, client, cfg)

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	// Store program reference for async operations
	programMu.Lock()
	programRef = p
	programMu.Unlock()

	// Watch the config file so edits apply without a restart.
	watchPath := configPath
	if watchPath == "" {
		if defaultPath, err := config.ConfigPath(); err == nil {
			watchPath = defaultPath
		}
	}
	if watchPath != "" {
		watcher, err := config.NewWatcher(watchPath, func(next *config.Config) {
			send(chat.ConfigReloadedMsg{Config: next})
		})
		if err == nil {
			defer watcher.Close()
		}
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running reverie: %v\n", err)
		os.Exit(1)
	}
}

// send delivers a message to the running program from a goroutine.
func send(msg tea.Msg) {
	programMu.Lock()
	p := programRef
	programMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// =============================================================================
// APPLICATION MODEL
// =============================================================================

// Model is the root Bubble Tea model. It owns the gateway client and runs
// the stream bridge; the chat view handles everything visible.
type Model struct {
	theme     *styles.Theme
	chatModel chat.Model
	client    *gateway.Client
	config    *config.Config

	width  int
	height int
}

// NewModel creates the application model.
func NewModel(theme *styles.Theme, client *gateway.Client, cfg *config.Config) *Model {
	return &Model{
		theme:     theme,
		chatModel: chat.New(cfg, theme),
		client:    client,
		config:    cfg,
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return m.chatModel.Init()
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case chat.StreamRequestMsg:
		return m.startStream(msg)

	case chat.ConfigReloadedMsg:
		// Update the gateway client, then let the chat model pick up
		// the UI settings from the same message below.
		m.applyConfig(msg.Config)
	}

	var cmd tea.Cmd
	m.chatModel, cmd = m.chatModel.Update(msg)
	return m, cmd
}

// View renders the current state.
func (m *Model) View() string {
	return m.chatModel.View()
}

// applyConfig pushes hot-reloaded gateway settings into the client.
func (m *Model) applyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	m.config = cfg
	if cfg.Gateway.APIKey != "" {
		m.client.SetAPIKey(cfg.Gateway.APIKey)
	}
	m.client.SetModel(cfg.Gateway.Model)
	m.client.SetRequestsPerMinute(cfg.Gateway.RequestsPerMinute)
}

// =============================================================================
// STREAM BRIDGE
// =============================================================================

// startStream begins a generation against the gateway. The goroutine feeds
// gateway chunks through the demultiplexer and delivers the unified logical
// stream to the chat view via Program.Send.
func (m *Model) startStream(req chat.StreamRequestMsg) (tea.Model, tea.Cmd) {
	ctx, cancel := context.WithCancel(context.Background())
	m.chatModel.SetCancelFunc(cancel)

	var startCmd tea.Cmd
	m.chatModel, startCmd = m.chatModel.Update(chat.StreamStartMsg{
		MessageID: req.MessageID,
		StartTime: time.Now(),
	})

	// Capture before the closure; Bubble Tea copies the model.
	client := m.client

	bridge := func() tea.Msg {
		defer cancel()

		stats := model.NewStatistics()
		var demux stream.Demux
		isFirst := true
		tokenCount := 0

		emit := func(toks []stream.Token) {
			text := stream.Flatten(toks)
			if text == "" {
				return
			}
			if isFirst {
				stats.RecordFirstToken()
			}
			send(chat.StreamTokenMsg{
				MessageID: req.MessageID,
				Token:     text,
				IsFirst:   isFirst,
			})
			isFirst = false
		}

		chunks, errs := client.ChatStreamChan(ctx, req.Messages)
		for chunk := range chunks {
			if chunk.GetReasoning() != "" || chunk.GetContent() != "" {
				tokenCount++
			}
			emit(demux.ProcessEvent(&chunk))
		}
		err := <-errs

		// Close any dangling reasoning span, error or not; partial
		// content is always kept.
		emit(demux.Finish())

		stats.Finalize(tokenCount)

		send(chat.StreamCompleteMsg{
			MessageID: req.MessageID,
			Stats:     stats,
			Cancelled: gateway.IsCancellation(err),
			Err:       err,
		})
		return nil
	}

	return m, tea.Batch(startCmd, bridge)
}
