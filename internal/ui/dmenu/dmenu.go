// Package dmenu renders the status menu through a dmenu-style launcher.
// It suits setups without a status bar: SIGUSR1 pops the menu, and the
// current status title becomes the launcher prompt.
package dmenu

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/calrichards/eventually/internal/menu"
)

// Config holds launcher configuration.
type Config struct {
	Program string   // dmenu program to use (auto-detect if empty)
	Args    []string // extra args to pass to the program
}

// Menu implements ui.UI using dmenu-style launchers.
type Menu struct {
	cfg      Config
	program  string
	onAction func(menu.Action)

	mu      sync.Mutex
	title   string
	rows    []menu.Row
	showing bool
}

// New creates a launcher backend.
func New(cfg Config) (*Menu, error) {
	program := cfg.Program
	if program == "" {
		var err error
		program, err = Detect()
		if err != nil {
			return nil, err
		}
		slog.Debug("auto-detected menu program", "program", program)
	} else {
		if _, err := exec.LookPath(program); err != nil {
			return nil, fmt.Errorf("menu program %q not found: %w", program, err)
		}
	}

	return &Menu{
		cfg:     cfg,
		program: program,
	}, nil
}

// Init is a no-op; the launcher is spawned per invocation.
func (m *Menu) Init() error {
	return nil
}

// Run waits for SIGUSR1 and shows the menu on each one, until the
// context is cancelled.
func (m *Menu) Run(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGUSR1)
	defer signal.Stop(sigCh)

	slog.Info("menu backend ready", "program", m.program, "trigger", "SIGUSR1")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-sigCh:
			m.show()
		}
	}
}

// SetTitle stores the status title; it is shown as the launcher prompt.
func (m *Menu) SetTitle(title string) {
	m.mu.Lock()
	m.title = title
	m.mu.Unlock()
}

// SetRows replaces the menu contents.
func (m *Menu) SetRows(rows []menu.Row) {
	m.mu.Lock()
	m.rows = rows
	m.mu.Unlock()
}

// OnAction sets the action callback.
func (m *Menu) OnAction(fn func(menu.Action)) {
	m.onAction = fn
}

// show runs the launcher with the current rows. A second trigger while
// a menu is open is ignored.
func (m *Menu) show() {
	m.mu.Lock()
	if m.showing {
		m.mu.Unlock()
		return
	}
	m.showing = true
	title := m.title
	rows := m.rows
	m.mu.Unlock()

	go func() {
		defer func() {
			m.mu.Lock()
			m.showing = false
			m.mu.Unlock()
		}()

		m.runMenu(title, rows)
	}()
}

func (m *Menu) runMenu(title string, rows []menu.Row) {
	lines, actionMap := formatRows(rows)

	selected, err := m.run(lines, title)
	if err != nil {
		slog.Debug("menu closed without selection", "error", err)
		return
	}

	selected = strings.TrimRight(selected, "\n")
	action, ok := actionMap[selected]
	if !ok || action.Kind == menu.ActionNone {
		return
	}

	if m.onAction != nil {
		m.onAction(action)
	}
}

// formatRows renders rows as launcher lines and maps each actionable
// line back to its action.
func formatRows(rows []menu.Row) ([]string, map[string]menu.Action) {
	lines := make([]string, 0, len(rows))
	actions := make(map[string]menu.Action, len(rows))

	for _, row := range rows {
		var line string
		switch row.Kind {
		case menu.RowSeparator:
			continue
		case menu.RowHeader:
			line = fmt.Sprintf("━━━━ %s ━━━━", row.Title)
		case menu.RowEvent:
			marker := "  "
			if row.Bold {
				marker = "▶ "
			}
			if row.Dim {
				marker = "· "
			}
			line = marker + row.Title
		default:
			line = row.Title
		}

		// Launchers key on line text; suffix duplicates to keep each
		// line selectable on its own.
		for {
			if _, dup := actions[line]; !dup {
				break
			}
			line += " "
		}

		lines = append(lines, line)
		actions[line] = row.Action
	}

	return lines, actions
}

// run executes the launcher with the given input lines.
// Returns the selected line or an error if the user cancelled.
func (m *Menu) run(lines []string, prompt string) (string, error) {
	args := m.buildArgs(prompt)
	cmd := exec.Command(m.program, args...)
	cmd.Stdin = strings.NewReader(strings.Join(lines, "\n"))

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug("running menu program", "program", m.program, "args", args)

	if err := cmd.Run(); err != nil {
		// Exit code 1 usually means user cancelled (pressed Escape)
		if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
			return "", fmt.Errorf("cancelled")
		}
		return "", fmt.Errorf("menu program failed: %w (stderr: %s)", err, stderr.String())
	}

	return stdout.String(), nil
}

// buildArgs builds command-line arguments for the launcher.
func (m *Menu) buildArgs(prompt string) []string {
	var args []string

	switch m.program {
	case "choose":
		args = []string{}
	case "rofi":
		args = []string{"-dmenu", "-p", prompt, "-i"}
	case "wofi":
		args = []string{"--dmenu", "--prompt", prompt, "--insensitive"}
	case "fuzzel":
		args = []string{"--dmenu", "--prompt", prompt + ": "}
	case "bemenu":
		args = []string{"-p", prompt, "-i"}
	case "dmenu":
		args = []string{"-p", prompt, "-i", "-l", "20"}
	default:
		args = []string{"-p", prompt}
	}

	args = append(args, m.cfg.Args...)

	return args
}
