// Package launchd manages the app's macOS launch agent: the plist under
// ~/Library/LaunchAgents and launchctl load/unload.
package launchd

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Label is the launch agent identifier.
const Label = "io.calrichards.eventually"

// Service describes the launch agent for the running binary.
type Service struct {
	Label   string
	BinPath string
}

// New builds a Service for the current executable.
func New() (*Service, error) {
	bin, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolve executable path: %w", err)
	}
	return &Service{Label: Label, BinPath: bin}, nil
}

// PlistPath returns the launch agent plist location.
func (s *Service) PlistPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, "Library", "LaunchAgents", s.Label+".plist"), nil
}

// LogPath returns the service log file for the given kind ("log" or
// "err").
func (s *Service) LogPath(kind string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, "Library", "Logs", "eventually."+kind), nil
}

// IsInstalled reports whether the plist exists.
func (s *Service) IsInstalled() bool {
	path, err := s.PlistPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Install writes the launch agent plist. An existing installation is
// left untouched.
func (s *Service) Install() error {
	path, err := s.PlistPath()
	if err != nil {
		return err
	}

	if s.IsInstalled() {
		slog.Info("existing launch agent detected, skipping installation", "path", path)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create LaunchAgents dir: %w", err)
	}

	logPath, err := s.LogPath("log")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("create logs dir: %w", err)
	}

	if err := os.WriteFile(path, []byte(s.Plist()), 0o644); err != nil {
		return fmt.Errorf("write plist: %w", err)
	}

	fmt.Printf("installed launch agent to %s\n", path)
	return nil
}

// Uninstall stops the service and removes the plist.
func (s *Service) Uninstall() error {
	path, err := s.PlistPath()
	if err != nil {
		return err
	}

	if !s.IsInstalled() {
		slog.Info("no launch agent detected, skipping uninstallation", "path", path)
		return nil
	}

	if err := s.Stop(); err != nil {
		slog.Warn("failed to stop service", "error", err)
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove plist: %w", err)
	}

	fmt.Printf("removed launch agent at %s\n", path)
	return nil
}

// Start installs the agent if needed and loads it. A service that is
// already loaded counts as success.
func (s *Service) Start() error {
	if !s.IsInstalled() {
		if err := s.Install(); err != nil {
			return err
		}
	}

	path, err := s.PlistPath()
	if err != nil {
		return err
	}

	fmt.Println("starting service...")
	out, err := exec.Command("launchctl", "load", path).CombinedOutput()
	if err != nil {
		if strings.Contains(string(out), "already loaded") {
			fmt.Println("service already running")
			return nil
		}
		return fmt.Errorf("start service: %w: %s", err, out)
	}

	fmt.Println("service started")
	return nil
}

// Stop unloads the agent. A service that is not loaded counts as
// success.
func (s *Service) Stop() error {
	path, err := s.PlistPath()
	if err != nil {
		return err
	}

	fmt.Println("stopping service...")
	out, err := exec.Command("launchctl", "unload", path).CombinedOutput()
	if err != nil {
		if strings.Contains(string(out), "Could not find") {
			fmt.Println("service not running")
			return nil
		}
		return fmt.Errorf("stop service: %w: %s", err, out)
	}

	fmt.Println("service stopped")
	return nil
}

// Restart stops then starts the service.
func (s *Service) Restart() error {
	if err := s.Stop(); err != nil {
		return err
	}
	return s.Start()
}

// Plist renders the launch agent property list.
func (s *Service) Plist() string {
	logPath, _ := s.LogPath("log")
	errPath, _ := s.LogPath("err")

	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>%s</string>
    <key>ProgramArguments</key>
    <array>
        <string>%s</string>
    </array>
    <key>RunAtLoad</key>
    <true/>
    <key>KeepAlive</key>
    <true/>
    <key>StandardOutPath</key>
    <string>%s</string>
    <key>StandardErrorPath</key>
    <string>%s</string>
</dict>
</plist>
`, s.Label, s.BinPath, logPath, errPath)
}

// Run dispatches a service subcommand: install, uninstall, start, stop,
// or restart.
func Run(action string) error {
	svc, err := New()
	if err != nil {
		return err
	}

	switch action {
	case "install":
		return svc.Install()
	case "uninstall":
		return svc.Uninstall()
	case "start":
		return svc.Start()
	case "stop":
		return svc.Stop()
	case "restart":
		return svc.Restart()
	default:
		return fmt.Errorf("unknown service action %q (use install, uninstall, start, stop, or restart)", action)
	}
}
