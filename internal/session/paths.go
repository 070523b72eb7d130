package session

import (
	"os"
	"path/filepath"
)

// BaseDir returns ~/.nudge.
func BaseDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".nudge")
}

// Dir returns the session-specific directory.
func Dir(name string) string {
	return filepath.Join(BaseDir(), "sessions", name)
}

// LockPath returns the lock file path for a session.
func LockPath(name string) string {
	return filepath.Join(Dir(name), "LOCK")
}

// DBPath returns the app-owned nudge.db path.
func DBPath(name string) string {
	return filepath.Join(Dir(name), "nudge.db")
}

// SocketPath returns the push ingress socket path for a session.
func SocketPath(name string) string {
	return filepath.Join(Dir(name), "push.sock")
}

// ControlPath returns the control socket path for a session.
func ControlPath(name string) string {
	return filepath.Join(Dir(name), "control.sock")
}

// CredentialsPath returns the per-session credentials file path.
func CredentialsPath(name string) string {
	return filepath.Join(Dir(name), "credentials.toml")
}

// LogDir returns the log directory for a session.
func LogDir(name string) string {
	return filepath.Join(Dir(name), "logs")
}

// LogPath returns the daemon log file path.
func LogPath(name string) string {
	return filepath.Join(LogDir(name), "nudged.log")
}

// ConfigPath returns the global config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// EnsureDir creates the session directory tree with proper permissions.
func EnsureDir(name string) error {
	dirs := []string{
		Dir(name),
		LogDir(name),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
