package store

import "time"

// DispatchRecord captures one dispatched adb, fastboot or scrcpy command.
type DispatchRecord struct {
	ID          string    `json:"id"`
	Serial      string    `json:"serial,omitempty"`
	Command     string    `json:"command"`
	Description string    `json:"description"`
	Outcome     string    `json:"outcome"`
	ExitCode    int       `json:"exit_code"`
	Timestamp   time.Time `json:"timestamp"`
	Duration    string    `json:"duration"`
	Error       string    `json:"error,omitempty"`
}

// ScreenshotRecord tracks a capture pulled to the host.
type ScreenshotRecord struct {
	ID        string    `json:"id"`
	Serial    string    `json:"serial"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
}

// LogcatSession tracks a logcat stream and the file it was captured to.
type LogcatSession struct {
	ID        string    `json:"id"`
	Serial    string    `json:"serial"`
	Timestamp time.Time `json:"timestamp"`
	LogFile   string    `json:"log_file,omitempty"`
}
