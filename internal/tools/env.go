package tools

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pkg/errors"
)

// Tool binary names understood by the rest of the program.
const (
	ADB      = "adb"
	Fastboot = "fastboot"
	Scrcpy   = "scrcpy"
)

// Env controls how tool names are turned into executable paths and which
// environment the child processes see.
type Env struct {
	// Paths maps a tool name to an explicit executable path.
	Paths map[string]string

	// BinDir is the platform-tools directory detected from the SDK
	// environment variables. Empty when none was found.
	BinDir string

	environ []string
}

// DetectEnv builds an Env from explicit tool paths and the Android SDK
// environment. Detection order for adb/fastboot: explicit path →
// $ANDROID_HOME/platform-tools → $ANDROID_SDK_ROOT/platform-tools → PATH.
func DetectEnv(paths map[string]string) *Env {
	env := &Env{Paths: map[string]string{}}
	for k, v := range paths {
		if v != "" {
			env.Paths[k] = v
		}
	}

	for _, key := range []string{"ANDROID_HOME", "ANDROID_SDK_ROOT"} {
		root := os.Getenv(key)
		if root == "" {
			continue
		}
		binDir := filepath.Join(root, "platform-tools")
		if _, err := os.Stat(filepath.Join(binDir, exeName(ADB))); err == nil {
			env.BinDir = binDir
			env.environ = buildEnvWithPath(binDir)
			break
		}
	}
	return env
}

// Resolve returns the executable path for name.
func (e *Env) Resolve(name string) (string, error) {
	if p, ok := e.Paths[name]; ok {
		if _, err := os.Stat(p); err != nil {
			return "", errors.Wrap(ErrToolNotFound, p)
		}
		return p, nil
	}
	if e.BinDir != "" {
		candidate := filepath.Join(e.BinDir, exeName(name))
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	p, err := exec.LookPath(name)
	if err != nil {
		return "", errors.Wrap(ErrToolNotFound, name)
	}
	return p, nil
}

// exeName returns the executable name for the current OS.
func exeName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

// buildEnvWithPath creates a copy of the current environment with binDir
// prepended to PATH.
func buildEnvWithPath(binDir string) []string {
	env := os.Environ()
	result := make([]string, 0, len(env))
	pathSet := false

	for _, e := range env {
		if strings.HasPrefix(e, "PATH=") {
			result = append(result, "PATH="+binDir+string(os.PathListSeparator)+e[5:])
			pathSet = true
		} else {
			result = append(result, e)
		}
	}

	if !pathSet {
		result = append(result, "PATH="+binDir)
	}

	return result
}

// apply sets the environment on an exec.Cmd. scrcpy looks adb up on PATH
// itself, so the prepended platform-tools directory matters for it too.
func (e *Env) apply(cmd *exec.Cmd) {
	if e.environ != nil {
		cmd.Env = e.environ
	}
}
