package dispatch

import (
	"os"
	"path/filepath"
	"time"

	"github.com/buckleypaul/adbdeck/internal/tools"
)

// RemoteScreenshotPath is where screencap writes before the pull.
const RemoteScreenshotPath = "/sdcard/screenshot_tmp.png"

func adb(desc string, args ...string) Request {
	return Request{Tool: tools.ADB, Args: args, Description: desc, InjectDevice: true}
}

func fastboot(desc string, args ...string) Request {
	return Request{Tool: tools.Fastboot, Args: args, Description: desc, InjectDevice: true}
}

// Reboot restarts the device. target is "", "recovery", "bootloader" or
// "edl".
func Reboot(target string) Request {
	switch target {
	case "":
		return adb("Reboot device", "reboot")
	case "edl":
		return adb("Reboot to EDL (may be unsupported)", "reboot", "edl")
	default:
		return adb("Reboot to "+target, "reboot", target)
	}
}

// FastbootReboot leaves the bootloader. target is "" or "bootloader".
func FastbootReboot(target string) Request {
	if target == "" {
		return fastboot("Reboot from bootloader", "reboot")
	}
	return fastboot("Reboot to "+target, "reboot", target)
}

// Install installs an APK, replacing an existing install.
func Install(apkPath string) Request {
	return adb("Install APK: "+filepath.Base(apkPath), "install", "-r", apkPath)
}

// Push copies a local file to the device.
func Push(local, remote string) Request {
	return adb("Push file: "+filepath.Base(local)+" -> "+remote, "push", local, remote)
}

// Pull copies a device file into a local directory.
func Pull(remote, localDir string) Request {
	return adb("Pull file: "+remote+" -> "+localDir, "pull", remote, localDir)
}

// Shell runs a command line on the device shell. The line is passed as a
// single argument and parsed by the device shell.
func Shell(line string) Request {
	r := adb("Run shell: "+line, "shell", line)
	r.Sink = SinkShell
	return r
}

// Scrcpy starts screen mirroring for the selected device.
func Scrcpy() Request {
	return Request{
		Tool:         tools.Scrcpy,
		Description:  "Start scrcpy screen mirror",
		InjectDevice: true,
		NoTimeout:    true,
	}
}

// StartServer starts the adb server.
func StartServer() Request {
	return Request{Tool: tools.ADB, Args: []string{"start-server"}, Description: "Start ADB server"}
}

// KillServer stops the adb server.
func KillServer() Request {
	return Request{Tool: tools.ADB, Args: []string{"kill-server"}, Description: "Stop ADB server"}
}

// FlashingUnlock unlocks the bootloader. It wipes user data.
func FlashingUnlock() Request {
	r := fastboot("Unlock bootloader (wipes data)", "flashing", "unlock")
	r.Confirm = true
	return r
}

// FlashingLock relocks the bootloader.
func FlashingLock() Request {
	r := fastboot("Lock bootloader", "flashing", "lock")
	r.Confirm = true
	return r
}

// ScreenshotFileName returns the local file name for a capture taken at t.
func ScreenshotFileName(t time.Time) string {
	return "Screenshot_" + t.Format("20060102_150405") + ".png"
}

// DefaultScreenshotDir returns ~/Desktop when it exists, otherwise the
// working directory.
func DefaultScreenshotDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		desktop := filepath.Join(home, "Desktop")
		if info, err := os.Stat(desktop); err == nil && info.IsDir() {
			return desktop
		}
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

// Screenshot returns the capture → pull → cleanup steps and the local
// path the image ends up at. Each step only runs if the previous one
// succeeded.
func Screenshot(localDir string, now time.Time) ([]Request, string) {
	local := filepath.Join(localDir, ScreenshotFileName(now))
	return []Request{
		adb("Capture screen", "shell", "screencap", "-p", RemoteScreenshotPath),
		adb("Pull screenshot to "+local, "pull", RemoteScreenshotPath, local),
		adb("Remove temporary screenshot", "shell", "rm", RemoteScreenshotPath),
	}, local
}
