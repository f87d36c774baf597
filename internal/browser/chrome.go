package browser

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// BrowserKind identifies the type of Chromium-based browser.
type BrowserKind string

const (
	BrowserChrome   BrowserKind = "chrome"
	BrowserEdge     BrowserKind = "edge"
	BrowserChromium BrowserKind = "chromium"
	BrowserCustom   BrowserKind = "custom"
)

// BrowserExecutable represents a found browser binary.
type BrowserExecutable struct {
	Kind BrowserKind
	Path string
}

// ChromeEnvVar overrides executable discovery for the CDP backends.
const ChromeEnvVar = "PAGEVERIFY_CHROME"

type chromeCandidate struct {
	kind BrowserKind
	path string
}

// pathNames are looked up on $PATH before the well-known install locations.
var pathNames = []chromeCandidate{
	{BrowserChromium, "chromium"},
	{BrowserChromium, "chromium-browser"},
	{BrowserChrome, "google-chrome"},
	{BrowserChrome, "google-chrome-stable"},
	{BrowserChrome, "chrome"},
	{BrowserEdge, "microsoft-edge"},
}

// FindChromeExecutable finds a Chrome/Chromium browser on the system.
// Returns nil without error when nothing is installed.
func FindChromeExecutable(customPath string) (*BrowserExecutable, error) {
	if customPath == "" {
		customPath = os.Getenv(ChromeEnvVar)
	}
	if customPath != "" {
		if !fileExists(customPath) {
			return nil, fmt.Errorf("browser executable not found: %s", customPath)
		}
		return &BrowserExecutable{Kind: BrowserCustom, Path: customPath}, nil
	}

	for _, c := range pathNames {
		if path, err := exec.LookPath(c.path); err == nil {
			return &BrowserExecutable{Kind: c.kind, Path: path}, nil
		}
	}

	for _, c := range installCandidates(runtime.GOOS) {
		if fileExists(c.path) {
			return &BrowserExecutable{Kind: c.kind, Path: c.path}, nil
		}
	}
	return nil, nil
}

func installCandidates(goos string) []chromeCandidate {
	switch goos {
	case "darwin":
		home := os.Getenv("HOME")
		return []chromeCandidate{
			{BrowserChrome, "/Applications/Google Chrome.app/Contents/MacOS/Google Chrome"},
			{BrowserChrome, filepath.Join(home, "Applications/Google Chrome.app/Contents/MacOS/Google Chrome")},
			{BrowserChromium, "/Applications/Chromium.app/Contents/MacOS/Chromium"},
			{BrowserEdge, "/Applications/Microsoft Edge.app/Contents/MacOS/Microsoft Edge"},
		}
	case "windows":
		programFiles := os.Getenv("ProgramFiles")
		if programFiles == "" {
			programFiles = `C:\Program Files`
		}
		programFilesX86 := os.Getenv("ProgramFiles(x86)")
		if programFilesX86 == "" {
			programFilesX86 = `C:\Program Files (x86)`
		}
		candidates := []chromeCandidate{
			{BrowserChrome, filepath.Join(programFiles, "Google", "Chrome", "Application", "chrome.exe")},
			{BrowserChrome, filepath.Join(programFilesX86, "Google", "Chrome", "Application", "chrome.exe")},
			{BrowserEdge, filepath.Join(programFilesX86, "Microsoft", "Edge", "Application", "msedge.exe")},
		}
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			candidates = append(candidates,
				chromeCandidate{BrowserChrome, filepath.Join(local, "Google", "Chrome", "Application", "chrome.exe")})
		}
		return candidates
	default:
		return []chromeCandidate{
			{BrowserChromium, "/usr/bin/chromium"},
			{BrowserChromium, "/usr/bin/chromium-browser"},
			{BrowserChromium, "/snap/bin/chromium"},
			{BrowserChrome, "/usr/bin/google-chrome"},
			{BrowserChrome, "/usr/bin/google-chrome-stable"},
			{BrowserChrome, "/opt/google/chrome/chrome"},
			{BrowserEdge, "/usr/bin/microsoft-edge"},
		}
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
