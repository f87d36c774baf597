package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neboloop/pageverify/internal/browser"
	"github.com/neboloop/pageverify/internal/verify"
)

// isolate points the user config lookup at an empty directory.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("PAGEVERIFY_CONFIG_DIR", dir)
	t.Setenv("PAGEVERIFY_DATA_DIR", filepath.Join(dir, "data"))
	return dir
}

func TestLoadDefaultsMatchDefaultPlan(t *testing.T) {
	isolate(t)

	c, err := Load("")
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, verify.DefaultPlan(), c.Plan)
	assert.Equal(t, browser.DriverPlaywright, c.Browser.Driver)
	assert.True(t, c.Browser.Headless)
	assert.Equal(t, 30*time.Second, c.Browser.NavigationTimeout)
	assert.Equal(t, 1280, c.Browser.Viewport.Width)
	assert.True(t, c.History.Enabled)
	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, 300*time.Millisecond, c.Watch.Debounce)
}

func TestLoadUserFileOverrides(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
input: site/index.html
browser:
  driver: rod
checks:
  - kind: text
    name: Hello
`), 0644))

	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "site/index.html", c.Input)
	assert.Equal(t, browser.DriverRod, c.Browser.Driver)
	// Untouched keys keep their defaults
	assert.True(t, c.Browser.Headless)
	assert.Equal(t, verify.DefaultOutput, c.Output)
	require.Len(t, c.Checks, 1)
	assert.Equal(t, "Hello", c.Checks[0].Name)
	assert.Equal(t, path, c.Source)
}

func TestDefaultIgnoresUserFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("outptu: x.png\n"), 0644))

	_, err := Load("")
	require.ErrorContains(t, err, "outptu")

	c, err := Default()
	require.NoError(t, err)
	assert.Equal(t, verify.DefaultPlan(), c.Plan)
	assert.Empty(t, c.Source)
}

func TestLoadKeepsDefaultChecksWhenFileHasNone(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fullPage: false\n"), 0644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.False(t, c.FullPage)
	assert.Equal(t, verify.DefaultChecks(), c.Checks)
}

func TestLoadExpandsEnv(t *testing.T) {
	dir := isolate(t)
	t.Setenv("SITE_ROOT", "/srv/ide")
	path := filepath.Join(dir, "env.yaml")
	require.NoError(t, os.WriteFile(path, []byte("input: ${SITE_ROOT}/index.html\n"), 0644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/ide/index.html", c.Input)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "read config")
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "typo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("outptu: x.png\n"), 0644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "outptu")
}

func TestValidate(t *testing.T) {
	isolate(t)
	base, err := Load("")
	require.NoError(t, err)

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad driver", func(c *Config) { c.Browser.Driver = "selenium" }, "unknown driver"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"negative debounce", func(c *Config) { c.Watch.Debounce = -1 }, "watch.debounce"},
		{"html without path", func(c *Config) { c.Report.HTML = true }, "report.path"},
		{"bad check", func(c *Config) { c.Checks[0].Kind = "css" }, "unknown locator kind"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			c.Checks = append([]verify.Check(nil), base.Checks...)
			tt.mutate(&c)
			assert.ErrorContains(t, c.Validate(), tt.wantErr)
		})
	}

	off := base
	off.Log.Level = "off"
	assert.NoError(t, off.Validate())
}

func TestHistoryPath(t *testing.T) {
	dir := isolate(t)
	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "data", "history.db"), c.HistoryPath())

	c.History.Path = "/var/lib/pv.db"
	assert.Equal(t, "/var/lib/pv.db", c.HistoryPath())
}

func TestMarshalRoundTrip(t *testing.T) {
	isolate(t)
	c, err := Load("")
	require.NoError(t, err)

	data, err := c.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), "name: Failed Tests")

	again, err := LoadFromBytes(data)
	require.NoError(t, err)
	assert.Equal(t, c, again)
}
