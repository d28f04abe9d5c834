package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/arthur-debert/gistsync/pkg/paths"
	"github.com/arthur-debert/gistsync/pkg/ui"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const initialZshrc = "export EDITOR=vim\nalias ll='ls -l'\n"

// isolate points every gistsync and XDG directory into a temp dir
func isolate(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	t.Setenv("HOME", filepath.Join(root, "home"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(root, "state"))
	t.Setenv(paths.EnvConfigDir, filepath.Join(root, "config"))
	t.Setenv(paths.EnvStateDir, filepath.Join(root, "state", "gistsync"))
	t.Setenv(paths.EnvDataDir, filepath.Join(root, "data"))
	t.Setenv("NO_COLOR", "1")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "home"), 0755))
	return root
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	rootCmd := NewRootCmd()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRootCmd_NoCommand(t *testing.T) {
	isolate(t)
	out, err := execute(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), MsgErrNoCommand)
	assert.Contains(t, out, "USAGE:")
}

func TestVersionCmd(t *testing.T) {
	isolate(t)
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "gistsync version dev")
	assert.Contains(t, out, "Commit: unknown")
}

func TestHelpTopics(t *testing.T) {
	isolate(t)
	out, err := execute(t, "help", "topics")
	require.NoError(t, err)
	assert.Contains(t, out, "conflicts")
	assert.Contains(t, out, "watermark")
	assert.Contains(t, out, "--yes")
}

func TestGenConfigCmd(t *testing.T) {
	root := isolate(t)

	t.Run("stdout", func(t *testing.T) {
		out, err := execute(t, "genconfig")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, "# Generated by gistsync"))
		assert.Contains(t, out, "# dir = \"~/.gistsync/gist\"")
	})

	t.Run("write", func(t *testing.T) {
		target := filepath.Join(root, "custom", "config.toml")
		out, err := execute(t, "--config", target, "genconfig", "--write")
		require.NoError(t, err)
		assert.Contains(t, out, "Wrote "+target)

		content, err := os.ReadFile(target)
		require.NoError(t, err)
		assert.Contains(t, string(content), "[store]")

		_, err = execute(t, "--config", target, "genconfig", "--write")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already exists")
	})
}

func TestAutostartCmd(t *testing.T) {
	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" {
		t.Skip("autostart only renders on linux and darwin")
	}
	isolate(t)

	t.Run("print", func(t *testing.T) {
		out, err := execute(t, "autostart", "--yes")
		require.NoError(t, err)
		if runtime.GOOS == "linux" {
			assert.Contains(t, out, "ExecStart=")
			assert.Contains(t, out, "run --yes")
		} else {
			assert.Contains(t, out, "<plist")
			assert.Contains(t, out, "<string>--yes</string>")
		}
	})

	t.Run("write", func(t *testing.T) {
		mem := afero.NewMemMapFs()
		old := setupFS
		setupFS = func() afero.Fs { return mem }
		t.Cleanup(func() { setupFS = old })

		out, err := execute(t, "autostart", "--write")
		require.NoError(t, err)
		assert.Contains(t, out, "Activate it with:")

		path := strings.TrimPrefix(strings.SplitN(out, "\n", 2)[0], "Wrote ")
		ok, err := afero.Exists(mem, path)
		require.NoError(t, err)
		assert.True(t, ok, "unit written to %s", path)
	})
}

func TestStatusCmd_InvalidFormat(t *testing.T) {
	isolate(t)
	_, err := execute(t, "status", "-o", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output format")
}

func TestStatusCmd_MissingStore(t *testing.T) {
	root := isolate(t)
	cfg := filepath.Join(root, "config.toml")
	require.NoError(t, os.WriteFile(cfg, []byte(fmt.Sprintf(`
[store]
dir = %q
`, filepath.Join(root, "nowhere"))), 0644))

	_, err := execute(t, "--config", cfg, "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

// syncEnv is an isolated installation with a store cloned from a bare remote
type syncEnv struct {
	root   string
	bare   string
	store  string
	zshrc  string
	config string
}

func git(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := exec.Command("git", append([]string{"-C", dir}, args...)...).CombinedOutput()
	require.NoError(t, err, "git %s: %s", strings.Join(args, " "), out)
	return strings.TrimSpace(string(out))
}

func newSyncEnv(t *testing.T) *syncEnv {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	root := isolate(t)
	t.Setenv("GIT_CONFIG_NOSYSTEM", "1")
	t.Setenv("GIT_AUTHOR_NAME", "Test")
	t.Setenv("GIT_AUTHOR_EMAIL", "test@example.com")
	t.Setenv("GIT_COMMITTER_NAME", "Test")
	t.Setenv("GIT_COMMITTER_EMAIL", "test@example.com")

	e := &syncEnv{
		root:   root,
		bare:   filepath.Join(root, "remote.git"),
		store:  filepath.Join(root, "home", ".gistsync", "gist"),
		zshrc:  filepath.Join(root, "home", ".zshrc"),
		config: filepath.Join(root, "config.toml"),
	}
	git(t, root, "init", "-q", "--bare", "-b", "master", e.bare)
	git(t, root, "clone", "-q", e.bare, e.store)
	git(t, e.store, "symbolic-ref", "HEAD", "refs/heads/master")
	require.NoError(t, os.WriteFile(filepath.Join(e.store, "zshrc"), []byte(initialZshrc), 0644))
	git(t, e.store, "add", "zshrc")
	git(t, e.store, "commit", "-q", "-m", "initial")
	git(t, e.store, "push", "-q", "origin", "HEAD:refs/heads/master")

	require.NoError(t, os.WriteFile(e.zshrc, []byte(initialZshrc), 0644))
	require.NoError(t, os.WriteFile(e.config, []byte(fmt.Sprintf(`
[store]
dir = %q
branches = ["master"]

[shell]
reload = false

[notify]
desktop = false

[[files]]
local = %q
mirror = "zshrc"
`, e.store, e.zshrc)), 0644))
	return e
}

func (e *syncEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return execute(t, append([]string{"--config", e.config}, args...)...)
}

func TestBootstrapAndStatus(t *testing.T) {
	e := newSyncEnv(t)

	out, err := e.run(t, "bootstrap")
	require.NoError(t, err)
	head := git(t, e.store, "rev-parse", "HEAD")
	assert.Contains(t, out, "Bootstrap complete, watermark at "+head[:8])

	out, err = e.run(t, "status", "-o", "json")
	require.NoError(t, err)

	var report ui.StatusReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, e.store, report.StoreDir)
	assert.Equal(t, head, report.Current)
	assert.Equal(t, head, report.Watermark)
	assert.False(t, report.LocalChanges)
	assert.False(t, report.RemoteChanges)
	require.Len(t, report.Files, 1)
	assert.Equal(t, ui.StateInSync, report.Files[0].State)
}

func TestStatus_WhitespaceOnlyEdit(t *testing.T) {
	e := newSyncEnv(t)
	_, err := e.run(t, "bootstrap")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(e.zshrc, []byte(initialZshrc+"\n\n   \n"), 0644))

	out, err := e.run(t, "status", "-o", "text")
	require.NoError(t, err)
	assert.Contains(t, out, ui.StateWhitespaceOnly)
	assert.Contains(t, out, "Local changes:  no")
}

func TestCheck_PushesLocalEdit(t *testing.T) {
	e := newSyncEnv(t)
	_, err := e.run(t, "bootstrap")
	require.NoError(t, err)

	edited := initialZshrc + "export PAGER=less\n"
	require.NoError(t, os.WriteFile(e.zshrc, []byte(edited), 0644))

	out, err := e.run(t, "--yes", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "pushed local changes")

	remote := git(t, e.bare, "show", "master:zshrc")
	assert.Equal(t, strings.TrimSpace(edited), remote)
	assert.True(t, strings.HasPrefix(git(t, e.bare, "log", "-1", "--format=%s", "master"), "sync: "))
}

func TestCheck_DeclinesWithoutTerminal(t *testing.T) {
	if ui.IsTerminal(os.Stdin) {
		t.Skip("stdin is a terminal")
	}
	e := newSyncEnv(t)
	_, err := e.run(t, "bootstrap")
	require.NoError(t, err)
	before := git(t, e.bare, "rev-parse", "master")

	require.NoError(t, os.WriteFile(e.zshrc, []byte(initialZshrc+"export PAGER=less\n"), 0644))

	out, err := e.run(t, "check")
	require.NoError(t, err)
	assert.Contains(t, out, "local changes not pushed")
	assert.Equal(t, before, git(t, e.bare, "rev-parse", "master"))
}

func TestPushAndPull(t *testing.T) {
	e := newSyncEnv(t)
	_, err := e.run(t, "bootstrap")
	require.NoError(t, err)

	// another machine publishes a change
	other := filepath.Join(e.root, "other")
	git(t, e.root, "clone", "-q", e.bare, other)
	require.NoError(t, os.WriteFile(filepath.Join(other, "zshrc"), []byte("export EDITOR=nvim\nalias ll='ls -l'\n"), 0644))
	git(t, other, "commit", "-q", "-am", "remote edit")
	git(t, other, "push", "-q", "origin", "HEAD:refs/heads/master")

	out, err := e.run(t, "pull")
	require.NoError(t, err)
	assert.Contains(t, out, MsgPulled)

	local, err := os.ReadFile(e.zshrc)
	require.NoError(t, err)
	assert.Contains(t, string(local), "EDITOR=nvim")

	require.NoError(t, os.WriteFile(e.zshrc, append(local, []byte("export LESS=-R\n")...), 0644))
	out, err = e.run(t, "push")
	require.NoError(t, err)
	assert.Contains(t, out, MsgPushed)
	assert.Contains(t, git(t, e.bare, "show", "master:zshrc"), "LESS=-R")
}

func TestManCmd(t *testing.T) {
	isolate(t)
	out, err := execute(t, "man")
	require.NoError(t, err)
	assert.Contains(t, out, ".TH \"GISTSYNC\" \"1\"")
}
