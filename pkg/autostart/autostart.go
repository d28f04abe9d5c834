// Package autostart renders the per-user service definitions that keep
// `gistsync run` alive: a launchd agent on macOS and a systemd user unit on
// Linux. Loading them (launchctl, systemctl) is left to the user.
package autostart

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/arthur-debert/gistsync/pkg/errors"
	"github.com/beevik/etree"
	"github.com/spf13/afero"
)

// DefaultLabel identifies the launchd agent
const DefaultLabel = "com.github.arthur-debert.gistsync"

// Service describes the process to keep running
type Service struct {
	Label      string
	Executable string
	Args       []string
	LogPath    string
	Env        map[string]string
}

// Unit is a rendered service definition
type Unit struct {
	// Path is where the definition belongs
	Path    string
	Content string
	// Activate is the command that loads it
	Activate string
}

// Render produces the definition for goos. home and configDir locate the
// user's LaunchAgents or systemd directory.
func Render(goos, home, configDir string, s Service) (*Unit, error) {
	if s.Label == "" {
		s.Label = DefaultLabel
	}
	if s.Executable == "" {
		return nil, errors.New(errors.ErrInvalidInput, "service executable is required")
	}

	switch goos {
	case "darwin":
		content, err := LaunchdPlist(s)
		if err != nil {
			return nil, err
		}
		path := filepath.Join(home, "Library", "LaunchAgents", s.Label+".plist")
		return &Unit{
			Path:     path,
			Content:  content,
			Activate: "launchctl load -w " + path,
		}, nil
	case "linux":
		return &Unit{
			Path:     filepath.Join(configDir, "systemd", "user", "gistsync.service"),
			Content:  SystemdUnit(s),
			Activate: "systemctl --user daemon-reload && systemctl --user enable --now gistsync.service",
		}, nil
	default:
		return nil, errors.Newf(errors.ErrInvalidInput, "autostart is not supported on %s", goos)
	}
}

// LaunchdPlist renders a launchd agent that starts at login and is
// restarted when it exits
func LaunchdPlist(s Service) (string, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	doc.CreateDirective(`DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd"`)

	plist := doc.CreateElement("plist")
	plist.CreateAttr("version", "1.0")
	dict := plist.CreateElement("dict")

	addString(dict, "Label", s.Label)

	dict.CreateElement("key").SetText("ProgramArguments")
	args := dict.CreateElement("array")
	for _, a := range append([]string{s.Executable}, s.Args...) {
		args.CreateElement("string").SetText(a)
	}

	dict.CreateElement("key").SetText("RunAtLoad")
	dict.CreateElement("true")
	dict.CreateElement("key").SetText("KeepAlive")
	dict.CreateElement("true")

	if s.LogPath != "" {
		addString(dict, "StandardOutPath", s.LogPath)
		addString(dict, "StandardErrorPath", s.LogPath)
	}

	if len(s.Env) > 0 {
		dict.CreateElement("key").SetText("EnvironmentVariables")
		env := dict.CreateElement("dict")
		for _, k := range sortedKeys(s.Env) {
			addString(env, k, s.Env[k])
		}
	}

	doc.Indent(2)
	out, err := doc.WriteToString()
	if err != nil {
		return "", errors.Wrap(err, errors.ErrInternal, "failed to render launchd plist")
	}
	return out, nil
}

func addString(dict *etree.Element, key, value string) {
	dict.CreateElement("key").SetText(key)
	dict.CreateElement("string").SetText(value)
}

// SystemdUnit renders a systemd user service
func SystemdUnit(s Service) string {
	var b strings.Builder
	b.WriteString("[Unit]\n")
	b.WriteString("Description=gistsync shell configuration sync\n")
	b.WriteString("After=network-online.target\n\n")
	b.WriteString("[Service]\n")
	fmt.Fprintf(&b, "ExecStart=%s\n", systemdCommand(append([]string{s.Executable}, s.Args...)))
	for _, k := range sortedKeys(s.Env) {
		fmt.Fprintf(&b, "Environment=%s\n", systemdQuote(k+"="+s.Env[k]))
	}
	b.WriteString("Restart=on-failure\n")
	b.WriteString("RestartSec=30\n\n")
	b.WriteString("[Install]\n")
	b.WriteString("WantedBy=default.target\n")
	return b.String()
}

func systemdCommand(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = systemdQuote(a)
	}
	return strings.Join(quoted, " ")
}

func systemdQuote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\"'\\") {
		return s
	}
	s = strings.ReplaceAll(s, `\`, `\\`)
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Write stores the unit at its path, creating parent directories
func Write(fs afero.Fs, u *Unit) error {
	dir := filepath.Dir(u.Path)
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "failed to create %s", dir)
	}
	if err := afero.WriteFile(fs, u.Path, []byte(u.Content), 0644); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to write %s", u.Path)
	}
	return nil
}
