package config

import (
	"path/filepath"
	"time"

	"github.com/arthur-debert/gistsync/pkg/types"
)

// Merge strategies for the speculative merge
const (
	MergeAuto     = "auto"
	MergeTree     = "merge-tree"
	MergeWorktree = "worktree"
)

// Store holds the remote store settings
type Store struct {
	Dir         string   `koanf:"dir"`
	Remote      string   `koanf:"remote"`
	Branches    []string `koanf:"branches"`
	AuthorName  string   `koanf:"author_name"`
	AuthorEmail string   `koanf:"author_email"`
}

// Sync holds the poll loop timings
type Sync struct {
	Interval      time.Duration `koanf:"interval"`
	Cooldown      time.Duration `koanf:"cooldown"`
	PromptTimeout time.Duration `koanf:"prompt_timeout"`
	MergeStrategy string        `koanf:"merge_strategy"`
}

// Backup holds the backup location
type Backup struct {
	Dir string `koanf:"dir"`
}

// Shell describes the managed shell for the post-pull reload
type Shell struct {
	Name    string `koanf:"name"`
	Primary string `koanf:"primary"`
	Reload  bool   `koanf:"reload"`
}

// Notify holds notification settings
type Notify struct {
	Desktop bool `koanf:"desktop"`
}

// File is one tracked file as written in the config file
type File struct {
	Local  string `koanf:"local"`
	Mirror string `koanf:"mirror"`
}

// LinkSpec is a bootstrap symlink: Path will point at Target. A relative
// Target is resolved against the store directory.
type LinkSpec struct {
	Target string `koanf:"target"`
	Path   string `koanf:"path"`
}

// Config is the main configuration structure. It is built once at startup
// and never mutated afterwards.
type Config struct {
	Store  Store      `koanf:"store"`
	Sync   Sync       `koanf:"sync"`
	Backup Backup     `koanf:"backup"`
	Shell  Shell      `koanf:"shell"`
	Notify Notify     `koanf:"notify"`
	Files  []File     `koanf:"files"`
	Links  []LinkSpec `koanf:"links"`

	// Source is the user file that was loaded, empty for defaults only
	Source string `koanf:"-"`
}

// TrackedFiles returns the tracked file pairs in configured order
func (c *Config) TrackedFiles() []types.TrackedFile {
	files := make([]types.TrackedFile, len(c.Files))
	for i, f := range c.Files {
		files[i] = types.TrackedFile{
			Name:       filepath.ToSlash(f.Mirror),
			LocalPath:  f.Local,
			MirrorPath: filepath.Join(c.Store.Dir, f.Mirror),
		}
	}
	return files
}

// BootstrapLinks returns the configured symlinks with targets resolved
func (c *Config) BootstrapLinks() []types.Link {
	links := make([]types.Link, len(c.Links))
	for i, l := range c.Links {
		target := l.Target
		if !filepath.IsAbs(target) {
			target = filepath.Join(c.Store.Dir, target)
		}
		links[i] = types.Link{Target: target, Path: l.Path}
	}
	return links
}

// PrimaryFile returns the tracked file named as the shell's primary file
func (c *Config) PrimaryFile() (types.TrackedFile, bool) {
	for _, f := range c.TrackedFiles() {
		if f.Name == c.Shell.Primary {
			return f, true
		}
	}
	return types.TrackedFile{}, false
}
