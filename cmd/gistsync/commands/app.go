package commands

import (
	"github.com/arthur-debert/gistsync/pkg/config"
	"github.com/arthur-debert/gistsync/pkg/detect"
	"github.com/arthur-debert/gistsync/pkg/filesystem"
	"github.com/arthur-debert/gistsync/pkg/gitstore"
	"github.com/arthur-debert/gistsync/pkg/hooks"
	"github.com/arthur-debert/gistsync/pkg/lock"
	"github.com/arthur-debert/gistsync/pkg/logging"
	"github.com/arthur-debert/gistsync/pkg/loop"
	"github.com/arthur-debert/gistsync/pkg/paths"
	"github.com/arthur-debert/gistsync/pkg/reconcile"
	"github.com/arthur-debert/gistsync/pkg/types"
	"github.com/arthur-debert/gistsync/pkg/ui"
	"github.com/arthur-debert/gistsync/pkg/watermark"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
)

// rootOptions holds the persistent flags
type rootOptions struct {
	verbosity  int
	configPath string
	autoYes    bool

	// overrides are dotted config keys set by command flags
	overrides map[string]interface{}
}

func (o *rootOptions) override(key string, value interface{}) {
	if o.overrides == nil {
		o.overrides = map[string]interface{}{}
	}
	o.overrides[key] = value
}

// app is the object graph shared by the commands that touch the store
type app struct {
	paths  *paths.Paths
	cfg    *config.Config
	fs     afero.Fs
	clock  clockwork.Clock
	store  *gitstore.Client
	marks  *watermark.Store
	files  []types.TrackedFile
	local  *detect.Local
	remote *detect.Remote
	ctrl   *reconcile.Controller
	prompt *ui.Prompt
	lock   *lock.Lock
}

func loadConfig(opts *rootOptions) (*paths.Paths, *config.Config, error) {
	p := paths.New()
	cfg, err := config.LoadWithOverrides(opts.configPath, p, opts.overrides)
	if err != nil {
		return nil, nil, err
	}
	logger := logging.GetLogger("cmd")
	logger.Debug().
		Str("source", cfg.Source).
		Str("store", cfg.Store.Dir).
		Int("files", len(cfg.Files)).
		Msg("Configuration loaded")
	return p, cfg, nil
}

// newApp loads the configuration and wires every component. The store
// directory must already hold a clone of the gist.
func newApp(opts *rootOptions) (*app, error) {
	p, cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	store, err := gitstore.New(gitstore.Options{
		Dir:         cfg.Store.Dir,
		Remote:      cfg.Store.Remote,
		AuthorName:  cfg.Store.AuthorName,
		AuthorEmail: cfg.Store.AuthorEmail,
		Strategy:    cfg.Sync.MergeStrategy,
	})
	if err != nil {
		return nil, err
	}

	fs := filesystem.NewOS()
	clock := clockwork.NewRealClock()
	marks := watermark.New(fs, p.WatermarkFile(), clock)
	files := cfg.TrackedFiles()

	var postPull []types.PostPullHook
	if cfg.Shell.Reload {
		postPull = append(postPull, hooks.NewShellReload(cfg.Shell.Name, cfg.Shell.Primary))
	}

	ctrl := reconcile.New(fs, store, marks, files, clock, reconcile.Options{
		Branches:  cfg.Store.Branches,
		BackupDir: cfg.Backup.Dir,
		Hooks:     postPull,
		Notifier:  ui.NewNotifier(cfg.Notify.Desktop),
	})

	return &app{
		paths: p,
		cfg:   cfg,
		fs:    fs,
		clock: clock,
		store: store,
		marks: marks,
		files: files,
		local: detect.NewLocal(fs, files),
		remote: detect.NewRemote(store, marks, files, detect.RemoteOptions{
			Branches: cfg.Store.Branches,
			Cooldown: cfg.Sync.Cooldown,
		}),
		ctrl:   ctrl,
		prompt: ui.NewPrompt(opts.autoYes, cfg.Sync.PromptTimeout, cfg.Notify.Desktop),
		lock:   lock.New(p.LockFile()),
	}, nil
}

// runner builds the poll loop over the app's components
func (a *app) runner(skipFirst bool) *loop.Runner {
	return loop.New(loop.Deps{
		FS:         a.fs,
		Store:      a.store,
		Watermark:  a.marks,
		Local:      a.local,
		Remote:     a.remote,
		Controller: a.ctrl,
		Confirmer:  a.prompt,
		Linker:     filesystem.NewLinker(&afero.OsFs{}, a.cfg.Backup.Dir),
		Clock:      a.clock,
		Lock:       a.lock,
	}, loop.Options{
		Files:     a.files,
		Links:     a.cfg.BootstrapLinks(),
		Branches:  a.cfg.Store.Branches,
		Interval:  a.cfg.Sync.Interval,
		SkipFirst: skipFirst,
	})
}

// locked runs fn while holding the invocation lock
func (a *app) locked(fn func() error) error {
	if err := a.lock.Acquire(); err != nil {
		return err
	}
	defer func() {
		if err := a.lock.Release(); err != nil {
			logger := logging.GetLogger("cmd")
			logger.Warn().Err(err).Msg("Failed to release lock")
		}
	}()
	return fn()
}
