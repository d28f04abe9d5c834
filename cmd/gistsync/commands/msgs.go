package commands

import (
	_ "embed"
	"strings"
)

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort      = "Keep shell configuration files in sync through a gist"
	MsgVersionShort   = "Print version information"
	MsgVersionLong    = "Print detailed version information including commit hash and build date"
	MsgRunShort       = "Bootstrap if needed, then poll until interrupted"
	MsgCheckShort     = "Run a single sync cycle"
	MsgPushShort      = "Commit and push the local files now"
	MsgPullShort      = "Pull the remote changes now"
	MsgStatusShort    = "Show the sync state of every tracked file"
	MsgBootstrapShort = "Create mirrors and symlinks and seed the watermark"
	MsgAutostartShort = "Install a login service that runs gistsync"
	MsgGenConfigShort = "Print the default configuration"
	MsgGenConfigLong  = "Print the default configuration with every value commented out.\n\nWith --write the result is written to the config file unless one already exists."

	// Status messages
	MsgPushed        = "Pushed local changes."
	MsgPulled        = "Pulled remote changes."
	MsgBootstrapped  = "Bootstrap complete, watermark at %s\n"
	MsgConfigWritten = "Wrote %s\n"
	MsgConfigExists  = "config file %s already exists"
	MsgUnitWritten   = "Wrote %s\nActivate it with:\n  %s\n"

	// Version output
	MsgVersionFormat = "gistsync version %s\n"
	MsgCommitFormat  = "Commit: %s\n"
	MsgBuiltFormat   = "Built:  %s\n"

	// Error messages
	MsgErrNoCommand   = "no command specified"
	MsgErrFormat      = "invalid output format: %w"
	MsgErrExecutable  = "failed to locate the gistsync executable: %w"
	MsgErrCycleFailed = "cycle finished with %d error(s)"

	// Flag descriptions
	MsgFlagVerbose   = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagConfig    = "Config file (default is $XDG_CONFIG_HOME/gistsync/config.toml)"
	MsgFlagYes       = "Answer every prompt with yes"
	MsgFlagSkipFirst = "Skip the checks of the first cycle"
	MsgFlagInterval  = "Override sync.interval for this run"
	MsgFlagCooldown  = "Override sync.cooldown for this run"
	MsgFlagOutput    = "Output format: auto, text, json or yaml"
	MsgFlagWrite     = "Write the result instead of printing it"
)

// Embedded message files
var (
	//go:embed msgs/root-long.txt
	msgRootLongRaw string
	MsgRootLong    = strings.TrimSpace(msgRootLongRaw)

	//go:embed msgs/run-long.txt
	msgRunLongRaw string
	MsgRunLong    = strings.TrimSpace(msgRunLongRaw)

	//go:embed msgs/run-example.txt
	msgRunExampleRaw string
	MsgRunExample    = strings.TrimRight(msgRunExampleRaw, "\n")

	//go:embed msgs/status-long.txt
	msgStatusLongRaw string
	MsgStatusLong    = strings.TrimSpace(msgStatusLongRaw)

	//go:embed msgs/status-example.txt
	msgStatusExampleRaw string
	MsgStatusExample    = strings.TrimRight(msgStatusExampleRaw, "\n")

	//go:embed msgs/autostart-long.txt
	msgAutostartLongRaw string
	MsgAutostartLong    = strings.TrimSpace(msgAutostartLongRaw)

	//go:embed msgs/usage-template.txt
	msgUsageTemplateRaw string
	MsgUsageTemplate    = strings.TrimSpace(msgUsageTemplateRaw)
)
