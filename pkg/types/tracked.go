package types

// TrackedFile is one (local path, mirrored path) pair. The set is fixed at
// configuration time and keeps its configured order.
type TrackedFile struct {
	// Name is the mirror path relative to the store directory, e.g. "zshrc"
	Name string

	// LocalPath is the absolute path of the user's live file, e.g. ~/.zshrc
	LocalPath string

	// MirrorPath is the absolute path of the copy inside the store directory
	MirrorPath string
}

// Names returns the store-relative mirror names in configured order
func Names(files []TrackedFile) []string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	return names
}

// Link is a symlink created during bootstrap: Path will point at Target
type Link struct {
	Target string
	Path   string
}
