package types

import "context"

// Notifier delivers a short message to the user
type Notifier interface {
	Notify(title, message string)
}

// Confirmer asks a yes/no question. A dismissed or unanswered prompt must
// count as no, and Confirm must not block past the context deadline.
type Confirmer interface {
	Confirm(ctx context.Context, question, preview string) bool
}

// PostPullHook runs after a successful pull has refreshed the local files
type PostPullHook interface {
	Name() string
	AfterPull(ctx context.Context, files []TrackedFile) error
}

// Linker creates the bootstrap symlinks
type Linker interface {
	EnsureSymlink(target, link string) error
}
