package testutil

import (
	"context"
	"sync"

	"github.com/arthur-debert/gistsync/pkg/types"
)

// Notification is one recorded Notify call
type Notification struct {
	Title   string
	Message string
}

// MockNotifier records notifications
type MockNotifier struct {
	mu   sync.Mutex
	Sent []Notification
}

// Notify records the notification.
func (m *MockNotifier) Notify(title, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, Notification{Title: title, Message: message})
}

// Question is one recorded Confirm call
type Question struct {
	Question string
	Preview  string
}

// MockConfirmer answers every question with Answer unless ConfirmFunc is set
type MockConfirmer struct {
	Answer      bool
	ConfirmFunc func(ctx context.Context, question, preview string) bool

	mu    sync.Mutex
	Asked []Question
}

// Confirm records the question and returns the configured answer.
func (m *MockConfirmer) Confirm(ctx context.Context, question, preview string) bool {
	m.mu.Lock()
	m.Asked = append(m.Asked, Question{Question: question, Preview: preview})
	m.mu.Unlock()
	if m.ConfirmFunc != nil {
		return m.ConfirmFunc(ctx, question, preview)
	}
	return m.Answer
}

// MockHook is a recording types.PostPullHook
type MockHook struct {
	NameValue string
	Err       error

	mu    sync.Mutex
	Calls [][]types.TrackedFile
}

// Name returns the hook's name.
func (m *MockHook) Name() string {
	if m.NameValue != "" {
		return m.NameValue
	}
	return "mock-hook"
}

// AfterPull records the call and returns Err.
func (m *MockHook) AfterPull(ctx context.Context, files []types.TrackedFile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, files)
	return m.Err
}

// MockLinker records requested symlinks
type MockLinker struct {
	EnsureSymlinkFunc func(target, link string) error

	mu    sync.Mutex
	Links []types.Link
}

// EnsureSymlink records the link and runs the override when set.
func (m *MockLinker) EnsureSymlink(target, link string) error {
	m.mu.Lock()
	m.Links = append(m.Links, types.Link{Target: target, Path: link})
	m.mu.Unlock()
	if m.EnsureSymlinkFunc != nil {
		return m.EnsureSymlinkFunc(target, link)
	}
	return nil
}
