package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileStatus_Conflicted(t *testing.T) {
	tests := []struct {
		name string
		st   FileStatus
		want bool
	}{
		{"both modified", FileStatus{Path: "zshrc", Index: 'U', Worktree: 'U'}, true},
		{"both added", FileStatus{Path: "zshrc", Index: 'A', Worktree: 'A'}, true},
		{"modified locally", FileStatus{Path: "zshrc", Index: ' ', Worktree: 'M'}, false},
		{"deleted by them", FileStatus{Path: "zshrc", Index: 'U', Worktree: 'D'}, true},
		{"deleted by us", FileStatus{Path: "zshrc", Index: 'D', Worktree: 'U'}, true},
		{"added by us", FileStatus{Path: "zshrc", Index: 'A', Worktree: 'U'}, true},
		{"added by them", FileStatus{Path: "zshrc", Index: 'U', Worktree: 'A'}, true},
		{"both deleted", FileStatus{Path: "zshrc", Index: 'D', Worktree: 'D'}, true},
		{"staged deletion", FileStatus{Path: "zshrc", Index: 'D', Worktree: ' '}, false},
		{"staged addition", FileStatus{Path: "zshrc", Index: 'A', Worktree: ' '}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.st.Conflicted())
		})
	}
}

func TestRevision(t *testing.T) {
	assert.True(t, Revision("").IsZero())
	assert.Equal(t, "0123abcd", Revision("0123abcdef4567").Short())
	assert.Equal(t, "abc", Revision("abc").Short())
}

func TestNames(t *testing.T) {
	files := []TrackedFile{{Name: "zshrc"}, {Name: "zsh_aliases"}}
	assert.Equal(t, []string{"zshrc", "zsh_aliases"}, Names(files))
}
