// AngelaMos | 2026
// slug_test.go

package event

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"ascii", "Go Meetup", "go-meetup"},
		{"accents folded", "Café Día 2026", "cafe-dia-2026"},
		{"punctuation collapses", "  Hello,  World!!  ", "hello-world"},
		{"only symbols", "!!!", "event"},
		{"non latin dropped", "東京 Summit", "summit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestSlugify_TruncatesLongNames(t *testing.T) {
	slug := Slugify(strings.Repeat("conference ", 20))

	assert.LessOrEqual(t, len(slug), maxSlugLength)
	assert.False(t, strings.HasSuffix(slug, "-"))
}

func TestStatus_CanTransition(t *testing.T) {
	assert.True(t, StatusDraft.CanTransition(StatusPublished))
	assert.True(t, StatusPublished.CanTransition(StatusFinished))
	assert.True(t, StatusDraft.CanTransition(StatusCancelled))
	assert.True(t, StatusPublished.CanTransition(StatusCancelled))

	assert.False(t, StatusDraft.CanTransition(StatusFinished))
	assert.False(t, StatusFinished.CanTransition(StatusCancelled))
	assert.False(t, StatusCancelled.CanTransition(StatusPublished))
	assert.False(t, StatusPublished.CanTransition(StatusDraft))
}
