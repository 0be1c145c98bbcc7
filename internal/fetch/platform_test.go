package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		url      string
		expected Platform
	}{
		{"https://github.com/adalovelace", PlatformGitHub},
		{"https://gist.github.com/adalovelace/abc", PlatformGitHub},
		{"https://www.linkedin.com/in/ada-lovelace", PlatformLinkedIn},
		{"https://uk.linkedin.com/in/ada-lovelace", PlatformLinkedIn},
		{"https://stackoverflow.com/users/1/ada", PlatformStackOverflow},
		{"https://medium.com/@ada/notes", PlatformMedium},
		{"https://adalovelace.dev/about", PlatformUnknown},
		{"://bad", PlatformUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectPlatform(tt.url))
		})
	}
}

func TestPlatformContentSelectors(t *testing.T) {
	assert.Contains(t, PlatformContentSelectors(PlatformGitHub), "#readme")
	assert.Contains(t, PlatformContentSelectors(PlatformLinkedIn), ".top-card-layout")
	assert.Equal(t, DefaultTextSelectors(), PlatformContentSelectors(PlatformUnknown))
}

func TestPlatformNoiseSelectors(t *testing.T) {
	common := PlatformNoiseSelectors(PlatformUnknown)
	assert.Contains(t, common, "form")

	github := PlatformNoiseSelectors(PlatformGitHub)
	assert.Contains(t, github, "form")
	assert.Contains(t, github, ".js-yearly-contributions")
	assert.Greater(t, len(github), len(common))
}
