// Package fetch - platform.go provides detection of profile hosting sites and their selectors.
package fetch

import (
	"net/url"
	"strings"
)

// Platform represents a site where candidates commonly publish a public profile.
type Platform string

const (
	// PlatformGitHub is a GitHub user or repository page
	PlatformGitHub Platform = "github"
	// PlatformLinkedIn is a public LinkedIn profile
	PlatformLinkedIn Platform = "linkedin"
	// PlatformStackOverflow is a Stack Overflow / Stack Exchange user page
	PlatformStackOverflow Platform = "stackoverflow"
	// PlatformMedium is a Medium article or author page
	PlatformMedium Platform = "medium"
	// PlatformUnknown is any other site (personal pages, company bios, news)
	PlatformUnknown Platform = "unknown"
)

// DetectPlatform identifies the profile platform from a URL.
func DetectPlatform(urlStr string) Platform {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return PlatformUnknown
	}

	host := strings.ToLower(parsed.Host)
	host = strings.TrimPrefix(host, "www.")

	switch {
	case host == "github.com" || strings.HasSuffix(host, ".github.com"):
		return PlatformGitHub
	case host == "linkedin.com" || strings.HasSuffix(host, ".linkedin.com"):
		return PlatformLinkedIn
	case strings.Contains(host, "stackoverflow.com") || strings.Contains(host, "stackexchange.com"):
		return PlatformStackOverflow
	case host == "medium.com" || strings.HasSuffix(host, ".medium.com"):
		return PlatformMedium
	default:
		return PlatformUnknown
	}
}

// PlatformContentSelectors returns content selectors optimized for a specific platform.
func PlatformContentSelectors(platform Platform) []string {
	switch platform {
	case PlatformGitHub:
		return []string{
			"[itemtype='http://schema.org/Person']", // Profile sidebar with name, bio, org
			".Layout-main",
			"#readme",
			"main",
		}
	case PlatformLinkedIn:
		return []string{
			".top-card-layout",
			".core-section-container",
			"main",
		}
	case PlatformStackOverflow:
		return []string{
			"#mainbar-full",
			"#user-card",
			"#mainbar",
		}
	case PlatformMedium:
		return []string{
			"article",
			"main",
		}
	default:
		return DefaultTextSelectors()
	}
}

// PlatformNoiseSelectors returns noise exclusion selectors for a specific platform.
func PlatformNoiseSelectors(platform Platform) []string {
	// Common noise selectors for all platforms
	common := []string{
		"form",
		".social-share",
		".share-buttons",
		".cookie-banner",
		".cookie-consent",
		".gdpr-notice",
		"[role='dialog']",
	}

	switch platform {
	case PlatformGitHub:
		return append(common,
			".js-yearly-contributions",
			".js-pinned-items-reorder-form",
			".footer",
		)
	case PlatformLinkedIn:
		return append(common,
			".join-form",
			".contextual-sign-in-modal",
			".aside-section-container",
		)
	case PlatformStackOverflow:
		return append(common,
			"#left-sidebar",
			".s-sidebarwidget",
		)
	case PlatformMedium:
		return append(common,
			".metabar",
			".js-postShareWidget",
		)
	default:
		return common
	}
}
