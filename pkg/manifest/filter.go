package manifest

import (
	"locimages/pkg/config"
	"locimages/pkg/loc"
)

// Predicate decides whether a result is included in the manifest
type Predicate func(result *loc.Result) bool

// NewBlocklist returns a predicate that skips results whose original format
// contains any of the blocked types. The defaults skip "collection" and
// "web page" entries, which have no downloadable image of their own.
func NewBlocklist(blocked []string) Predicate {
	blockedSet := toSet(blocked)
	return func(result *loc.Result) bool {
		for _, format := range result.OriginalFormat {
			if blockedSet[format] {
				return false
			}
		}
		return true
	}
}

// NewAllowlist returns a predicate that keeps only results whose original
// format contains at least one of the allowed types
func NewAllowlist(allowed []string) Predicate {
	allowedSet := toSet(allowed)
	return func(result *loc.Result) bool {
		for _, format := range result.OriginalFormat {
			if allowedSet[format] {
				return true
			}
		}
		return false
	}
}

// FromConfig builds the configured inclusion predicate
func FromConfig(cfg *config.FilterConfig) Predicate {
	if cfg.Mode == config.FilterModeAllowlist {
		return NewAllowlist(cfg.AllowedFormats)
	}
	return NewBlocklist(cfg.BlockedFormats)
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
