// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"path"
	"strings"
)

// matchCommand checks whether a command string matches a command rule
// pattern. Matching is case-insensitive over the full command string.
// "*" matches any run of characters — including spaces and slashes, so
// "rm -rf *" matches "rm -rf foo" and "rm -rf ./dir". "?" matches
// exactly one character. All other characters match literally.
func matchCommand(pattern, command string) bool {
	return matchWildcard(strings.ToLower(pattern), strings.ToLower(command))
}

// matchWildcard is a linear-time wildcard matcher with single-slot
// backtracking for "*". Unlike path.Match, "*" crosses every character
// class, which is what command patterns need.
func matchWildcard(pattern, input string) bool {
	patternIndex, inputIndex := 0, 0
	starIndex, starInput := -1, 0

	for inputIndex < len(input) {
		switch {
		case patternIndex < len(pattern) && (pattern[patternIndex] == '?' || pattern[patternIndex] == input[inputIndex]):
			patternIndex++
			inputIndex++
		case patternIndex < len(pattern) && pattern[patternIndex] == '*':
			// Record the star position; try matching zero characters
			// first, extend on mismatch.
			starIndex = patternIndex
			starInput = inputIndex
			patternIndex++
		case starIndex >= 0:
			// Mismatch after a star: let the star consume one more
			// input character and retry.
			patternIndex = starIndex + 1
			starInput++
			inputIndex = starInput
		default:
			return false
		}
	}

	// Only trailing stars may remain in the pattern.
	for patternIndex < len(pattern) && pattern[patternIndex] == '*' {
		patternIndex++
	}
	return patternIndex == len(pattern)
}

// matchPath checks whether a file path matches a hierarchical glob:
//
//   - Exact match: "go.mod" matches only "go.mod"
//   - Single-segment wildcard: "src/*.go" matches "src/main.go" but
//     not "src/sub/main.go"
//   - Recursive wildcard: "src/**" matches "src/a", "src/a/b", etc.
//   - Universal: "**" matches any path
//   - Interior recursive: "src/**/testdata" matches "src/testdata",
//     "src/a/testdata", etc.
//   - Character wildcards: "?" matches a single non-slash character
//
// The single-segment wildcard "*" does not match "/" — standard
// path.Match behavior, matching the gitignore convention. Dotfiles are
// matched like any other name: ".env" is matched by "*" and by ".*".
//
// Returns false for malformed patterns (unmatched brackets, etc.)
// rather than propagating errors — a broken rule should never grant
// access.
func matchPath(pattern, filePath string) bool {
	// Universal match.
	if pattern == "**" {
		return true
	}

	// No ** in the pattern — delegate to path.Match, which handles
	// single-segment * and ? correctly (not matching /).
	if !strings.Contains(pattern, "**") {
		return matchGlob(pattern, filePath)
	}

	// Suffix: "src/**" — match the prefix (with glob wildcards), then
	// anything after.
	if prefix, ok := strings.CutSuffix(pattern, "/**"); ok && !strings.Contains(prefix, "**") {
		// ** matches zero additional segments: the whole path is the prefix.
		if matchGlob(prefix, filePath) {
			return true
		}
		// ** matches one or more additional segments.
		return hasMatchingPrefix(prefix, filePath)
	}

	// Prefix: "**/secrets.yaml" — match anything before, then the
	// suffix (with glob wildcards).
	if suffix, ok := strings.CutPrefix(pattern, "**/"); ok && !strings.Contains(suffix, "**") {
		if matchGlob(suffix, filePath) {
			return true
		}
		return hasMatchingSuffix(suffix, filePath)
	}

	// Interior: "src/**/testdata" — split on the first /**/, match
	// prefix and suffix independently.
	separatorIndex := strings.Index(pattern, "/**/")
	if separatorIndex >= 0 {
		prefix := pattern[:separatorIndex]
		suffix := pattern[separatorIndex+4:]
		if strings.Contains(prefix, "**") || strings.Contains(suffix, "**") {
			return false
		}

		// Zero-segment case: prefix and suffix are adjacent.
		if matchGlob(prefix+"/"+suffix, filePath) {
			return true
		}

		// Multi-segment case: prefix matches the start, suffix the
		// end, with at least one segment between for ** to consume.
		prefixDepth := strings.Count(prefix, "/") + 1
		suffixDepth := strings.Count(suffix, "/") + 1
		segments := strings.Split(filePath, "/")

		if len(segments) < prefixDepth+1+suffixDepth {
			return false
		}
		if !matchGlob(prefix, strings.Join(segments[:prefixDepth], "/")) {
			return false
		}
		if !matchGlob(suffix, strings.Join(segments[len(segments)-suffixDepth:], "/")) {
			return false
		}
		// Segments consumed by ** must be non-empty (reject paths
		// with consecutive slashes between prefix and suffix).
		for _, segment := range segments[prefixDepth : len(segments)-suffixDepth] {
			if segment == "" {
				return false
			}
		}
		return true
	}

	// Multiple ** segments or other complex patterns — not supported.
	// Deny by default.
	return false
}

// matchGlob matches a pattern against a string using path.Match
// semantics (* and ? do not cross / boundaries). Returns false for
// malformed patterns.
func matchGlob(pattern, s string) bool {
	matched, err := path.Match(pattern, s)
	return err == nil && matched
}

// hasMatchingPrefix reports whether the path starts with segments that
// match the given glob pattern, with at least one additional segment
// after the matched portion.
func hasMatchingPrefix(pattern, filePath string) bool {
	depth := strings.Count(pattern, "/") + 1
	segments := strings.SplitN(filePath, "/", depth+1)
	if len(segments) <= depth {
		return false
	}
	return matchGlob(pattern, strings.Join(segments[:depth], "/"))
}

// hasMatchingSuffix reports whether the path ends with segments that
// match the given glob pattern, with at least one additional segment
// before the matched portion.
func hasMatchingSuffix(pattern, filePath string) bool {
	depth := strings.Count(pattern, "/") + 1
	segments := strings.Split(filePath, "/")
	if len(segments) <= depth {
		return false
	}
	return matchGlob(pattern, strings.Join(segments[len(segments)-depth:], "/"))
}

// matchAnyPath checks whether a path matches any of the given globs.
// Returns false for an empty pattern list (default-deny).
func matchAnyPath(patterns []string, filePath string) bool {
	for _, pattern := range patterns {
		if matchPath(pattern, filePath) {
			return true
		}
	}
	return false
}
