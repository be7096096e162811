package config

import (
	"fmt"
	"regexp"
	"strings"
)

// identifierRe matches valid group names: letter-first, alphanumeric + _ . -
var identifierRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_.\-]*$`)

// regexMetaChars are characters that indicate a string is an intentional regex, not a typo.
const regexMetaChars = `^$.*+?()[]{}|\`

// isIdentifier returns true if s looks like a group name (letter-first identifier).
func isIdentifier(s string) bool {
	return identifierRe.MatchString(s)
}

// containsRegexMeta returns true if s contains any regex metacharacters.
func containsRegexMeta(s string) bool {
	for _, c := range s {
		if strings.ContainsRune(regexMetaChars, c) {
			return true
		}
	}
	return false
}

// CompiledPatterns holds pre-compiled include and exclude regex patterns.
type CompiledPatterns struct {
	Include []*regexp.Regexp
	Exclude []*regexp.Regexp
}

// Match evaluates the compiled patterns against a value.
// Exclude-first semantics: if any exclude matches, rejected.
// Empty include list with no excludes = pass (no constraints).
// Empty include list with only excludes = everything not excluded passes.
func (cp *CompiledPatterns) Match(value string) bool {
	if cp == nil {
		return true
	}

	for _, re := range cp.Exclude {
		if re.MatchString(value) {
			return false
		}
	}

	if len(cp.Include) == 0 {
		return true
	}

	for _, re := range cp.Include {
		if re.MatchString(value) {
			return true
		}
	}

	return false
}

// CompilePatterns resolves pattern tokens against the group map and
// compiles them into include/exclude regex groups. Discards warnings.
func CompilePatterns(patterns []string, groups map[string]string) (*CompiledPatterns, error) {
	cp, _, err := CompilePatternsWithWarnings(patterns, groups)
	return cp, err
}

// CompilePatternsWithWarnings resolves pattern tokens against the group map,
// compiles them into include/exclude regex groups, and returns any warnings
// (e.g., typo detection for unknown group names).
func CompilePatternsWithWarnings(patterns []string, groups map[string]string) (*CompiledPatterns, []string, error) {
	if len(patterns) == 0 {
		return &CompiledPatterns{}, nil, nil
	}

	var warnings []string
	cp := &CompiledPatterns{}
	for _, token := range patterns {
		negate := strings.HasPrefix(token, "!")
		raw := strings.TrimPrefix(token, "!")

		pat, warn := resolveToken(raw, groups)
		if warn != "" {
			warnings = append(warnings, warn)
		}

		re, err := regexp.Compile(pat)
		if err != nil {
			return nil, warnings, fmt.Errorf("invalid pattern %q: %w", pat, err)
		}
		if negate {
			cp.Exclude = append(cp.Exclude, re)
		} else {
			cp.Include = append(cp.Include, re)
		}
	}

	return cp, warnings, nil
}

// resolveToken resolves a single token against the group map.
// Returns the resolved pattern and an optional warning string.
func resolveToken(token string, groups map[string]string) (string, string) {
	if isIdentifier(token) {
		if regex, ok := groups[token]; ok {
			return regex, ""
		}
		// An identifier with no metacharacters is most likely a target name;
		// anchor it so "Foo" does not also select "FooKit". Applies to
		// "!" excludes too: "!Mock" drops Mock, not NetMock.
		if !containsRegexMeta(token) {
			for name := range groups {
				if strings.EqualFold(name, token) {
					return "^" + token + "$", fmt.Sprintf("%q is not a group; did you mean %q? treating it as a target name", token, name)
				}
			}
			return "^" + token + "$", ""
		}
	}
	return token, ""
}
