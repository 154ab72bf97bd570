// Package repospec parses the free-form "--repo" command-line grammar
// into a habitat.RepoSpec: url[:path[:branch]], supporting SSH
// (git@host:owner/repo:path[:branch]), HTTPS (https://host/owner/repo:path[:branch]),
// and bare (url:path[:branch]) forms.
package repospec

import (
	"fmt"
	"strings"

	"github.com/griffithind/habitat/internal/habitat"
)

// Parse parses spec per the documented grammar. The tricky part is that
// an SSH or scheme-prefixed URL itself contains a colon before the path
// segment even starts (git@host:owner/repo, https://host/owner/repo), so
// the first one or two colon-delimited tokens belong to the URL depending
// on its shape.
func Parse(spec string) (habitat.RepoSpec, error) {
	if spec == "" {
		return habitat.RepoSpec{}, fmt.Errorf("repo spec is empty")
	}

	tokens := strings.Split(spec, ":")
	urlTokens := urlTokenCount(tokens)
	if len(tokens) < urlTokens {
		return habitat.RepoSpec{}, fmt.Errorf("repo spec %q is missing a url", spec)
	}

	url := strings.Join(tokens[:urlTokens], ":")
	rest := tokens[urlTokens:]
	if len(rest) == 0 {
		return habitat.RepoSpec{}, fmt.Errorf("repo spec %q is missing a path", spec)
	}
	if len(rest) > 2 {
		return habitat.RepoSpec{}, fmt.Errorf("repo spec %q has too many ':'-separated segments", spec)
	}

	r := habitat.RepoSpec{URL: url, Path: rest[0]}
	if len(rest) == 2 {
		r.Branch = rest[1]
	}
	return r, nil
}

// urlTokenCount reports how many leading tokens (as split by ":") belong
// to the URL: 2 for git@host:owner/repo and scheme://host/owner/repo
// forms (the scheme's "://" splits into its own token), 1 otherwise.
func urlTokenCount(tokens []string) int {
	if len(tokens) < 2 {
		return 1
	}
	head := tokens[0]
	if strings.HasPrefix(head, "git@") {
		return 2
	}
	if head == "http" || head == "https" {
		return 2
	}
	return 1
}

// Format renders r back into the url[:path[:branch]] grammar, the inverse
// of Parse for the fields the grammar covers (Shallow/Access are config-
// only fields, never carried in the free-form string).
func Format(r habitat.RepoSpec) string {
	s := r.URL + ":" + r.Path
	if r.Branch != "" {
		s += ":" + r.Branch
	}
	return s
}
