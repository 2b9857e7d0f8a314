package remote

import "strings"

const (
	webHost = "https://github.com/"
	rawHost = "https://raw.githubusercontent.com/"

	// DefaultBranch is assumed when the input carries no branch prefix
	DefaultBranch = "main"
)

// PrepareRepoURL turns a user-supplied repository URL into the raw
// content root that fetches go against. Pure function, no I/O.
//
// The input may carry an optional branch prefix, "dev:https://...";
// without one, defaultBranch is used. A trailing slash is stripped,
// the standard web host is rewritten to its raw-content equivalent,
// and the branch is appended as the final path segment:
//
//	https://github.com/acme/repo/  ->  https://raw.githubusercontent.com/acme/repo/main
//	dev:https://github.com/acme/repo  ->  https://raw.githubusercontent.com/acme/repo/dev
//
// URLs not on the standard web host are returned with only the
// trailing slash stripped; they are assumed to already be raw roots.
func PrepareRepoURL(input, defaultBranch string) string {

	branch := defaultBranch
	rest := input

	// a colon not followed by "//" separates the branch prefix from
	// the URL; "https:" does not qualify
	if i := strings.Index(input, ":"); i >= 0 && !strings.HasPrefix(input[i+1:], "//") {
		branch = input[:i]
		rest = input[i+1:]
	}

	rest = strings.TrimSuffix(rest, "/")

	if !strings.HasPrefix(rest, webHost) {
		return rest
	}

	return rawHost + strings.TrimPrefix(rest, webHost) + "/" + branch
}
