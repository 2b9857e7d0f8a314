// Package gallery holds presentation-side helpers: sanitizing the
// untrusted per-asset style fragments and modelling the gallery tree
// shown to the user.
package gallery

import (
	"regexp"
	"strings"
)

// SafeCSS carries the only style properties an asset may set. Any
// other property in the incoming fragment is dropped.
type SafeCSS struct {
	Width  string
	Height string
	Border string
}

// property names must not match inside longer names like min-width
var (
	widthRe  = regexp.MustCompile(`(?:^|[^-a-zA-Z])width\s*:\s*([^;]*)`)
	heightRe = regexp.MustCompile(`(?:^|[^-a-zA-Z])height\s*:\s*([^;]*)`)
	borderRe = regexp.MustCompile(`(?:^|[^-a-zA-Z])border\s*:\s*([^;]*)`)
)

func extractProperty(re *regexp.Regexp, css string) string {
	m := re.FindStringSubmatch(css)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// ExtractSafeCSS keeps the width, height and border declarations of an
// untrusted style fragment and discards everything else
func ExtractSafeCSS(css string) SafeCSS {
	return SafeCSS{
		Width:  extractProperty(widthRe, css),
		Height: extractProperty(heightRe, css),
		Border: extractProperty(borderRe, css),
	}
}

// String renders the surviving declarations back to a style fragment
func (s SafeCSS) String() string {

	var decls []string

	if s.Width != "" {
		decls = append(decls, "width: "+s.Width)
	}
	if s.Height != "" {
		decls = append(decls, "height: "+s.Height)
	}
	if s.Border != "" {
		decls = append(decls, "border: "+s.Border)
	}

	return strings.Join(decls, "; ")
}
