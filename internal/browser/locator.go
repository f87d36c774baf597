package browser

import (
	"fmt"
	"strings"
)

// LocatorKind selects how a Locator finds its element.
type LocatorKind string

const (
	// LocatorRole matches an ARIA role with an accessible name.
	LocatorRole LocatorKind = "role"

	// LocatorText matches visible text.
	LocatorText LocatorKind = "text"
)

// Locator identifies a UI fragment on the page.
//
// Matching follows Playwright's defaults: names are compared
// case-insensitively as substrings after whitespace is collapsed, unless
// Exact is set.
type Locator struct {
	Kind  LocatorKind `json:"kind" yaml:"kind"`
	Role  string      `json:"role,omitempty" yaml:"role,omitempty"`
	Name  string      `json:"name" yaml:"name"`
	Exact bool        `json:"exact,omitempty" yaml:"exact,omitempty"`
}

// Heading returns a locator for a heading with the given accessible name.
func Heading(name string) Locator {
	return Locator{Kind: LocatorRole, Role: "heading", Name: name}
}

// Text returns a locator for an element containing the given text.
func Text(text string) Locator {
	return Locator{Kind: LocatorText, Name: text}
}

// Validate checks that the locator can be evaluated.
func (l Locator) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return fmt.Errorf("locator name is required")
	}
	switch l.Kind {
	case LocatorText:
		return nil
	case LocatorRole:
		if l.Role == "" {
			return fmt.Errorf("role locator %q has no role", l.Name)
		}
		return nil
	default:
		return fmt.Errorf("unknown locator kind: %q", l.Kind)
	}
}

// String renders the locator the way Playwright prints it.
func (l Locator) String() string {
	switch l.Kind {
	case LocatorRole:
		return fmt.Sprintf("getByRole(%q, name=%q)", l.Role, l.Name)
	default:
		return fmt.Sprintf("getByText(%q)", l.Name)
	}
}

// implicitRoles maps ARIA roles to the elements that carry them implicitly.
var implicitRoles = map[string][]string{
	"heading":    {"self::h1", "self::h2", "self::h3", "self::h4", "self::h5", "self::h6"},
	"button":     {"self::button", "self::input[@type='button' or @type='submit' or @type='reset']"},
	"link":       {"self::a[@href]"},
	"navigation": {"self::nav"},
	"main":       {"self::main"},
	"list":       {"self::ul", "self::ol"},
	"listitem":   {"self::li"},
	"textbox":    {"self::textarea", "self::input[not(@type) or @type='text']"},
	"table":      {"self::table"},
}

const (
	upperAlpha = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerAlpha = "abcdefghijklmnopqrstuvwxyz"
)

// XPath translates the locator into an XPath 1.0 expression for the CDP
// backends.
func (l Locator) XPath() string {
	switch l.Kind {
	case LocatorRole:
		return l.roleXPath()
	default:
		return l.textXPath()
	}
}

func (l Locator) roleXPath() string {
	tests := []string{fmt.Sprintf("@role=%s", xpathLiteral(l.Role))}
	for _, implicit := range implicitRoles[l.Role] {
		// An explicit role attribute overrides the implicit one
		tests = append(tests, fmt.Sprintf("(%s and not(@role))", implicit))
	}

	nameMatch := fmt.Sprintf("(%s or %s)",
		l.matchExpr("normalize-space(string(.))"),
		l.matchExpr("normalize-space(@aria-label)"))

	return fmt.Sprintf("//*[%s][%s]", strings.Join(tests, " or "), nameMatch)
}

func (l Locator) textXPath() string {
	match := l.matchExpr("normalize-space(string(.))")
	// Innermost element whose text matches, ignoring non-rendered containers
	return fmt.Sprintf("//body//*[not(self::script or self::style or self::template)][%s][not(.//*[%s])]",
		match, match)
}

// matchExpr returns a predicate comparing expr against the locator name.
func (l Locator) matchExpr(expr string) string {
	name := strings.Join(strings.Fields(l.Name), " ")
	if l.Exact {
		return fmt.Sprintf("%s=%s", expr, xpathLiteral(name))
	}
	lowered := fmt.Sprintf("translate(%s, '%s', '%s')", expr, upperAlpha, lowerAlpha)
	return fmt.Sprintf("contains(%s, %s)", lowered, xpathLiteral(strings.ToLower(name)))
}

// xpathLiteral quotes s as an XPath 1.0 string literal. XPath has no escape
// sequences, so strings holding both quote kinds are built with concat().
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}

	parts := strings.Split(s, "'")
	quoted := make([]string, 0, len(parts)*2)
	for i, part := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if part != "" {
			quoted = append(quoted, "'"+part+"'")
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}
