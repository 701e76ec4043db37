package browser

import (
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
)

// Strategy is how a selector value is interpreted
type Strategy string

const (
	ByID       Strategy = "id"
	ByCSS      Strategy = "css"
	ByXPath    Strategy = "xpath"
	ByLinkText Strategy = "link_text"
)

// Selector addresses elements on the current page
type Selector struct {
	Strategy Strategy
	Value    string
}

func ID(id string) Selector { return Selector{Strategy: ByID, Value: id} }

func CSS(query string) Selector { return Selector{Strategy: ByCSS, Value: query} }

func XPath(expr string) Selector { return Selector{Strategy: ByXPath, Value: expr} }

// LinkText matches anchors whose normalized text equals text exactly
func LinkText(text string) Selector { return Selector{Strategy: ByLinkText, Value: text} }

func (s Selector) String() string {
	return fmt.Sprintf("%s=%s", s.Strategy, s.Value)
}

// query translates the selector into a chromedp query. all selects every
// match rather than the first.
func (s Selector) query(all bool) (string, chromedp.QueryOption, error) {
	css := chromedp.ByQuery
	if all {
		css = chromedp.ByQueryAll
	}

	switch s.Strategy {
	case ByID:
		return fmt.Sprintf(`[id=%q]`, s.Value), css, nil
	case ByCSS:
		return s.Value, css, nil
	case ByXPath:
		return s.Value, chromedp.BySearch, nil
	case ByLinkText:
		return fmt.Sprintf("//a[normalize-space(.)=%s]", XPathLiteral(s.Value)), chromedp.BySearch, nil
	default:
		return "", nil, fmt.Errorf("unknown selector strategy %q", s.Strategy)
	}
}

// Element is a handle to a node resolved on the session's current page. It is
// invalidated by navigation.
type Element struct {
	Selector Selector
	NodeID   cdp.NodeID
}

func (e Element) ids() []cdp.NodeID {
	return []cdp.NodeID{e.NodeID}
}

// XPathLiteral quotes s for use inside an XPath expression. XPath 1.0 has no
// escape syntax, so values holding both quote kinds are built with concat().
func XPathLiteral(s string) string {
	if !strings.Contains(s, `'`) {
		return `'` + s + `'`
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, `'`)
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if p != "" {
			quoted = append(quoted, `'`+p+`'`)
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}
