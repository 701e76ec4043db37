package scenario

import (
	"time"

	"github.com/ternarybob/emsuite/internal/browser"
)

// Page is the browser surface a scenario drives. *browser.Session implements it.
type Page interface {
	Navigate(url string) error
	Reload() error
	Locate(sel browser.Selector, timeout time.Duration) (browser.Element, error)
	Count(sel browser.Selector) (int, error)

	Clear(el browser.Element) error
	Type(el browser.Element, text string) error
	Click(el browser.Element) error

	IsVisible(el browser.Element) (bool, error)
	IsEnabled(el browser.Element) (bool, error)
	IsSelected(el browser.Element) (bool, error)
	Value(el browser.Element) (string, error)
	Text(el browser.Element) (string, error)

	URL() (string, error)
	Title() (string, error)
	PageSource() (string, error)
	Screenshot(path string) error
}

var _ Page = (*browser.Session)(nil)
