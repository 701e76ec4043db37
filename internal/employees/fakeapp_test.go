package employees

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/emsuite/internal/browser"
)

type fakeEmployee struct {
	id       int
	name     string
	position string
	level    Level
}

// fakeApp models the Employee application at the level scenarios observe it:
// the current page, the form state and the persisted list. Elements are keyed
// by the selectors the catalogue uses.
type fakeApp struct {
	base      string
	path      string
	employees []fakeEmployee
	nextID    int

	editing  int
	name     string
	position string
	level    Level

	// deleteLag delays row removal by this many Count calls
	deleteLag   int
	pendingDrop int
}

func newFakeApp(base string) *fakeApp {
	return &fakeApp{base: base, path: "/", nextID: 1}
}

func (a *fakeApp) seed(names ...string) {
	for _, n := range names {
		a.employees = append(a.employees, fakeEmployee{id: a.nextID, name: n, position: "Seed", level: Junior})
		a.nextID++
	}
}

func (a *fakeApp) has(name string) bool {
	for _, e := range a.employees {
		if e.name == name {
			return true
		}
	}
	return false
}

func (a *fakeApp) onForm() bool {
	return a.path == "/create" || strings.HasPrefix(a.path, "/edit/")
}

// elements maps selector strings on the current page to element keys
func (a *fakeApp) elements() map[string]string {
	els := make(map[string]string)
	if a.onForm() {
		els[FormHeading.String()] = "form-heading"
		els[NameField.String()] = "name"
		els[PositionField.String()] = "position"
		els[SubmitButton.String()] = "submit"
		for _, l := range Levels {
			els[l.Radio().String()] = "radio:" + string(l)
		}
		return els
	}
	if a.path != "/" {
		return els
	}

	els[RecordsHeading.String()] = "records-heading"
	els[CreateLink.String()] = "create-link"
	els[Table.String()] = "table"
	for i, e := range a.employees {
		if i == 0 {
			els[EditLinks.String()] = "edit:" + strconv.Itoa(e.id)
			els[DeleteButtons.String()] = "delete:" + strconv.Itoa(e.id)
		}
		els[RowAction(e.name, "Edit").String()] = "edit:" + strconv.Itoa(e.id)
		els[RowAction(e.name, "Delete").String()] = "delete:" + strconv.Itoa(e.id)
	}
	return els
}

func (a *fakeApp) key(el browser.Element) (string, error) {
	key, ok := a.elements()[el.Selector.String()]
	if !ok {
		return "", fmt.Errorf("stale element %s", el.Selector)
	}
	return key, nil
}

func (a *fakeApp) Navigate(url string) error {
	if !strings.HasPrefix(url, a.base) {
		a.path = "/external"
		return nil
	}
	path := strings.TrimPrefix(url, a.base)
	if path == "" {
		path = "/"
	}
	a.open(path)
	return nil
}

func (a *fakeApp) open(path string) {
	a.path = path
	a.editing, a.name, a.position, a.level = 0, "", "", ""
	if id, ok := strings.CutPrefix(path, "/edit/"); ok {
		a.editing, _ = strconv.Atoi(id)
		for _, e := range a.employees {
			if e.id == a.editing {
				a.name, a.position, a.level = e.name, e.position, e.level
			}
		}
	}
}

func (a *fakeApp) Reload() error {
	a.open(a.path)
	return nil
}

func (a *fakeApp) Locate(sel browser.Selector, timeout time.Duration) (browser.Element, error) {
	if _, ok := a.elements()[sel.String()]; !ok {
		return browser.Element{}, fmt.Errorf("%w: %s within %s", browser.ErrElementNotFound, sel, timeout)
	}
	return browser.Element{Selector: sel}, nil
}

func (a *fakeApp) Count(sel browser.Selector) (int, error) {
	if a.pendingDrop > 0 {
		a.pendingDrop--
		if a.pendingDrop == 0 {
			a.employees = a.employees[:len(a.employees)-1]
		}
	}
	if a.path != "/" {
		return 0, nil
	}
	switch sel {
	case Rows, EditLinks, DeleteButtons:
		return len(a.employees), nil
	case HeaderCells:
		return len(HeaderTexts), nil
	}
	if _, ok := a.elements()[sel.String()]; ok {
		return 1, nil
	}
	return 0, nil
}

func (a *fakeApp) Clear(el browser.Element) error {
	key, err := a.key(el)
	if err != nil {
		return err
	}
	switch key {
	case "name":
		a.name = ""
	case "position":
		a.position = ""
	}
	return nil
}

func (a *fakeApp) Type(el browser.Element, text string) error {
	key, err := a.key(el)
	if err != nil {
		return err
	}
	switch key {
	case "name":
		a.name += text
	case "position":
		a.position += text
	default:
		return fmt.Errorf("cannot type into %s", key)
	}
	return nil
}

func (a *fakeApp) Click(el browser.Element) error {
	key, err := a.key(el)
	if err != nil {
		return err
	}
	switch {
	case key == "create-link":
		a.open("/create")
	case key == "submit":
		a.submit()
	case strings.HasPrefix(key, "radio:"):
		a.level = Level(strings.TrimPrefix(key, "radio:"))
	case strings.HasPrefix(key, "edit:"):
		a.open("/edit/" + strings.TrimPrefix(key, "edit:"))
	case strings.HasPrefix(key, "delete:"):
		id, _ := strconv.Atoi(strings.TrimPrefix(key, "delete:"))
		a.remove(id)
	}
	return nil
}

func (a *fakeApp) submit() {
	if a.editing != 0 {
		for i := range a.employees {
			if a.employees[i].id == a.editing {
				a.employees[i].name, a.employees[i].position, a.employees[i].level = a.name, a.position, a.level
			}
		}
	} else {
		a.employees = append(a.employees, fakeEmployee{id: a.nextID, name: a.name, position: a.position, level: a.level})
		a.nextID++
	}
	a.open("/")
}

// remove deletes the row, optionally after deleteLag counts. Lagged removal
// moves the row to the end so it can be dropped later.
func (a *fakeApp) remove(id int) {
	for i, e := range a.employees {
		if e.id != id {
			continue
		}
		rest := append(append([]fakeEmployee{}, a.employees[:i]...), a.employees[i+1:]...)
		if a.deleteLag == 0 {
			a.employees = rest
			return
		}
		a.employees = append(rest, e)
		a.pendingDrop = a.deleteLag
		return
	}
}

func (a *fakeApp) IsVisible(el browser.Element) (bool, error) {
	_, err := a.key(el)
	return err == nil, nil
}

func (a *fakeApp) IsEnabled(el browser.Element) (bool, error) {
	_, err := a.key(el)
	return err == nil, err
}

func (a *fakeApp) IsSelected(el browser.Element) (bool, error) {
	key, err := a.key(el)
	if err != nil {
		return false, err
	}
	return key == "radio:"+string(a.level), nil
}

func (a *fakeApp) Value(el browser.Element) (string, error) {
	key, err := a.key(el)
	if err != nil {
		return "", err
	}
	switch key {
	case "name":
		return a.name, nil
	case "position":
		return a.position, nil
	}
	return "", nil
}

func (a *fakeApp) Text(el browser.Element) (string, error) {
	return a.key(el)
}

func (a *fakeApp) URL() (string, error) {
	return a.base + a.path, nil
}

func (a *fakeApp) Title() (string, error) {
	if a.path == "/external" {
		return "Google", nil
	}
	return "Vite + React", nil
}

func (a *fakeApp) PageSource() (string, error) {
	var b strings.Builder
	b.WriteString("<html><body>")
	if a.onForm() {
		b.WriteString(`<h3>Create/Update Employee</h3><form><input id="name"><input id="position"></form>`)
	} else {
		b.WriteString(`<h3>Employee Records</h3><table><thead><tr>`)
		for _, h := range HeaderTexts {
			b.WriteString("<th>" + h + "</th>")
		}
		b.WriteString("</tr></thead><tbody>")
		for _, e := range a.employees {
			fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td><td>%s</td><td><a>Edit</a><button>Delete</button></td></tr>",
				html.EscapeString(e.name), html.EscapeString(e.position), e.level)
		}
		b.WriteString("</tbody></table>")
	}
	b.WriteString("</body></html>")
	return b.String(), nil
}

func (a *fakeApp) Screenshot(string) error { return nil }
