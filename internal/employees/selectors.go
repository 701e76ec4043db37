package employees

import (
	"fmt"

	"github.com/ternarybob/emsuite/internal/browser"
)

// Level is an employee seniority, chosen with a radio control on the form
type Level string

const (
	Intern Level = "Intern"
	Junior Level = "Junior"
	Senior Level = "Senior"
)

// Levels lists every level in form order
var Levels = []Level{Intern, Junior, Senior}

// Radio returns the selector of the level's radio control
func (l Level) Radio() browser.Selector {
	return browser.ID("position" + string(l))
}

// Page structure of the application under test
var (
	RecordsHeading = browser.XPath("//h3[contains(text(), 'Employee Records')]")
	FormHeading    = browser.XPath("//h3[contains(text(), 'Create/Update')]")
	CreateLink     = browser.LinkText("Create Employee")
	NameField      = browser.ID("name")
	PositionField  = browser.ID("position")
	SubmitButton   = browser.XPath("//input[@type='submit']")
	Table          = browser.CSS("table")
	HeaderCells    = browser.XPath("//thead//th")
	Rows           = browser.XPath("//tbody/tr")
	EditLinks      = browser.LinkText("Edit")
	DeleteButtons  = browser.XPath("//button[contains(text(), 'Delete')]")
)

// HeaderTexts are the column headings of the employee table
var HeaderTexts = []string{"Name", "Position", "Level", "Action"}

// RowAction selects the control labelled label inside the table row whose
// cell holds exactly name
func RowAction(name, label string) browser.Selector {
	return browser.XPath(fmt.Sprintf(
		"//tbody/tr[td[normalize-space(.)=%s]]//*[self::a or self::button][normalize-space(.)=%s]",
		browser.XPathLiteral(name), browser.XPathLiteral(label),
	))
}
