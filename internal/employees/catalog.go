package employees

import (
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/emsuite/internal/common"
	"github.com/ternarybob/emsuite/internal/scenario"
)

// Env holds the per-scenario inputs: where the application lives and the
// stamp that makes created names unique
type Env struct {
	BaseURL    string
	Stamp      string
	SmokeURL   string
	SmokeTitle string

	config *common.Config
}

// NewEnv derives a scenario environment from config. Names created by the
// scenario carry now in milliseconds.
func NewEnv(config *common.Config, now time.Time) Env {
	return Env{
		BaseURL:    config.BaseURL(),
		Stamp:      fmt.Sprintf("%d", now.UnixMilli()),
		SmokeURL:   config.Smoke.URL,
		SmokeTitle: config.Smoke.TitleContains,
		config:     config,
	}
}

// Home is the list page, as the application reports it after a redirect
func (e Env) Home() string {
	return e.URL("/")
}

func (e Env) URL(path string) string {
	return e.config.AppURL(path)
}

// Name qualifies prefix with the run stamp
func (e Env) Name(prefix string) string {
	return prefix + " " + e.Stamp
}

// Definition is a named, buildable scenario
type Definition struct {
	Name        string
	Description string
	// Sequential scenarios read global table state and never run alongside others
	Sequential bool
	// Smoke scenarios check the browser itself and do not touch the application
	Smoke bool
	Build func(env Env) scenario.Scenario
}

var catalog = []Definition{
	{Name: "homepage_loads", Description: "Homepage loads and shows the Employee Records heading", Build: homepageLoads},
	{Name: "create_button_present", Description: "Create Employee control is displayed and enabled", Build: createButtonPresent},
	{Name: "navigate_to_create", Description: "Create Employee leads to the create form", Build: navigateToCreate},
	{Name: "create_form_elements", Description: "Create form exposes name, position, level radios and submit", Build: createFormElements},
	{Name: "create_employee", Description: "A created employee appears in the list", Build: createEmployeeScenario},
	{Name: "view_employee_list", Description: "Employee table shows its column headers", Build: viewEmployeeList},
	{Name: "edit_button_present", Description: "A created employee has an Edit control", Build: editButtonPresent},
	{Name: "edit_employee", Description: "Editing an employee's name persists", Build: editEmployee},
	{Name: "delete_button_present", Description: "A created employee has a Delete control", Build: deleteButtonPresent},
	{Name: "delete_employee", Description: "Deleting an employee removes exactly one row", Sequential: true, Build: deleteEmployee},
	{Name: "radio_exclusivity", Description: "Exactly one level radio is selected at a time", Build: radioExclusivity},
	{Name: "form_accepts_input", Description: "Form inputs hold typed text", Build: formAcceptsInput},
	{Name: "create_multiple_employees", Description: "Several created employees all appear in the list", Build: createMultipleEmployees},
	{Name: "navigate_home", Description: "Navigating from the form back to the homepage", Build: navigateHome},
	{Name: "browser_smoke", Description: "Browser starts and loads a public page", Smoke: true, Build: browserSmoke},
}

// Catalog returns every scenario definition in run order
func Catalog() []Definition {
	out := make([]Definition, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup finds a definition by name
func Lookup(name string) (Definition, bool) {
	for _, d := range catalog {
		if d.Name == name {
			return d, true
		}
	}
	return Definition{}, false
}

// fillForm types into the form on the current page and picks level
func fillForm(name, position string, level Level) []scenario.Step {
	return []scenario.Step{
		scenario.Locate("name", NameField),
		scenario.Clear("name"),
		scenario.Type("name", name),
		scenario.Locate("position", PositionField),
		scenario.Clear("position"),
		scenario.Type("position", position),
		scenario.Locate("level", level.Radio()),
		scenario.Click("level"),
	}
}

// submitForm submits and waits for the redirect back to the list
func submitForm(env Env) []scenario.Step {
	return []scenario.Step{
		scenario.Locate("submit", SubmitButton),
		scenario.Click("submit"),
		scenario.AssertURLEquals(env.Home()),
	}
}

// createEmployee creates an employee through the form and waits until the list
// shows it
func createEmployee(env Env, name, position string, level Level) []scenario.Step {
	steps := []scenario.Step{scenario.Navigate(env.URL("create"))}
	steps = append(steps, fillForm(name, position, level)...)
	steps = append(steps, submitForm(env)...)
	return append(steps, scenario.Eventually(scenario.AssertTextContains(scenario.PageSource, name)))
}

func homepageLoads(env Env) scenario.Scenario {
	return scenario.Scenario{Name: "homepage_loads", Steps: []scenario.Step{
		scenario.Navigate(env.BaseURL),
		scenario.AssertAny(
			scenario.AssertTextContains(scenario.PageTitle, "Vite + React"),
			scenario.AssertTextContains(scenario.PageSource, "Employee"),
		),
		scenario.Locate("heading", RecordsHeading),
		scenario.AssertVisible("heading"),
	}}
}

func createButtonPresent(env Env) scenario.Scenario {
	return scenario.Scenario{Name: "create_button_present", Steps: []scenario.Step{
		scenario.Navigate(env.BaseURL),
		scenario.Locate("create", CreateLink),
		scenario.AssertVisible("create"),
		scenario.AssertEnabled("create"),
	}}
}

func navigateToCreate(env Env) scenario.Scenario {
	return scenario.Scenario{Name: "navigate_to_create", Steps: []scenario.Step{
		scenario.Navigate(env.BaseURL),
		scenario.Locate("create", CreateLink),
		scenario.Click("create"),
		scenario.AssertURLContains("/create"),
		scenario.Locate("heading", FormHeading),
		scenario.AssertVisible("heading"),
	}}
}

func createFormElements(env Env) scenario.Scenario {
	steps := []scenario.Step{scenario.Navigate(env.URL("create"))}
	steps = append(steps,
		scenario.Locate("name", NameField), scenario.AssertVisible("name"),
		scenario.Locate("position", PositionField), scenario.AssertVisible("position"),
	)
	for _, level := range Levels {
		alias := strings.ToLower(string(level))
		steps = append(steps, scenario.Locate(alias, level.Radio()), scenario.AssertVisible(alias))
	}
	steps = append(steps, scenario.Locate("submit", SubmitButton), scenario.AssertVisible("submit"))
	return scenario.Scenario{Name: "create_form_elements", Steps: steps}
}

func createEmployeeScenario(env Env) scenario.Scenario {
	return scenario.Scenario{
		Name:  "create_employee",
		Steps: createEmployee(env, env.Name("Test Employee"), "QA Engineer", Junior),
	}
}

func viewEmployeeList(env Env) scenario.Scenario {
	return scenario.Scenario{Name: "view_employee_list", Steps: []scenario.Step{
		scenario.Navigate(env.BaseURL),
		scenario.Locate("table", Table),
		scenario.AssertVisible("table"),
		scenario.AssertCountAtLeast(HeaderCells, len(HeaderTexts)),
		scenario.AssertHeaderTexts(HeaderTexts...),
	}}
}

func editButtonPresent(env Env) scenario.Scenario {
	name := env.Name("Edit Test")
	steps := createEmployee(env, name, "Developer", Senior)
	steps = append(steps,
		scenario.AssertCountAtLeast(EditLinks, 1),
		scenario.Locate("edit", RowAction(name, "Edit")),
		scenario.AssertVisible("edit"),
	)
	return scenario.Scenario{Name: "edit_button_present", Steps: steps}
}

func editEmployee(env Env) scenario.Scenario {
	original := env.Name("Original Name")
	updated := env.Name("Updated Name")

	steps := createEmployee(env, original, "Backend Developer", Intern)
	steps = append(steps,
		scenario.Locate("edit", RowAction(original, "Edit")),
		scenario.Click("edit"),
		scenario.AssertURLContains("/edit/"),
		scenario.Locate("name", NameField),
		scenario.Clear("name"),
		scenario.Type("name", updated),
	)
	steps = append(steps, submitForm(env)...)
	steps = append(steps,
		scenario.Reload(),
		scenario.Eventually(scenario.AssertTextContains(scenario.PageSource, updated)),
	)
	return scenario.Scenario{Name: "edit_employee", Steps: steps}
}

func deleteButtonPresent(env Env) scenario.Scenario {
	name := env.Name("Delete Test")
	steps := createEmployee(env, name, "Tester", Junior)
	steps = append(steps,
		scenario.AssertCountAtLeast(DeleteButtons, 1),
		scenario.Locate("delete", RowAction(name, "Delete")),
		scenario.AssertVisible("delete"),
	)
	return scenario.Scenario{Name: "delete_button_present", Steps: steps}
}

func deleteEmployee(env Env) scenario.Scenario {
	name := env.Name("To Delete")
	steps := createEmployee(env, name, "Temporary", Senior)
	steps = append(steps,
		scenario.CountElements("before", Rows),
		scenario.Locate("delete", RowAction(name, "Delete")),
		scenario.Click("delete"),
		scenario.AssertCountDelta("before", Rows, -1),
		scenario.Eventually(scenario.AssertTextAbsent(scenario.PageSource, name)),
	)
	return scenario.Scenario{Name: "delete_employee", Steps: steps}
}

func radioExclusivity(env Env) scenario.Scenario {
	steps := []scenario.Step{scenario.Navigate(env.URL("create"))}
	for _, level := range Levels {
		steps = append(steps, scenario.Locate(string(level), level.Radio()))
	}
	for _, chosen := range Levels {
		steps = append(steps, scenario.Click(string(chosen)))
		for _, level := range Levels {
			steps = append(steps, scenario.Eventually(scenario.AssertSelected(string(level), level == chosen)))
		}
	}
	return scenario.Scenario{Name: "radio_exclusivity", Steps: steps}
}

func formAcceptsInput(env Env) scenario.Scenario {
	return scenario.Scenario{Name: "form_accepts_input", Steps: []scenario.Step{
		scenario.Navigate(env.URL("create")),
		scenario.Locate("name", NameField),
		scenario.Locate("position", PositionField),
		scenario.Type("name", "John Doe"),
		scenario.Type("position", "Software Engineer"),
		scenario.AssertValue("name", "John Doe"),
		scenario.AssertValue("position", "Software Engineer"),
	}}
}

func createMultipleEmployees(env Env) scenario.Scenario {
	batch := []struct {
		name     string
		position string
		level    Level
	}{
		{env.Name("Alice"), "Frontend Dev", Junior},
		{env.Name("Bob"), "Backend Dev", Senior},
		{env.Name("Charlie"), "DevOps", Intern},
	}

	var steps []scenario.Step
	for _, e := range batch {
		steps = append(steps, createEmployee(env, e.name, e.position, e.level)...)
	}
	for _, e := range batch {
		steps = append(steps, scenario.Eventually(scenario.AssertTextContains(scenario.PageSource, e.name)))
	}
	return scenario.Scenario{Name: "create_multiple_employees", Steps: steps}
}

func navigateHome(env Env) scenario.Scenario {
	return scenario.Scenario{Name: "navigate_home", Steps: []scenario.Step{
		scenario.Navigate(env.URL("create")),
		scenario.AssertURLContains("/create"),
		scenario.Navigate(env.BaseURL),
		scenario.AssertURLEquals(env.Home(), env.BaseURL),
	}}
}

func browserSmoke(env Env) scenario.Scenario {
	return scenario.Scenario{Name: "browser_smoke", Steps: []scenario.Step{
		scenario.Navigate(env.SmokeURL),
		scenario.AssertTextContains(scenario.PageTitle, env.SmokeTitle),
	}}
}
