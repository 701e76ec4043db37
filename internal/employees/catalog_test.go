package employees

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/emsuite/internal/browser"
	"github.com/ternarybob/emsuite/internal/common"
	"github.com/ternarybob/emsuite/internal/scenario"
)

const testBase = "http://ems.test:5173"

func testConfig() *common.Config {
	config := common.NewDefaultConfig()
	config.App.BaseURL = testBase + "/"
	config.Timeouts.ExplicitWaitSeconds = 1
	config.Timeouts.SettleSeconds = 1
	return config
}

func testEnv(t *testing.T) Env {
	t.Helper()
	return NewEnv(testConfig(), time.UnixMilli(1700000000123))
}

func newExecutor() *scenario.Executor {
	return scenario.NewExecutor(testConfig(), arbor.NewLogger()).WithPollInterval(time.Millisecond)
}

func TestCatalog_NamesAreUniqueAndBuildMatchingScenarios(t *testing.T) {
	env := testEnv(t)
	seen := make(map[string]bool)

	for _, def := range Catalog() {
		assert.False(t, seen[def.Name], "duplicate scenario %s", def.Name)
		seen[def.Name] = true

		sc := def.Build(env)
		assert.Equal(t, def.Name, sc.Name)
		assert.NotEmpty(t, sc.Steps)

		found, ok := Lookup(def.Name)
		require.True(t, ok)
		assert.Equal(t, def.Name, found.Name)
	}

	assert.Len(t, seen, 15)
	_, ok := Lookup("no_such_scenario")
	assert.False(t, ok)
}

func TestCatalog_OnlyCountBasedDeleteIsSequential(t *testing.T) {
	for _, def := range Catalog() {
		assert.Equal(t, def.Name == "delete_employee", def.Sequential, def.Name)
	}
}

func TestCatalog_AllScenariosPassAgainstFakeApp(t *testing.T) {
	for _, def := range Catalog() {
		t.Run(def.Name, func(t *testing.T) {
			app := newFakeApp(testBase)
			app.seed("Existing Person")

			result := newExecutor().Run(app, def.Build(testEnv(t)))
			assert.True(t, result.Passed, "%s: %s", def.Name, result.FailureReason)
		})
	}
}

func TestCreateEmployee_RoundTrip(t *testing.T) {
	app := newFakeApp(testBase)
	env := testEnv(t)

	result := newExecutor().Run(app, createEmployeeScenario(env))
	require.True(t, result.Passed, result.FailureReason)

	assert.True(t, app.has("Test Employee 1700000000123"))
	source, _ := app.PageSource()
	assert.Contains(t, source, "Test Employee 1700000000123")
}

func TestEditEmployee_TargetsRowByName(t *testing.T) {
	app := newFakeApp(testBase)
	app.seed("Original Name 1", "Someone Else")
	env := testEnv(t)

	result := newExecutor().Run(app, editEmployee(env))
	require.True(t, result.Passed, result.FailureReason)

	assert.True(t, app.has(env.Name("Updated Name")))
	assert.False(t, app.has(env.Name("Original Name")))
	assert.True(t, app.has("Original Name 1"), "unrelated rows must be untouched")
	assert.True(t, app.has("Someone Else"))
}

func TestDeleteEmployee_RemovesExactlyOneRow(t *testing.T) {
	for _, lag := range []int{0, 3} {
		app := newFakeApp(testBase)
		app.seed("A", "B", "C")
		app.deleteLag = lag
		env := testEnv(t)

		result := newExecutor().Run(app, deleteEmployee(env))
		require.True(t, result.Passed, "lag %d: %s", lag, result.FailureReason)

		assert.Len(t, app.employees, 3)
		assert.False(t, app.has(env.Name("To Delete")))
	}
}

func TestReadOnlyScenarios_AreIdempotent(t *testing.T) {
	app := newFakeApp(testBase)
	app.seed("Existing Person")
	env := testEnv(t)

	for _, build := range []func(Env) scenario.Scenario{viewEmployeeList, createFormElements} {
		first := newExecutor().Run(app, build(env))
		second := newExecutor().Run(app, build(env))
		assert.Equal(t, first.Passed, second.Passed)
		assert.True(t, first.Passed, first.FailureReason)
		assert.Len(t, app.employees, 1)
	}
}

// stickyRadios reports every clicked radio as still selected
type stickyRadios struct {
	*fakeApp
	clicked map[string]bool
}

func (s *stickyRadios) Click(el browser.Element) error {
	s.clicked[el.Selector.Value] = true
	return s.fakeApp.Click(el)
}

func (s *stickyRadios) IsSelected(el browser.Element) (bool, error) {
	return s.clicked[el.Selector.Value], nil
}

func TestRadioExclusivity_DetectsMultipleSelections(t *testing.T) {
	app := &stickyRadios{fakeApp: newFakeApp(testBase), clicked: make(map[string]bool)}

	result := newExecutor().Run(app, radioExclusivity(testEnv(t)))
	require.False(t, result.Passed)
	assert.Equal(t, scenario.KindAssertionFailed, result.FailureKind)
	assert.Equal(t, "false", result.Expected)
	assert.Equal(t, "true", result.Actual)
}

func TestCreateEmployee_MissingRedirectFails(t *testing.T) {
	app := &noRedirect{fakeApp: newFakeApp(testBase)}

	result := newExecutor().Run(app, createEmployeeScenario(testEnv(t)))
	require.False(t, result.Passed)
	assert.Equal(t, scenario.KindAssertionFailed, result.FailureKind)
	assert.Equal(t, testBase+"/", result.Expected)
	assert.Equal(t, testBase+"/create", result.Actual)
}

// noRedirect keeps the browser on the form after submit
type noRedirect struct {
	*fakeApp
}

func (n *noRedirect) Click(el browser.Element) error {
	if el.Selector == SubmitButton {
		return nil
	}
	return n.fakeApp.Click(el)
}

func TestEnv(t *testing.T) {
	env := testEnv(t)
	assert.Equal(t, testBase, env.BaseURL)
	assert.Equal(t, testBase+"/", env.Home())
	assert.Equal(t, testBase+"/create", env.URL("/create"))
	assert.Equal(t, "Alice 1700000000123", env.Name("Alice"))
}
