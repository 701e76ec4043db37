package report

import (
	"encoding/json"
)

type jsonWriter struct{}

func (jsonWriter) Format() string    { return "json" }
func (jsonWriter) Extension() string { return "json" }

func (jsonWriter) Render(s Summary) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}
