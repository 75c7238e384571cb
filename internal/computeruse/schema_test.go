package computeruse

import (
	"encoding/json"
	"sort"
	"strings"
	"testing"
)

func TestSchemaRequiredFields(t *testing.T) {
	tests := map[ActionName][]string{
		ActionClick:  {"x", "y"},
		ActionDrag:   {"from_x", "from_y", "to_x", "to_y"},
		ActionScroll: {"direction"},
		ActionType:   {"text"},
		ActionKey:    {"keys"},
	}
	for name, wantRequired := range tests {
		t.Run(string(name), func(t *testing.T) {
			raw, err := Schema(name)
			if err != nil {
				t.Fatalf("Schema() error = %v", err)
			}
			var doc struct {
				Type       string                     `json:"type"`
				Required   []string                   `json:"required"`
				Properties map[string]json.RawMessage `json:"properties"`
			}
			if err := json.Unmarshal(raw, &doc); err != nil {
				t.Fatalf("invalid schema json: %v", err)
			}
			if doc.Type != "object" {
				t.Errorf("type = %q, want object", doc.Type)
			}
			got := append([]string(nil), doc.Required...)
			sort.Strings(got)
			want := append([]string(nil), wantRequired...)
			sort.Strings(want)
			if strings.Join(got, ",") != strings.Join(want, ",") {
				t.Errorf("required = %v, want %v", got, want)
			}
			for _, field := range wantRequired {
				if _, ok := doc.Properties[field]; !ok {
					t.Errorf("missing property %q", field)
				}
			}
		})
	}
}

func TestSchemaOptionalFieldsPresent(t *testing.T) {
	raw, err := Schema(ActionClick)
	if err != nil {
		t.Fatal(err)
	}
	for _, field := range []string{`"button"`, `"double"`} {
		if !strings.Contains(string(raw), field) {
			t.Errorf("click schema missing %s: %s", field, raw)
		}
	}
}

func TestSchemaUnknownAction(t *testing.T) {
	_, err := Schema("computer_zoom")
	requireKind(t, err, KindUnsupportedAction)
}

func TestDescriptionsAndInstructions(t *testing.T) {
	for _, name := range ActionNames {
		if Description(name) == "" {
			t.Errorf("missing description for %s", name)
		}
		if !strings.Contains(Instructions, string(name)) {
			t.Errorf("instructions do not mention %s", name)
		}
	}
	if !strings.Contains(Instructions, "1280x720") || !strings.Contains(Instructions, "confirm") {
		t.Error("instructions must describe the viewport and the confirm rule")
	}
}
