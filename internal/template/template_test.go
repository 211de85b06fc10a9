package template

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func buildTemplate() map[string]any {
	return map[string]any{
		"username": "Relevant Builds",
		"attachments": []any{
			map[string]any{
				"pretext": "New build for <project>.",
				"color":   "<color>",
				"fields": []any{
					map[string]any{"title": "Status", "value": "<status>", "short": false},
					map[string]any{"title": "Build ID", "value": "<build-id>", "short": true},
				},
			},
		},
		"count": float64(3),
		"none":  nil,
	}
}

func TestSubstitute(t *testing.T) {
	tmpl := buildTemplate()
	before, _ := json.Marshal(tmpl)

	got := Substitute(tmpl, map[string]string{
		"project":  "lambda-slack",
		"build-id": "1x2y3z4",
		"status":   "SUCCEEDED",
		"color":    "#abc8b6",
	})

	want := map[string]any{
		"username": "Relevant Builds",
		"attachments": []any{
			map[string]any{
				"pretext": "New build for lambda-slack.",
				"color":   "#abc8b6",
				"fields": []any{
					map[string]any{"title": "Status", "value": "SUCCEEDED", "short": false},
					map[string]any{"title": "Build ID", "value": "1x2y3z4", "short": true},
				},
			},
		},
		"count": float64(3),
		"none":  nil,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Substitute mismatch\n got: %#v\nwant: %#v", got, want)
	}

	after, _ := json.Marshal(tmpl)
	if string(before) != string(after) {
		t.Error("template was modified in place")
	}
	out, _ := json.Marshal(got)
	if strings.Contains(string(out), "<") {
		t.Errorf("placeholders left in output: %s", out)
	}
}

func TestSubstitute_NoSharedStructure(t *testing.T) {
	tmpl := buildTemplate()
	got := Substitute(tmpl, nil).(map[string]any)
	if !reflect.DeepEqual(got, tmpl) {
		t.Fatal("template without variables should be copied verbatim")
	}
	got["attachments"].([]any)[0].(map[string]any)["pretext"] = "changed"
	orig := tmpl["attachments"].([]any)[0].(map[string]any)["pretext"]
	if orig != "New build for <project>." {
		t.Errorf("clone shares structure with template: %v", orig)
	}
}

func TestReplacer_String(t *testing.T) {
	r := NewReplacer(map[string]string{
		"project": "lambda-slack",
		"status":  "<project>",
		"link":    "https://example.com/?a=1&b=<2>",
		"a.b":     "dot",
	})
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "no tokens here", "no tokens here"},
		{"every occurrence", "<project>/<project>", "lambda-slack/lambda-slack"},
		{"case insensitive", "<PROJECT> <Project>", "lambda-slack lambda-slack"},
		{"unknown token left", "<unknown> <project>", "<unknown> lambda-slack"},
		{"value not rescanned", "<status>", "<project>"},
		{"slack link syntax", "<<link>|View build>", "<https://example.com/?a=1&b=<2>|View build>"},
		{"regexp metachars quoted", "<a.b> <axb>", "dot <axb>"},
		{"empty string", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := r.String(tc.in); got != tc.want {
				t.Errorf("String(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestReplacer_CaseCollision(t *testing.T) {
	r := NewReplacer(map[string]string{"Name": "upper", "name": "lower"})
	if got := r.String("<NAME>"); got != "upper" {
		t.Errorf("String = %q, want the lexicographically first name's value", got)
	}
}

func TestSubstitute_Scalars(t *testing.T) {
	vars := map[string]string{"x": "1"}
	if got := Substitute("<x>", vars); got != "1" {
		t.Errorf("string root: got %v", got)
	}
	if got := Substitute(float64(2), vars); got != float64(2) {
		t.Errorf("number root: got %v", got)
	}
	if got := Substitute(true, vars); got != true {
		t.Errorf("bool root: got %v", got)
	}
	if got := Substitute(nil, vars); got != nil {
		t.Errorf("nil root: got %v", got)
	}
}

func TestNormalize(t *testing.T) {
	tmpl := map[string]any{
		"codes": map[any]any{
			200:   "<s> ok",
			true:  []any{map[any]any{1.5: "<s>"}},
			nil:   "none",
			"txt": "<s>",
		},
	}
	got := Substitute(Normalize(tmpl), map[string]string{"s": "x"})
	want := map[string]any{
		"codes": map[string]any{
			"200":  "x ok",
			"true": []any{map[string]any{"1.5": "x"}},
			"null": "none",
			"txt":  "x",
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v\nwant %#v", got, want)
	}
	if _, err := json.Marshal(got); err != nil {
		t.Errorf("normalized payload does not encode: %v", err)
	}
	if _, ok := tmpl["codes"].(map[any]any); !ok {
		t.Error("input was modified")
	}
}
