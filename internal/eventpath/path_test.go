package eventpath

import (
	"errors"
	"testing"
)

func sampleEvent() map[string]any {
	return map[string]any{
		"alpha": "α",
		"nested": map[string]any{
			"beta": "β",
			"deeper": map[string]any{
				"gamma": "γ",
				"evenDeeper": map[string]any{
					"delta": "δ",
				},
			},
		},
		"count":   float64(3),
		"nothing": nil,
	}
}

func TestExtract(t *testing.T) {
	cases := []struct {
		path   string
		want   any
		wantOK bool
	}{
		{"$.alpha", "α", true},
		{"$.nested.beta", "β", true},
		{"$.nested.deeper.gamma", "γ", true},
		{"$.nested.deeper.evenDeeper.delta", "δ", true},
		{"$.count", float64(3), true},
		{"$.nothing", nil, true},
		{"$.missing", nil, false},
		{"$.alpha.beyond", nil, false},
		{"$.nothing.beyond", nil, false},
		{"$.nested.missing.delta", nil, false},
	}
	ev := sampleEvent()
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			got, ok, err := Extract(ev, tc.path)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			if got != tc.want {
				t.Errorf("Extract(%q) = %v, want %v", tc.path, got, tc.want)
			}
		})
	}
}

func TestExtract_EmptySegments(t *testing.T) {
	ev := sampleEvent()
	ev[""] = "blank"
	ev["nested"].(map[string]any)[""] = map[string]any{"beta": "hidden"}

	cases := []struct {
		path   string
		want   any
		wantOK bool
	}{
		{"$", nil, false},
		{"$alpha", nil, false},
		{"$.", "blank", true},
		{"$.nested..beta", "hidden", true},
		{"$.alpha..beta", nil, false},
		{"$.nested.beta.", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			got, ok, err := Extract(ev, tc.path)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok != tc.wantOK || got != tc.want {
				t.Errorf("Extract(%q) = %v, %v; want %v, %v", tc.path, got, ok, tc.want, tc.wantOK)
			}
		})
	}

	if _, ok, _ := Extract(map[string]any{"a": map[string]any{"b": 1}}, "$.a..b"); ok {
		t.Error("$.a..b must not collapse to $.a.b")
	}
}

func TestExtract_MalformedPath(t *testing.T) {
	for _, p := range []string{"alpha", "", ".alpha", "alpha.$"} {
		t.Run(p, func(t *testing.T) {
			_, _, err := Extract(map[string]any{"alpha": "α"}, p)
			var mpe *MalformedPathError
			if !errors.As(err, &mpe) {
				t.Fatalf("expected MalformedPathError, got %v", err)
			}
			if mpe.Path != p {
				t.Errorf("error path = %q, want %q", mpe.Path, p)
			}
		})
	}
}

func TestExtract_NonMapRoot(t *testing.T) {
	if _, ok, err := Extract("scalar", "$.a"); err != nil || ok {
		t.Errorf("expected absent without error, got ok=%v err=%v", ok, err)
	}
	if _, ok, err := Extract(nil, "$.a"); err != nil || ok {
		t.Errorf("expected absent without error on nil root, got ok=%v err=%v", ok, err)
	}
}

func TestPath_Segments(t *testing.T) {
	p := MustParse("$.detail.build-status")
	segs := p.Segments()
	if len(segs) != 2 || segs[0] != "detail" || segs[1] != "build-status" {
		t.Fatalf("unexpected segments %v", segs)
	}
	segs[0] = "mutated"
	if p.Segments()[0] != "detail" {
		t.Error("Segments must return a copy")
	}
	if got := MustParse("$.a..b").Segments(); len(got) != 3 || got[1] != "" {
		t.Errorf("empty segment dropped: %q", got)
	}
	if got := MustParse("$").Segments(); len(got) != 0 {
		t.Errorf("$ segments = %q", got)
	}
	if p.String() != "$.detail.build-status" {
		t.Errorf("String() = %q", p.String())
	}
}
