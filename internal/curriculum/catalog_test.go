package curriculum

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefault(t *testing.T) {
	c := Default()

	var names []string
	for _, s := range c.Subjects() {
		names = append(names, s.Name)
	}
	want := []string{"English", "Mathematics", "HASS", "Science", "Technologies"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("subject order mismatch (-want +got):\n%s", diff)
	}
	if c.Len() != 30 {
		t.Errorf("Len() = %d, want 30", c.Len())
	}

	d, ok := c.Lookup("AC9M6N01")
	if !ok {
		t.Fatal("AC9M6N01 not found")
	}
	if d.Subject != "Mathematics" {
		t.Errorf("Subject = %q, want Mathematics", d.Subject)
	}
	if d.Text != "Identify and use factors, multiples and prime numbers" {
		t.Errorf("unexpected descriptor text %q", d.Text)
	}
	if c.Has("AC9X0000") {
		t.Error("unknown code reported as present")
	}
}

func TestParse_YAMLKeepsOrder(t *testing.T) {
	src := `
Zoology:
  - code: Z1
    descriptor: Animals
Art:
  - code: A1
    descriptor: Colour
  - code: A2
    descriptor: Form
`
	c, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	subjects := c.Subjects()
	if len(subjects) != 2 || subjects[0].Name != "Zoology" || subjects[1].Name != "Art" {
		t.Fatalf("unexpected subjects: %+v", subjects)
	}
	if got := subjects[1].Descriptors[1].Code; got != "A2" {
		t.Errorf("descriptor order lost, got %s", got)
	}
	if s, ok := c.Subject("art"); !ok || len(s.Descriptors) != 2 {
		t.Errorf("Subject(art) = %+v, %v", s, ok)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"not a mapping", `["a", "b"]`},
		{"list expected", `{"English": "AC9E6LA01"}`},
		{"missing code", `{"English": [{"descriptor": "x"}]}`},
		{"duplicate code", `{"English": [{"code": "X1"}], "Maths": [{"code": "X1"}]}`},
		{"syntax", `{"English": [`},
		{"empty", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.src)); err == nil {
				t.Errorf("expected error for %s", tt.name)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	c, err := Load("")
	if err != nil || c.Len() != 30 {
		t.Fatalf("Load(\"\") = %v, %v", c, err)
	}

	path := filepath.Join(t.TempDir(), "catalog.json")
	if err := os.WriteFile(path, []byte(`{"Music": [{"code": "M1", "descriptor": "Rhythm"}]}`), 0644); err != nil {
		t.Fatal(err)
	}
	c, err = Load(path)
	if err != nil {
		t.Fatalf("Load(file): %v", err)
	}
	if !c.Has("M1") || c.Has("AC9M6N01") {
		t.Error("file catalog should replace the embedded one")
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSubjectsReturnsCopy(t *testing.T) {
	c := Default()
	s := c.Subjects()
	s[0].Descriptors[0].Code = "mutated"
	if !c.Has("AC9E6LA01") || c.Subjects()[0].Descriptors[0].Code != "AC9E6LA01" {
		t.Error("Subjects must not expose internal slices")
	}
}
