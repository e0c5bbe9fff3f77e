package ai_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pgregory.net/rapid"

	"github.com/cory-johannsen/fightsim/internal/game/ai"
)

func minimalDomain() *ai.Domain {
	return &ai.Domain{
		ID:    "test",
		Tasks: []*ai.Task{{ID: "behave"}},
		Methods: []*ai.Method{{
			TaskID:   "behave",
			ID:       "m1",
			Subtasks: []string{"op1"},
		}},
		Operators: []*ai.Operator{{ID: "op1", Action: "hold"}},
	}
}

func TestDomain_Validate_RejectsEmpty(t *testing.T) {
	d := &ai.Domain{}
	if err := d.Validate(); err == nil {
		t.Fatal("expected error for empty Domain")
	}
}

func TestDomain_Validate_AcceptsMinimal(t *testing.T) {
	if err := minimalDomain().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDomain_Validate_Rejections(t *testing.T) {
	cases := map[string]func(d *ai.Domain){
		"missing root":       func(d *ai.Domain) { d.Tasks[0].ID = "root"; d.Methods[0].TaskID = "root" },
		"unknown action":     func(d *ai.Domain) { d.Operators[0].Action = "uppercut" },
		"chance above one":   func(d *ai.Domain) { d.Methods[0].Chance = 1.5 },
		"negative chance":    func(d *ai.Domain) { d.Methods[0].Chance = -0.1 },
		"dangling subtask":   func(d *ai.Domain) { d.Methods[0].Subtasks = []string{"nowhere"} },
		"empty subtasks":     func(d *ai.Domain) { d.Methods[0].Subtasks = nil },
		"unknown method task": func(d *ai.Domain) { d.Methods[0].TaskID = "ghost" },
		"duplicate operator": func(d *ai.Domain) { d.Operators = append(d.Operators, &ai.Operator{ID: "op1", Action: "jab"}) },
		"duplicate task":     func(d *ai.Domain) { d.Tasks = append(d.Tasks, &ai.Task{ID: "behave"}) },
		"duplicate method": func(d *ai.Domain) {
			d.Methods = append(d.Methods, &ai.Method{TaskID: "behave", ID: "m1", Subtasks: []string{"op1"}})
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			d := minimalDomain()
			mutate(d)
			if err := d.Validate(); err == nil {
				t.Fatalf("expected validation error for %s", name)
			}
		})
	}
}

func TestDomain_OperatorByID_Found(t *testing.T) {
	d := &ai.Domain{
		Operators: []*ai.Operator{{ID: "throw_jab", Action: "jab"}},
	}
	op, ok := d.OperatorByID("throw_jab")
	if !ok || op.Action != "jab" {
		t.Fatal("expected to find operator")
	}
}

func TestDomain_OperatorByID_NotFound(t *testing.T) {
	d := &ai.Domain{}
	if _, ok := d.OperatorByID("missing"); ok {
		t.Fatal("expected not found")
	}
}

func TestDomain_MethodsForTask_ReturnsOrdered(t *testing.T) {
	d := &ai.Domain{
		Methods: []*ai.Method{
			{TaskID: "fight", ID: "m1", Subtasks: []string{"op1"}},
			{TaskID: "fight", ID: "m2", Subtasks: []string{"op2"}},
			{TaskID: "other", ID: "m3", Subtasks: []string{"op3"}},
		},
	}
	methods := d.MethodsForTask("fight")
	if len(methods) != 2 {
		t.Fatalf("expected 2 methods, got %d", len(methods))
	}
	if methods[0].ID != "m1" || methods[1].ID != "m2" {
		t.Fatalf("expected methods in declaration order [m1, m2], got [%s, %s]", methods[0].ID, methods[1].ID)
	}
}

func TestDomain_Predicates_StripsNegationAndDedupes(t *testing.T) {
	d := &ai.Domain{
		Methods: []*ai.Method{
			{ID: "a", Precondition: "!losing"},
			{ID: "b", Precondition: "losing"},
			{ID: "c", Precondition: "desperate"},
			{ID: "d"},
		},
	}
	got := d.Predicates()
	if strings.Join(got, ",") != "desperate,losing" {
		t.Fatalf("unexpected predicates %v", got)
	}
}

func TestDefaultDomain_ValidAndBuiltinOnly(t *testing.T) {
	d := ai.DefaultDomain()
	if err := d.Validate(); err != nil {
		t.Fatalf("default domain invalid: %v", err)
	}
	for _, p := range d.Predicates() {
		if !ai.IsBuiltin(p) {
			t.Fatalf("default domain uses non-builtin predicate %q", p)
		}
	}
	if ai.DefaultDomain() == d {
		t.Fatal("DefaultDomain must return a fresh copy")
	}
}

func TestLoadDomains_LoadsYAML(t *testing.T) {
	dir := t.TempDir()
	doc := `
domain:
  id: test_domain
  description: Test
  tasks:
    - id: behave
      description: root
  methods:
    - task: behave
      id: default
      chance: 0.5
      subtasks: [idle]
  operators:
    - id: idle
      action: hold
`
	if err := os.WriteFile(filepath.Join(dir, "test.yaml"), []byte(doc), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0600); err != nil {
		t.Fatal(err)
	}
	domains, err := ai.LoadDomains(dir)
	if err != nil {
		t.Fatalf("LoadDomains: %v", err)
	}
	if len(domains) != 1 || domains[0].ID != "test_domain" {
		t.Fatalf("unexpected domains: %v", domains)
	}
	if domains[0].Methods[0].Chance != 0.5 {
		t.Fatalf("chance not decoded: %v", domains[0].Methods[0].Chance)
	}
}

func TestLoadDomainFromBytes_MissingKey(t *testing.T) {
	if _, err := ai.LoadDomainFromBytes([]byte("id: x\n")); err == nil {
		t.Fatal("expected error for missing domain key")
	}
}

func TestLoadDomains_MissingDir(t *testing.T) {
	if _, err := ai.LoadDomains(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing dir")
	}
}

func TestProperty_Domain_OperatorByID_ConsistentLookup(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 5).Draw(rt, "n")
		ops := make([]*ai.Operator, n)
		ids := make([]string, n)
		for i := range ops {
			id := fmt.Sprintf("op%d", i)
			ids[i] = id
			ops[i] = &ai.Operator{ID: id, Action: "hold"}
		}
		d := &ai.Domain{Operators: ops}

		for _, id := range ids {
			op, ok := d.OperatorByID(id)
			if !ok {
				rt.Fatalf("OperatorByID(%q) returned not found, expected found", id)
			}
			if op.ID != id {
				rt.Fatalf("OperatorByID(%q) returned op with ID %q", id, op.ID)
			}
		}

		unknown := rapid.StringMatching(`[a-z_]{1,10}`).Draw(rt, "unknown")
		if _, ok := d.OperatorByID(unknown); ok {
			rt.Fatalf("OperatorByID(%q) returned found, expected not found", unknown)
		}
	})
}
