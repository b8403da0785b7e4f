package nlp

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
)

func TestDefaultCommandTable(t *testing.T) {
	table, err := DefaultCommandTable()
	if err != nil {
		t.Fatalf("default table: %v", err)
	}
	if len(table.Rules) == 0 {
		t.Fatal("expected rules")
	}
	if table.Rules[0].Reading != ReadingActive {
		t.Errorf("expected reading rules first, got %q", table.Rules[0].ID)
	}
	if table.Fallback(PageInbox) != "Command not recognized" {
		t.Errorf("unexpected inbox fallback %q", table.Fallback(PageInbox))
	}
}

func TestLoadCommandTable_FromFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	doc := `
rules:
  - id: hello
    keywords: [Hello There]
    command: navigate
    target: /dashboard
    message: Hi
fallbacks:
  default: Say hello
`
	if err := afero.WriteFile(fs, "/etc/voxmail/commands.yaml", []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := LoadCommandTable(fs, "/etc/voxmail/commands.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := table.Rules[0].Keywords[0]; got != "hello there" {
		t.Errorf("expected normalized keyword, got %q", got)
	}

	in := NewInterpreter(table)
	cmd := in.Interpret("HELLO, there!", PageContext{Page: PageLogin}, ReadingStatus{})
	if cmd.Kind != CommandNavigate || cmd.Target != "/dashboard" {
		t.Errorf("unexpected command %+v", cmd)
	}
	cmd = in.Interpret("bye", PageContext{Page: PageLogin}, ReadingStatus{})
	if cmd.Message != "Say hello" {
		t.Errorf("unexpected fallback %q", cmd.Message)
	}
	if in.Greeting(PageLogin) != "" {
		t.Errorf("expected empty greeting, got %q", in.Greeting(PageLogin))
	}
}

func TestLoadCommandTable_EmptyPathUsesDefault(t *testing.T) {
	table, err := LoadCommandTable(afero.NewMemMapFs(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	def, _ := DefaultCommandTable()
	if len(table.Rules) != len(def.Rules) {
		t.Errorf("expected %d rules, got %d", len(def.Rules), len(table.Rules))
	}
}

func TestLoadCommandTable_MissingFile(t *testing.T) {
	if _, err := LoadCommandTable(afero.NewMemMapFs(), "/missing.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParseCommandTable_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"malformed yaml", "rules: [:"},
		{"no rules", "fallbacks:\n  default: x\n"},
		{"missing id", "rules:\n  - keywords: [a]\n    command: compose\n    target: /c\n"},
		{"duplicate id", "rules:\n  - id: a\n    keywords: [a]\n    command: ignore\n  - id: a\n    keywords: [b]\n    command: ignore\n"},
		{"unknown command", "rules:\n  - id: a\n    keywords: [a]\n    command: fly\n"},
		{"no matcher", "rules:\n  - id: a\n    command: ignore\n"},
		{"navigate without target", "rules:\n  - id: a\n    keywords: [a]\n    command: navigate\n"},
		{"action without name", "rules:\n  - id: a\n    keywords: [a]\n    command: page_action\n"},
		{"open without index", "rules:\n  - id: a\n    keywords: [a]\n    command: open_item_by_index\n"},
		{"unknown page", "rules:\n  - id: a\n    pages: [nowhere]\n    keywords: [a]\n    command: ignore\n"},
		{"unknown reading", "rules:\n  - id: a\n    reading: sometimes\n    keywords: [a]\n    command: ignore\n"},
		{"unknown fallback page", "rules:\n  - id: a\n    keywords: [a]\n    command: ignore\nfallbacks:\n  nowhere: x\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCommandTable([]byte(tt.doc))
			if !errors.Is(err, ErrInvalidCommandTable) {
				t.Errorf("expected ErrInvalidCommandTable, got %v", err)
			}
		})
	}
}

func TestCommandTable_Result(t *testing.T) {
	table, err := DefaultCommandTable()
	if err != nil {
		t.Fatal(err)
	}

	res, ok := table.Result("verify", "success")
	if !ok || res.Target != "/dashboard" {
		t.Errorf("unexpected verify success result %+v", res)
	}
	res, ok = table.Result("verify", "not_found")
	if !ok || res.Message != "Face not recognized. Say retake or register." || res.Target != "" {
		t.Errorf("unexpected verify not_found result %+v", res)
	}
	if _, ok := table.Result("verify", "bogus"); ok {
		t.Error("expected unknown status to be missing")
	}
	if _, ok := table.Result("bogus", "success"); ok {
		t.Error("expected unknown action to be missing")
	}
}

func TestParseCommandTable_ResultWithoutMessage(t *testing.T) {
	doc := "rules:\n  - id: a\n    keywords: [a]\n    command: ignore\nresults:\n  verify:\n    success:\n      target: /x\n"
	if _, err := ParseCommandTable([]byte(doc)); !errors.Is(err, ErrInvalidCommandTable) {
		t.Errorf("expected ErrInvalidCommandTable, got %v", err)
	}
}
