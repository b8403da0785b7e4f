package nlp

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

//go:embed commands.yaml
var defaultTableYAML []byte

const defaultPageKey PageKind = "default"

const (
	ReadingAny      = ""
	ReadingActive   = "active"
	ReadingInactive = "inactive"
)

var ErrInvalidCommandTable = errors.New("invalid command table")

type Rule struct {
	ID         string      `yaml:"id" json:"id"`
	Keywords   []string    `yaml:"keywords,omitempty" json:"keywords,omitempty"`
	Pages      []PageKind  `yaml:"pages,omitempty" json:"pages,omitempty"`
	Reading    string      `yaml:"reading,omitempty" json:"reading,omitempty"`
	Any        bool        `yaml:"any,omitempty" json:"any,omitempty"`
	Index      bool        `yaml:"index,omitempty" json:"index,omitempty"`
	Command    CommandKind `yaml:"command" json:"command"`
	Target     string      `yaml:"target,omitempty" json:"target,omitempty"`
	Action     string      `yaml:"action,omitempty" json:"action,omitempty"`
	Message    string      `yaml:"message,omitempty" json:"message,omitempty"`
	Missing    string      `yaml:"missing,omitempty" json:"missing,omitempty"`
	OutOfRange string      `yaml:"out_of_range,omitempty" json:"out_of_range,omitempty"`
	Then       *Rule       `yaml:"then,omitempty" json:"then,omitempty"`
}

// ActionResult is spoken when the page reports the outcome of a page
// action. A non-empty Target navigates away afterwards.
type ActionResult struct {
	Message string `yaml:"message" json:"message"`
	Target  string `yaml:"target,omitempty" json:"target,omitempty"`
}

type CommandTable struct {
	Rules     []Rule                             `yaml:"rules" json:"rules"`
	Fallbacks map[PageKind]string                `yaml:"fallbacks" json:"fallbacks"`
	Greetings map[PageKind]string                `yaml:"greetings" json:"greetings"`
	Results   map[string]map[string]ActionResult `yaml:"results,omitempty" json:"results,omitempty"`
}

// DefaultCommandTable parses the table compiled into the binary.
func DefaultCommandTable() (CommandTable, error) {
	return ParseCommandTable(defaultTableYAML)
}

// LoadCommandTable reads a table from path on fs, or returns the default
// table when path is empty.
func LoadCommandTable(fs afero.Fs, path string) (CommandTable, error) {
	if path == "" {
		return DefaultCommandTable()
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return CommandTable{}, fmt.Errorf("read command table %s: %w", path, err)
	}

	table, err := ParseCommandTable(data)
	if err != nil {
		return CommandTable{}, fmt.Errorf("load command table %s: %w", path, err)
	}
	return table, nil
}

func ParseCommandTable(data []byte) (CommandTable, error) {
	var table CommandTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return CommandTable{}, fmt.Errorf("%w: %v", ErrInvalidCommandTable, err)
	}

	table.normalize()
	if err := table.Validate(); err != nil {
		return CommandTable{}, err
	}
	return table, nil
}

func (t *CommandTable) normalize() {
	for i := range t.Rules {
		t.Rules[i].normalize()
	}
	if t.Fallbacks == nil {
		t.Fallbacks = map[PageKind]string{}
	}
	if t.Greetings == nil {
		t.Greetings = map[PageKind]string{}
	}
	if t.Results == nil {
		t.Results = map[string]map[string]ActionResult{}
	}
}

func (r *Rule) normalize() {
	for i, kw := range r.Keywords {
		r.Keywords[i] = Normalize(kw)
	}
	if r.Then != nil {
		r.Then.normalize()
	}
}

func (t CommandTable) Validate() error {
	if len(t.Rules) == 0 {
		return fmt.Errorf("%w: no rules", ErrInvalidCommandTable)
	}

	seen := make(map[string]bool, len(t.Rules))
	for i, r := range t.Rules {
		if r.ID == "" {
			return fmt.Errorf("%w: rule %d has no id", ErrInvalidCommandTable, i)
		}
		if seen[r.ID] {
			return fmt.Errorf("%w: duplicate rule id %q", ErrInvalidCommandTable, r.ID)
		}
		seen[r.ID] = true

		if err := r.validate(); err != nil {
			return fmt.Errorf("%w: rule %q: %v", ErrInvalidCommandTable, r.ID, err)
		}
	}

	for page := range t.Fallbacks {
		if page != defaultPageKey && !page.Valid() {
			return fmt.Errorf("%w: fallback for unknown page %q", ErrInvalidCommandTable, page)
		}
	}
	for page := range t.Greetings {
		if page != defaultPageKey && !page.Valid() {
			return fmt.Errorf("%w: greeting for unknown page %q", ErrInvalidCommandTable, page)
		}
	}
	for action, statuses := range t.Results {
		for status, res := range statuses {
			if strings.TrimSpace(res.Message) == "" {
				return fmt.Errorf("%w: result %s/%s has no message", ErrInvalidCommandTable, action, status)
			}
		}
	}
	return nil
}

func (r Rule) validate() error {
	if !r.Command.Valid() {
		return fmt.Errorf("unknown command %q", r.Command)
	}
	if !r.Any && !r.Index && len(r.Keywords) == 0 {
		return errors.New("rule needs keywords, any or index")
	}
	for _, kw := range r.Keywords {
		if strings.TrimSpace(kw) == "" {
			return errors.New("empty keyword")
		}
	}
	for _, p := range r.Pages {
		if !p.Valid() {
			return fmt.Errorf("unknown page %q", p)
		}
	}

	switch r.Reading {
	case ReadingAny, ReadingActive, ReadingInactive:
	default:
		return fmt.Errorf("unknown reading filter %q", r.Reading)
	}

	switch r.Command {
	case CommandNavigate, CommandCompose, CommandLogout, CommandGoBack:
		if r.Target == "" {
			return errors.New("navigation command needs a target")
		}
	case CommandPageAction:
		if r.Action == "" {
			return errors.New("page action needs an action")
		}
	case CommandOpenItemByIndex:
		if !r.Index {
			return errors.New("open_item_by_index needs index: true")
		}
	}

	if r.Then != nil {
		if r.Then.Then != nil {
			return errors.New("follow-up commands cannot be chained")
		}
		if !r.Then.Command.Valid() {
			return fmt.Errorf("unknown follow-up command %q", r.Then.Command)
		}
		if r.Then.Command == CommandNavigate && r.Then.Target == "" {
			return errors.New("follow-up navigation needs a target")
		}
	}
	return nil
}

// Fallback is the prompt spoken for an unrecognized transcript on page.
func (t CommandTable) Fallback(page PageKind) string {
	if msg, ok := t.Fallbacks[page]; ok {
		return msg
	}
	return t.Fallbacks[defaultPageKey]
}

func (t CommandTable) Greeting(page PageKind) string {
	if msg, ok := t.Greetings[page]; ok {
		return msg
	}
	return t.Greetings[defaultPageKey]
}

// Result looks up what to say when action finished with status.
func (t CommandTable) Result(action, status string) (ActionResult, bool) {
	res, ok := t.Results[action][status]
	return res, ok
}
