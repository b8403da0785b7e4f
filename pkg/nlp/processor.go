package nlp

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type Interpreter struct {
	table     CommandTable
	extractor *IndexExtractor
}

func NewInterpreter(table CommandTable) *Interpreter {
	return &Interpreter{
		table:     table,
		extractor: NewIndexExtractor(),
	}
}

// NewDefaultInterpreter builds an interpreter over the embedded table.
func NewDefaultInterpreter() (*Interpreter, error) {
	table, err := DefaultCommandTable()
	if err != nil {
		return nil, err
	}
	return NewInterpreter(table), nil
}

func (in *Interpreter) Table() CommandTable {
	return in.table
}

func (in *Interpreter) Greeting(page PageKind) string {
	return in.table.Greeting(page)
}

func (in *Interpreter) Interpret(transcript string, pc PageContext, rs ReadingStatus) Command {
	text := Normalize(transcript)
	if text == "" {
		return Command{Kind: CommandUnrecognized, Index: -1, Err: ErrUnrecognizedCommand}
	}

	for _, rule := range in.table.Rules {
		if !in.applies(rule, pc, rs) {
			continue
		}

		if rule.Index {
			idx, ok := in.extractor.ExtractIndex(text)
			if !ok {
				continue
			}
			return in.openItem(rule, idx, pc)
		}

		if !rule.Any && !containsAny(text, rule.Keywords) {
			continue
		}
		return in.build(rule, pc)
	}

	return Command{
		Kind:    CommandUnrecognized,
		Index:   -1,
		Message: in.table.Fallback(pc.Page),
		Err:     ErrUnrecognizedCommand,
	}
}

func (in *Interpreter) applies(rule Rule, pc PageContext, rs ReadingStatus) bool {
	switch rule.Reading {
	case ReadingActive:
		if !rs.Active {
			return false
		}
	case ReadingInactive:
		if rs.Active {
			return false
		}
	}

	if len(rule.Pages) == 0 {
		return true
	}
	for _, p := range rule.Pages {
		if p == pc.Page {
			return true
		}
	}
	return false
}

func (in *Interpreter) openItem(rule Rule, idx int, pc PageContext) Command {
	if idx < 0 || idx >= len(pc.Links) {
		return Command{
			Kind:    CommandUnrecognized,
			Index:   -1,
			Message: rule.OutOfRange,
			Rule:    rule.ID,
			Err:     ErrOutOfRangeIndex,
		}
	}

	return Command{
		Kind:    CommandOpenItemByIndex,
		Target:  pc.Links[idx],
		Index:   idx,
		Message: strings.ReplaceAll(rule.Message, "{n}", strconv.Itoa(idx+1)),
		Rule:    rule.ID,
	}
}

func (in *Interpreter) build(rule Rule, pc PageContext) Command {
	cmd := commandFromRule(rule)

	if cmd.Kind == CommandReadCurrentItem && pc.Email == nil {
		cmd.Message = rule.Missing
		cmd.Err = ErrReadingTargetMissing
	}
	return cmd
}

func commandFromRule(rule Rule) Command {
	cmd := Command{
		Kind:    rule.Command,
		Target:  rule.Target,
		Index:   -1,
		Action:  rule.Action,
		Message: rule.Message,
		Rule:    rule.ID,
	}
	if rule.Then != nil {
		then := commandFromRule(*rule.Then)
		cmd.Then = &then
	}
	return cmd
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// Normalize lower-cases text, strips accents, turns punctuation into
// spaces and collapses whitespace.
func Normalize(text string) string {
	text = strings.ToLower(text)

	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn), norm.NFC)
	result, _, _ := transform.String(t, text)

	result = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, result)

	return strings.Join(strings.Fields(result), " ")
}

func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}
