package nlp

import "errors"

var (
	ErrUnrecognizedCommand  = errors.New("command not recognized")
	ErrReadingTargetMissing = errors.New("no email is open to read")
	ErrOutOfRangeIndex      = errors.New("item number does not exist")
)

type PageKind string

const (
	PageInbox        PageKind = "gmail_inbox"
	PageSent         PageKind = "gmail_sent"
	PageCompose      PageKind = "compose"
	PageReadMail     PageKind = "read_mail"
	PageDashboard    PageKind = "dashboard"
	PageLogin        PageKind = "login"
	PageRegisterFace PageKind = "register_face"
	PageBiometric    PageKind = "biometric"
)

func (p PageKind) Valid() bool {
	switch p {
	case PageInbox, PageSent, PageCompose, PageReadMail,
		PageDashboard, PageLogin, PageRegisterFace, PageBiometric:
		return true
	}
	return false
}

// IsList reports whether the page renders an indexable list of items.
func (p PageKind) IsList() bool {
	return p == PageInbox || p == PageSent
}

type CommandKind string

const (
	CommandNavigate        CommandKind = "navigate"
	CommandReadCurrentItem CommandKind = "read_current_item"
	CommandOpenItemByIndex CommandKind = "open_item_by_index"
	CommandPauseReading    CommandKind = "pause_reading"
	CommandResumeReading   CommandKind = "resume_reading"
	CommandStopReading     CommandKind = "stop_reading"
	CommandCompose         CommandKind = "compose"
	CommandLogout          CommandKind = "logout"
	CommandGoBack          CommandKind = "go_back"
	CommandUnrecognized    CommandKind = "unrecognized"
	CommandCancelSpeech    CommandKind = "cancel_speech"
	CommandIgnore          CommandKind = "ignore"
	CommandPageAction      CommandKind = "page_action"
)

func (k CommandKind) Valid() bool {
	switch k {
	case CommandNavigate, CommandReadCurrentItem, CommandOpenItemByIndex,
		CommandPauseReading, CommandResumeReading, CommandStopReading,
		CommandCompose, CommandLogout, CommandGoBack, CommandUnrecognized,
		CommandCancelSpeech, CommandIgnore, CommandPageAction:
		return true
	}
	return false
}

// Command is the single outcome of interpreting one transcript.
// Index is meaningful only for CommandOpenItemByIndex and is -1 otherwise.
type Command struct {
	Kind    CommandKind `json:"kind"`
	Target  string      `json:"target,omitempty"`
	Index   int         `json:"index"`
	Action  string      `json:"action,omitempty"`
	Message string      `json:"message,omitempty"`
	Rule    string      `json:"rule,omitempty"`
	Err     error       `json:"-"`
	Then    *Command    `json:"then,omitempty"`
}

type EmailContext struct {
	Subject string `json:"subject"`
	From    string `json:"from"`
	Body    string `json:"body"`
}

// ReadText is the text handed to the reader for an open email.
func (e EmailContext) ReadText() string {
	return "Subject " + e.Subject + ". " + e.From + ". " + e.Body
}

type PageContext struct {
	Page  PageKind      `json:"page"`
	Email *EmailContext `json:"email,omitempty"`
	Links []string      `json:"links,omitempty"`
}

type ReadingStatus struct {
	Active bool `json:"active"`
	Paused bool `json:"paused"`
}

type IInterpreter interface {
	Interpret(transcript string, pc PageContext, rs ReadingStatus) Command
	Greeting(page PageKind) string
	Table() CommandTable
}
