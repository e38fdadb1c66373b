package flow

import (
	"context"
	"strings"
)

// EventKind tells what the user did.
type EventKind int

const (
	EventCommand EventKind = iota + 1
	EventText
	EventDocument
	EventButton
)

func (k EventKind) String() string {
	switch k {
	case EventCommand:
		return "command"
	case EventText:
		return "text"
	case EventDocument:
		return "document"
	case EventButton:
		return "button"
	default:
		return "unknown"
	}
}

// Commands understood by the controller.
const (
	CommandStart  = "start"
	CommandHelp   = "help"
	CommandCancel = "cancel"
)

// Button payloads.
const (
	ButtonScratch        = "create_scratch"
	ButtonUpload         = "create_upload"
	ButtonReviewYes      = "review_yes"
	ButtonReviewNo       = "review_no"
	ButtonTemplatePrefix = "select_template_"
)

// Event is one inbound user action.
type Event struct {
	UserID   string
	Kind     EventKind
	Command  string
	Text     string
	Button   string
	Document *Document
}

// Document is an uploaded file. Fetch downloads its content on demand.
type Document struct {
	FileName string
	MIMEType string
	Size     int64
	Fetch    func(ctx context.Context) ([]byte, error)
}

// ParseCommand turns "/start@bot args" into "start". It returns false for non-command text.
func ParseCommand(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	cmd := strings.Fields(text[1:])
	if len(cmd) == 0 {
		return "", false
	}
	name, _, _ := strings.Cut(cmd[0], "@")
	return strings.ToLower(name), name != ""
}

// Button is an inline choice attached to a reply.
type Button struct {
	Text string
	Data string
}

// Attachment is a file sent back to the user.
type Attachment struct {
	FileName string
	Data     []byte
}

// Reply is one outbound message.
type Reply struct {
	Text       string
	Buttons    [][]Button
	Attachment *Attachment
}

// Responder delivers replies to the user who sent the event.
type Responder interface {
	Send(ctx context.Context, r Reply) error
}
