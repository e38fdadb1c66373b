// Package terminal runs the conversation in a local terminal for one user.
package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/manifoldco/promptui"
	"go.uber.org/zap"

	"github.com/spigell/cvbuilder/internal/document"
	"github.com/spigell/cvbuilder/internal/flow"
)

const (
	userID = "local"
	// uploadPrefix marks a line as a path to upload, e.g. "@./cv.pdf".
	uploadPrefix = "@"
)

// Handler processes one conversation event.
type Handler interface {
	Handle(ctx context.Context, ev flow.Event, out flow.Responder) error
}

// Chooser asks the user to pick one of the labels. It returns the index.
type Chooser func(label string, items []string) (int, error)

type Console struct {
	in     *bufio.Reader
	out    io.Writer
	outDir string
	choose Chooser
	logger *zap.Logger

	mu      sync.Mutex
	buttons []flow.Button
}

// New creates a console reading from in and writing to out. Generated files
// are written to outDir.
func New(in io.Reader, out io.Writer, outDir string, logger *zap.Logger) *Console {
	return NewWithChooser(in, out, outDir, logger, selectPrompt)
}

func NewWithChooser(in io.Reader, out io.Writer, outDir string, logger *zap.Logger, choose Chooser) *Console {
	if outDir == "" {
		outDir = "."
	}
	return &Console{
		in:     bufio.NewReader(in),
		out:    out,
		outDir: outDir,
		choose: choose,
		logger: logger,
	}
}

func selectPrompt(label string, items []string) (int, error) {
	prompt := promptui.Select{
		Label: label,
		Items: items,
		Size:  len(items),
	}
	i, _, err := prompt.Run()
	return i, err
}

// Run starts a conversation and feeds input lines and button choices to the
// handler until the input ends or ctx is cancelled.
func (c *Console) Run(ctx context.Context, h Handler) error {
	ev := flow.Event{UserID: userID, Kind: flow.EventCommand, Command: flow.CommandStart}
	for {
		if err := h.Handle(ctx, ev, c); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}

		next, err := c.next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		ev = next
	}
}

// next reads the following event: a button choice when the last reply
// offered buttons, otherwise a line of input.
func (c *Console) next() (flow.Event, error) {
	if buttons := c.takeButtons(); len(buttons) > 0 {
		items := make([]string, 0, len(buttons))
		for _, b := range buttons {
			items = append(items, b.Text)
		}
		i, err := c.choose("Choose an option", items)
		switch {
		case err == nil:
			return flow.Event{UserID: userID, Kind: flow.EventButton, Button: buttons[i].Data}, nil
		case errors.Is(err, promptui.ErrInterrupt), errors.Is(err, promptui.ErrEOF):
			return flow.Event{}, io.EOF
		default:
			c.logger.Debug("selection unavailable, reading a line", zap.Error(err))
		}
	}

	for {
		line, err := c.in.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if err != nil && line == "" {
			return flow.Event{}, err
		}
		if strings.TrimSpace(line) == "" && err == nil {
			continue
		}
		return c.parseLine(line), nil
	}
}

func (c *Console) parseLine(line string) flow.Event {
	trimmed := strings.TrimSpace(line)
	if cmd, ok := flow.ParseCommand(trimmed); ok {
		return flow.Event{UserID: userID, Kind: flow.EventCommand, Command: cmd}
	}
	if path, ok := strings.CutPrefix(trimmed, uploadPrefix); ok && path != "" {
		return flow.Event{UserID: userID, Kind: flow.EventDocument, Document: localDocument(path)}
	}
	return flow.Event{UserID: userID, Kind: flow.EventText, Text: line}
}

func localDocument(path string) *flow.Document {
	doc := &flow.Document{
		FileName: filepath.Base(path),
		MIMEType: document.DetectMIME(path),
		Fetch: func(context.Context) ([]byte, error) {
			return os.ReadFile(path)
		},
	}
	if info, err := os.Stat(path); err == nil {
		doc.Size = info.Size()
	}
	return doc
}

func (c *Console) takeButtons() []flow.Button {
	c.mu.Lock()
	defer c.mu.Unlock()
	buttons := c.buttons
	c.buttons = nil
	return buttons
}

// Send prints the reply. Attachments are saved to the output directory.
func (c *Console) Send(_ context.Context, r flow.Reply) error {
	if r.Attachment != nil {
		path := filepath.Join(c.outDir, filepath.Base(r.Attachment.FileName))
		if err := os.WriteFile(path, r.Attachment.Data, 0o644); err != nil {
			return fmt.Errorf("save %s: %w", r.Attachment.FileName, err)
		}
		c.logger.Info("document saved", zap.String("path", path))
		_, err := fmt.Fprintf(c.out, "%s\n[saved to %s]\n\n", r.Text, path)
		return err
	}

	if _, err := fmt.Fprintf(c.out, "%s\n\n", r.Text); err != nil {
		return err
	}

	var buttons []flow.Button
	for _, row := range r.Buttons {
		buttons = append(buttons, row...)
	}
	c.mu.Lock()
	c.buttons = buttons
	c.mu.Unlock()
	return nil
}
