// Package flow drives the per-user conversation that collects a CV record.
package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/spigell/cvbuilder/internal/catalog"
	"github.com/spigell/cvbuilder/internal/cv"
	"github.com/spigell/cvbuilder/internal/entry"
	"github.com/spigell/cvbuilder/internal/extraction"
	"github.com/spigell/cvbuilder/internal/logger"
	"github.com/spigell/cvbuilder/internal/render"
)

// Extractor turns document text into a validated record.
type Extractor interface {
	Extract(ctx context.Context, text string) (*cv.Record, error)
}

// TextExtractor reads the text of an uploaded file.
type TextExtractor interface {
	Supports(mimeType string) bool
	Extract(ctx context.Context, mimeType string, data []byte) (string, error)
}

// Renderer produces the final document for a validated record.
type Renderer interface {
	Render(ctx context.Context, rec *cv.Record, key render.Template) ([]byte, error)
}

// Deps are the collaborators of the controller. Extractor and Documents are
// optional; without them the upload path is reported as unavailable.
type Deps struct {
	Store     Store
	Extractor Extractor
	Documents TextExtractor
	Renderer  Renderer
	Logger    *zap.Logger
}

type Options struct {
	// MaxUploadBytes limits the size of uploaded documents.
	MaxUploadBytes int64
	// ExternalCalls bounds concurrent extraction and render calls across all users.
	ExternalCalls int64
	// ExternalTimeout bounds each file download, extraction and render call.
	ExternalTimeout time.Duration
}

const (
	DefaultMaxUploadBytes  = 20 << 20
	DefaultExternalCalls   = 4
	DefaultExternalTimeout = 2 * time.Minute
)

// Controller is the conversation state machine.
type Controller struct {
	store     Store
	extractor Extractor
	documents TextExtractor
	renderer  Renderer
	logger    *zap.Logger

	appliers map[string]entry.Apply
	locks    *keyedMutex
	external *semaphore.Weighted
	opts     Options
	now      func() time.Time
}

// NewController validates the dependencies and checks that every catalog
// section has somewhere to go: a record field for scalar sections and a
// parser for repeating ones.
func NewController(deps Deps, opts Options) (*Controller, error) {
	if deps.Store == nil {
		return nil, errors.New("session store is required")
	}
	if deps.Renderer == nil {
		return nil, errors.New("renderer is required")
	}

	appliers := entry.Appliers()
	if err := checkCatalog(appliers); err != nil {
		return nil, err
	}

	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if opts.ExternalCalls <= 0 {
		opts.ExternalCalls = DefaultExternalCalls
	}
	if opts.ExternalTimeout <= 0 {
		opts.ExternalTimeout = DefaultExternalTimeout
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	return &Controller{
		store:     deps.Store,
		extractor: deps.Extractor,
		documents: deps.Documents,
		renderer:  deps.Renderer,
		logger:    deps.Logger,
		appliers:  appliers,
		locks:     newKeyedMutex(),
		external:  semaphore.NewWeighted(opts.ExternalCalls),
		opts:      opts,
		now:       time.Now,
	}, nil
}

func checkCatalog(appliers map[string]entry.Apply) error {
	for _, section := range catalog.All() {
		switch section.Kind {
		case catalog.KindScalar:
			if !cv.HasField(section.ID) {
				return fmt.Errorf("section %q has no record field", section.ID)
			}
		case catalog.KindRepeating:
			if appliers[section.ID] == nil {
				return fmt.Errorf("section %q has no parser", section.ID)
			}
		}
	}
	return nil
}

// Handle fully processes one event under the user's lock and sends the replies
// through out. Only store failures are returned; every other problem is
// reported to the user.
func (c *Controller) Handle(ctx context.Context, ev Event, out Responder) error {
	if ev.UserID == "" {
		return errors.New("event without user id")
	}

	unlock := c.locks.Lock(ev.UserID)
	defer unlock()

	log := logger.WithFields(c.logger, logger.SessionFields(ev.UserID, "", "")...).With(
		zap.String("event_id", uuid.NewString()),
		zap.Stringer("event", ev.Kind),
	)

	sess, err := c.store.Load(ctx, ev.UserID)
	switch {
	case errors.Is(err, ErrSessionNotFound):
		sess = nil
	case err != nil:
		return fmt.Errorf("load session: %w", err)
	case sess.Record == nil:
		sess.Record = &cv.Record{}
	}

	t := &turn{c: c, ctx: ctx, out: out, log: log, userID: ev.UserID, sess: sess}
	log.Debug("event received", zap.Stringer(logger.FieldState, t.state()))

	if ev.Kind == EventCommand {
		return t.command(ev.Command)
	}

	if sess != nil && sess.State.transient() {
		if err := t.recoverInterrupted(); err != nil {
			return err
		}
	}

	switch ev.Kind {
	case EventButton:
		return t.button(ev.Button)
	case EventDocument:
		return t.document(ev.Document)
	case EventText:
		return t.text(ev.Text)
	default:
		log.Warn("unknown event kind")
		return t.reply(msgUseStart)
	}
}

// callExternal runs an outbound call under the shared concurrency limit and the call timeout.
func (c *Controller) callExternal(ctx context.Context, call func(ctx context.Context) error) error {
	if err := c.external.Acquire(ctx, 1); err != nil {
		return err
	}
	defer c.external.Release(1)

	ctx, cancel := context.WithTimeout(ctx, c.opts.ExternalTimeout)
	defer cancel()
	return call(ctx)
}

// turn is the processing of a single event.
type turn struct {
	c      *Controller
	ctx    context.Context
	out    Responder
	log    *zap.Logger
	userID string
	sess   *Session
}

func (t *turn) state() State {
	if t.sess == nil {
		return StateStart
	}
	return t.sess.State
}

func (t *turn) reply(text string, rows ...[]Button) error {
	if err := t.out.Send(t.ctx, Reply{Text: text, Buttons: rows}); err != nil {
		t.log.Warn("send reply failed", zap.Error(err))
	}
	return nil
}

func (t *turn) transition(to State) {
	if t.sess.State != to {
		t.log.Info("state changed",
			zap.Stringer("from", t.sess.State),
			zap.Stringer("to", to),
		)
	}
	t.sess.State = to
}

func (t *turn) save() error {
	t.sess.UpdatedAt = t.c.now()
	if err := t.c.store.Save(t.ctx, t.sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (t *turn) clear() error {
	if err := t.c.store.Delete(t.ctx, t.userID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	t.sess = nil
	t.log.Info("session cleared")
	return nil
}

func (t *turn) command(name string) error {
	switch name {
	case CommandStart:
		if err := t.clear(); err != nil {
			return err
		}
		t.sess = &Session{UserID: t.userID, State: StateAwaitingChoice, Record: &cv.Record{}}
		if err := t.save(); err != nil {
			return err
		}
		return t.reply(msgWelcome, mainMenu()...)
	case CommandHelp:
		return t.reply(msgHelp)
	case CommandCancel:
		if err := t.clear(); err != nil {
			return err
		}
		return t.reply(msgCancelled)
	default:
		t.log.Info("unknown command", zap.String("command", name))
		return t.reply(msgUnknownCommand)
	}
}

// recoverInterrupted moves a session left in a transient state back to the
// state that waits for the user.
func (t *turn) recoverInterrupted() error {
	from := t.sess.State
	var notice string
	switch from {
	case StateUploadParsing:
		t.transition(StateUploadAwaitFile)
		notice = msgUploadInterrupted
	case StateGeneratingOutput:
		t.transition(StateSelectingTemplate)
		notice = msgGenerationInterrupted
	case StateScratchStart:
		t.transition(StateScratchAwaitData)
	}

	t.log.Warn("recovered interrupted session", zap.Stringer("from", from))
	if err := t.save(); err != nil {
		return err
	}
	if notice != "" {
		return t.reply(notice)
	}
	return nil
}

func (t *turn) button(data string) error {
	state := t.state()
	switch {
	case data == ButtonScratch && state == StateAwaitingChoice:
		return t.startScratch()
	case data == ButtonUpload && state == StateAwaitingChoice:
		return t.requestUpload()
	case (data == ButtonReviewYes || data == ButtonReviewNo) && state == StateReviewingData:
		return t.review(data == ButtonReviewYes)
	case strings.HasPrefix(data, ButtonTemplatePrefix) && state == StateSelectingTemplate:
		return t.selectTemplate(strings.TrimPrefix(data, ButtonTemplatePrefix))
	}

	t.log.Info("button out of place",
		zap.String("button", data),
		zap.Stringer(logger.FieldState, state),
	)
	return t.reply(msgStaleButton)
}

func (t *turn) text(text string) error {
	switch t.state() {
	case StateScratchAwaitData:
		return t.scratchInput(text)
	case StateUploadAwaitFile:
		return t.reply(msgUploadExpected)
	case StateAwaitingChoice, StateReviewingData, StateSelectingTemplate:
		return t.reply(msgUseButtons)
	default:
		return t.reply(msgUseStart)
	}
}

func (t *turn) startScratch() error {
	t.sess.Record = &cv.Record{}
	t.sess.Cursor = 0
	t.transition(StateScratchStart)
	t.reply(msgScratchIntro)
	return t.askCurrent()
}

// askCurrent asks for the section under the cursor, or moves to review when
// every section has been collected.
func (t *turn) askCurrent() error {
	section, ok := catalog.At(t.sess.Cursor)
	if !ok {
		return t.toReview()
	}

	t.transition(StateScratchAwaitData)
	if err := t.save(); err != nil {
		return err
	}

	t.log.Debug("asking section", zap.String(logger.FieldSection, section.ID), zap.Int("cursor", t.sess.Cursor))
	text := section.Prompt
	if section.Kind == catalog.KindRepeating {
		text += "\n\n" + section.Hint + "\n\n" + fmt.Sprintf(msgDoneReminder, catalog.Sentinel())
	} else {
		text += "\n" + fmt.Sprintf(msgSkipReminder, catalog.Skip())
	}
	return t.reply(text)
}

func (t *turn) scratchInput(text string) error {
	section, ok := catalog.At(t.sess.Cursor)
	if !ok {
		return t.toReview()
	}
	if section.Kind == catalog.KindRepeating {
		return t.repeatingInput(section, text)
	}
	return t.scalarInput(section, text)
}

func (t *turn) scalarInput(section catalog.Section, text string) error {
	log := t.log.With(zap.String(logger.FieldSection, section.ID))
	value := strings.TrimSpace(text)

	switch {
	case value == "":
		return t.reply(fmt.Sprintf(msgEmptyInput, catalog.Skip()) + "\n\n" + section.Prompt)
	case catalog.IsSkip(value):
		log.Debug("section skipped")
	default:
		if err := t.sess.Record.Set(section.ID, value); err != nil {
			if errors.Is(err, cv.ErrUnknownField) {
				return fmt.Errorf("assign section %s: %w", section.ID, err)
			}
			log.Info("value rejected", zap.Error(err))
			return t.reply(invalidValue(err) + "\n\n" + section.Prompt)
		}
	}

	t.sess.Cursor++
	return t.askCurrent()
}

func invalidValue(err error) string {
	switch {
	case errors.Is(err, cv.ErrInvalidEmail):
		return msgInvalidEmail
	case errors.Is(err, cv.ErrInvalidURL):
		return msgInvalidURL
	default:
		return msgInvalidValue
	}
}

func (t *turn) repeatingInput(section catalog.Section, text string) error {
	log := t.log.With(zap.String(logger.FieldSection, section.ID))

	if catalog.IsSentinel(text) {
		log.Debug("section finished")
		t.sess.Cursor++
		return t.askCurrent()
	}

	outcome := t.c.appliers[section.ID](t.sess.Record, text)
	if !outcome.Accepted {
		log.Info("entry rejected", zap.String("reason", outcome.Reason))
		return t.reply(fmt.Sprintf(msgEntryRejected, outcome.Reason, section.Hint, catalog.Sentinel()))
	}

	if err := t.save(); err != nil {
		return err
	}
	log.Info("entry accepted", zap.Int("items", t.sess.Record.ItemCount()))
	return t.reply(fmt.Sprintf(msgEntryAdded, strings.ToLower(section.Title), catalog.Sentinel()))
}

// toReview validates the collected record and presents it for confirmation.
// A record that fails validation cannot be repaired by the user, so the
// session is dropped.
func (t *turn) toReview() error {
	valid, steps, err := cv.Aggregate(t.sess.Record)
	for _, step := range steps {
		t.log.Debug("filter step",
			zap.String("name", step.Name),
			zap.Int("initial", step.Initial),
			zap.Int("dropped", step.Dropped),
			zap.Int("left", step.Left),
		)
	}
	if err != nil {
		t.log.Error("record validation failed", zap.Error(err))
		if err := t.clear(); err != nil {
			return err
		}
		return t.reply(msgValidationFailed)
	}

	t.sess.Record = valid
	t.sess.Cursor = catalog.Len()
	t.transition(StateReviewingData)
	if err := t.save(); err != nil {
		return err
	}
	return t.reply(FormatReview(valid)+"\n\n"+msgReviewQuestion, reviewButtons()...)
}

func (t *turn) review(confirmed bool) error {
	if !confirmed {
		if err := t.clear(); err != nil {
			return err
		}
		return t.reply(msgReviewRejected)
	}

	t.transition(StateSelectingTemplate)
	if err := t.save(); err != nil {
		return err
	}
	return t.reply(msgChooseTemplate, templateButtons()...)
}

func (t *turn) selectTemplate(key string) error {
	info, ok := render.Lookup(key)
	if !ok {
		t.log.Warn("invalid template key", zap.String("template", key))
		return t.reply(msgInvalidTemplate, templateButtons()...)
	}

	valid, err := cv.Validate(t.sess.Record)
	if err != nil {
		t.log.Error("record validation failed before output", zap.Error(err))
		if err := t.clear(); err != nil {
			return err
		}
		return t.reply(msgValidationBeforeSend)
	}
	t.sess.Record = valid

	t.transition(StateGeneratingOutput)
	if err := t.save(); err != nil {
		return err
	}
	t.reply(fmt.Sprintf(msgGenerating, info.Name))

	var pdf []byte
	err = t.c.callExternal(t.ctx, func(ctx context.Context) error {
		var err error
		pdf, err = t.c.renderer.Render(ctx, valid, info.Key)
		return err
	})
	if err != nil {
		t.log.Error("render failed", zap.String("template", key), zap.Error(err))
		return t.backToTemplates(msgRenderFailed)
	}

	attachment := &Attachment{FileName: render.FileName(valid), Data: pdf}
	if err := t.out.Send(t.ctx, Reply{Text: msgOutputCaption, Attachment: attachment}); err != nil {
		t.log.Error("send document failed", zap.Error(err))
		return t.backToTemplates(msgSendFailed)
	}

	t.log.Info("cv delivered",
		zap.String("template", key),
		zap.String("file_name", attachment.FileName),
		zap.Int("size", len(pdf)),
	)
	return t.clear()
}

func (t *turn) backToTemplates(msg string) error {
	t.transition(StateSelectingTemplate)
	if err := t.save(); err != nil {
		return err
	}
	return t.reply(msg, templateButtons()...)
}

func (t *turn) requestUpload() error {
	if t.c.extractor == nil || t.c.documents == nil {
		return t.reply(msgUploadUnavailable, mainMenu()...)
	}

	t.sess.Record = &cv.Record{}
	t.sess.Cursor = 0
	t.transition(StateUploadAwaitFile)
	if err := t.save(); err != nil {
		return err
	}
	return t.reply(msgRequestUpload)
}

func (t *turn) document(doc *Document) error {
	if t.state() != StateUploadAwaitFile {
		return t.reply(msgUploadNotExpected)
	}
	if doc == nil || doc.Fetch == nil {
		return t.reply(msgNoDocument)
	}
	if t.c.documents == nil || t.c.extractor == nil {
		return t.reply(msgUploadUnavailable, mainMenu()...)
	}

	log := t.log.With(
		zap.String("file_name", doc.FileName),
		zap.String("mime_type", doc.MIMEType),
		zap.Int64("size", doc.Size),
	)
	if !t.c.documents.Supports(doc.MIMEType) {
		log.Info("unsupported document")
		return t.reply(msgUnsupportedFile)
	}
	if doc.Size > t.c.opts.MaxUploadBytes {
		log.Info("document too large")
		return t.reply(t.tooLarge())
	}

	t.transition(StateUploadParsing)
	if err := t.save(); err != nil {
		return err
	}
	t.reply(msgProcessing)

	fetchCtx, cancel := context.WithTimeout(t.ctx, t.c.opts.ExternalTimeout)
	data, err := doc.Fetch(fetchCtx)
	cancel()
	if err != nil {
		log.Error("document download failed", zap.Error(err))
		return t.backToUpload(msgFetchFailed)
	}
	if int64(len(data)) > t.c.opts.MaxUploadBytes {
		log.Info("document too large")
		return t.backToUpload(t.tooLarge())
	}

	readCtx, cancel := context.WithTimeout(t.ctx, t.c.opts.ExternalTimeout)
	text, err := t.c.documents.Extract(readCtx, doc.MIMEType, data)
	cancel()
	if err != nil {
		log.Warn("document text extraction failed", zap.Error(err))
		return t.backToUpload(msgUnreadableFile)
	}
	log.Debug("document text extracted",
		zap.Int("text_length", len([]rune(text))),
		zap.String("text_preview", logger.TruncateForLog(text, 120)),
	)

	var rec *cv.Record
	err = t.c.callExternal(t.ctx, func(ctx context.Context) error {
		var err error
		rec, err = t.c.extractor.Extract(ctx, text)
		return err
	})
	if err != nil {
		return t.extractionFailed(err)
	}

	t.sess.Record = rec
	t.sess.Cursor = catalog.Len()
	return t.toReview()
}

func (t *turn) tooLarge() string {
	return fmt.Sprintf(msgFileTooLarge, t.c.opts.MaxUploadBytes>>20)
}

func (t *turn) backToUpload(msg string) error {
	t.transition(StateUploadAwaitFile)
	if err := t.save(); err != nil {
		return err
	}
	return t.reply(msg)
}

// extractionFailed reports why the upload produced no record and offers both
// ways to continue.
func (t *turn) extractionFailed(err error) error {
	var (
		parseErr  *extraction.ParseError
		schemaErr *extraction.SchemaError
		msg       = msgExtractionDown
		kind      = "service"
	)
	switch {
	case errors.Is(err, extraction.ErrNoText):
		msg, kind = msgNoText, "no_text"
	case errors.As(err, &parseErr):
		msg, kind = msgUnstructured, "parse"
	case errors.As(err, &schemaErr):
		msg, kind = msgUnstructured, "schema"
	}
	t.log.Warn("extraction failed", zap.String("kind", kind), zap.Error(err))

	t.sess.Record = &cv.Record{}
	t.sess.Cursor = 0
	t.transition(StateAwaitingChoice)
	if err := t.save(); err != nil {
		return err
	}
	return t.reply(msg+"\n\n"+msgExtractionFallback, mainMenu()...)
}
