package interview

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Generator produces one text completion for a prompt. A failed call surfaces
// immediately; the coordinator never retries it.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Store is the transcript store collaborator. Create assigns the session id;
// the update calls are last-write-wins partial writes.
type Store interface {
	Create(ctx context.Context, role, techStack string, messages []Message) (*Session, error)
	UpdateMessages(ctx context.Context, id string, messages []Message) error
	UpdateFeedback(ctx context.Context, id string, feedback string) error
}

// Speaker plays synthesized speech. Speak supersedes the current utterance and
// invokes done exactly once if the new utterance plays to completion.
type Speaker interface {
	Speak(text string, done func())
	Cancel()
}

// Capturer performs one-shot speech capture.
type Capturer interface {
	Capture(ctx context.Context) (string, error)
}

// Motion is the proctoring sampler the coordinator must stop when the session
// ends or restarts.
type Motion interface {
	Stop()
}

// Config carries the collaborators for one Coordinator. Store and Generator
// are required; the rest are optional.
type Config struct {
	Store         Store
	Generator     Generator
	Speaker       Speaker
	Capturer      Capturer
	Motion        Motion
	CandidateName string
	Logger        *zap.Logger
}

// Coordinator owns one Session and its Phase, and is the only component that
// mutates them. All awaited work (generation, persistence, capture, playback
// completion) runs outside its lock and is fenced by an epoch: results arriving
// after Restart or Close are discarded, never applied.
type Coordinator struct {
	store      Store
	gen        Generator
	speaker    Speaker
	capturer   Capturer
	motion     Motion
	name       string
	log        *zap.Logger
	genTimeout time.Duration

	mu    sync.Mutex
	phase Phase
	sess  *Session
	epoch uint64
	// busy guards the single in-flight generation/persistence pipeline.
	busy bool
	// greetingDone records that the greeting finished playing; the first
	// user turn needs both it and the first question.
	greetingDone bool
	closed       bool
}

// NewCoordinator constructs a Coordinator in Setup phase.
func NewCoordinator(cfg Config) *Coordinator {
	c := &Coordinator{
		store:      cfg.Store,
		gen:        cfg.Generator,
		speaker:    cfg.Speaker,
		capturer:   cfg.Capturer,
		motion:     cfg.Motion,
		name:       cfg.CandidateName,
		log:        cfg.Logger,
		genTimeout: 20 * time.Second,
		phase:      PhaseSetup,
	}
	if c.speaker == nil {
		c.speaker = nopSpeaker{}
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	return c
}

// StartSession validates the selection, persists a new session whose transcript
// holds the greeting, speaks the greeting and requests the first question
// asynchronously. A question-generation failure does not roll the session back.
func (c *Coordinator) StartSession(ctx context.Context, role, techStack string) (Snapshot, error) {
	role = strings.TrimSpace(role)
	techStack = strings.TrimSpace(techStack)
	if role == "" || techStack == "" {
		return Snapshot{}, &ValidationError{Msg: "please select a role and tech stack"}
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Snapshot{}, ErrNoSession
	}
	if c.sess != nil || c.phase != PhaseSetup {
		c.mu.Unlock()
		return Snapshot{}, &ValidationError{Msg: "a session is already in progress"}
	}
	greeting := newMessage(SenderAI, greetingText(c.name, role, techStack))
	c.mu.Unlock()

	stored, err := c.store.Create(ctx, role, techStack, []Message{greeting})
	if err != nil {
		return Snapshot{}, &UpstreamError{Op: "create session", Err: err}
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Snapshot{}, ErrNoSession
	}
	c.sess = stored
	c.phase = PhaseAwaitingAIQuestion
	c.busy = true
	c.greetingDone = false
	epoch := c.epoch
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.log.Info("session started",
		zap.String("session_id", stored.ID),
		zap.String("role", role),
		zap.String("tech_stack", techStack))

	// The greeting plays while the first question is generated; the user's
	// turn begins once both have happened.
	c.speaker.Speak(greeting.Text, func() { c.greetingFinished(epoch) })
	go c.requestFirstQuestion(epoch, role, techStack)

	return snap, nil
}

func (c *Coordinator) requestFirstQuestion(epoch uint64, role, techStack string) {
	ctx, cancel := context.WithTimeout(context.Background(), c.genTimeout)
	defer cancel()
	text, err := c.gen.Generate(ctx, firstQuestionPrompt(role, techStack))

	c.mu.Lock()
	if c.epoch != epoch || c.sess == nil {
		c.mu.Unlock()
		return
	}
	if err != nil {
		// Remain in AwaitingAIQuestion; no automatic retry.
		c.busy = false
		c.mu.Unlock()
		c.log.Warn("first question generation failed", zap.Error(err))
		return
	}
	c.sess.Messages = append(c.sess.Messages, newMessage(SenderAI, strings.TrimSpace(text)))
	id := c.sess.ID
	msgs := cloneMessages(c.sess.Messages)
	c.busy = false
	if c.greetingDone {
		c.phase = PhaseUserTurn
	}
	c.mu.Unlock()

	pctx, pcancel := context.WithTimeout(context.Background(), c.genTimeout)
	defer pcancel()
	if err := c.store.UpdateMessages(pctx, id, msgs); err != nil {
		c.log.Warn("persist transcript failed", zap.String("session_id", id), zap.Error(err))
	}
}

// SubmitAnswer appends the candidate's answer, persists the transcript,
// requests the next question, appends and persists it, then speaks it. Empty
// input is rejected; a busy pipeline or wrong phase makes the call a no-op.
func (c *Coordinator) SubmitAnswer(ctx context.Context, text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return &ValidationError{Msg: "answer is empty"}
	}

	c.mu.Lock()
	if c.sess == nil || c.busy || (c.phase != PhaseUserTurn && c.phase != PhaseListening) {
		c.mu.Unlock()
		return nil
	}
	c.sess.Messages = append(c.sess.Messages, newMessage(SenderUser, trimmed))
	c.phase = PhaseSubmittingAnswer
	c.busy = true
	epoch := c.epoch
	id := c.sess.ID
	msgs := cloneMessages(c.sess.Messages)
	c.mu.Unlock()

	if err := c.store.UpdateMessages(ctx, id, msgs); err != nil {
		c.mu.Lock()
		if c.epoch == epoch {
			c.busy = false
			if c.phase == PhaseSubmittingAnswer {
				c.phase = PhaseUserTurn
			}
		}
		c.mu.Unlock()
		return &UpstreamError{Op: "persist transcript", Err: err}
	}

	c.mu.Lock()
	if c.epoch != epoch || c.sess == nil {
		c.mu.Unlock()
		return nil
	}
	c.phase = PhaseAwaitingAIQuestion
	prompt := nextQuestionPrompt(c.sess.Messages)
	c.mu.Unlock()

	reply, err := c.gen.Generate(ctx, prompt)

	c.mu.Lock()
	if c.epoch != epoch || c.sess == nil {
		c.mu.Unlock()
		return nil
	}
	if c.phase != PhaseAwaitingAIQuestion {
		// The session moved on while the question was generating; drop it.
		c.busy = false
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		// Remain in AwaitingAIQuestion; the candidate can restart.
		c.busy = false
		c.mu.Unlock()
		return &UpstreamError{Op: "generate question", Err: err}
	}
	ai := newMessage(SenderAI, strings.TrimSpace(reply))
	c.sess.Messages = append(c.sess.Messages, ai)
	msgs = cloneMessages(c.sess.Messages)
	c.busy = false
	c.mu.Unlock()

	perr := c.store.UpdateMessages(ctx, id, msgs)
	c.speaker.Speak(ai.Text, func() { c.enterUserTurn(epoch) })
	if perr != nil {
		return &UpstreamError{Op: "persist transcript", Err: perr}
	}
	return nil
}

// greetingFinished is the greeting playback-completion trigger. The turn
// flips only once the first question has also arrived.
func (c *Coordinator) greetingFinished(epoch uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		return
	}
	c.greetingDone = true
	if c.phase == PhaseAwaitingAIQuestion && !c.busy && c.sess != nil && len(c.sess.Messages) >= 2 {
		c.phase = PhaseUserTurn
	}
}

// enterUserTurn is the playback-completion trigger.
func (c *Coordinator) enterUserTurn(epoch uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		return
	}
	if c.phase == PhaseAwaitingAIQuestion {
		c.phase = PhaseUserTurn
	}
}

// StartListening runs one speech capture and submits the recognized text as
// the answer. Any capture failure returns the session to the user's turn.
func (c *Coordinator) StartListening(ctx context.Context) error {
	c.mu.Lock()
	if c.sess == nil {
		c.mu.Unlock()
		return ErrNoSession
	}
	if c.phase != PhaseUserTurn {
		c.mu.Unlock()
		return nil
	}
	if c.capturer == nil {
		c.mu.Unlock()
		return &ValidationError{Msg: "speech capture is not available"}
	}
	c.phase = PhaseListening
	epoch := c.epoch
	c.mu.Unlock()

	text, err := c.capturer.Capture(ctx)
	if err != nil {
		c.mu.Lock()
		if c.epoch == epoch && c.phase == PhaseListening {
			c.phase = PhaseUserTurn
		}
		c.mu.Unlock()
		return err
	}
	return c.SubmitAnswer(ctx, text)
}

// EndSession appends the closing message, generates and persists feedback,
// and moves to the terminal Feedback phase. No-op outside an active interview
// or while the answer pipeline is still in flight, so feedback generation
// never overlaps question generation.
func (c *Coordinator) EndSession(ctx context.Context) error {
	c.mu.Lock()
	if c.sess == nil || c.busy || !c.phase.Active() || c.phase == PhaseEnding {
		c.mu.Unlock()
		return nil
	}
	// Feedback context is the conversation itself, without the closing line.
	transcript := cloneMessages(c.sess.Messages)
	c.sess.Messages = append(c.sess.Messages, newMessage(SenderAI, closingText))
	c.phase = PhaseEnding
	c.busy = true
	epoch := c.epoch
	id := c.sess.ID
	msgs := cloneMessages(c.sess.Messages)
	m := c.motion
	c.mu.Unlock()

	c.speaker.Cancel()
	if m != nil {
		m.Stop()
	}

	if err := c.store.UpdateMessages(ctx, id, msgs); err != nil {
		c.log.Warn("persist closing message failed", zap.String("session_id", id), zap.Error(err))
	}

	fb, err := c.gen.Generate(ctx, feedbackPrompt(transcript))

	c.mu.Lock()
	if c.epoch != epoch || c.sess == nil {
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		c.busy = false
		c.mu.Unlock()
		return &UpstreamError{Op: "generate feedback", Err: err}
	}
	c.sess.Feedback = fb
	c.phase = PhaseFeedback
	c.busy = false
	c.mu.Unlock()

	c.log.Info("session ended", zap.String("session_id", id))

	if err := c.store.UpdateFeedback(ctx, id, fb); err != nil {
		return &UpstreamError{Op: "persist feedback", Err: err}
	}
	return nil
}

// Restart discards the session and all in-flight request state. Results from
// work started before the restart are dropped when they arrive.
func (c *Coordinator) Restart() {
	c.mu.Lock()
	c.epoch++
	c.sess = nil
	c.phase = PhaseSetup
	c.busy = false
	m := c.motion
	c.mu.Unlock()

	c.speaker.Cancel()
	if m != nil {
		m.Stop()
	}
}

// Close tears the coordinator down; safe to call more than once.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.epoch++
	c.sess = nil
	c.phase = PhaseSetup
	m := c.motion
	c.mu.Unlock()

	c.speaker.Cancel()
	if m != nil {
		m.Stop()
	}
}

// Snapshot returns a copy of the current session and phase.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Coordinator) snapshotLocked() Snapshot {
	snap := Snapshot{Phase: c.phase}
	if c.sess != nil {
		s := *c.sess
		s.Messages = cloneMessages(c.sess.Messages)
		snap.Session = s
	}
	return snap
}

// SessionID returns the store-assigned id, or "" before a session exists.
func (c *Coordinator) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return ""
	}
	return c.sess.ID
}

type nopSpeaker struct{}

func (nopSpeaker) Speak(_ string, done func()) {
	if done != nil {
		done()
	}
}
func (nopSpeaker) Cancel() {}
