package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"infosec-dashboard/internal/gateway"
	"infosec-dashboard/internal/model"
)

const Greeting = "Hello! How can I help you today?"

var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrReplyPending = errors.New("waiting for the previous reply")
)

// Assistant answers one question. It never fails; failures come back as a
// fallback reply.
type Assistant interface {
	AskAssistant(ctx context.Context, question string) gateway.AssistantReply
}

// Recorder receives every message appended to the transcript.
type Recorder interface {
	Record(ctx context.Context, msg model.Message) error
}

// Turn is one question and its answer.
type Turn struct {
	Question   model.Message `json:"question"`
	Reply      model.Message `json:"reply"`
	References []Reference   `json:"references,omitempty"`
	Fallback   bool          `json:"fallback"`
}

type Option func(*Session)

func WithRecorder(r Recorder) Option {
	return func(s *Session) { s.recorder = r }
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

func WithStoragePrefix(prefix string) Option {
	return func(s *Session) { s.storagePrefix = prefix }
}

// Session is the chat transcript with at most one outstanding question.
type Session struct {
	id            string
	assistant     Assistant
	recorder      Recorder
	storagePrefix string
	logger        *zap.Logger
	now           func() time.Time

	mu       sync.RWMutex
	messages []model.Message
	busy     bool
}

// NewSession starts a transcript holding only the assistant greeting.
func NewSession(assistant Assistant, opts ...Option) *Session {
	s := &Session{
		id:        uuid.NewString(),
		assistant: assistant,
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.messages = []model.Message{s.newMessage(model.RoleAssistant, Greeting)}
	return s
}

func (s *Session) ID() string {
	return s.id
}

// Send appends text as a user message, waits for the assistant and appends
// exactly one reply. Blank text changes nothing and returns ErrEmptyMessage.
func (s *Session) Send(ctx context.Context, text string) (Turn, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Turn{}, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return Turn{}, ErrReplyPending
	}
	question := s.newMessage(model.RoleUser, text)
	s.messages = append(s.messages, question)
	s.busy = true
	s.mu.Unlock()
	s.record(ctx, question)

	reply := s.assistant.AskAssistant(ctx, text)

	s.mu.Lock()
	answer := s.newMessage(model.RoleAssistant, reply.Text)
	s.messages = append(s.messages, answer)
	s.busy = false
	s.mu.Unlock()
	s.record(ctx, answer)

	_, refs := ParseReferences(answer.Text, s.storagePrefix)
	return Turn{Question: question, Reply: answer, References: refs, Fallback: reply.Fallback}, nil
}

// Transcript returns a copy of the messages in append order.
func (s *Session) Transcript() []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Message(nil), s.messages...)
}

// Busy reports whether a reply is outstanding; sending is disabled meanwhile.
func (s *Session) Busy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.busy
}

func (s *Session) StoragePrefix() string {
	return s.storagePrefix
}

func (s *Session) newMessage(sender model.Role, text string) model.Message {
	return model.Message{
		ID:        uuid.NewString(),
		SessionID: s.id,
		Sender:    sender,
		Text:      text,
		Timestamp: s.now(),
	}
}

func (s *Session) record(ctx context.Context, msg model.Message) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(ctx, msg); err != nil {
		s.logger.Warn("record transcript message failed",
			zap.String("message_id", msg.ID), zap.Error(err))
	}
}
