package chat

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/yanqian/astro-daily/pkg/errors"
)

// Session is one conversation: its history and its delivery pipeline.
type Session struct {
	ID       string
	pipeline *Pipeline
	now      func() time.Time

	mu       sync.Mutex
	messages []Message
}

// NewSession opens a conversation seeded with the welcome message.
func NewSession(id string, cfg Config, transport Transport, logger *slog.Logger) *Session {
	p := NewPipeline(cfg, transport, logger.With("session_id", id))
	s := &Session{ID: id, pipeline: p, now: time.Now}
	s.messages = []Message{{Text: WelcomeText, Timestamp: s.now()}}
	return s
}

// Send records the user message and the reply. Empty input is rejected.
func (s *Session) Send(ctx context.Context, text string) (Message, Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, Message{}, apperrors.Wrap(apperrors.CodeValidation, "Message must not be empty", nil)
	}
	user := Message{Text: text, IsUser: true, Timestamp: s.now()}
	s.append(user)
	reply := s.pipeline.Send(ctx, text)
	s.append(reply)
	return user, reply, nil
}

// Reset returns delivery to direct mode and records the notice.
func (s *Session) Reset() Message {
	msg := s.pipeline.Reset()
	s.append(msg)
	return msg
}

// Mode reports the current delivery mode.
func (s *Session) Mode() Mode {
	return s.pipeline.Mode()
}

// Messages returns a copy of the history.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Session) append(m Message) {
	s.mu.Lock()
	s.messages = append(s.messages, m)
	s.mu.Unlock()
}

// SessionView is a snapshot of a session.
type SessionView struct {
	ID       string    `json:"id"`
	Mode     Mode      `json:"mode"`
	Messages []Message `json:"messages"`
}

// Exchange is the outcome of one send.
type Exchange struct {
	SessionID string  `json:"sessionId"`
	Mode      Mode    `json:"mode"`
	User      Message `json:"user"`
	Reply     Message `json:"reply"`
}

// Service manages chat sessions by id.
type Service interface {
	Create(ctx context.Context) SessionView
	Get(ctx context.Context, id string) (SessionView, error)
	Send(ctx context.Context, id, text string) (Exchange, error)
	Reset(ctx context.Context, id string) (SessionView, Message, error)
}

type service struct {
	cfg       Config
	transport Transport
	logger    *slog.Logger
	newID     func() string

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewService constructs the chat session service.
func NewService(cfg Config, transport Transport, logger *slog.Logger) Service {
	return &service{
		cfg:       cfg,
		transport: transport,
		logger:    logger.With("component", "chat.service"),
		newID:     uuid.NewString,
		sessions:  make(map[string]*Session),
	}
}

func (s *service) Create(ctx context.Context) SessionView {
	id := s.newID()
	sess := NewSession(id, s.cfg, s.transport, s.logger)
	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()
	s.logger.InfoContext(ctx, "chat session created", "session_id", id)
	return view(sess)
}

func (s *service) Get(_ context.Context, id string) (SessionView, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return SessionView{}, err
	}
	return view(sess), nil
}

func (s *service) Send(ctx context.Context, id, text string) (Exchange, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return Exchange{}, err
	}
	user, reply, err := sess.Send(ctx, text)
	if err != nil {
		return Exchange{}, err
	}
	return Exchange{SessionID: id, Mode: sess.Mode(), User: user, Reply: reply}, nil
}

func (s *service) Reset(ctx context.Context, id string) (SessionView, Message, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return SessionView{}, Message{}, err
	}
	msg := sess.Reset()
	s.logger.InfoContext(ctx, "chat session reset", "session_id", id)
	return view(sess), msg, nil
}

func (s *service) lookup(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, apperrors.Wrap(apperrors.CodeNotFound, "chat session not found", nil)
	}
	return sess, nil
}

func view(sess *Session) SessionView {
	return SessionView{ID: sess.ID, Mode: sess.Mode(), Messages: sess.Messages()}
}
