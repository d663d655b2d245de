package memory

import (
	"context"
	"sync"
	"time"

	"github.com/akolanti/ResumeRAG/internal/config"
	"github.com/akolanti/ResumeRAG/internal/domain/commonModels"
	"github.com/akolanti/ResumeRAG/internal/domain/jobModel"
	"github.com/akolanti/ResumeRAG/pkg/logger_i"
)

// Conversation is one session's view over the message store. The store keeps
// every turn; the window only limits what Window returns.
type Conversation struct {
	mu        sync.Mutex
	store     jobModel.MessageStore
	sessionId string
	window    int
	now       func() time.Time
	logger    *logger_i.Logger
}

// Open initialises the session's log in the store.
func Open(ctx context.Context, store jobModel.MessageStore, sessionId string, window int) (*Conversation, error) {
	if window <= 0 {
		window = config.DefaultConversationSize
	}
	if err := store.InitNewChat(ctx, sessionId); err != nil {
		return nil, err
	}
	return &Conversation{
		store:     store,
		sessionId: sessionId,
		window:    window,
		now:       time.Now,
		logger:    logger_i.NewLogger("memory").With("sessionId", sessionId),
	}, nil
}

func (c *Conversation) WindowSize() int { return c.window }

// Append records a completed turn. Calls are serialised so a turn is never
// split across concurrent writers.
func (c *Conversation) Append(ctx context.Context, question, answer string) (commonModels.ConversationTurn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	turn, err := c.store.AppendTurn(ctx, c.sessionId, commonModels.ConversationTurn{
		Question:  question,
		Answer:    answer,
		Timestamp: c.now(),
	})
	if err != nil {
		c.logger.Error("append failed", "error", err)
		return turn, err
	}
	c.logger.Debug("turn appended", "seq", turn.Seq)
	return turn, nil
}

// Recent returns at most n turns, oldest first.
func (c *Conversation) Recent(ctx context.Context, n int) ([]commonModels.ConversationTurn, error) {
	return c.store.RecentTurns(ctx, c.sessionId, n)
}

// Window is Recent with the configured window size.
func (c *Conversation) Window(ctx context.Context) ([]commonModels.ConversationTurn, error) {
	return c.Recent(ctx, c.window)
}

func (c *Conversation) History(ctx context.Context) ([]commonModels.ConversationTurn, error) {
	return c.store.AllTurns(ctx, c.sessionId)
}

func (c *Conversation) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.ClearChat(ctx, c.sessionId)
}

// Close drops the session's log from the store.
func (c *Conversation) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.DeleteChat(ctx, c.sessionId)
}
