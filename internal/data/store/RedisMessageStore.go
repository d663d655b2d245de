package store

import (
	"context"
	"encoding/json"

	"github.com/akolanti/ResumeRAG/internal/config"
	"github.com/akolanti/ResumeRAG/internal/data/redisStore"
	"github.com/akolanti/ResumeRAG/internal/domain/commonModels"
	"github.com/akolanti/ResumeRAG/pkg/logger_i"
)

// RedisMessageStore keeps each chat as a list of JSON turns under the chat
// id, with the sequence counter under "<id>:seq". The counter doubles as the
// existence marker, so an initialised chat with no turns still validates.
type RedisMessageStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func GetRedisMessageStore(ctx context.Context) *RedisMessageStore {
	s := redisStore.GetRedisStore(ctx, config.RedisMessageStore)
	if s == nil {
		return nil
	}
	return &RedisMessageStore{
		store:  s,
		logger: logger_i.NewLogger("MessageStore"),
	}
}

func seqKey(chatId string) string {
	return chatId + ":seq"
}

func (s *RedisMessageStore) ValidateChatId(ctx context.Context, chatId string) bool {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "chat Id", chatId)
	log.Debug("validating chatId")
	isFound, err := s.store.Exists(ctx, seqKey(chatId))
	if err != nil {
		log.Error("Failed to check if chatId exists", "err", err)
		return false
	}
	return isFound
}

func (s *RedisMessageStore) InitNewChat(ctx context.Context, id string) error {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "chat Id", id)
	log.Debug("Initializing new chat")
	if err := s.store.Del(ctx, id, seqKey(id)); err != nil {
		log.Error("Error initializing chat", "error", err)
		return err
	}
	return s.store.Set(ctx, seqKey(id), 0, config.RedisMessageStoreTTL)
}

func (s *RedisMessageStore) AppendTurn(ctx context.Context, id string, turn commonModels.ConversationTurn) (commonModels.ConversationTurn, error) {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "chat Id", id)
	if !s.ValidateChatId(ctx, id) {
		log.Error("Failed validation before saving")
		return turn, commonModels.ErrSessionNotFound
	}
	seq, err := s.store.Incr(ctx, seqKey(id), config.RedisMessageStoreTTL)
	if err != nil {
		log.Error("error assigning sequence", "error", err)
		return turn, err
	}
	turn.Seq = seq
	data, err := json.Marshal(turn)
	if err != nil {
		return turn, err
	}
	if err = s.store.ListPush(ctx, id, data, config.RedisMessageStoreTTL); err != nil {
		log.Error("error saving chat", "error", err)
		return turn, err
	}
	log.Debug("Saved turn successfully", "seq", seq)
	return turn, nil
}

func (s *RedisMessageStore) RecentTurns(ctx context.Context, id string, n int) ([]commonModels.ConversationTurn, error) {
	if !s.ValidateChatId(ctx, id) {
		return nil, commonModels.ErrSessionNotFound
	}
	res, err := s.store.ListTail(ctx, id, int64(n))
	if err != nil {
		s.logger.Error("Error getting history", "chat Id", id, "error", err)
		return nil, err
	}
	return s.decodeTurns(res), nil
}

func (s *RedisMessageStore) AllTurns(ctx context.Context, id string) ([]commonModels.ConversationTurn, error) {
	if !s.ValidateChatId(ctx, id) {
		return nil, commonModels.ErrSessionNotFound
	}
	res, err := s.store.ListGetAll(ctx, id)
	if err != nil {
		s.logger.Error("Error getting history", "chat Id", id, "error", err)
		return nil, err
	}
	return s.decodeTurns(res), nil
}

func (s *RedisMessageStore) ClearChat(ctx context.Context, id string) error {
	if !s.ValidateChatId(ctx, id) {
		return commonModels.ErrSessionNotFound
	}
	return s.InitNewChat(ctx, id)
}

func (s *RedisMessageStore) DeleteChat(ctx context.Context, id string) error {
	return s.store.Del(ctx, id, seqKey(id))
}

// decodeTurns skips entries that no longer decode rather than failing the
// whole read.
func (s *RedisMessageStore) decodeTurns(raw []string) []commonModels.ConversationTurn {
	turns := make([]commonModels.ConversationTurn, 0, len(raw))
	for _, item := range raw {
		var turn commonModels.ConversationTurn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			s.logger.Warn("Skipping undecodable turn", "error", err)
			continue
		}
		turns = append(turns, turn)
	}
	return turns
}

func TestMessageStore(store *redisStore.Store) *RedisMessageStore {
	return &RedisMessageStore{
		store:  store,
		logger: logger_i.NewLogger("test redis"),
	}
}
