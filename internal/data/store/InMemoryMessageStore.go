package store

import (
	"context"
	"sync"

	"github.com/akolanti/ResumeRAG/internal/domain/commonModels"
)

type chatLog struct {
	turns   []commonModels.ConversationTurn
	lastSeq int64
}

type InMemoryMessageStore struct {
	chatLock *sync.RWMutex
	chatMap  map[string]*chatLog
}

func InitMessageStore() *InMemoryMessageStore {
	return &InMemoryMessageStore{
		chatLock: new(sync.RWMutex),
		chatMap:  make(map[string]*chatLog),
	}
}

func (store *InMemoryMessageStore) ValidateChatId(ctx context.Context, chatId string) bool {
	store.chatLock.RLock()
	defer store.chatLock.RUnlock()
	_, ok := store.chatMap[chatId]
	return ok
}

func (store *InMemoryMessageStore) InitNewChat(ctx context.Context, id string) error {
	store.chatLock.Lock()
	defer store.chatLock.Unlock()
	store.chatMap[id] = &chatLog{}
	return nil
}

func (store *InMemoryMessageStore) AppendTurn(ctx context.Context, id string, turn commonModels.ConversationTurn) (commonModels.ConversationTurn, error) {
	store.chatLock.Lock()
	defer store.chatLock.Unlock()
	log, ok := store.chatMap[id]
	if !ok {
		return turn, commonModels.ErrSessionNotFound
	}
	log.lastSeq++
	turn.Seq = log.lastSeq
	log.turns = append(log.turns, turn)
	inMemLogger.Debug("Saved turn to chat message store", "chatId", id, "seq", turn.Seq)
	return turn, nil
}

func (store *InMemoryMessageStore) RecentTurns(ctx context.Context, id string, n int) ([]commonModels.ConversationTurn, error) {
	store.chatLock.RLock()
	defer store.chatLock.RUnlock()
	log, ok := store.chatMap[id]
	if !ok {
		return nil, commonModels.ErrSessionNotFound
	}
	if n <= 0 {
		return []commonModels.ConversationTurn{}, nil
	}
	start := max(len(log.turns)-n, 0)
	out := make([]commonModels.ConversationTurn, len(log.turns)-start)
	copy(out, log.turns[start:])
	return out, nil
}

func (store *InMemoryMessageStore) AllTurns(ctx context.Context, id string) ([]commonModels.ConversationTurn, error) {
	store.chatLock.RLock()
	defer store.chatLock.RUnlock()
	log, ok := store.chatMap[id]
	if !ok {
		return nil, commonModels.ErrSessionNotFound
	}
	out := make([]commonModels.ConversationTurn, len(log.turns))
	copy(out, log.turns)
	return out, nil
}

func (store *InMemoryMessageStore) ClearChat(ctx context.Context, id string) error {
	store.chatLock.Lock()
	defer store.chatLock.Unlock()
	if _, ok := store.chatMap[id]; !ok {
		return commonModels.ErrSessionNotFound
	}
	store.chatMap[id] = &chatLog{}
	return nil
}

func (store *InMemoryMessageStore) DeleteChat(ctx context.Context, id string) error {
	store.chatLock.Lock()
	defer store.chatLock.Unlock()
	delete(store.chatMap, id)
	return nil
}
