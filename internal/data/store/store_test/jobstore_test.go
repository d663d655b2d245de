package store_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/akolanti/ResumeRAG/internal/config"
	"github.com/akolanti/ResumeRAG/internal/data/redisStore"
	"github.com/akolanti/ResumeRAG/internal/data/store"
	"github.com/akolanti/ResumeRAG/internal/domain/commonModels"
	"github.com/akolanti/ResumeRAG/internal/domain/jobModel"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redisStore.Store) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, redisStore.NewTestStore(client)
}

func TestRedisJobStore_Lifecycle(t *testing.T) {
	mr, internalStore := newRedis(t)
	jobStore := store.TestJobStore(internalStore)

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
	jobID := "job_abc_123"

	testJob := jobModel.Job{
		Id:        jobID,
		SessionId: "session-1",
		JobType:   jobModel.JobTypeQuery,
		Status:    jobModel.JobStatusRunning,
		JobPayload: jobModel.JobPayload{
			Question: "Who has AWS experience?",
			Scope:    &commonModels.ScopeDecision{Kind: commonModels.ScopeCrossDocument},
		},
	}

	t.Run("Save and Get Roundtrip", func(t *testing.T) {
		if err := jobStore.SaveJob(ctx, testJob); err != nil {
			t.Fatalf("SaveJob failed: %v", err)
		}

		retrievedJob, found := jobStore.GetJob(ctx, jobID)
		if !found {
			t.Fatal("Job was saved but not found in Redis")
		}
		if retrievedJob.JobPayload.Question != testJob.JobPayload.Question {
			t.Errorf("question mismatch: got %s, want %s", retrievedJob.JobPayload.Question, testJob.JobPayload.Question)
		}
		if retrievedJob.JobPayload.Scope == nil || retrievedJob.JobPayload.Scope.Kind != commonModels.ScopeCrossDocument {
			t.Errorf("scope not preserved: %+v", retrievedJob.JobPayload.Scope)
		}
	})

	t.Run("Get Non-Existent Job", func(t *testing.T) {
		if _, found := jobStore.GetJob(ctx, "ghost-id"); found {
			t.Error("Expected found=false for non-existent key")
		}
	})

	t.Run("Delete Job", func(t *testing.T) {
		jobStore.DeleteJob(ctx, jobID)
		if mr.Exists(jobID) {
			t.Error("Job still exists in Redis after DeleteJob call")
		}
	})
}

func TestRedisJobStore_Concurrent(t *testing.T) {
	_, internalStore := newRedis(t)
	jobStore := store.TestJobStore(internalStore)

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "race-trace")
	job := jobModel.Job{Id: "race-job"}

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = jobStore.SaveJob(ctx, job)
			_, _ = jobStore.GetJob(ctx, "race-job")
		}()
	}
	wg.Wait()

	if _, found := jobStore.GetJob(ctx, "race-job"); !found {
		t.Error("job missing after concurrent saves")
	}
}

func TestInMemoryJobStore(t *testing.T) {
	jobStore := store.InitInMemoryJobStore()
	ctx := context.Background()

	_ = jobStore.SaveJob(ctx, jobModel.Job{Id: "a", Status: jobModel.JobStatusQueued})
	got, found := jobStore.GetJob(ctx, "a")
	if !found || got.Status != jobModel.JobStatusQueued {
		t.Fatalf("got %+v found=%v", got, found)
	}
	jobStore.DeleteJob(ctx, "a")
	if _, found = jobStore.GetJob(ctx, "a"); found {
		t.Error("job still present after delete")
	}
}

// messageStoreContract runs the same checks against both message stores.
func messageStoreContract(t *testing.T, s jobModel.MessageStore) {
	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "msg-trace")

	if s.ValidateChatId(ctx, "chat-1") {
		t.Fatal("unknown chat validated")
	}
	if _, err := s.AppendTurn(ctx, "chat-1", commonModels.ConversationTurn{Question: "q"}); !errors.Is(err, commonModels.ErrSessionNotFound) {
		t.Fatalf("append to unknown chat: got %v", err)
	}

	if err := s.InitNewChat(ctx, "chat-1"); err != nil {
		t.Fatalf("InitNewChat: %v", err)
	}
	if !s.ValidateChatId(ctx, "chat-1") {
		t.Fatal("initialised chat did not validate")
	}

	for i := 1; i <= 7; i++ {
		turn, err := s.AppendTurn(ctx, "chat-1", commonModels.ConversationTurn{
			Question: fmt.Sprintf("q%d", i),
			Answer:   fmt.Sprintf("a%d", i),
		})
		if err != nil {
			t.Fatalf("AppendTurn %d: %v", i, err)
		}
		if turn.Seq != int64(i) {
			t.Fatalf("turn %d got seq %d", i, turn.Seq)
		}
	}

	recent, err := s.RecentTurns(ctx, "chat-1", 5)
	if err != nil {
		t.Fatalf("RecentTurns: %v", err)
	}
	if len(recent) != 5 {
		t.Fatalf("expected 5 turns, got %d", len(recent))
	}
	for i, turn := range recent {
		if want := fmt.Sprintf("q%d", i+3); turn.Question != want {
			t.Errorf("recent[%d] = %s, want %s", i, turn.Question, want)
		}
	}

	all, err := s.RecentTurns(ctx, "chat-1", 100)
	if err != nil || len(all) != 7 {
		t.Fatalf("RecentTurns(100): len=%d err=%v", len(all), err)
	}
	full, err := s.AllTurns(ctx, "chat-1")
	if err != nil || len(full) != 7 || full[0].Question != "q1" {
		t.Fatalf("AllTurns: %+v err=%v", full, err)
	}
	none, err := s.RecentTurns(ctx, "chat-1", 0)
	if err != nil || len(none) != 0 {
		t.Fatalf("RecentTurns(0): %+v err=%v", none, err)
	}

	if err = s.ClearChat(ctx, "chat-1"); err != nil {
		t.Fatalf("ClearChat: %v", err)
	}
	if !s.ValidateChatId(ctx, "chat-1") {
		t.Fatal("cleared chat should still exist")
	}
	full, _ = s.AllTurns(ctx, "chat-1")
	if len(full) != 0 {
		t.Fatalf("expected empty history after clear, got %d", len(full))
	}

	if err = s.DeleteChat(ctx, "chat-1"); err != nil {
		t.Fatalf("DeleteChat: %v", err)
	}
	if s.ValidateChatId(ctx, "chat-1") {
		t.Fatal("deleted chat still validates")
	}
}

func TestRedisMessageStore(t *testing.T) {
	_, internalStore := newRedis(t)
	messageStoreContract(t, store.TestMessageStore(internalStore))
}

func TestInMemoryMessageStore(t *testing.T) {
	messageStoreContract(t, store.InitMessageStore())
}

func TestRedisMessageStore_SkipsCorruptTurns(t *testing.T) {
	mr, internalStore := newRedis(t)
	s := store.TestMessageStore(internalStore)
	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "corrupt")

	if err := s.InitNewChat(ctx, "chat-2"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AppendTurn(ctx, "chat-2", commonModels.ConversationTurn{Question: "ok"}); err != nil {
		t.Fatal(err)
	}
	if _, err := mr.Push("chat-2", "{not json"); err != nil {
		t.Fatal(err)
	}

	turns, err := s.AllTurns(ctx, "chat-2")
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 1 || turns[0].Question != "ok" {
		t.Fatalf("unexpected turns %+v", turns)
	}
}
