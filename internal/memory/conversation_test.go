package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/akolanti/ResumeRAG/internal/data/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversation_WindowAppliedAtRead(t *testing.T) {
	ctx := context.Background()
	conv, err := Open(ctx, store.InitMessageStore(), "s1", 5)
	require.NoError(t, err)

	for i := 1; i <= 7; i++ {
		_, err = conv.Append(ctx, fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
		require.NoError(t, err)
	}

	window, err := conv.Window(ctx)
	require.NoError(t, err)
	require.Len(t, window, 5)
	for i, turn := range window {
		assert.Equal(t, fmt.Sprintf("q%d", i+3), turn.Question)
		assert.Equal(t, int64(i+3), turn.Seq)
	}

	all, err := conv.Recent(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, all, 7)

	history, err := conv.History(ctx)
	require.NoError(t, err)
	assert.Len(t, history, 7)
	assert.Equal(t, "a1", history[0].Answer)
}

func TestConversation_Clear(t *testing.T) {
	ctx := context.Background()
	conv, err := Open(ctx, store.InitMessageStore(), "s2", 3)
	require.NoError(t, err)

	_, err = conv.Append(ctx, "q", "a")
	require.NoError(t, err)
	require.NoError(t, conv.Clear(ctx))

	window, err := conv.Window(ctx)
	require.NoError(t, err)
	assert.Empty(t, window)

	turn, err := conv.Append(ctx, "q2", "a2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), turn.Seq)
}

func TestConversation_DefaultWindow(t *testing.T) {
	conv, err := Open(context.Background(), store.InitMessageStore(), "s3", 0)
	require.NoError(t, err)
	assert.Equal(t, 5, conv.WindowSize())
}

func TestConversation_ConcurrentAppendsGetDistinctSeq(t *testing.T) {
	ctx := context.Background()
	conv, err := Open(ctx, store.InitMessageStore(), "s4", 5)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = conv.Append(ctx, fmt.Sprintf("q%d", i), "a")
		}(i)
	}
	wg.Wait()

	history, err := conv.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 20)
	for i, turn := range history {
		assert.Equal(t, int64(i+1), turn.Seq)
	}
}

func TestConversation_CloseRemovesLog(t *testing.T) {
	ctx := context.Background()
	s := store.InitMessageStore()
	conv, err := Open(ctx, s, "s5", 5)
	require.NoError(t, err)
	require.NoError(t, conv.Close(ctx))
	assert.False(t, s.ValidateChatId(ctx, "s5"))
}
