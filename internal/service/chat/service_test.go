package chat_test

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/zhouzirui/drama-bot/backend/internal/model/chat"
	chat "github.com/zhouzirui/drama-bot/backend/internal/service/chat"
)

func openStore(t *testing.T) *chat.Service {
	t.Helper()
	store, err := chat.Open(context.Background(), filepath.Join(t.TempDir(), "memory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestEndToEndSessionLifecycle(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "s1", model.RoleUser, "I had a rough day"))
	require.NoError(t, store.Append(ctx, "s1", model.RoleAssistant, "I'm sorry to hear that 💛"))

	stats, err := store.Stats(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, model.Stats{SessionID: "s1", MessageCount: 2}, stats)

	messages, err := store.Read(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, []model.Message{
		{Role: model.RoleUser, Content: "I had a rough day"},
		{Role: model.RoleAssistant, Content: "I'm sorry to hear that 💛"},
	}, messages)

	deleted, err := store.Delete(ctx, "s1")
	require.NoError(t, err)
	require.True(t, deleted)

	messages, err = store.Read(ctx, "s1")
	require.NoError(t, err)
	require.Empty(t, messages)
}

func TestReadUnknownSessionIsEmpty(t *testing.T) {
	store := openStore(t)

	messages, err := store.Read(context.Background(), "missing")
	require.NoError(t, err)
	require.NotNil(t, messages)
	require.Empty(t, messages)

	stats, err := store.Stats(context.Background(), "missing")
	require.NoError(t, err)
	require.Zero(t, stats.MessageCount)
}

func TestDeleteEmptySessionReturnsFalse(t *testing.T) {
	store := openStore(t)

	deleted, err := store.Delete(context.Background(), "ghost")
	require.NoError(t, err)
	require.False(t, deleted)
}

func TestIsolationBetweenSessions(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "x", model.RoleUser, "only in x"))
	require.NoError(t, store.Append(ctx, "y", model.RoleUser, "only in y"))

	x, err := store.Read(ctx, "x")
	require.NoError(t, err)
	require.Equal(t, []model.Message{{Role: model.RoleUser, Content: "only in x"}}, x)

	deleted, err := store.Delete(ctx, "x")
	require.NoError(t, err)
	require.True(t, deleted)

	y, err := store.Read(ctx, "y")
	require.NoError(t, err)
	require.Len(t, y, 1)
}

func TestRepeatedReadsAreIdentical(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(ctx, "s", model.RoleUser, fmt.Sprintf("line %d", i)))
	}

	first, err := store.Read(ctx, "s")
	require.NoError(t, err)
	second, err := store.Read(ctx, "s")
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestOrderingSurvivesClockSkew(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	frozen := time.Unix(1_700_000_000, 0)
	clock := []time.Time{frozen, frozen, frozen.Add(-time.Hour)}
	chat.SetClock(store, func() time.Time {
		next := clock[0]
		clock = clock[1:]
		return next
	})

	require.NoError(t, store.Append(ctx, "s", model.RoleUser, "first"))
	require.NoError(t, store.Append(ctx, "s", model.RoleAssistant, "second"))
	require.NoError(t, store.Append(ctx, "s", model.RoleUser, "third"))

	messages, err := store.Read(ctx, "s")
	require.NoError(t, err)
	require.Equal(t, []string{"first", "second", "third"}, contents(messages))
}

func TestOrderingUnderConcurrentWritersToOtherSessions(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			session := fmt.Sprintf("noise-%d", w)
			for i := 0; i < 20; i++ {
				assert.NoError(t, store.Append(ctx, session, model.RoleUser, "noise"))
			}
		}(w)
	}

	for i := 0; i < 20; i++ {
		require.NoError(t, store.Append(ctx, "target", model.RoleUser, fmt.Sprintf("u%d", i)))
		require.NoError(t, store.Append(ctx, "target", model.RoleAssistant, fmt.Sprintf("a%d", i)))
	}
	wg.Wait()

	messages, err := store.Read(ctx, "target")
	require.NoError(t, err)
	require.Len(t, messages, 40)
	for i := 0; i < 20; i++ {
		require.Equal(t, model.Message{Role: model.RoleUser, Content: fmt.Sprintf("u%d", i)}, messages[2*i])
		require.Equal(t, model.Message{Role: model.RoleAssistant, Content: fmt.Sprintf("a%d", i)}, messages[2*i+1])
	}

	overview, err := store.Overview(ctx)
	require.NoError(t, err)
	require.Equal(t, model.Overview{SessionCount: 5, MessageCount: 120}, overview)
}

func TestAppendValidation(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	require.ErrorIs(t, store.Append(ctx, " ", model.RoleUser, "hi"), chat.ErrSessionRequired)
	require.ErrorIs(t, store.Append(ctx, "s", model.Role("system"), "hi"), chat.ErrInvalidRole)

	stats, err := store.Stats(ctx, "s")
	require.NoError(t, err)
	require.Zero(t, stats.MessageCount)
}

func TestAppendAfterCloseFails(t *testing.T) {
	store, err := chat.Open(context.Background(), filepath.Join(t.TempDir(), "closed.db"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	err = store.Append(context.Background(), "s", model.RoleUser, "hi")
	require.Error(t, err)
}

func contents(messages []model.Message) []string {
	out := make([]string, 0, len(messages))
	for _, msg := range messages {
		out = append(out, msg.Content)
	}
	return out
}

func TestConcurrentWritersToSameSessionKeepEveryMessage(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	const writers, perWriter = 8, 25
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				assert.NoError(t, store.Append(ctx, "same", model.RoleUser, fmt.Sprintf("w%d-%03d", w, i)))
			}
		}(w)
	}
	wg.Wait()

	messages, err := store.Read(ctx, "same")
	require.NoError(t, err)
	require.Len(t, messages, writers*perWriter)

	stats, err := store.Stats(ctx, "same")
	require.NoError(t, err)
	require.Equal(t, writers*perWriter, stats.MessageCount)

	// each writer's lines must come back in the order that writer issued them
	next := make(map[int]int, writers)
	for _, m := range messages {
		var w, i int
		_, err := fmt.Sscanf(m.Content, "w%d-%d", &w, &i)
		require.NoError(t, err)
		require.Equal(t, next[w], i, "writer %d out of order", w)
		next[w]++
	}
	for w := 0; w < writers; w++ {
		require.Equal(t, perWriter, next[w])
	}
}

func TestReadMapsLegacyRoleNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session_memory.db")

	// an older database: no CHECK constraint and "bot" for the assistant
	legacy, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = legacy.Exec(`CREATE TABLE memory (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT, role TEXT, content TEXT, timestamp REAL)`)
	require.NoError(t, err)
	_, err = legacy.Exec(`INSERT INTO memory (session_id, role, content, timestamp) VALUES
		('s1', 'user', 'I had a rough day', 1.0),
		('s1', 'bot', 'I am sorry to hear that', 2.0),
		('s2', 'narrator', 'meanwhile...', 1.0)`)
	require.NoError(t, err)
	require.NoError(t, legacy.Close())

	store, err := chat.Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	messages, err := store.Read(context.Background(), "s1")
	require.NoError(t, err)
	require.Equal(t, []model.Message{
		{Role: model.RoleUser, Content: "I had a rough day"},
		{Role: model.RoleAssistant, Content: "I am sorry to hear that"},
	}, messages)

	_, err = store.Read(context.Background(), "s2")
	require.ErrorIs(t, err, chat.ErrInvalidRole)
}
