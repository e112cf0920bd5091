package redis

import (
	"context"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/tkarvine/draftgate/pkg/api"
	"github.com/tkarvine/draftgate/pkg/generator"
	"github.com/tkarvine/draftgate/pkg/publisher"
	"github.com/tkarvine/draftgate/redis/internal/testutil"
)

func TestRedisEngineFullLifecycle(t *testing.T) {
	ctx := context.Background()

	client := goredis.NewClient(&goredis.Options{Addr: testutil.GetRedisAddress(t)})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.FlushDB(ctx).Err())

	gen, err := generator.New(&generator.MockLLM{})
	require.NoError(t, err)

	eng, err := NewEngine(client, gen, &publisher.Mock{})
	require.NoError(t, err)

	rec, err := eng.RequestGeneration(ctx, api.GenerationRequest{
		Topic:    "redis durability",
		Platform: api.PlatformLinkedIn,
		Tone:     "professional",
	})
	require.NoError(t, err)
	require.Equal(t, api.StatePendingApproval, rec.State)

	pending, err := eng.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	final, err := eng.Decide(ctx, rec.ID, api.Decision{
		Action:   api.ActionReject,
		Feedback: "shorter please",
	})
	require.NoError(t, err)
	require.Equal(t, api.StatePendingApproval, final.State)
	require.Equal(t, 2, final.AttemptCount)

	final, err = eng.Decide(ctx, rec.ID, api.Decision{Action: api.ActionApprove, Actor: "alice"})
	require.NoError(t, err)
	require.Equal(t, api.StatePublished, final.State)
}
