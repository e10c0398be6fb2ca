package notify

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakeline/stakeline/internal/domain"
)

type fakeSender struct {
	name string
	sent []string
	err  error
}

func (f *fakeSender) Send(_ context.Context, title, _ string) error {
	f.sent = append(f.sent, title)
	return f.err
}

func (f *fakeSender) Name() string { return f.name }

func TestNotifyFiltersByEventKind(t *testing.T) {
	s := &fakeSender{name: "telegram"}
	n := NewNotifier([]Sender{s}, []string{"distribute_yield", "pool_paused"}, slog.Default())
	ctx := context.Background()

	require.NoError(t, n.Notify(ctx, domain.EventDistributeYield, "distributed", "{}"))
	require.NoError(t, n.Notify(ctx, domain.EventStake, "staked", "{}"))
	require.NoError(t, n.Notify(ctx, domain.EventPoolPaused, "paused", "{}"))

	assert.Equal(t, []string{"distributed", "paused"}, s.sent)
}

func TestNotifyEmptyFilterForwardsEverything(t *testing.T) {
	s := &fakeSender{name: "discord"}
	n := NewNotifier([]Sender{s}, nil, slog.Default())

	require.NoError(t, n.Notify(context.Background(), domain.EventStake, "staked", "{}"))
	assert.Len(t, s.sent, 1)
}

func TestNotifyCollectsSenderFailures(t *testing.T) {
	good := &fakeSender{name: "telegram"}
	bad := &fakeSender{name: "discord", err: errors.New("webhook gone")}
	n := NewNotifier([]Sender{bad, good}, nil, slog.Default())

	err := n.Notify(context.Background(), domain.EventPoolPaused, "paused", "{}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "discord")

	// One failing channel never blocks the other.
	assert.Len(t, good.sent, 1)
}
