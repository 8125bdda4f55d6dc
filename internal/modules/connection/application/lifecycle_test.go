package application

import (
	"context"
	"errors"
	"testing"

	"github.com/saransh1220/notify-relay/internal/modules/connection/infrastructure/persistence/memory"
	"github.com/saransh1220/notify-relay/internal/shared/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycle_ConnectDisconnect(t *testing.T) {
	repo := memory.NewConnectionRepository()
	lc := NewLifecycle(NewConnectionService(repo, nil, nil))
	ctx := context.Background()

	require.NoError(t, lc.OnConnect(ctx, "c1", "u1"))
	ids, _ := repo.FindByUser(ctx, "u1")
	assert.Equal(t, []string{"c1"}, ids)

	require.NoError(t, lc.OnDisconnect(ctx, "c1"))
	require.NoError(t, lc.OnDisconnect(ctx, "c1"))
	ids, _ = repo.FindByUser(ctx, "u1")
	assert.Empty(t, ids)
}

func TestLifecycle_ConnectRequiresUser(t *testing.T) {
	repo := memory.NewConnectionRepository()
	lc := NewLifecycle(NewConnectionService(repo, nil, nil))
	ctx := context.Background()

	err := lc.OnConnect(ctx, "c1", "  ")
	assert.ErrorIs(t, err, errs.ErrValidation)

	err = lc.OnConnect(ctx, "", "u1")
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = repo.UserOf(ctx, "c1")
	assert.ErrorIs(t, err, errs.ErrConnectionNotFound)
}

func TestLifecycle_StoreFailure(t *testing.T) {
	lc := NewLifecycle(NewConnectionService(failingRegistry{err: errs.ErrStoreUnavailable}, nil, nil))

	assert.ErrorIs(t, lc.OnConnect(context.Background(), "c1", "u1"), errs.ErrStoreUnavailable)
	assert.ErrorIs(t, lc.OnDisconnect(context.Background(), "c1"), errs.ErrStoreUnavailable)
	assert.False(t, errors.Is(lc.OnDisconnect(context.Background(), ""), errs.ErrStoreUnavailable))
}
