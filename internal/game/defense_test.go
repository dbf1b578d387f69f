package game

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDefensePoolsSeedsFromControlPoints(t *testing.T) {
	env := newTestEnv(DefaultOptions())
	ctx := context.Background()

	owner := env.user("owner")
	d := env.store.PutDistrict(&District{
		Name:          "Old Town",
		OwnerID:       owner.ID,
		ControlPoints: 40,
	})

	pool, err := env.engine.buildDefensePools(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 40, pool[d.ID])

	got, err := env.store.DistrictByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.ControlPoints, "control points are spent as starting defense")
	assert.Equal(t, ControlNone, got.ControlLevel)
}

func TestBuildDefensePoolsAddsDefenseActions(t *testing.T) {
	env := newTestEnv(DefaultOptions())
	ctx := context.Background()
	now := time.Now().UTC()

	owner := env.user("owner")
	d := env.district("Docks", owner.ID)

	// 4*4 = 16 defense points.
	act := env.pendingAction(&Action{
		OwnerID:    owner.ID,
		Kind:       KindDefense,
		DistrictID: d.ID,
		Resources:  Resources{Force: 4},
	}, now)

	pool, err := env.engine.buildDefensePools(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 16, pool[d.ID])

	got, err := env.store.ActionByID(ctx, act.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDone, got.Status)
}

func TestBuildDefensePoolsSkipsContested(t *testing.T) {
	env := newTestEnv(DefaultOptions())
	ctx := context.Background()
	now := time.Now().UTC()

	owner := env.user("owner")
	d := env.store.PutDistrict(&District{
		Name:          "Old Town",
		OwnerID:       owner.ID,
		ControlPoints: 30,
	})
	act := env.pendingAction(&Action{
		OwnerID:    owner.ID,
		Kind:       KindDefense,
		DistrictID: d.ID,
		Resources:  Resources{Force: 10},
	}, now)

	contested := map[int64]bool{d.ID: true}
	pool, err := env.engine.buildDefensePools(ctx, contested)
	require.NoError(t, err)
	assert.NotContains(t, pool, d.ID)

	got, err := env.store.DistrictByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, got.ControlPoints, "contested district keeps its bank")

	gotAct, err := env.store.ActionByID(ctx, act.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, gotAct.Status, "contested defenses carry to the duel resolver")
}

func TestConvertLeftoverDefense(t *testing.T) {
	env := newTestEnv(DefaultOptions())
	ctx := context.Background()

	owner := env.user("owner")
	kept := env.district("Kept", owner.ID)
	drained := env.district("Drained", owner.ID)
	disputed := env.district("Disputed", owner.ID)

	pool := map[int64]int{
		kept.ID:     25,
		drained.ID:  0,
		disputed.ID: 50,
	}
	contested := map[int64]bool{disputed.ID: true}

	require.NoError(t, env.engine.convertLeftoverDefense(ctx, pool, contested))

	got, err := env.store.DistrictByID(ctx, kept.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, got.ControlPoints)
	assert.Equal(t, ControlPartial, got.ControlLevel)

	got, err = env.store.DistrictByID(ctx, drained.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.ControlPoints)

	got, err = env.store.DistrictByID(ctx, disputed.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.ControlPoints, "contested districts bank nothing")
}
