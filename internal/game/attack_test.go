package game

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// attackWithPoints builds an attack action converting to exactly pts
// under the test rates (money weight 1, no bonus unless on point).
func attackWithPoints(ownerID, districtID int64, pts int) *Action {
	return &Action{
		OwnerID:    ownerID,
		Kind:       KindAttack,
		DistrictID: districtID,
		Resources:  Resources{Money: pts},
	}
}

func TestResolveAttacksSequencing(t *testing.T) {
	env := newTestEnv(DefaultOptions())
	ctx := context.Background()
	now := time.Now().UTC()

	owner := env.user("owner")
	first := env.user("first-attacker")
	second := env.user("second-attacker")
	d := env.district("Old Town", owner.ID)

	a1 := env.pendingAction(attackWithPoints(first.ID, d.ID, 50), now)
	a2 := env.pendingAction(attackWithPoints(second.ID, d.ID, 10), now.Add(time.Minute))

	pool := map[int64]int{d.ID: 30}
	require.NoError(t, env.engine.resolveAttacks(ctx, NewCycleContext(), pool, nil))

	// First attack breaches: overflow 20 becomes the new defense; the
	// second attack (10) is repelled against it, leaving 10.
	got, err := env.store.DistrictByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.OwnerID)
	assert.Equal(t, 10, pool[d.ID])

	for _, id := range []int64{a1.ID, a2.ID} {
		a, err := env.store.ActionByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, StatusDone, a.Status)
	}
}

func TestResolveAttacksRepelledKeepsOwner(t *testing.T) {
	env := newTestEnv(DefaultOptions())
	ctx := context.Background()

	owner := env.user("owner")
	attacker := env.user("attacker")
	d := env.district("Docks", owner.ID)

	env.pendingAction(attackWithPoints(attacker.ID, d.ID, 10), time.Now().UTC())

	pool := map[int64]int{d.ID: 30}
	require.NoError(t, env.engine.resolveAttacks(ctx, NewCycleContext(), pool, nil))

	got, err := env.store.DistrictByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, got.OwnerID)
	assert.Equal(t, 20, pool[d.ID])

	// Both sides hear about it and the repelled attack makes the news.
	assert.NotEmpty(t, env.notifier.forUser(attacker.ID))
	assert.NotEmpty(t, env.notifier.forUser(owner.ID))
	require.Len(t, env.news.all(), 1)
	assert.Contains(t, env.news.all()[0].Title, "repelled")
}

func TestResolveAttacksBreachEmitsCapturedNews(t *testing.T) {
	env := newTestEnv(DefaultOptions())
	ctx := context.Background()

	owner := env.user("owner")
	attacker := env.user("attacker")
	d := env.district("Harbor", owner.ID)

	env.pendingAction(attackWithPoints(attacker.ID, d.ID, 45), time.Now().UTC())

	pool := map[int64]int{d.ID: 5}
	require.NoError(t, env.engine.resolveAttacks(ctx, NewCycleContext(), pool, nil))

	got, err := env.store.DistrictByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, attacker.ID, got.OwnerID)
	assert.Equal(t, 40, pool[d.ID])

	entries := env.news.all()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Title, "captured")
	assert.Equal(t, d.ID, entries[0].DistrictID)
}

func TestResolveAttacksZeroDefensePool(t *testing.T) {
	env := newTestEnv(DefaultOptions())
	ctx := context.Background()

	owner := env.user("owner")
	attacker := env.user("attacker")
	d := env.district("Outskirts", owner.ID)

	env.pendingAction(attackWithPoints(attacker.ID, d.ID, 1), time.Now().UTC())

	pool := map[int64]int{}
	require.NoError(t, env.engine.resolveAttacks(ctx, NewCycleContext(), pool, nil))

	got, err := env.store.DistrictByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, attacker.ID, got.OwnerID, "any positive attack breaches an undefended district")
	assert.Equal(t, 1, pool[d.ID])
}

func TestResolveAttacksContestedSkipped(t *testing.T) {
	env := newTestEnv(DefaultOptions())
	ctx := context.Background()

	owner := env.user("owner")
	attacker := env.user("attacker")
	d := env.district("Old Town", owner.ID)

	act := env.pendingAction(attackWithPoints(attacker.ID, d.ID, 500), time.Now().UTC())

	pool := map[int64]int{d.ID: 1}
	contested := map[int64]bool{d.ID: true}
	require.NoError(t, env.engine.resolveAttacks(ctx, NewCycleContext(), pool, contested))

	got, err := env.store.DistrictByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, got.OwnerID, "contested districts never change hands in the batch")

	gotAct, err := env.store.ActionByID(ctx, act.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, gotAct.Status)
}

func TestResolveAttacksMissingDistrictFailSoft(t *testing.T) {
	env := newTestEnv(DefaultOptions())
	ctx := context.Background()

	attacker := env.user("attacker")
	act := env.pendingAction(attackWithPoints(attacker.ID, 9999, 50), time.Now().UTC())

	pool := map[int64]int{}
	require.NoError(t, env.engine.resolveAttacks(ctx, NewCycleContext(), pool, nil))

	got, err := env.store.ActionByID(ctx, act.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDone, got.Status, "attacks at missing districts close without effect")
}

func TestResolveAttacksNewestFirstOrdering(t *testing.T) {
	env := newTestEnv(Options{ContestedPolicy: PolicyOnPointClash, AttacksOldestFirst: false})
	ctx := context.Background()
	now := time.Now().UTC()

	owner := env.user("owner")
	early := env.user("early")
	late := env.user("late")
	d := env.district("Old Town", owner.ID)

	env.pendingAction(attackWithPoints(early.ID, d.ID, 50), now)
	env.pendingAction(attackWithPoints(late.ID, d.ID, 40), now.Add(time.Minute))

	pool := map[int64]int{d.ID: 30}
	require.NoError(t, env.engine.resolveAttacks(ctx, NewCycleContext(), pool, nil))

	// Newest-first: late (40) breaches 30 leaving 10, then early (50)
	// breaches 10 leaving 40.
	got, err := env.store.DistrictByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, early.ID, got.OwnerID)
	assert.Equal(t, 40, pool[d.ID])
}
