package game

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectContestedOnPointClash(t *testing.T) {
	env := newTestEnv(DefaultOptions())
	ctx := context.Background()
	now := time.Now().UTC()

	attacker := env.user("attacker")
	defender := env.user("defender")
	clash := env.district("Old Town", defender.ID)
	quiet := env.district("Docks", defender.ID)

	env.pendingAction(&Action{
		OwnerID: attacker.ID, Kind: KindAttack, DistrictID: clash.ID, OnPoint: true,
	}, now)
	env.pendingAction(&Action{
		OwnerID: defender.ID, Kind: KindDefense, DistrictID: clash.ID, OnPoint: true,
	}, now)
	// Off-point activity never makes a district contested.
	env.pendingAction(&Action{
		OwnerID: attacker.ID, Kind: KindAttack, DistrictID: quiet.ID,
	}, now)

	contested, err := env.engine.detectContested(ctx)
	require.NoError(t, err)
	assert.True(t, contested[clash.ID])
	assert.False(t, contested[quiet.ID])
}

func TestDetectContestedSingleOnPointAttackNotContested(t *testing.T) {
	env := newTestEnv(DefaultOptions())
	ctx := context.Background()

	attacker := env.user("attacker")
	owner := env.user("owner")
	d := env.district("Harbor", owner.ID)

	env.pendingAction(&Action{
		OwnerID: attacker.ID, Kind: KindAttack, DistrictID: d.ID, OnPoint: true,
	}, time.Now().UTC())

	contested, err := env.engine.detectContested(ctx)
	require.NoError(t, err)
	assert.Empty(t, contested)
}

func TestDetectContestedMultipleClaimsPolicy(t *testing.T) {
	env := newTestEnv(Options{ContestedPolicy: PolicyMultipleClaims, AttacksOldestFirst: true})
	ctx := context.Background()
	now := time.Now().UTC()

	a1 := env.user("first")
	a2 := env.user("second")
	owner := env.user("owner")
	d := env.district("Harbor", owner.ID)

	env.pendingAction(&Action{OwnerID: a1.ID, Kind: KindAttack, DistrictID: d.ID, OnPoint: true}, now)
	env.pendingAction(&Action{OwnerID: a2.ID, Kind: KindAttack, DistrictID: d.ID, OnPoint: true}, now.Add(time.Minute))

	contested, err := env.engine.detectContested(ctx)
	require.NoError(t, err)
	assert.True(t, contested[d.ID], "two on-point attacks contest under multiple-claims")

	// Under the canonical policy the same set is not contested.
	canonical := NewEngine(env.store, nil, nil, testRates(), DefaultOptions(), nil)
	contested, err = canonical.detectContested(ctx)
	require.NoError(t, err)
	assert.False(t, contested[d.ID])
}

func TestDetectContestedIdempotent(t *testing.T) {
	env := newTestEnv(DefaultOptions())
	ctx := context.Background()
	now := time.Now().UTC()

	attacker := env.user("attacker")
	defender := env.user("defender")
	d := env.district("Old Town", defender.ID)

	env.pendingAction(&Action{OwnerID: attacker.ID, Kind: KindAttack, DistrictID: d.ID, OnPoint: true}, now)
	env.pendingAction(&Action{OwnerID: defender.ID, Kind: KindDefense, DistrictID: d.ID, OnPoint: true}, now)

	first, err := env.engine.detectContested(ctx)
	require.NoError(t, err)
	second, err := env.engine.detectContested(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
