package game

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRatesFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "combat_rates.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCombatRates(t *testing.T) {
	path := writeRatesFile(t, `{
		"attack": {"force": 5, "money": 1, "influence": 2, "information": 2},
		"defense": {"force": 4, "information": 3},
		"on_point_bonus": 25
	}`)

	rates, err := LoadCombatRates(path)
	require.NoError(t, err)

	assert.Equal(t, 5.0, rates.Attack["force"])
	assert.Equal(t, 2.0, rates.Attack["information"])
	assert.Equal(t, 4.0, rates.Defense["force"])
	assert.Equal(t, 25, rates.OnPointBonus)
	// Missing keys read back as 0.
	assert.Equal(t, 0.0, rates.Defense["money"])
}

func TestLoadCombatRatesBonusDefaults(t *testing.T) {
	path := writeRatesFile(t, `{"attack": {"force": 1}, "defense": {}}`)

	rates, err := LoadCombatRates(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultOnPointBonus, rates.OnPointBonus)
}

func TestLoadCombatRatesMissingFileFails(t *testing.T) {
	_, err := LoadCombatRates(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestCombatRatesTableSelection(t *testing.T) {
	rates := testRates()
	assert.Equal(t, rates.Attack["force"], rates.Table(KindAttack)["force"])
	assert.Equal(t, rates.Defense["force"], rates.Table(KindDefense)["force"])
	// Unknown kinds convert with defense weights.
	assert.Equal(t, rates.Defense["force"], rates.Table("ritual")["force"])
}
