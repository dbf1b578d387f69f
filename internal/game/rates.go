package game

import (
	"fmt"

	"github.com/spf13/viper"
)

// DefaultOnPointBonus is the flat bonus applied to on-point actions when
// the rate table does not specify one.
const DefaultOnPointBonus = 20

// CombatRates holds the conversion weights turning action resources into
// attack or defense points, plus the flat on-point bonus. Loaded once per
// cycle run; absence of the source file is a fatal startup error.
type CombatRates struct {
	Attack       map[string]float64
	Defense      map[string]float64
	OnPointBonus int
}

// LoadCombatRates reads the rate table from a JSON document of the form
//
//	{"attack": {"force": 5, ...}, "defense": {...}, "on_point_bonus": 20}
//
// Missing weight keys default to 0; a missing bonus defaults to 20.
func LoadCombatRates(path string) (*CombatRates, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetDefault("on_point_bonus", DefaultOnPointBonus)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading combat rates %s: %w", path, err)
	}

	rates := &CombatRates{
		Attack:       weightTable(v.GetStringMap("attack")),
		Defense:      weightTable(v.GetStringMap("defense")),
		OnPointBonus: v.GetInt("on_point_bonus"),
	}
	return rates, nil
}

// weightTable normalizes a raw viper map into float64 weights. Values
// that fail to parse count as 0.
func weightTable(raw map[string]any) map[string]float64 {
	table := make(map[string]float64, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case float64:
			table[key] = v
		case int:
			table[key] = float64(v)
		case int64:
			table[key] = float64(v)
		}
	}
	return table
}

// Table returns the weight table for the given action kind. Anything
// other than an attack converts with defense weights.
func (r *CombatRates) Table(kind string) map[string]float64 {
	if kind == KindAttack {
		return r.Attack
	}
	return r.Defense
}
