package domain

import (
	"encoding/json"
	"fmt"
)

// GrowthStage is the coarse strength tier of a habit, derived from its run of
// consecutive completions.
type GrowthStage string

// Growth stages in ascending order.
const (
	StageNeedsCare GrowthStage = "needsCare"
	StageGrowing   GrowthStage = "growing"
	StageThriving  GrowthStage = "thriving"
)

// StageFor maps a consecutive-day count to its stage: 0 needs care, 1-2
// growing, 3+ thriving.
func StageFor(consecutiveDays int) GrowthStage {
	switch {
	case consecutiveDays <= 0:
		return StageNeedsCare
	case consecutiveDays < 3:
		return StageGrowing
	default:
		return StageThriving
	}
}

// WoolGain returns the kilograms of wool credited for a fresh completion at stage.
func WoolGain(stage GrowthStage) int {
	switch stage {
	case StageGrowing:
		return 2
	case StageThriving:
		return 3
	default:
		return 1
	}
}

// Valid reports whether g is a known stage.
func (g GrowthStage) Valid() bool {
	switch g {
	case StageNeedsCare, StageGrowing, StageThriving:
		return true
	}
	return false
}

// DisplayName returns the human readable label.
func (g GrowthStage) DisplayName() string {
	switch g {
	case StageGrowing:
		return "Growing"
	case StageThriving:
		return "Thriving"
	default:
		return "Needs care"
	}
}

// UnmarshalJSON rejects unknown stage names so corrupt stores fall through migration.
func (g *GrowthStage) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	stage := GrowthStage(s)
	if !stage.Valid() {
		return fmt.Errorf("unknown growth stage %q", s)
	}
	*g = stage
	return nil
}
