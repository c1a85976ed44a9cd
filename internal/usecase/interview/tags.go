package interview

import (
	"math"

	"github.com/johnquangdev/mock-interview/internal/domain/entities"
)

// MergeTags folds a turn's skill scores into a profile. Known skills move to
// round((old+new)/2), new skills are inserted as reported, unreported skills keep their value.
// Repeating the same tags is not a no-op: each application averages again.
// profile is not modified.
func MergeTags(profile entities.SkillProfile, tags map[string]int) entities.SkillProfile {
	out := make(entities.SkillProfile, len(profile)+len(tags))
	for k, v := range profile {
		out[k] = v
	}
	for skill, score := range tags {
		if old, ok := out[skill]; ok {
			out[skill] = roundHalfUp(float64(old+score) / 2)
			continue
		}
		out[skill] = score
	}
	return out
}

// roundHalfUp rounds x.5 toward +Inf
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
