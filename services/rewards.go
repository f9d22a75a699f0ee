package services

import (
	"math"

	"dino-duel-service/models"

	"gorm.io/gorm"
)

const (
	baseXPReward      = 4.0
	baseEmeraldReward = 3.0

	minXPReward      = 1
	maxXPReward      = 8
	minEmeraldReward = 1
	maxEmeraldReward = 6
)

func clampRatio(v float64) float64 {
	return math.Min(2, math.Max(0.5, v))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// CalculateReward sizes the winner's prize by how outmatched they were:
// beating a higher-level, better-statted dino pays more. The loser gets
// nothing and loses nothing.
func CalculateReward(winner, loser *models.Dino) models.DuelReward {
	levelRatio := clampRatio(float64(loser.Level) / float64(winner.Level))

	winnerStats := winner.Strength + winner.Agility + winner.Intelligence + winner.Endurance
	loserStats := loser.Strength + loser.Agility + loser.Intelligence + loser.Endurance
	statsRatio := clampRatio(float64(loserStats) / float64(winnerStats))

	xp := clampInt(int(math.Round(baseXPReward*levelRatio*statsRatio)), minXPReward, maxXPReward)
	emeralds := clampInt(int(math.Round(baseEmeraldReward*(levelRatio+statsRatio)/2)), minEmeraldReward, maxEmeraldReward)

	return models.DuelReward{XP: xp, Emeralds: emeralds}
}

// ApplyReward credits the winner and rewrites both rows inside tx so the duel
// result write and the stat write land together. The loser is saved unchanged
// to keep a uniform snapshot write pattern.
func ApplyReward(tx *gorm.DB, winner, loser *models.Dino, reward models.DuelReward) error {
	winner.Experience += reward.XP
	winner.Emeralds += reward.Emeralds

	if err := tx.Save(winner).Error; err != nil {
		return err
	}
	return tx.Save(loser).Error
}
