package services

import (
	"math"
	"math/rand"

	"dino-duel-service/models"
)

const (
	maxRounds  = 3
	baseDamage = 15.0
	minDamage  = 5
	maxDamage  = 25
)

// CombatEngine resolves a duel from two dino snapshots and two move sets. It
// is a pure computation apart from the jitter source, which is injected so
// tests can pin the seed.
type CombatEngine struct {
	rng *rand.Rand
}

func NewCombatEngine(rng *rand.Rand) *CombatEngine {
	return &CombatEngine{rng: rng}
}

// zoneStats blends attributes per zone. Heads are fought with the mind, legs
// with speed; defenses always lean on endurance.
func zoneStats(d *models.Dino, zone models.Zone, attack bool) float64 {
	switch zone {
	case models.ZoneHead:
		if attack {
			return float64(d.Intelligence)*0.7 + float64(d.Agility)*0.3
		}
		return float64(d.Intelligence)*0.6 + float64(d.Endurance)*0.4
	case models.ZoneBody:
		if attack {
			return float64(d.Strength)*0.7 + float64(d.Endurance)*0.3
		}
		return float64(d.Endurance)*0.7 + float64(d.Strength)*0.3
	case models.ZoneLegs:
		if attack {
			return float64(d.Agility)*0.7 + float64(d.Strength)*0.3
		}
		return float64(d.Agility)*0.6 + float64(d.Endurance)*0.4
	}
	return 0
}

// zoneEffectiveness: attacking a covered zone is a perfect block; otherwise
// head beats legs, body beats head, legs beat body.
func zoneEffectiveness(attack, defense models.Zone) float64 {
	if attack == defense {
		return 0.5
	}
	switch attack {
	case models.ZoneHead:
		if defense == models.ZoneLegs {
			return 1.3
		}
		if defense == models.ZoneBody {
			return 0.8
		}
	case models.ZoneBody:
		if defense == models.ZoneHead {
			return 1.3
		}
		if defense == models.ZoneLegs {
			return 0.8
		}
	case models.ZoneLegs:
		if defense == models.ZoneBody {
			return 1.3
		}
		if defense == models.ZoneHead {
			return 0.8
		}
	}
	return 1.0
}

// damage computes a single attack. The log ratio keeps stat blowouts in
// check, the 0.2 exponent keeps level gaps mild, and the jitter stays inside
// ±5%. Clamped to [minDamage, maxDamage].
func (e *CombatEngine) damage(attacker, defender *models.Dino, attackZone, defenseZone models.Zone) int {
	attackStat := zoneStats(attacker, attackZone, true)
	defenseStat := zoneStats(defender, defenseZone, false)

	statRatio := math.Log10(attackStat/defenseStat + 1)
	effectiveness := zoneEffectiveness(attackZone, defenseZone)
	levelFactor := math.Pow(float64(attacker.Level)/float64(defender.Level), 0.2)
	jitter := 0.95 + e.rng.Float64()*0.1

	dmg := int(math.Round(baseDamage * statRatio * effectiveness * levelFactor * jitter))
	if dmg < minDamage {
		dmg = minDamage
	}
	if dmg > maxDamage {
		dmg = maxDamage
	}
	return dmg
}

// Resolve plays out up to three rounds starting from each dino's current
// persisted health. The challenger strikes first every round; the opponent
// answers only while still standing. Ties on remaining HP go to the
// challenger.
func (e *CombatEngine) Resolve(challenger, opponent *models.Dino, challengerMoves, opponentMoves models.MoveSet) *models.DuelResult {
	challengerHP := challenger.Health
	opponentHP := opponent.Health

	result := &models.DuelResult{
		StartingHP: models.DuelHP{Challenger: challengerHP, Opponent: opponentHP},
	}

	for i := 0; i < maxRounds && challengerHP > 0 && opponentHP > 0; i++ {
		round := models.DuelRound{
			Round:             i + 1,
			ChallengerAttack:  challengerMoves.Attacks[i],
			ChallengerDefense: challengerMoves.Defenses[i],
			OpponentAttack:    opponentMoves.Attacks[i],
			OpponentDefense:   opponentMoves.Defenses[i],
		}

		round.OpponentDamage = e.damage(challenger, opponent, round.ChallengerAttack, round.OpponentDefense)
		opponentHP -= round.OpponentDamage

		if opponentHP > 0 {
			round.ChallengerDamage = e.damage(opponent, challenger, round.OpponentAttack, round.ChallengerDefense)
			challengerHP -= round.ChallengerDamage
		}

		result.ChallengerDamage += round.ChallengerDamage
		result.OpponentDamage += round.OpponentDamage
		result.Rounds = append(result.Rounds, round)
	}

	// Remaining HP may go negative on a KO; it only breaks ties.
	challengerRemaining := result.StartingHP.Challenger - result.ChallengerDamage
	opponentRemaining := result.StartingHP.Opponent - result.OpponentDamage

	switch {
	case challengerHP <= 0 && opponentHP <= 0:
		if challengerRemaining >= opponentRemaining {
			result.WinnerID = challenger.ID
		} else {
			result.WinnerID = opponent.ID
		}
	case challengerHP <= 0:
		result.WinnerID = opponent.ID
	case opponentHP <= 0:
		result.WinnerID = challenger.ID
	default:
		if challengerRemaining >= opponentRemaining {
			result.WinnerID = challenger.ID
		} else {
			result.WinnerID = opponent.ID
		}
	}

	result.RemainingHP = models.DuelHP{
		Challenger: max(0, challengerHP),
		Opponent:   max(0, opponentHP),
	}
	return result
}
