package models

// Zone is a body region a move can target or cover.
type Zone string

const (
	ZoneHead Zone = "head"
	ZoneBody Zone = "body"
	ZoneLegs Zone = "legs"
)

func (z Zone) Valid() bool {
	switch z {
	case ZoneHead, ZoneBody, ZoneLegs:
		return true
	}
	return false
}

type DuelStatus string

const (
	DuelStatusPending DuelStatus = "pending"
	// DuelStatusAccepted exists only transiently while an accept resolves;
	// it is never observable in a persisted row.
	DuelStatusAccepted  DuelStatus = "accepted"
	DuelStatusRejected  DuelStatus = "rejected"
	DuelStatusCompleted DuelStatus = "completed"
)

// MoveSet is one side's plan: one attack zone and one defense zone per round.
type MoveSet struct {
	Attacks  []Zone `json:"attacks"`
	Defenses []Zone `json:"defenses"`
}

// DuelRound records one exchange. Damage fields hold damage *taken* by that
// side, matching the result totals.
type DuelRound struct {
	Round             int  `json:"round"`
	ChallengerAttack  Zone `json:"challenger_attack"`
	ChallengerDefense Zone `json:"challenger_defense"`
	OpponentAttack    Zone `json:"opponent_attack"`
	OpponentDefense   Zone `json:"opponent_defense"`
	ChallengerDamage  int  `json:"challenger_damage"`
	OpponentDamage    int  `json:"opponent_damage"`
}

type DuelHP struct {
	Challenger int `json:"challenger"`
	Opponent   int `json:"opponent"`
}

type DuelReward struct {
	XP       int `json:"xp"`
	Emeralds int `json:"emeralds"`
}

// DuelResult is the full outcome payload attached to a completed duel.
// Simulated HP is not written back to the dinos; only the reward is.
type DuelResult struct {
	WinnerID         uint        `json:"winner_id"`
	ChallengerDamage int         `json:"challenger_damage"`
	OpponentDamage   int         `json:"opponent_damage"`
	Rounds           []DuelRound `json:"rounds"`
	StartingHP       DuelHP      `json:"starting_hp"`
	RemainingHP      DuelHP      `json:"remaining_hp"`
	Reward           DuelReward  `json:"reward"`
}

// Duel is one challenge-and-response exchange between two dinos. It references
// its combatants by id and never owns them.
type Duel struct {
	ID           uint `gorm:"primaryKey" json:"id"`
	ChallengerID uint `gorm:"index;not null" json:"challenger_id"`
	OpponentID   uint `gorm:"index;not null" json:"opponent_id"`

	Challenger *Dino `gorm:"foreignKey:ChallengerID" json:"challenger,omitempty"`
	Opponent   *Dino `gorm:"foreignKey:OpponentID" json:"opponent,omitempty"`

	Status DuelStatus `gorm:"type:varchar(16);default:'pending';check:status IN ('pending','accepted','rejected','completed')" json:"status"`

	ChallengerMoves MoveSet     `gorm:"serializer:json" json:"challenger_moves"`
	OpponentMoves   *MoveSet    `gorm:"serializer:json" json:"opponent_moves,omitempty"`
	Result          *DuelResult `gorm:"serializer:json" json:"result,omitempty"`

	IsSeenByChallenger bool `gorm:"default:false" json:"is_seen_by_challenger"`
	IsSeenByOpponent   bool `gorm:"default:false" json:"is_seen_by_opponent"`

	Timestamps
}
