package services

import (
	"math/rand"
	"time"

	"dino-duel-service/models"

	"gorm.io/gorm"
)

// DailyDuelLimit caps how many duels a dino may send and receive per day.
// The midnight reset job zeroes the counters.
const DailyDuelLimit = 10

type DuelService struct {
	DB     *gorm.DB
	Dinos  *DinoService
	Engine *CombatEngine
}

func NewDuelService(db *gorm.DB, dinos *DinoService) *DuelService {
	return &DuelService{
		DB:     db,
		Dinos:  dinos,
		Engine: NewCombatEngine(rand.New(rand.NewSource(time.Now().UnixNano()))),
	}
}

func validateMoveSet(m models.MoveSet) error {
	if len(m.Attacks) != maxRounds || len(m.Defenses) != maxRounds {
		return ErrInvalidMoveSet
	}
	for _, z := range m.Attacks {
		if !z.Valid() {
			return ErrInvalidMoveSet
		}
	}
	for _, z := range m.Defenses {
		if !z.Valid() {
			return ErrInvalidMoveSet
		}
	}
	return nil
}

func (s *DuelService) getDuel(duelID uint) (*models.Duel, error) {
	var duel models.Duel
	if err := s.DB.First(&duel, duelID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &duel, nil
}

// CreateDuel opens a pending challenge and charges both dinos' daily quota.
// The quota charge and the duel insert land in one transaction; a crash in
// between would leak quota otherwise.
func (s *DuelService) CreateDuel(challengerID, opponentID uint, moves models.MoveSet, userID uint) (*models.Duel, error) {
	challenger, err := s.Dinos.VerifyOwnership(challengerID, userID)
	if err != nil {
		return nil, err
	}

	opponent, err := s.Dinos.GetDino(opponentID)
	if err != nil {
		return nil, err
	}

	if challenger.ID == opponent.ID {
		return nil, ErrInvalidTarget
	}

	if err := validateMoveSet(moves); err != nil {
		return nil, err
	}

	if challenger.DailySentDuels >= DailyDuelLimit || opponent.DailyReceivedDuels >= DailyDuelLimit {
		return nil, ErrRateLimitExceeded
	}

	duel := &models.Duel{
		ChallengerID:       challenger.ID,
		OpponentID:         opponent.ID,
		Status:             models.DuelStatusPending,
		ChallengerMoves:    moves,
		IsSeenByChallenger: true,
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		challenger.DailySentDuels++
		opponent.DailyReceivedDuels++
		if err := tx.Save(challenger).Error; err != nil {
			return err
		}
		if err := tx.Save(opponent).Error; err != nil {
			return err
		}
		return tx.Create(duel).Error
	})
	if err != nil {
		return nil, err
	}

	duel.Challenger = challenger
	duel.Opponent = opponent
	return duel, nil
}

// AcceptDuel submits the opponent's counter-moves and resolves the duel on
// the spot; there is no observable "accepted" phase. Both seen flags reset so
// each side gets a fresh notification for the outcome.
func (s *DuelService) AcceptDuel(duelID, dinoID uint, moves models.MoveSet, userID uint) (*models.Duel, error) {
	if _, err := s.Dinos.VerifyOwnership(dinoID, userID); err != nil {
		return nil, err
	}

	duel, err := s.getDuel(duelID)
	if err != nil {
		return nil, err
	}

	if duel.OpponentID != dinoID {
		return nil, ErrNotYourDuel
	}
	if duel.Status != models.DuelStatusPending {
		return nil, ErrInvalidTransition
	}
	if err := validateMoveSet(moves); err != nil {
		return nil, err
	}

	// Fresh snapshots at resolution time; stats may have changed since the
	// challenge was issued.
	challenger, err := s.Dinos.GetDino(duel.ChallengerID)
	if err != nil {
		return nil, err
	}
	opponent, err := s.Dinos.GetDino(duel.OpponentID)
	if err != nil {
		return nil, err
	}

	result := s.Engine.Resolve(challenger, opponent, duel.ChallengerMoves, moves)

	winner, loser := challenger, opponent
	if result.WinnerID == opponent.ID {
		winner, loser = opponent, challenger
	}
	result.Reward = CalculateReward(winner, loser)

	duel.OpponentMoves = &moves
	duel.Result = result
	duel.Status = models.DuelStatusCompleted
	duel.IsSeenByChallenger = false
	duel.IsSeenByOpponent = false

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := ApplyReward(tx, winner, loser, result.Reward); err != nil {
			return err
		}
		return tx.Save(duel).Error
	})
	if err != nil {
		return nil, err
	}

	duel.Challenger = challenger
	duel.Opponent = opponent
	return duel, nil
}

// refundQuota returns the daily quota charged at creation, flooring at zero
// in case the midnight reset already zeroed the counters.
func refundQuota(tx *gorm.DB, challengerID, opponentID uint) error {
	if err := tx.Model(&models.Dino{}).
		Where("id = ? AND daily_sent_duels > 0", challengerID).
		UpdateColumn("daily_sent_duels", gorm.Expr("daily_sent_duels - 1")).Error; err != nil {
		return err
	}
	return tx.Model(&models.Dino{}).
		Where("id = ? AND daily_received_duels > 0", opponentID).
		UpdateColumn("daily_received_duels", gorm.Expr("daily_received_duels - 1")).Error
}

// RejectDuel declines a received challenge. A rejected duel must not consume
// either party's daily quota, so both counters are refunded.
func (s *DuelService) RejectDuel(duelID, dinoID, userID uint) (*models.Duel, error) {
	if _, err := s.Dinos.VerifyOwnership(dinoID, userID); err != nil {
		return nil, err
	}

	duel, err := s.getDuel(duelID)
	if err != nil {
		return nil, err
	}

	if duel.OpponentID != dinoID {
		return nil, ErrNotYourDuel
	}
	if duel.Status != models.DuelStatusPending {
		return nil, ErrInvalidTransition
	}

	duel.Status = models.DuelStatusRejected
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := refundQuota(tx, duel.ChallengerID, duel.OpponentID); err != nil {
			return err
		}
		return tx.Save(duel).Error
	})
	if err != nil {
		return nil, err
	}
	return duel, nil
}

// CancelDuel withdraws a challenge the caller sent. The opponent is marked as
// having seen it so a withdrawn challenge never shows up as unread.
func (s *DuelService) CancelDuel(duelID, dinoID, userID uint) (*models.Duel, error) {
	if _, err := s.Dinos.VerifyOwnership(dinoID, userID); err != nil {
		return nil, err
	}

	duel, err := s.getDuel(duelID)
	if err != nil {
		return nil, err
	}

	if duel.ChallengerID != dinoID {
		return nil, ErrNotYourDuel
	}
	if duel.Status != models.DuelStatusPending {
		return nil, ErrInvalidTransition
	}

	duel.Status = models.DuelStatusRejected
	duel.IsSeenByOpponent = true
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := refundQuota(tx, duel.ChallengerID, duel.OpponentID); err != nil {
			return err
		}
		return tx.Save(duel).Error
	})
	if err != nil {
		return nil, err
	}
	return duel, nil
}

// PendingSent lists open challenges the dino has issued, newest first.
func (s *DuelService) PendingSent(dinoID, userID uint) ([]models.Duel, error) {
	if _, err := s.Dinos.VerifyOwnership(dinoID, userID); err != nil {
		return nil, err
	}

	var duels []models.Duel
	err := s.DB.Preload("Challenger").Preload("Opponent").
		Where("status = ? AND challenger_id = ?", models.DuelStatusPending, dinoID).
		Order("created_at DESC").
		Find(&duels).Error
	return duels, err
}

// PendingReceived lists open challenges awaiting the dino's answer, newest
// first.
func (s *DuelService) PendingReceived(dinoID, userID uint) ([]models.Duel, error) {
	if _, err := s.Dinos.VerifyOwnership(dinoID, userID); err != nil {
		return nil, err
	}

	var duels []models.Duel
	err := s.DB.Preload("Challenger").Preload("Opponent").
		Where("status = ? AND opponent_id = ?", models.DuelStatusPending, dinoID).
		Order("created_at DESC").
		Find(&duels).Error
	return duels, err
}

// History lists completed duels the dino fought on either side, newest first.
func (s *DuelService) History(dinoID, userID uint) ([]models.Duel, error) {
	if _, err := s.Dinos.VerifyOwnership(dinoID, userID); err != nil {
		return nil, err
	}

	var duels []models.Duel
	err := s.DB.Preload("Challenger").Preload("Opponent").
		Where("status = ? AND (challenger_id = ? OR opponent_id = ?)", models.DuelStatusCompleted, dinoID, dinoID).
		Order("created_at DESC").
		Find(&duels).Error
	return duels, err
}

type UnseenCounts struct {
	Received  int64 `json:"received"`
	Completed int64 `json:"completed"`
}

// UnseenCounts returns how many unread pending challenges the dino has
// received and how many unread completed outcomes involve it.
func (s *DuelService) UnseenCounts(dinoID, userID uint) (*UnseenCounts, error) {
	if _, err := s.Dinos.VerifyOwnership(dinoID, userID); err != nil {
		return nil, err
	}

	var counts UnseenCounts
	if err := s.DB.Model(&models.Duel{}).
		Where("status = ? AND opponent_id = ? AND is_seen_by_opponent = ?",
			models.DuelStatusPending, dinoID, false).
		Count(&counts.Received).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.Duel{}).
		Where("status = ? AND ((challenger_id = ? AND is_seen_by_challenger = ?) OR (opponent_id = ? AND is_seen_by_opponent = ?))",
			models.DuelStatusCompleted, dinoID, false, dinoID, false).
		Count(&counts.Completed).Error; err != nil {
		return nil, err
	}
	return &counts, nil
}

// MarkSeen acknowledges every unread pending-received and completed duel for
// the dino.
func (s *DuelService) MarkSeen(dinoID, userID uint) error {
	if _, err := s.Dinos.VerifyOwnership(dinoID, userID); err != nil {
		return err
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Duel{}).
			Where("opponent_id = ? AND status IN ? AND is_seen_by_opponent = ?",
				dinoID, []models.DuelStatus{models.DuelStatusPending, models.DuelStatusCompleted}, false).
			Update("is_seen_by_opponent", true).Error; err != nil {
			return err
		}
		return tx.Model(&models.Duel{}).
			Where("challenger_id = ? AND status = ? AND is_seen_by_challenger = ?",
				dinoID, models.DuelStatusCompleted, false).
			Update("is_seen_by_challenger", true).Error
	})
}

type DailyCounters struct {
	Sent     int `json:"sent"`
	Received int `json:"received"`
}

// DailyCounters exposes the raw rate-limit counters for display.
func (s *DuelService) DailyCounters(dinoID, userID uint) (*DailyCounters, error) {
	dino, err := s.Dinos.VerifyOwnership(dinoID, userID)
	if err != nil {
		return nil, err
	}
	return &DailyCounters{Sent: dino.DailySentDuels, Received: dino.DailyReceivedDuels}, nil
}
