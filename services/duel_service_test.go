package services

import (
	"fmt"
	"math/rand"
	"testing"

	"dino-duel-service/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Dino{}, &models.Duel{}))
	return db
}

func newTestDuelService(t *testing.T) *DuelService {
	t.Helper()
	db := newTestDB(t)
	svc := NewDuelService(db, NewDinoService(db))
	svc.Engine = NewCombatEngine(rand.New(rand.NewSource(1)))
	return svc
}

func seedDino(t *testing.T, db *gorm.DB, userID uint, name string) *models.Dino {
	t.Helper()
	dino := &models.Dino{
		Name:         name,
		UserID:       userID,
		Intelligence: 10,
		Agility:      10,
		Strength:     10,
		Endurance:    10,
		Health:       100,
		Level:        1,
	}
	require.NoError(t, db.Create(dino).Error)
	return dino
}

func validMoves() models.MoveSet {
	return models.MoveSet{
		Attacks:  []models.Zone{models.ZoneHead, models.ZoneBody, models.ZoneLegs},
		Defenses: []models.Zone{models.ZoneLegs, models.ZoneHead, models.ZoneBody},
	}
}

func counters(t *testing.T, db *gorm.DB, id uint) (sent, received int) {
	t.Helper()
	var dino models.Dino
	require.NoError(t, db.First(&dino, id).Error)
	return dino.DailySentDuels, dino.DailyReceivedDuels
}

func TestCreateDuel(t *testing.T) {
	svc := newTestDuelService(t)
	challenger := seedDino(t, svc.DB, 1, "rex")
	opponent := seedDino(t, svc.DB, 2, "tricera")

	duel, err := svc.CreateDuel(challenger.ID, opponent.ID, validMoves(), 1)
	require.NoError(t, err)

	assert.Equal(t, models.DuelStatusPending, duel.Status)
	assert.True(t, duel.IsSeenByChallenger)
	assert.False(t, duel.IsSeenByOpponent)
	assert.Nil(t, duel.OpponentMoves)
	assert.Nil(t, duel.Result)

	sent, _ := counters(t, svc.DB, challenger.ID)
	_, received := counters(t, svc.DB, opponent.ID)
	assert.Equal(t, 1, sent)
	assert.Equal(t, 1, received)
}

func TestCreateDuelOwnership(t *testing.T) {
	svc := newTestDuelService(t)
	challenger := seedDino(t, svc.DB, 1, "rex")
	opponent := seedDino(t, svc.DB, 2, "tricera")

	_, err := svc.CreateDuel(challenger.ID, opponent.ID, validMoves(), 99)
	assert.ErrorIs(t, err, ErrOwnership)
}

func TestCreateDuelOpponentMissing(t *testing.T) {
	svc := newTestDuelService(t)
	challenger := seedDino(t, svc.DB, 1, "rex")

	_, err := svc.CreateDuel(challenger.ID, 12345, validMoves(), 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateDuelSelfChallenge(t *testing.T) {
	svc := newTestDuelService(t)
	dino := seedDino(t, svc.DB, 1, "rex")

	_, err := svc.CreateDuel(dino.ID, dino.ID, validMoves(), 1)
	assert.ErrorIs(t, err, ErrInvalidTarget)
}

func TestCreateDuelInvalidMoveSet(t *testing.T) {
	svc := newTestDuelService(t)
	challenger := seedDino(t, svc.DB, 1, "rex")
	opponent := seedDino(t, svc.DB, 2, "tricera")

	short := models.MoveSet{
		Attacks:  []models.Zone{models.ZoneHead},
		Defenses: []models.Zone{models.ZoneLegs, models.ZoneHead, models.ZoneBody},
	}
	_, err := svc.CreateDuel(challenger.ID, opponent.ID, short, 1)
	assert.ErrorIs(t, err, ErrInvalidMoveSet)

	badZone := validMoves()
	badZone.Attacks[1] = models.Zone("tail")
	_, err = svc.CreateDuel(challenger.ID, opponent.ID, badZone, 1)
	assert.ErrorIs(t, err, ErrInvalidMoveSet)

	// Nothing persisted, no quota charged.
	sent, _ := counters(t, svc.DB, challenger.ID)
	assert.Zero(t, sent)
}

func TestCreateDuelRateLimit(t *testing.T) {
	svc := newTestDuelService(t)
	challenger := seedDino(t, svc.DB, 1, "rex")
	opponent := seedDino(t, svc.DB, 2, "tricera")

	require.NoError(t, svc.DB.Model(challenger).Update("daily_sent_duels", DailyDuelLimit).Error)
	_, err := svc.CreateDuel(challenger.ID, opponent.ID, validMoves(), 1)
	assert.ErrorIs(t, err, ErrRateLimitExceeded)

	require.NoError(t, svc.DB.Model(challenger).Update("daily_sent_duels", 0).Error)
	require.NoError(t, svc.DB.Model(opponent).Update("daily_received_duels", DailyDuelLimit).Error)
	_, err = svc.CreateDuel(challenger.ID, opponent.ID, validMoves(), 1)
	assert.ErrorIs(t, err, ErrRateLimitExceeded)
}

func TestRejectRefundsQuota(t *testing.T) {
	svc := newTestDuelService(t)
	challenger := seedDino(t, svc.DB, 1, "rex")
	opponent := seedDino(t, svc.DB, 2, "tricera")

	duel, err := svc.CreateDuel(challenger.ID, opponent.ID, validMoves(), 1)
	require.NoError(t, err)

	rejected, err := svc.RejectDuel(duel.ID, opponent.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, models.DuelStatusRejected, rejected.Status)

	sent, _ := counters(t, svc.DB, challenger.ID)
	_, received := counters(t, svc.DB, opponent.ID)
	assert.Zero(t, sent)
	assert.Zero(t, received)
}

func TestRejectFloorsCountersAtZero(t *testing.T) {
	svc := newTestDuelService(t)
	challenger := seedDino(t, svc.DB, 1, "rex")
	opponent := seedDino(t, svc.DB, 2, "tricera")

	duel, err := svc.CreateDuel(challenger.ID, opponent.ID, validMoves(), 1)
	require.NoError(t, err)

	// Simulate the midnight reset having already zeroed the counters.
	require.NoError(t, svc.DB.Model(challenger).Update("daily_sent_duels", 0).Error)
	require.NoError(t, svc.DB.Model(opponent).Update("daily_received_duels", 0).Error)

	_, err = svc.RejectDuel(duel.ID, opponent.ID, 2)
	require.NoError(t, err)

	sent, _ := counters(t, svc.DB, challenger.ID)
	_, received := counters(t, svc.DB, opponent.ID)
	assert.Zero(t, sent)
	assert.Zero(t, received)
}

func TestRejectWrongSide(t *testing.T) {
	svc := newTestDuelService(t)
	challenger := seedDino(t, svc.DB, 1, "rex")
	opponent := seedDino(t, svc.DB, 2, "tricera")

	duel, err := svc.CreateDuel(challenger.ID, opponent.ID, validMoves(), 1)
	require.NoError(t, err)

	_, err = svc.RejectDuel(duel.ID, challenger.ID, 1)
	assert.ErrorIs(t, err, ErrNotYourDuel)
}

func TestCancelDuel(t *testing.T) {
	svc := newTestDuelService(t)
	challenger := seedDino(t, svc.DB, 1, "rex")
	opponent := seedDino(t, svc.DB, 2, "tricera")

	duel, err := svc.CreateDuel(challenger.ID, opponent.ID, validMoves(), 1)
	require.NoError(t, err)

	cancelled, err := svc.CancelDuel(duel.ID, challenger.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, models.DuelStatusRejected, cancelled.Status)
	assert.True(t, cancelled.IsSeenByOpponent)

	sent, _ := counters(t, svc.DB, challenger.ID)
	_, received := counters(t, svc.DB, opponent.ID)
	assert.Zero(t, sent)
	assert.Zero(t, received)

	// Only the challenger may cancel.
	duel2, err := svc.CreateDuel(challenger.ID, opponent.ID, validMoves(), 1)
	require.NoError(t, err)
	_, err = svc.CancelDuel(duel2.ID, opponent.ID, 2)
	assert.ErrorIs(t, err, ErrNotYourDuel)
}

func TestAcceptDuelResolves(t *testing.T) {
	svc := newTestDuelService(t)
	challenger := seedDino(t, svc.DB, 1, "rex")
	opponent := seedDino(t, svc.DB, 2, "tricera")

	duel, err := svc.CreateDuel(challenger.ID, opponent.ID, validMoves(), 1)
	require.NoError(t, err)

	completed, err := svc.AcceptDuel(duel.ID, opponent.ID, validMoves(), 2)
	require.NoError(t, err)

	assert.Equal(t, models.DuelStatusCompleted, completed.Status)
	require.NotNil(t, completed.Result)
	require.NotNil(t, completed.OpponentMoves)
	assert.False(t, completed.IsSeenByChallenger)
	assert.False(t, completed.IsSeenByOpponent)

	result := completed.Result
	assert.Contains(t, []uint{challenger.ID, opponent.ID}, result.WinnerID)
	assert.LessOrEqual(t, len(result.Rounds), 3)
	assert.NotEmpty(t, result.Rounds)
	assert.LessOrEqual(t, result.RemainingHP.Challenger, result.StartingHP.Challenger)
	assert.LessOrEqual(t, result.RemainingHP.Opponent, result.StartingHP.Opponent)

	// Winner got paid, and combat HP was never persisted.
	var winner models.Dino
	require.NoError(t, svc.DB.First(&winner, result.WinnerID).Error)
	assert.Equal(t, result.Reward.XP, winner.Experience)
	assert.Equal(t, result.Reward.Emeralds, winner.Emeralds)
	assert.Equal(t, 100, winner.Health)

	// Accepting does not refund the daily quota.
	sent, _ := counters(t, svc.DB, challenger.ID)
	_, received := counters(t, svc.DB, opponent.ID)
	assert.Equal(t, 1, sent)
	assert.Equal(t, 1, received)
}

func TestAcceptWrongSide(t *testing.T) {
	svc := newTestDuelService(t)
	challenger := seedDino(t, svc.DB, 1, "rex")
	opponent := seedDino(t, svc.DB, 2, "tricera")

	duel, err := svc.CreateDuel(challenger.ID, opponent.ID, validMoves(), 1)
	require.NoError(t, err)

	_, err = svc.AcceptDuel(duel.ID, challenger.ID, validMoves(), 1)
	assert.ErrorIs(t, err, ErrNotYourDuel)
}

func TestCompletedDuelIsTerminal(t *testing.T) {
	svc := newTestDuelService(t)
	challenger := seedDino(t, svc.DB, 1, "rex")
	opponent := seedDino(t, svc.DB, 2, "tricera")

	duel, err := svc.CreateDuel(challenger.ID, opponent.ID, validMoves(), 1)
	require.NoError(t, err)
	_, err = svc.AcceptDuel(duel.ID, opponent.ID, validMoves(), 2)
	require.NoError(t, err)

	_, err = svc.AcceptDuel(duel.ID, opponent.ID, validMoves(), 2)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = svc.RejectDuel(duel.ID, opponent.ID, 2)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = svc.CancelDuel(duel.ID, challenger.ID, 1)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// A failed reject must not touch the counters.
	sent, _ := counters(t, svc.DB, challenger.ID)
	_, received := counters(t, svc.DB, opponent.ID)
	assert.Equal(t, 1, sent)
	assert.Equal(t, 1, received)
}

func TestAcceptMissingDuel(t *testing.T) {
	svc := newTestDuelService(t)
	opponent := seedDino(t, svc.DB, 2, "tricera")

	// The midnight purge may race an in-flight accept; a vanished duel is a
	// plain not-found, never a crash.
	_, err := svc.AcceptDuel(4242, opponent.ID, validMoves(), 2)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPendingListsAndHistory(t *testing.T) {
	svc := newTestDuelService(t)
	rex := seedDino(t, svc.DB, 1, "rex")
	tricera := seedDino(t, svc.DB, 2, "tricera")
	raptor := seedDino(t, svc.DB, 3, "raptor")

	open, err := svc.CreateDuel(rex.ID, tricera.ID, validMoves(), 1)
	require.NoError(t, err)
	fought, err := svc.CreateDuel(rex.ID, raptor.ID, validMoves(), 1)
	require.NoError(t, err)
	_, err = svc.AcceptDuel(fought.ID, raptor.ID, validMoves(), 3)
	require.NoError(t, err)

	sent, err := svc.PendingSent(rex.ID, 1)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, open.ID, sent[0].ID)
	require.NotNil(t, sent[0].Opponent)
	assert.Equal(t, "tricera", sent[0].Opponent.Name)

	received, err := svc.PendingReceived(tricera.ID, 2)
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, open.ID, received[0].ID)

	history, err := svc.History(rex.ID, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, fought.ID, history[0].ID)

	history, err = svc.History(raptor.ID, 3)
	require.NoError(t, err)
	require.Len(t, history, 1)

	// Rejected duels leave the pending lists immediately and never reach
	// history.
	_, err = svc.RejectDuel(open.ID, tricera.ID, 2)
	require.NoError(t, err)
	sent, err = svc.PendingSent(rex.ID, 1)
	require.NoError(t, err)
	assert.Empty(t, sent)
	history, err = svc.History(tricera.ID, 2)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestUnseenCountsAndMarkSeen(t *testing.T) {
	svc := newTestDuelService(t)
	rex := seedDino(t, svc.DB, 1, "rex")
	tricera := seedDino(t, svc.DB, 2, "tricera")
	raptor := seedDino(t, svc.DB, 3, "raptor")

	_, err := svc.CreateDuel(rex.ID, tricera.ID, validMoves(), 1)
	require.NoError(t, err)
	fought, err := svc.CreateDuel(raptor.ID, tricera.ID, validMoves(), 3)
	require.NoError(t, err)
	_, err = svc.AcceptDuel(fought.ID, tricera.ID, validMoves(), 2)
	require.NoError(t, err)

	counts, err := svc.UnseenCounts(tricera.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Received)
	assert.Equal(t, int64(1), counts.Completed)

	// The challenger of the completed duel has an unread outcome too.
	counts, err = svc.UnseenCounts(raptor.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(0), counts.Received)
	assert.Equal(t, int64(1), counts.Completed)

	require.NoError(t, svc.MarkSeen(tricera.ID, 2))
	counts, err = svc.UnseenCounts(tricera.ID, 2)
	require.NoError(t, err)
	assert.Zero(t, counts.Received)
	assert.Zero(t, counts.Completed)

	// Marking tricera's duels seen does not touch raptor's flag.
	counts, err = svc.UnseenCounts(raptor.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Completed)
}

func TestDailyCounters(t *testing.T) {
	svc := newTestDuelService(t)
	rex := seedDino(t, svc.DB, 1, "rex")
	tricera := seedDino(t, svc.DB, 2, "tricera")

	_, err := svc.CreateDuel(rex.ID, tricera.ID, validMoves(), 1)
	require.NoError(t, err)

	got, err := svc.DailyCounters(rex.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, &DailyCounters{Sent: 1, Received: 0}, got)

	got, err = svc.DailyCounters(tricera.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, &DailyCounters{Sent: 0, Received: 1}, got)

	_, err = svc.DailyCounters(rex.ID, 2)
	assert.ErrorIs(t, err, ErrOwnership)
}
