package services

import (
	"testing"

	"dino-duel-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunDailyReset(t *testing.T) {
	svc := newTestDuelService(t)
	rex := seedDino(t, svc.DB, 1, "rex")
	tricera := seedDino(t, svc.DB, 2, "tricera")

	duel, err := svc.CreateDuel(rex.ID, tricera.ID, validMoves(), 1)
	require.NoError(t, err)
	_, err = svc.AcceptDuel(duel.ID, tricera.ID, validMoves(), 2)
	require.NoError(t, err)
	_, err = svc.CreateDuel(rex.ID, tricera.ID, validMoves(), 1)
	require.NoError(t, err)

	svc.RunDailyReset()

	// Completed and pending duels alike are gone.
	var remaining int64
	require.NoError(t, svc.DB.Model(&models.Duel{}).Count(&remaining).Error)
	assert.Zero(t, remaining)

	sent, _ := counters(t, svc.DB, rex.ID)
	_, received := counters(t, svc.DB, tricera.ID)
	assert.Zero(t, sent)
	assert.Zero(t, received)

	// Rewards survive the reset, only the rate-limit state is cleared.
	var dinos []models.Dino
	require.NoError(t, svc.DB.Find(&dinos).Error)
	totalXP := 0
	for _, d := range dinos {
		totalXP += d.Experience
	}
	assert.Positive(t, totalXP)
}
