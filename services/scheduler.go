// services/scheduler.go
package services

import (
	"log"

	"dino-duel-service/models"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StartDailyReset schedules RunDailyReset for midnight every day.
func (s *DuelService) StartDailyReset() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 0, 0))),
		gocron.NewTask(s.RunDailyReset),
	)
}

// RunDailyReset wipes the duel table and zeroes every dino's daily counters.
// Duel lifetime and the rate-limit window reset on the same boundary.
// Failures are logged and never reach request paths.
func (s *DuelService) RunDailyReset() {
	runID := uuid.NewString()

	if err := s.DB.Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.Duel{}).Error; err != nil {
		log.Printf("[DailyReset %s] failed to purge duels: %v", runID, err)
	} else {
		log.Printf("[DailyReset %s] duel table purged", runID)
	}

	if err := s.DB.Model(&models.Dino{}).
		Where("daily_sent_duels > 0 OR daily_received_duels > 0").
		Updates(map[string]interface{}{
			"daily_sent_duels":     0,
			"daily_received_duels": 0,
		}).Error; err != nil {
		log.Printf("[DailyReset %s] failed to reset daily counters: %v", runID, err)
	} else {
		log.Printf("[DailyReset %s] daily duel counters reset", runID)
	}
}
