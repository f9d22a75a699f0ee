package models

import "time"

// Dino is the combat-relevant snapshot of a creature. Husbandry (feeding,
// caves, jobs, hunting) is owned by the main game service; this service reads
// stats at duel time and writes back rewards and the daily duel counters.
type Dino struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Name   string `gorm:"index;not null" json:"name"`
	UserID uint   `gorm:"index;not null" json:"user_id"`

	Intelligence int `gorm:"default:10" json:"intelligence"`
	Agility      int `gorm:"default:10" json:"agility"`
	Strength     int `gorm:"default:10" json:"strength"`
	Endurance    int `gorm:"default:10" json:"endurance"`
	Health       int `gorm:"default:100" json:"health"`
	Level        int `gorm:"default:1" json:"level"`

	Experience int `gorm:"default:0" json:"experience"`
	Emeralds   int `gorm:"default:0" json:"emeralds"`

	// Reset to zero by the midnight job.
	DailySentDuels     int `gorm:"default:0" json:"daily_sent_duels"`
	DailyReceivedDuels int `gorm:"default:0" json:"daily_received_duels"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
