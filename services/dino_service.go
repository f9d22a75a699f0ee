package services

import (
	"errors"

	"dino-duel-service/models"

	"gorm.io/gorm"
)

type DinoService struct {
	DB *gorm.DB
}

func NewDinoService(db *gorm.DB) *DinoService {
	return &DinoService{DB: db}
}

// VerifyOwnership loads the dino and checks the caller owns it. A missing row
// and a row owned by someone else are indistinguishable to the caller.
func (s *DinoService) VerifyOwnership(dinoID, userID uint) (*models.Dino, error) {
	var dino models.Dino
	err := s.DB.Where("id = ? AND user_id = ?", dinoID, userID).First(&dino).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOwnership
	}
	if err != nil {
		return nil, err
	}
	return &dino, nil
}

func (s *DinoService) GetDino(id uint) (*models.Dino, error) {
	var dino models.Dino
	err := s.DB.First(&dino, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &dino, nil
}

func (s *DinoService) SaveDino(dino *models.Dino) error {
	return s.DB.Save(dino).Error
}
