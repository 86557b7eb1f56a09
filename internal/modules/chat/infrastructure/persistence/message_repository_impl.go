package persistence

import (
	chatEntity "CareLink/internal/modules/chat/domain/entity"
	chatRepository "CareLink/internal/modules/chat/domain/repository"

	"gorm.io/gorm"
)

type messageRepositoryImpl struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) chatRepository.MessageRepository {
	return &messageRepositoryImpl{db: db}
}

func (r *messageRepositoryImpl) Create(message *chatEntity.Message) error {
	return r.db.Create(message).Error
}

func (r *messageRepositoryImpl) ListByChat(chatID string) ([]chatEntity.Message, error) {
	var msgs []chatEntity.Message
	err := r.db.
		Where("chat_id = ?", chatID).
		Order("created_at ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}
