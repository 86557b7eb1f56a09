package persistence

import (
	"time"

	chatEntity "CareLink/internal/modules/chat/domain/entity"
	chatRepository "CareLink/internal/modules/chat/domain/repository"

	"gorm.io/gorm"
)

type conversationRepositoryImpl struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) chatRepository.ConversationRepository {
	return &conversationRepositoryImpl{db: db}
}

func (r *conversationRepositoryImpl) Create(conv *chatEntity.Conversation) error {
	return r.db.Create(conv).Error
}

func (r *conversationRepositoryImpl) CreateWithTranscript(conv *chatEntity.Conversation, msgs []*chatEntity.Message) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(conv).Error; err != nil {
			return err
		}
		for _, m := range msgs {
			if err := tx.Create(m).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *conversationRepositoryImpl) GetByID(id string) (*chatEntity.Conversation, error) {
	var conv chatEntity.Conversation
	if err := r.db.Where("id = ?", id).First(&conv).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepositoryImpl) ListPendingByDepartment(department string) ([]chatEntity.Conversation, error) {
	var convs []chatEntity.Conversation
	err := r.db.
		Where("department = ? AND status = ?", department, chatEntity.StatusPending).
		Order("created_at ASC").
		Find(&convs).Error
	if err != nil {
		return nil, err
	}
	return convs, nil
}

// Accept 单条条件更新实现抢占，两个坐席并发受理同一会话时最多一人成功
func (r *conversationRepositoryImpl) Accept(chatID string, agentID int64, department string) (bool, error) {
	res := r.db.Model(&chatEntity.Conversation{}).
		Where("id = ? AND department = ? AND status = ? AND assigned_agent_id IS NULL",
			chatID, department, chatEntity.StatusPending).
		Updates(map[string]interface{}{
			"assigned_agent_id": agentID,
			"status":            chatEntity.StatusActive,
			"updated_at":        time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *conversationRepositoryImpl) Forward(chatID string, agentID int64, newDepartment string) (bool, error) {
	res := r.db.Model(&chatEntity.Conversation{}).
		Where("id = ? AND status = ? AND assigned_agent_id = ?",
			chatID, chatEntity.StatusActive, agentID).
		Updates(map[string]interface{}{
			"department":        newDepartment,
			"assigned_agent_id": nil,
			"status":            chatEntity.StatusPending,
			"updated_at":        time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *conversationRepositoryImpl) Close(chatID string) (bool, error) {
	res := r.db.Model(&chatEntity.Conversation{}).
		Where("id = ? AND status <> ?", chatID, chatEntity.StatusClosed).
		Updates(map[string]interface{}{
			"status":     chatEntity.StatusClosed,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
