package persistence

import (
	"time"

	agentEntity "CareLink/internal/modules/agent/domain/entity"
	agentRepository "CareLink/internal/modules/agent/domain/repository"

	"gorm.io/gorm"
)

type agentRepositoryImpl struct {
	db *gorm.DB
}

func NewAgentRepository(db *gorm.DB) agentRepository.AgentRepository {
	return &agentRepositoryImpl{db: db}
}

func (r *agentRepositoryImpl) Create(agent *agentEntity.Agent) error {
	return r.db.Create(agent).Error
}

func (r *agentRepositoryImpl) GetByID(id int64) (*agentEntity.Agent, error) {
	var a agentEntity.Agent
	if err := r.db.Where("id = ?", id).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *agentRepositoryImpl) GetByEmail(email string) (*agentEntity.Agent, error) {
	var a agentEntity.Agent
	if err := r.db.Where("email = ?", email).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *agentRepositoryImpl) ListAll() ([]agentEntity.Agent, error) {
	var agents []agentEntity.Agent
	if err := r.db.Order("id ASC").Find(&agents).Error; err != nil {
		return nil, err
	}
	return agents, nil
}

func (r *agentRepositoryImpl) UpdateStatus(id int64, status string) error {
	return r.db.Model(&agentEntity.Agent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":    status,
			"last_seen": time.Now(),
		}).Error
}

func (r *agentRepositoryImpl) SetVerified(id int64) error {
	return r.db.Model(&agentEntity.Agent{}).
		Where("id = ?", id).
		Update("is_verified", true).Error
}

func (r *agentRepositoryImpl) SetApproved(id int64, approved bool) error {
	return r.db.Model(&agentEntity.Agent{}).
		Where("id = ?", id).
		Update("is_approved", approved).Error
}

func (r *agentRepositoryImpl) UpdateLastLogin(id int64, ip string) error {
	return r.db.Model(&agentEntity.Agent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_login_at": time.Now(),
			"last_login_ip": ip,
		}).Error
}
