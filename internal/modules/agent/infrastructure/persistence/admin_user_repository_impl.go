package persistence

import (
	agentEntity "CareLink/internal/modules/agent/domain/entity"
	agentRepository "CareLink/internal/modules/agent/domain/repository"

	"gorm.io/gorm"
)

type adminUserRepositoryImpl struct {
	db *gorm.DB
}

func NewAdminUserRepository(db *gorm.DB) agentRepository.AdminUserRepository {
	return &adminUserRepositoryImpl{db: db}
}

func (r *adminUserRepositoryImpl) Create(admin *agentEntity.AdminUser) error {
	return r.db.Create(admin).Error
}

func (r *adminUserRepositoryImpl) GetByUsername(username string) (*agentEntity.AdminUser, error) {
	var a agentEntity.AdminUser
	if err := r.db.Where("username = ?", username).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}
