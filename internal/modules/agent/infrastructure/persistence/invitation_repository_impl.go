package persistence

import (
	"time"

	agentEntity "CareLink/internal/modules/agent/domain/entity"
	agentRepository "CareLink/internal/modules/agent/domain/repository"

	"gorm.io/gorm"
)

type invitationRepositoryImpl struct {
	db *gorm.DB
}

func NewInvitationRepository(db *gorm.DB) agentRepository.InvitationRepository {
	return &invitationRepositoryImpl{db: db}
}

func (r *invitationRepositoryImpl) Create(inv *agentEntity.AgentInvitation) error {
	return r.db.Create(inv).Error
}

func (r *invitationRepositoryImpl) GetByToken(token string) (*agentEntity.AgentInvitation, error) {
	var inv agentEntity.AgentInvitation
	if err := r.db.Where("token = ?", token).First(&inv).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *invitationRepositoryImpl) MarkAccepted(id int64) error {
	return r.db.Model(&agentEntity.AgentInvitation{}).
		Where("id = ?", id).
		Update("accepted_at", time.Now()).Error
}

type verificationTokenRepositoryImpl struct {
	db *gorm.DB
}

func NewVerificationTokenRepository(db *gorm.DB) agentRepository.VerificationTokenRepository {
	return &verificationTokenRepositoryImpl{db: db}
}

func (r *verificationTokenRepositoryImpl) Create(token *agentEntity.EmailVerificationToken) error {
	return r.db.Create(token).Error
}

func (r *verificationTokenRepositoryImpl) GetByToken(token string) (*agentEntity.EmailVerificationToken, error) {
	var t agentEntity.EmailVerificationToken
	if err := r.db.Where("token = ?", token).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *verificationTokenRepositoryImpl) Delete(id int64) error {
	return r.db.Delete(&agentEntity.EmailVerificationToken{}, id).Error
}
