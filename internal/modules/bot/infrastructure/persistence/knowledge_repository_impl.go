package persistence

import (
	botEntity "CareLink/internal/modules/bot/domain/entity"
	botRepository "CareLink/internal/modules/bot/domain/repository"

	"gorm.io/gorm"
)

type knowledgeRepositoryImpl struct {
	db *gorm.DB
}

func NewKnowledgeRepository(db *gorm.DB) botRepository.KnowledgeRepository {
	return &knowledgeRepositoryImpl{db: db}
}

func (r *knowledgeRepositoryImpl) ListActive() ([]botEntity.KnowledgeEntry, error) {
	var entries []botEntity.KnowledgeEntry
	err := r.db.
		Where("active = ?", true).
		Order("id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *knowledgeRepositoryImpl) ListTopLevel() ([]botEntity.KnowledgeEntry, error) {
	var entries []botEntity.KnowledgeEntry
	err := r.db.
		Where("active = ? AND parent_id IS NULL", true).
		Order("id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

type routingRuleRepositoryImpl struct {
	db *gorm.DB
}

func NewRoutingRuleRepository(db *gorm.DB) botRepository.RoutingRuleRepository {
	return &routingRuleRepositoryImpl{db: db}
}

func (r *routingRuleRepositoryImpl) ListActive(department string) ([]botEntity.RoutingRule, error) {
	q := r.db.Where("active = ?", true)
	if department != "" {
		q = q.Where("department = ? OR department = ''", department)
	}
	var rules []botEntity.RoutingRule
	err := q.Order("priority ASC, created_at DESC").Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

type unansweredQueryRepositoryImpl struct {
	db *gorm.DB
}

func NewUnansweredQueryRepository(db *gorm.DB) botRepository.UnansweredQueryRepository {
	return &unansweredQueryRepositoryImpl{db: db}
}

func (r *unansweredQueryRepositoryImpl) Create(q *botEntity.UnansweredQuery) error {
	return r.db.Create(q).Error
}
