package persistence

import (
	agentEntity "CareLink/internal/modules/agent/domain/entity"
	agentRepository "CareLink/internal/modules/agent/domain/repository"

	"gorm.io/gorm"
)

type departmentRepositoryImpl struct {
	db *gorm.DB
}

func NewDepartmentRepository(db *gorm.DB) agentRepository.DepartmentRepository {
	return &departmentRepositoryImpl{db: db}
}

func (r *departmentRepositoryImpl) List() ([]agentEntity.Department, error) {
	var depts []agentEntity.Department
	if err := r.db.Order("sort_order ASC, id ASC").Find(&depts).Error; err != nil {
		return nil, err
	}
	return depts, nil
}

func (r *departmentRepositoryImpl) ListNames() ([]string, error) {
	depts, err := r.List()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(depts))
	for _, d := range depts {
		names = append(names, d.Name)
	}
	return names, nil
}
