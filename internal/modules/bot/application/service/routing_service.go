package service

import (
	"strings"

	botEntity "CareLink/internal/modules/bot/domain/entity"
	botRepository "CareLink/internal/modules/bot/domain/repository"
)

// RoutingService 关键词路由规则。规则按 priority 排序，命中第一条即返回。
type RoutingService interface {
	// Evaluate 返回第一条命中的启用规则,无命中返回 nil
	Evaluate(text, department string) (*botEntity.RoutingRule, error)
}

type routingServiceImpl struct {
	repo botRepository.RoutingRuleRepository
}

func NewRoutingService(repo botRepository.RoutingRuleRepository) RoutingService {
	return &routingServiceImpl{repo: repo}
}

func (s *routingServiceImpl) Evaluate(text, department string) (*botEntity.RoutingRule, error) {
	rules, err := s.repo.ListActive(department)
	if err != nil {
		return nil, err
	}
	lower := strings.ToLower(text)
	for i := range rules {
		for _, kw := range rules[i].ContainsAny {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" && strings.Contains(lower, kw) {
				return &rules[i], nil
			}
		}
	}
	return nil, nil
}
