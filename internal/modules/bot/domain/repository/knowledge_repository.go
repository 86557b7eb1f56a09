package repository

import (
	"CareLink/internal/modules/bot/domain/entity"
)

type KnowledgeRepository interface {
	// ListActive 按 id 升序返回启用条目，加载顺序即匹配同分时的优先顺序
	ListActive() ([]entity.KnowledgeEntry, error)
	// ListTopLevel 返回无父条目的顶层问题，供界面的常见问题入口
	ListTopLevel() ([]entity.KnowledgeEntry, error)
}

type RoutingRuleRepository interface {
	// ListActive 返回启用规则，priority 升序、同级按创建时间倒序
	ListActive(department string) ([]entity.RoutingRule, error)
}

type UnansweredQueryRepository interface {
	Create(q *entity.UnansweredQuery) error
}
