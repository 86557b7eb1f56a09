package entity

import (
	"time"
)

// 规则动作。ESCALATE 之外的动作只发送 ThenReply，不转人工。
const ActionEscalate = "ESCALATE"

// RoutingRule 科室路由规则。priority 越小越先判定，命中即止。
type RoutingRule struct {
	Id          int64     `gorm:"column:id;primaryKey;comment:自增id"`
	Department  string    `gorm:"column:department;type:varchar(100);index;comment:限定科室，空为全局"`
	ContainsAny []string  `gorm:"column:contains_any;serializer:json;type:text;comment:触发词，任一子串命中即匹配"`
	ThenReply   string    `gorm:"column:then_reply;type:text;comment:固定回复"`
	ThenAction  string    `gorm:"column:then_action;type:varchar(32);comment:ESCALATE 等"`
	Active      bool      `gorm:"column:active;default:true"`
	Priority    int       `gorm:"column:priority;default:100;comment:越小越先判定"`
	CreatedAt   time.Time `gorm:"column:created_at;not null"`
}

func (RoutingRule) TableName() string {
	return "routing_rules"
}
