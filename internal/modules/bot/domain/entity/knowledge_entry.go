package entity

import (
	"time"
)

// KnowledgeEntry 知识库问答条目。parent_id 构成追问建议树：
// 命中某条目后，其子条目作为推荐追问返回给患者。
type KnowledgeEntry struct {
	Id        int64     `gorm:"column:id;primaryKey;comment:自增id"`
	Question  string    `gorm:"column:question;type:text;not null;comment:标准问题"`
	Answer    string    `gorm:"column:answer;type:text;comment:答案"`
	Keywords  string    `gorm:"column:keywords;type:varchar(500);comment:关键词，空格分隔"`
	Tags      string    `gorm:"column:tags;type:varchar(255)"`
	ParentId  *int64    `gorm:"column:parent_id;index;comment:父条目id，用于追问建议"`
	Active    bool      `gorm:"column:active;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

func (KnowledgeEntry) TableName() string {
	return "faq_entries"
}
