package entity

import (
	"time"
)

// UnansweredQuery 低置信度且未转人工的提问，沉淀下来补充知识库
type UnansweredQuery struct {
	Id         int64     `gorm:"column:id;primaryKey;comment:自增id"`
	Query      string    `gorm:"column:query;type:text;not null"`
	Department string    `gorm:"column:department;type:varchar(100)"`
	Confidence float64   `gorm:"column:confidence"`
	CreatedAt  time.Time `gorm:"column:created_at;not null"`
}

func (UnansweredQuery) TableName() string {
	return "unanswered_queries"
}
