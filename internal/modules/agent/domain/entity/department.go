package entity

import (
	"time"
)

// Department 路由科室，坐席与待接入队列都按科室分组
type Department struct {
	Id        int64     `gorm:"column:id;primaryKey;comment:自增id"`
	Name      string    `gorm:"column:name;type:varchar(100);uniqueIndex;not null;comment:科室名"`
	SortOrder int       `gorm:"column:sort_order;default:0;comment:展示排序"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

func (Department) TableName() string {
	return "departments"
}
