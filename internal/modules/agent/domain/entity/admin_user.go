package entity

import (
	"time"
)

type AdminUser struct {
	Id           int64     `gorm:"column:id;primaryKey;comment:自增id"`
	Username     string    `gorm:"column:username;type:varchar(100);uniqueIndex;not null"`
	PasswordHash string    `gorm:"column:password_hash;type:varchar(255);not null"`
	Email        string    `gorm:"column:email;type:varchar(190)"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"`
}

func (AdminUser) TableName() string {
	return "admin_users"
}
