package initial

import (
	"fmt"
	"log"
	"os"
	"time"

	"CareLink/internal/config"
	agentEntity "CareLink/internal/modules/agent/domain/entity"
	botEntity "CareLink/internal/modules/bot/domain/entity"
	chatEntity "CareLink/internal/modules/chat/domain/entity"
	"CareLink/pkg/zlog"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var GormDB *gorm.DB

func init() {
	conf := config.GetConfig()
	user := conf.MysqlConfig.User
	password := conf.MysqlConfig.Password
	host := conf.MysqlConfig.Host
	port := conf.MysqlConfig.Port
	dbName := conf.MysqlConfig.DatabaseName
	if dbName == "" {
		dbName = conf.AppName
	}
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local", user, password, host, port, dbName)

	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	var err error
	GormDB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: gormLogger})
	if err != nil {
		zlog.Fatal(err.Error())
	}

	// 自动迁移，没有表会建表
	err = GormDB.AutoMigrate(
		&chatEntity.Conversation{},
		&chatEntity.Message{},

		&agentEntity.Agent{},
		&agentEntity.AdminUser{},
		&agentEntity.Department{},
		&agentEntity.AgentInvitation{},
		&agentEntity.EmailVerificationToken{},

		&botEntity.KnowledgeEntry{},
		&botEntity.RoutingRule{},
		&botEntity.UnansweredQuery{},
	)
	if err != nil {
		zlog.Fatal(err.Error())
	}
}
