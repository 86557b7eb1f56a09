package persistence

import (
	"testing"
	"time"

	botEntity "CareLink/internal/modules/bot/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// 内存库绑定单连接,连接池里第二个连接看到的是另一个空库
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&botEntity.KnowledgeEntry{},
		&botEntity.RoutingRule{},
		&botEntity.UnansweredQuery{},
	))
	return db
}

func TestListActiveSkipsInactiveAndOrdersById(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&[]botEntity.KnowledgeEntry{
		{Id: 3, Question: "third", Active: true, CreatedAt: time.Now()},
		{Id: 1, Question: "first", Active: true, CreatedAt: time.Now()},
		{Id: 2, Question: "disabled", Active: false, CreatedAt: time.Now()},
	}).Error)

	repo := NewKnowledgeRepository(db)
	entries, err := repo.ListActive()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(1), entries[0].Id)
	assert.Equal(t, int64(3), entries[1].Id)
}

func TestListTopLevelExcludesChildren(t *testing.T) {
	db := newTestDB(t)
	parent := int64(1)
	require.NoError(t, db.Create(&[]botEntity.KnowledgeEntry{
		{Id: 1, Question: "root", Active: true, CreatedAt: time.Now()},
		{Id: 2, Question: "child", ParentId: &parent, Active: true, CreatedAt: time.Now()},
	}).Error)

	repo := NewKnowledgeRepository(db)
	entries, err := repo.ListTopLevel()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "root", entries[0].Question)
}

func TestRoutingRulesScopedAndOrdered(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()
	require.NoError(t, db.Create(&[]botEntity.RoutingRule{
		{Id: 1, Department: "", ContainsAny: []string{"global"}, Priority: 50, Active: true, CreatedAt: now},
		{Id: 2, Department: "Cardiology", ContainsAny: []string{"heart"}, Priority: 10, Active: true, CreatedAt: now},
		{Id: 3, Department: "Emergency", ContainsAny: []string{"er"}, Priority: 1, Active: true, CreatedAt: now},
		{Id: 4, Department: "Cardiology", ContainsAny: []string{"off"}, Priority: 1, Active: false, CreatedAt: now},
	}).Error)

	repo := NewRoutingRuleRepository(db)

	rules, err := repo.ListActive("Cardiology")
	require.NoError(t, err)
	// 本科室规则和全局规则,按 priority 升序;停用和他科室的不出现
	require.Len(t, rules, 2)
	assert.Equal(t, int64(2), rules[0].Id)
	assert.Equal(t, int64(1), rules[1].Id)

	all, err := repo.ListActive("")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestContainsAnyRoundTrip(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&botEntity.RoutingRule{
		Id:          1,
		ContainsAny: []string{"prescription refill", "medication"},
		Active:      true,
		CreatedAt:   time.Now(),
	}).Error)

	repo := NewRoutingRuleRepository(db)
	rules, err := repo.ListActive("")
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, []string{"prescription refill", "medication"}, rules[0].ContainsAny)
}

func TestUnansweredQueryCreate(t *testing.T) {
	db := newTestDB(t)
	repo := NewUnansweredQueryRepository(db)

	require.NoError(t, repo.Create(&botEntity.UnansweredQuery{
		Query:      "can I bring my dog",
		Department: "General",
		Confidence: 0.2,
		CreatedAt:  time.Now(),
	}))

	var count int64
	require.NoError(t, db.Model(&botEntity.UnansweredQuery{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
