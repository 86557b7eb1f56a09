package service

import (
	"regexp"
	"strings"
	"sync/atomic"

	botEntity "CareLink/internal/modules/bot/domain/entity"
	botRepository "CareLink/internal/modules/bot/domain/repository"
)

// KnowledgeMatch 针对一次提问的最佳知识库命中
type KnowledgeMatch struct {
	Entry botEntity.KnowledgeEntry
	Score float64
}

// Suggestion 推荐追问
type Suggestion struct {
	Id       int64  `json:"id"`
	Question string `json:"question"`
}

// KnowledgeService 只读知识库缓存。启动时整表加载为不可变快照，
// Reload 整体换一份快照，读方永远看不到半更新状态。
type KnowledgeService interface {
	// Match 返回得分最高的条目。同分取先加载的条目（id 升序，稳定）。
	// 空缓存或空白提问返回 (nil, false)。
	Match(query string) (*KnowledgeMatch, bool)
	// Suggestions 返回条目的子问题,作为追问建议
	Suggestions(entryID int64) []Suggestion
	// TopLevel 返回顶层常见问题
	TopLevel() []Suggestion
	// Reload 重新加载并原子替换快照
	Reload() error
}

type knowledgeServiceImpl struct {
	repo     botRepository.KnowledgeRepository
	snapshot atomic.Value // []botEntity.KnowledgeEntry
}

func NewKnowledgeService(repo botRepository.KnowledgeRepository) (KnowledgeService, error) {
	s := &knowledgeServiceImpl{repo: repo}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *knowledgeServiceImpl) Reload() error {
	entries, err := s.repo.ListActive()
	if err != nil {
		return err
	}
	s.snapshot.Store(entries)
	return nil
}

func (s *knowledgeServiceImpl) entries() []botEntity.KnowledgeEntry {
	v, _ := s.snapshot.Load().([]botEntity.KnowledgeEntry)
	return v
}

var wordSplit = regexp.MustCompile(`\W+`)

func tokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range wordSplit.Split(strings.ToLower(text), -1) {
		if w != "" {
			set[w] = struct{}{}
		}
	}
	return set
}

// 得分 = 提问词集与问题词集交集大小 / 提问词集大小。
// 分母取提问侧：患者用语是标准问题措辞子集时得分高。
func overlapScore(query, question map[string]struct{}) float64 {
	if len(query) == 0 {
		return 0
	}
	matched := 0
	for w := range query {
		if _, ok := question[w]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(query))
}

func (s *knowledgeServiceImpl) Match(query string) (*KnowledgeMatch, bool) {
	if strings.TrimSpace(query) == "" {
		return nil, false
	}
	entries := s.entries()
	if len(entries) == 0 {
		return nil, false
	}

	qs := tokenSet(query)
	if len(qs) == 0 {
		return nil, false
	}

	var best *KnowledgeMatch
	for i := range entries {
		score := overlapScore(qs, tokenSet(entries[i].Question))
		if best == nil || score > best.Score {
			best = &KnowledgeMatch{Entry: entries[i], Score: score}
		}
	}
	return best, true
}

func (s *knowledgeServiceImpl) Suggestions(entryID int64) []Suggestion {
	var out []Suggestion
	for _, e := range s.entries() {
		if e.ParentId != nil && *e.ParentId == entryID {
			out = append(out, Suggestion{Id: e.Id, Question: e.Question})
		}
	}
	return out
}

func (s *knowledgeServiceImpl) TopLevel() []Suggestion {
	var out []Suggestion
	for _, e := range s.entries() {
		if e.ParentId == nil {
			out = append(out, Suggestion{Id: e.Id, Question: e.Question})
		}
	}
	return out
}
