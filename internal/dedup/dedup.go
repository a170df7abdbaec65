// Package dedup 提供房源记录的去重键与本次运行内的已见集合
package dedup

import (
	"strings"
	"sync"

	"github.com/RecoveryAshes/KosScraper/internal/models"
)

// Key 房源身份键: 名称+区域+地址,统一小写并去除首尾空白
type Key struct {
	Name    string
	Area    string
	Address string
}

// KeyOf 由记录计算去重键
func KeyOf(l *models.Listing) Key {
	return Key{
		Name:    normalize(l.Name),
		Area:    normalize(l.Area),
		Address: normalize(l.Address),
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// HasEmpty 任一身份字段为空
// 空字段的记录仍参与去重,两个字段都为空的不同房源会被误判为重复
func (k Key) HasEmpty() bool {
	return k.Name == "" || k.Area == "" || k.Address == ""
}

// String 返回 name|area|address 形式,用于日志与数据库主键
func (k Key) String() string {
	return k.Name + "|" + k.Area + "|" + k.Address
}

// SeenSet 线程安全的已见键集合,只增不删
type SeenSet struct {
	mu   sync.RWMutex
	seen map[Key]struct{}
}

// NewSeenSet 创建空集合
func NewSeenSet() *SeenSet {
	return &SeenSet{seen: make(map[Key]struct{})}
}

// Add 首次加入返回true,已存在返回false
func (s *SeenSet) Add(k Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[k]; exists {
		return false
	}
	s.seen[k] = struct{}{}
	return true
}

// Contains 判断键是否已存在
func (s *SeenSet) Contains(k Key) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.seen[k]
	return ok
}

// Len 返回集合大小
func (s *SeenSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}

// Unique 按去重键过滤,保留每个键第一次出现的记录
func Unique(records []*models.Listing) []*models.Listing {
	set := NewSeenSet()
	out := make([]*models.Listing, 0, len(records))
	for _, r := range records {
		if set.Add(KeyOf(r)) {
			out = append(out, r)
		}
	}
	return out
}

// CountDuplicates 统计重复记录数(总数减去唯一键数)
func CountDuplicates(records []*models.Listing) int {
	return len(records) - len(Unique(records))
}
