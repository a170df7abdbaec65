package dedup

import (
	"sync"
	"testing"

	"github.com/RecoveryAshes/KosScraper/internal/models"
)

func listing(name, area, address string) *models.Listing {
	return &models.Listing{Name: name, Area: area, Address: address}
}

func TestKeyOf_Normalizes(t *testing.T) {
	a := KeyOf(listing("  Kos Melati ", "Tebet", "Jl. Sahardjo 1"))
	b := KeyOf(listing("kos melati", " TEBET", "jl. sahardjo 1 "))
	if a != b {
		t.Errorf("大小写与空白不同的记录应得到相同的键: %v != %v", a, b)
	}
	if a.String() != "kos melati|tebet|jl. sahardjo 1" {
		t.Errorf("String() = %q", a.String())
	}
}

func TestKey_HasEmpty(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		want bool
	}{
		{"完整键", Key{"a", "b", "c"}, false},
		{"缺少名称", Key{"", "b", "c"}, true},
		{"缺少地址", Key{"a", "b", ""}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.HasEmpty(); got != tt.want {
				t.Errorf("HasEmpty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSeenSet_AddAndContains(t *testing.T) {
	set := NewSeenSet()
	k := Key{"a", "b", "c"}

	if !set.Add(k) {
		t.Error("首次添加应该返回true")
	}
	if set.Add(k) {
		t.Error("重复添加应该返回false")
	}
	if !set.Contains(k) {
		t.Error("集合应该包含已添加的键")
	}
	if set.Contains(Key{"x", "y", "z"}) {
		t.Error("集合不应包含未添加的键")
	}
	if set.Len() != 1 {
		t.Errorf("Len() = %d, want 1", set.Len())
	}
}

func TestSeenSet_ConcurrentAdd(t *testing.T) {
	set := NewSeenSet()
	var wg sync.WaitGroup
	var mu sync.Mutex
	added := 0

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if set.Add(Key{"same", "key", "here"}) {
				mu.Lock()
				added++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if added != 1 {
		t.Errorf("并发添加同一个键只能成功一次, 实际 %d 次", added)
	}
}

func TestUniqueAndCountDuplicates(t *testing.T) {
	records := []*models.Listing{
		listing("A", "x", "1"),
		listing("B", "x", "1"),
		listing("a", "X", "1"),
		listing("C", "y", "2"),
		listing("C", "y", "2"),
	}

	unique := Unique(records)
	if len(unique) != 3 {
		t.Fatalf("Unique() 返回 %d 条, want 3", len(unique))
	}
	if unique[0] != records[0] {
		t.Error("应保留第一次出现的记录")
	}
	if got := CountDuplicates(records); got != 2 {
		t.Errorf("CountDuplicates() = %d, want 2", got)
	}
}
