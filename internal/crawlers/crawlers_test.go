package crawlers

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/RecoveryAshes/KosScraper/internal/models"
	"github.com/shirou/gopsutil/v3/mem"
)

const loadMore = "a.list__content-load-link"

func noSleep(context.Context, time.Duration) error { return nil }

func TestPaginator_Expand(t *testing.T) {
	tests := []struct {
		name       string
		available  int
		maxClicks  int
		clickErr   error
		scrollErr  error
		wantClicks int
	}{
		{"按钮消失后停止", 3, 30, nil, nil, 3},
		{"达到上限停止", -1, 5, nil, nil, 5},
		{"上限为0不点击", -1, 0, nil, nil, 0},
		{"没有按钮", 0, 30, nil, nil, 0},
		{"点击失败结束循环", -1, 30, errors.New("detached"), nil, 0},
		{"滚动失败结束循环", -1, 30, nil, errors.New("not visible"), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := newFakePage()
			page.available[loadMore] = tt.available
			page.elements[loadMore] = &fakeElement{clickErr: tt.clickErr, scrollErr: tt.scrollErr}

			sleeps := 0
			p := &Paginator{
				PauseMin: time.Second,
				PauseMax: 4 * time.Second,
				Sleep: func(_ context.Context, d time.Duration) error {
					if d < time.Second || d > 4*time.Second {
						t.Errorf("停顿 %v 超出区间", d)
					}
					sleeps++
					return nil
				},
			}

			got := p.Expand(context.Background(), page, loadMore, tt.maxClicks)
			if got != tt.wantClicks {
				t.Errorf("Expand() = %d, want %d", got, tt.wantClicks)
			}
			if sleeps != tt.wantClicks {
				t.Errorf("每次成功点击后应停顿一次, 停顿 %d 次", sleeps)
			}
		})
	}
}

func TestPaginator_StopsOnCancel(t *testing.T) {
	page := newFakePage()
	page.available[loadMore] = -1

	ctx, cancel := context.WithCancel(context.Background())
	p := &Paginator{Sleep: func(context.Context, time.Duration) error {
		cancel()
		return context.Canceled
	}}

	if got := p.Expand(ctx, page, loadMore, 30); got != 1 {
		t.Errorf("取消后应停止, Expand() = %d, want 1", got)
	}
}

func TestDetectCardSelector(t *testing.T) {
	tests := []struct {
		name     string
		primary  bool
		fallback bool
		want     string
		wantOK   bool
	}{
		{"主选择器命中", true, true, "primary", true},
		{"备用选择器命中", false, true, "fallback", true},
		{"都未命中", false, false, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := newFakePage()
			if tt.primary {
				page.available["primary"] = -1
			}
			if tt.fallback {
				page.available["fallback"] = -1
			}
			got, ok := DetectCardSelector(page, "primary", "fallback", time.Second)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("DetectCardSelector() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestDetectCardSelector_NoFallbackConfigured(t *testing.T) {
	page := newFakePage()
	if _, ok := DetectCardSelector(page, "primary", "", time.Second); ok {
		t.Error("没有备用选择器时应返回false")
	}
	if len(page.waits) != 1 {
		t.Errorf("不应等待空的备用选择器, waits=%v", page.waits)
	}
}

func TestSimilarityRatio(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"abcd", "bcde", 0.75},
		{"kasur", "kasur", 1.0},
		{"", "", 1.0},
		{"abc", "xyz", 0.0},
		{"parkir motor", "parkir", 2.0 * 6 / 18},
	}
	for _, tt := range tests {
		got := SimilarityRatio(tt.a, tt.b)
		if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("SimilarityRatio(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		item string
		want string
	}{
		{"Kasur", "kamar"},
		{"WiFi", "umum"},
		{"Parkir Motor", "parkir"},
		{"Kloset Duduk", "kamar_mandi"},
		{"K. Mandi Dalam", "kamar_mandi"},
		{"3 x 4 meter", "ukuran_listrik"},
		{"qqqq", "umum"},
	}
	for _, tt := range tests {
		t.Run(tt.item, func(t *testing.T) {
			if got := CategoryName(tt.item); got != tt.want {
				t.Errorf("CategoryName(%q) = %q, want %q", tt.item, got, tt.want)
			}
		})
	}

	f := Categorize([]string{"Kasur", "WiFi", "Parkir Motor"})
	if len(f.Room) != 1 || f.Room[0] != "Kasur" {
		t.Errorf("Room = %v", f.Room)
	}
	if len(f.Common) != 1 || len(f.Parking) != 1 {
		t.Errorf("Common = %v, Parking = %v", f.Common, f.Parking)
	}
}

func testSelectors() models.Selectors {
	return models.Selectors{
		RoomName:          ".detail-title__room-name",
		Gender:            ".detail-kost-overview__gender-box",
		Area:              ".detail-kost-overview__area-text",
		Rating:            ".detail-kost-overview__rating-text",
		ReviewCount:       ".detail-kost-overview__rating-review",
		TransactionCount:  ".detail-kost-overview__total-transaction-text",
		Price:             ".rc-price__text",
		Period:            ".rc-price__type",
		Address:           ".bg-c-text--body-4",
		Facilities:        ".detail-kost-facility-item__label",
		Rules:             ".detail-kost-rule-item__label",
		LandmarkNames:     ".landmark-item__text-ellipsis",
		LandmarkDistances: ".landmark-item__landmark-distance",
	}
}

const detailHTML = `<html><head><title>Kos Melati Tebet</title></head><body>
<h1 class="detail-title__room-name">  Kos Melati
  Tebet </h1>
<span class="detail-kost-overview__gender-box">Putri</span>
<span class="detail-kost-overview__area-text">Tebet</span>
<span class="detail-kost-overview__rating-text">4.8</span>
<span class="detail-kost-overview__rating-review">(25)</span>
<span class="rc-price__text">Rp1.500.000</span>
<span class="rc-price__type">/ bulan</span>
<p class="bg-c-text--body-4">Jl. Tebet Raya No. 1</p>
<p class="bg-c-text--body-4">alamat kedua</p>
<div class="detail-kost-facility-item__label">Kasur</div>
<div class="detail-kost-facility-item__label">WiFi</div>
<div class="detail-kost-facility-item__label"> </div>
<div class="detail-kost-rule-item__label">Tidak boleh membawa hewan</div>
<div class="landmark-item__text-ellipsis">Stasiun Tebet</div>
<div class="landmark-item__landmark-distance">500 m</div>
<div class="landmark-item__text-ellipsis">Pasar</div>
</body></html>`

func TestParseDetail(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	l, err := ParseDetail(detailHTML, testSelectors(), "jakarta-selatan", "https://mamikos.com/room/1", at)
	if err != nil {
		t.Fatalf("ParseDetail() 失败: %v", err)
	}

	checks := map[string][2]string{
		"Name":    {l.Name, "Kos Melati Tebet"},
		"Gender":  {l.Gender, "Putri"},
		"Rating":  {l.Rating, "4.8"},
		"Address": {l.Address, "Jl. Tebet Raya No. 1"},
		"Period":  {l.Period, "/ bulan"},
		"Region":  {l.Region, "jakarta-selatan"},
		"URL":     {l.URL, "https://mamikos.com/room/1"},
		"At":      {l.ScrapedAt, "2024-05-01T10:00:00Z"},
		"TxCount": {l.TransactionCount, ""},
	}
	for field, pair := range checks {
		if pair[0] != pair[1] {
			t.Errorf("%s = %q, want %q", field, pair[0], pair[1])
		}
	}

	if len(l.Facilities.Room) != 1 || len(l.Facilities.Common) != 1 {
		t.Errorf("设施分组错误: %+v", l.Facilities)
	}
	if len(l.Rules) != 1 {
		t.Errorf("Rules = %v", l.Rules)
	}
	if len(l.Landmarks) != 2 || l.Landmarks[0].Distance != "500 m" || l.Landmarks[1].Distance != "" {
		t.Errorf("地标配对错误: %+v", l.Landmarks)
	}
	if l.Facilities.Parking == nil {
		t.Error("空分组应为空切片而不是nil")
	}
}

func TestParseDetail_EmptyLandmarkName(t *testing.T) {
	html := `<html><head><title>Kos Mawar</title></head><body>
<h1 class="detail-title__room-name">Kos Mawar</h1>
<div class="landmark-item__text-ellipsis"> </div>
<div class="landmark-item__landmark-distance">1,2 km</div>
<div class="landmark-item__text-ellipsis">Kampus UI</div>
<div class="landmark-item__landmark-distance">300 m</div>
</body></html>`

	l, err := ParseDetail(html, testSelectors(), "depok", "", time.Now())
	if err != nil {
		t.Fatalf("ParseDetail() 失败: %v", err)
	}
	want := []models.Landmark{{Name: "", Distance: "1,2 km"}, {Name: "Kampus UI", Distance: "300 m"}}
	if len(l.Landmarks) != len(want) {
		t.Fatalf("Landmarks = %+v, want %+v", l.Landmarks, want)
	}
	for i := range want {
		if l.Landmarks[i] != want[i] {
			t.Errorf("Landmarks[%d] = %+v, want %+v", i, l.Landmarks[i], want[i])
		}
	}
}

func TestParseDetail_ErrorPage(t *testing.T) {
	html := `<html><head><title>403 Forbidden</title></head><body></body></html>`
	_, err := ParseDetail(html, testSelectors(), "depok", "", time.Now())
	if !errors.Is(err, ErrErrorPage) {
		t.Errorf("错误页应返回 ErrErrorPage, 实际 %v", err)
	}
}

func TestDetailExtractor_Extract(t *testing.T) {
	detail := newFakePage()
	detail.html = detailHTML
	detail.url = "https://mamikos.com/room/1"

	list := newFakePage()
	list.detail = detail

	card := &fakeElement{}
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	e := &DetailExtractor{
		Selectors:   testSelectors(),
		ScrollSteps: []float64{1.0 / 3, 2.0 / 3, 1, 0},
		Sleep:       noSleep,
		Now:         func() time.Time { return at },
	}

	l, err := e.Extract(context.Background(), list, card, "jakarta-selatan")
	if err != nil {
		t.Fatalf("Extract() 失败: %v", err)
	}
	if l.Name != "Kos Melati Tebet" || l.URL != detail.url {
		t.Errorf("提取结果错误: %+v", l)
	}
	if card.clicks != 1 {
		t.Errorf("卡片应被点击一次, 实际 %d", card.clicks)
	}
	if len(detail.scrolls) != 4 || detail.scrolls[3] != 0 {
		t.Errorf("滚动序列 = %v", detail.scrolls)
	}
	if !detail.closed {
		t.Error("详情页应被关闭")
	}
}

func TestDetailExtractor_Errors(t *testing.T) {
	t.Run("新标签页超时", func(t *testing.T) {
		list := newFakePage()
		list.openErr = errors.New("context deadline exceeded")
		e := &DetailExtractor{Sleep: noSleep}
		_, err := e.Extract(context.Background(), list, &fakeElement{}, "depok")
		if err == nil || !strings.Contains(err.Error(), "打开详情页失败") {
			t.Errorf("期望打开详情页失败, 实际 %v", err)
		}
	})

	t.Run("加载失败仍关闭详情页", func(t *testing.T) {
		detail := newFakePage()
		detail.settleErr = errors.New("load timeout")
		list := newFakePage()
		list.detail = detail
		e := &DetailExtractor{Sleep: noSleep}
		if _, err := e.Extract(context.Background(), list, &fakeElement{}, "depok"); err == nil {
			t.Error("期望返回错误")
		}
		if !detail.closed {
			t.Error("失败时也应关闭详情页")
		}
	})
}

func TestResourceMonitor(t *testing.T) {
	tests := []struct {
		name         string
		availableMB  uint64
		err          error
		wantPressure MemoryPressure
		wantCooldown bool
	}{
		{"内存充足", 4096, nil, PressureNormal, false},
		{"内存偏低", 400, nil, PressureWarning, false},
		{"内存不足", 250, nil, PressureCritical, true},
		{"内存紧急", 100, nil, PressureEmergency, true},
		{"采样失败", 0, errors.New("no /proc"), PressureNormal, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rm := NewResourceMonitor(ResourceMonitorConfig{})
			rm.virtualMemory = func() (*mem.VirtualMemoryStat, error) {
				if tt.err != nil {
					return nil, tt.err
				}
				return &mem.VirtualMemoryStat{Total: 8192 * mb, Available: tt.availableMB * mb}, nil
			}

			status, _ := rm.GetMemoryStatus()
			if status.Pressure != tt.wantPressure {
				t.Errorf("Pressure = %s, want %s", status.Pressure, tt.wantPressure)
			}
			if got, _ := rm.NeedsCooldown(); got != tt.wantCooldown {
				t.Errorf("NeedsCooldown() = %v, want %v", got, tt.wantCooldown)
			}
		})
	}
}
