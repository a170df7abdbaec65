package crawlers

import (
	"strings"

	"github.com/RecoveryAshes/KosScraper/internal/models"
)

// facilityMatchThreshold 相似度不高于此值时归入公共设施
const facilityMatchThreshold = 0.3

type facilityCategory struct {
	name     string
	keywords []string
	assign   func(f *models.Facilities, item string)
}

// 顺序决定同分时的归属
var facilityCategories = []facilityCategory{
	{
		name:     "ukuran_listrik",
		keywords: []string{"meter", "listrik", "termasuk listrik", "tidak termasuk listrik", "x"},
		assign:   func(f *models.Facilities, s string) { f.ElectricityAndSize = append(f.ElectricityAndSize, s) },
	},
	{
		name: "kamar",
		keywords: []string{"kasur", "meja", "lemari", "ac", "tv", "bantal", "cermin", "guling",
			"kursi", "kipas", "ventilasi", "jendela"},
		assign: func(f *models.Facilities, s string) { f.Room = append(f.Room, s) },
	},
	{
		name: "kamar_mandi",
		keywords: []string{"kloset", "shower", "wastafel", "k. mandi", "kamar mandi", "ember",
			"bak mandi", "air panas", "toilet"},
		assign: func(f *models.Facilities, s string) { f.Bathroom = append(f.Bathroom, s) },
	},
	{
		name: "umum",
		keywords: []string{"wifi", "kulkas", "ruang cuci", "ruang tamu", "ruang jemur", "dapur",
			"dispenser", "cctv", "cleaning", "penjaga", "mesin cuci", "laundry", "mushola",
			"jemuran", "balcon"},
		assign: func(f *models.Facilities, s string) { f.Common = append(f.Common, s) },
	},
	{
		name:     "parkir",
		keywords: []string{"parkir", "motor", "mobil", "sepeda", "garasi"},
		assign:   func(f *models.Facilities, s string) { f.Parking = append(f.Parking, s) },
	},
}

// Categorize 按与关键字的最高相似度把设施分组
func Categorize(items []string) models.Facilities {
	var f models.Facilities
	for _, item := range items {
		categoryOf(item).assign(&f, item)
	}
	return f
}

// CategoryName 返回设施所属类别名
func CategoryName(item string) string {
	return categoryOf(item).name
}

// categoryOf 返回设施所属类别,都不够相似时归入umum
func categoryOf(item string) facilityCategory {
	lower := strings.ToLower(strings.TrimSpace(item))
	best := -1
	bestScore := 0.0
	for i, cat := range facilityCategories {
		for _, kw := range cat.keywords {
			if score := SimilarityRatio(lower, kw); score > bestScore {
				best, bestScore = i, score
			}
		}
	}
	if best < 0 || bestScore <= facilityMatchThreshold {
		return facilityCategories[3]
	}
	return facilityCategories[best]
}

// SimilarityRatio 2*M/T 相似度,M为递归最长公共子串匹配的字符总数
func SimilarityRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1.0
	}
	m := matchingChars(ra, rb, 0, len(ra), 0, len(rb))
	return 2.0 * float64(m) / float64(total)
}

func matchingChars(a, b []rune, alo, ahi, blo, bhi int) int {
	i, j, k := longestMatch(a, b, alo, ahi, blo, bhi)
	if k == 0 {
		return 0
	}
	return k + matchingChars(a, b, alo, i, blo, j) + matchingChars(a, b, i+k, ahi, j+k, bhi)
}

// longestMatch 最长公共子串,同长时取a中最靠前、再取b中最靠前的
func longestMatch(a, b []rune, alo, ahi, blo, bhi int) (int, int, int) {
	besti, bestj, bestk := alo, blo, 0
	for i := alo; i < ahi; i++ {
		for j := blo; j < bhi; j++ {
			k := 0
			for i+k < ahi && j+k < bhi && a[i+k] == b[j+k] {
				k++
			}
			if k > bestk {
				besti, bestj, bestk = i, j, k
			}
		}
	}
	return besti, bestj, bestk
}
