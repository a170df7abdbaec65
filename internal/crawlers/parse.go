package crawlers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/RecoveryAshes/KosScraper/internal/models"
	"golang.org/x/net/html"
)

// ErrErrorPage 详情页是403/错误页
var ErrErrorPage = errors.New("详情页返回错误页面")

var errorTitleMarkers = []string{"403", "Forbidden", "Error"}

// ParseDetail 从详情页HTML提取房源记录
// 选择器未命中的字段保留空值
func ParseDetail(rawHTML string, sel models.Selectors, region, pageURL string, scrapedAt time.Time) (*models.Listing, error) {
	root, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("解析HTML失败: %w", err)
	}
	doc := goquery.NewDocumentFromNode(root)

	title := cleanText(doc.Find("title").First().Text())
	for _, marker := range errorTitleMarkers {
		if strings.Contains(title, marker) {
			return nil, fmt.Errorf("%w: %s", ErrErrorPage, title)
		}
	}

	listing := &models.Listing{
		Name:             firstText(doc, sel.RoomName),
		Gender:           firstText(doc, sel.Gender),
		Area:             firstText(doc, sel.Area),
		Rating:           firstText(doc, sel.Rating),
		ReviewCount:      firstText(doc, sel.ReviewCount),
		TransactionCount: firstText(doc, sel.TransactionCount),
		Price:            firstText(doc, sel.Price),
		Period:           firstText(doc, sel.Period),
		Address:          firstText(doc, sel.Address),
		Facilities:       Categorize(allTexts(doc, sel.Facilities, false)),
		Rules:            allTexts(doc, sel.Rules, false),
		Landmarks:        landmarks(doc, sel.LandmarkNames, sel.LandmarkDistances),
		Region:           region,
		URL:              pageURL,
		ScrapedAt:        scrapedAt.Format(time.RFC3339),
	}
	return listing.Normalize(), nil
}

func firstText(doc *goquery.Document, selector string) string {
	if selector == "" {
		return ""
	}
	return cleanText(doc.Find(selector).First().Text())
}

// allTexts 收集所有匹配元素的文本;keepEmpty为false时丢弃空文本
func allTexts(doc *goquery.Document, selector string, keepEmpty bool) []string {
	out := []string{}
	if selector == "" {
		return out
	}
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		text := cleanText(s.Text())
		if text != "" || keepEmpty {
			out = append(out, text)
		}
	})
	return out
}

// landmarks 按下标配对名称与距离,距离缺失时为空;名称为空的也保留
func landmarks(doc *goquery.Document, nameSel, distanceSel string) []models.Landmark {
	names := allTexts(doc, nameSel, true)
	distances := allTexts(doc, distanceSel, true)

	out := make([]models.Landmark, 0, len(names))
	for i, name := range names {
		lm := models.Landmark{Name: name}
		if i < len(distances) {
			lm.Distance = distances[i]
		}
		out = append(out, lm)
	}
	return out
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
