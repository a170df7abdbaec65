package models

import (
	"encoding/json"
)

// Facilities 按类别分组的设施列表
type Facilities struct {
	ElectricityAndSize []string `json:"ukuran_listrik"` // 房间尺寸/电费
	Room               []string `json:"kamar"`          // 房内设施
	Bathroom           []string `json:"kamar_mandi"`    // 卫浴设施
	Common             []string `json:"umum"`           // 公共设施
	Parking            []string `json:"parkir"`         // 停车
}

// Landmark 周边地标
type Landmark struct {
	Name     string `json:"nama"`
	Distance string `json:"jarak"`
}

// Listing 单个房源的详情记录
// 字段名沿用既有数据文件的JSON键,旧文件可以直接读取
type Listing struct {
	Name             string     `json:"nama_kos"`
	Gender           string     `json:"jenis_kos"`
	Area             string     `json:"area"`
	Rating           string     `json:"rating"`
	ReviewCount      string     `json:"jumlah_review"`
	TransactionCount string     `json:"total_transaksi"`
	Price            string     `json:"harga"`
	Period           string     `json:"periode"`
	Address          string     `json:"alamat"`
	Facilities       Facilities `json:"fasilitas"`
	Rules            []string   `json:"peraturan"`
	Landmarks        []Landmark `json:"landmarks"`
	Region           string     `json:"region"`
	URL              string     `json:"url"`
	ScrapedAt        string     `json:"scraped_at"` // ISO-8601
}

// Normalize 把nil切片替换为空切片,保证输出中不出现null
func (l *Listing) Normalize() *Listing {
	f := &l.Facilities
	for _, list := range []*[]string{
		&f.ElectricityAndSize, &f.Room, &f.Bathroom, &f.Common, &f.Parking, &l.Rules,
	} {
		if *list == nil {
			*list = []string{}
		}
	}
	if l.Landmarks == nil {
		l.Landmarks = []Landmark{}
	}
	return l
}

// FailedCard 抓取失败的卡片
type FailedCard struct {
	Index int    `json:"idx"`   // 原始卡片序号
	Error string `json:"error"` // 最近一次错误信息
}

// ToJSON 序列化为JSON
func (l *Listing) ToJSON() ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}
