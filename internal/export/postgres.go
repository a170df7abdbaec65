// Package export 将主文件中的记录写入PostgreSQL
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/RecoveryAshes/KosScraper/internal/dedup"
	"github.com/RecoveryAshes/KosScraper/internal/models"
	"github.com/RecoveryAshes/KosScraper/internal/utils"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultBatchSize 每批upsert的记录数
const DefaultBatchSize = 500

// Options 导出参数
type Options struct {
	DatabaseURL string
	Table       string
	BatchSize   int
	MaxConns    int32
}

// Result 导出统计
type Result struct {
	Upserted int `json:"upserted"`
	Skipped  int `json:"skipped"` // 去重键不完整的记录
}

// Row 一条待写入的记录
type Row struct {
	DedupKey     string
	Name         string
	Gender       string
	Area         string
	Rating       string
	ReviewCount  string
	Transactions string
	Price        string
	Period       string
	Address      string
	Facilities   []byte
	Rules        []byte
	Landmarks    []byte
	Region       string
	URL          string
	ScrapedAt    *time.Time
}

// Args 按upsert语句的参数顺序返回字段
func (r Row) Args() []any {
	return []any{
		r.DedupKey, r.Name, r.Gender, r.Area, r.Rating, r.ReviewCount, r.Transactions,
		r.Price, r.Period, r.Address, r.Facilities, r.Rules, r.Landmarks,
		r.Region, r.URL, r.ScrapedAt,
	}
}

// RowFromListing 把抓取记录转换为数据库行
// 去重键有空字段时返回 ok=false
func RowFromListing(l *models.Listing) (Row, bool, error) {
	key := dedup.KeyOf(l)
	if key.HasEmpty() {
		return Row{}, false, nil
	}

	c := *l
	l = c.Normalize()
	facilities, err := json.Marshal(l.Facilities)
	if err != nil {
		return Row{}, false, fmt.Errorf("编码设施失败: %w", err)
	}
	rules, err := json.Marshal(l.Rules)
	if err != nil {
		return Row{}, false, fmt.Errorf("编码规则失败: %w", err)
	}
	landmarks, err := json.Marshal(l.Landmarks)
	if err != nil {
		return Row{}, false, fmt.Errorf("编码地标失败: %w", err)
	}

	return Row{
		DedupKey:     key.String(),
		Name:         l.Name,
		Gender:       l.Gender,
		Area:         l.Area,
		Rating:       l.Rating,
		ReviewCount:  l.ReviewCount,
		Transactions: l.TransactionCount,
		Price:        l.Price,
		Period:       l.Period,
		Address:      l.Address,
		Facilities:   facilities,
		Rules:        rules,
		Landmarks:    landmarks,
		Region:       l.Region,
		URL:          l.URL,
		ScrapedAt:    parseScrapedAt(l.ScrapedAt),
	}, true, nil
}

func parseScrapedAt(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05.999999"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// tableIdent 支持 schema.table 形式
func tableIdent(table string) string {
	return pgx.Identifier(strings.Split(table, ".")).Sanitize()
}

// CreateTableSQL 建表语句
func CreateTableSQL(table string) string {
	return `CREATE TABLE IF NOT EXISTS ` + tableIdent(table) + ` (
	dedup_key       TEXT PRIMARY KEY,
	nama_kos        TEXT NOT NULL,
	jenis_kos       TEXT,
	area            TEXT NOT NULL,
	rating          TEXT,
	jumlah_review   TEXT,
	total_transaksi TEXT,
	harga           TEXT,
	periode         TEXT,
	alamat          TEXT NOT NULL,
	fasilitas       JSONB NOT NULL DEFAULT '{}'::jsonb,
	peraturan       JSONB NOT NULL DEFAULT '[]'::jsonb,
	landmarks       JSONB NOT NULL DEFAULT '[]'::jsonb,
	region          TEXT,
	url             TEXT,
	scraped_at      TIMESTAMPTZ,
	exported_at     TIMESTAMPTZ NOT NULL DEFAULT now()
)`
}

// UpsertSQL 按去重键插入或更新
func UpsertSQL(table string) string {
	return `INSERT INTO ` + tableIdent(table) + `
	(dedup_key, nama_kos, jenis_kos, area, rating, jumlah_review, total_transaksi,
	 harga, periode, alamat, fasilitas, peraturan, landmarks, region, url, scraped_at, exported_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11::jsonb,$12::jsonb,$13::jsonb,$14,$15,$16,now())
	ON CONFLICT (dedup_key) DO UPDATE SET
		jenis_kos = EXCLUDED.jenis_kos,
		rating = EXCLUDED.rating,
		jumlah_review = EXCLUDED.jumlah_review,
		total_transaksi = EXCLUDED.total_transaksi,
		harga = EXCLUDED.harga,
		periode = EXCLUDED.periode,
		fasilitas = EXCLUDED.fasilitas,
		peraturan = EXCLUDED.peraturan,
		landmarks = EXCLUDED.landmarks,
		region = EXCLUDED.region,
		url = EXCLUDED.url,
		scraped_at = EXCLUDED.scraped_at,
		exported_at = now()`
}

// DB 导出所需的连接池操作, *pgxpool.Pool 满足该接口
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Close()
}

// PostgresExporter 批量写入PostgreSQL
type PostgresExporter struct {
	db        DB
	table     string
	batchSize int
}

// NewPostgresExporter 连接数据库并验证连通性
func NewPostgresExporter(ctx context.Context, opts Options) (*PostgresExporter, error) {
	if opts.DatabaseURL == "" {
		return nil, &models.ValidationError{
			Field:      "export.database_url",
			Reason:     "未配置数据库连接",
			Suggestion: "设置 KOS_EXPORT_DATABASE_URL 或在配置文件中填写 export.database_url",
		}
	}

	cfg, err := pgxpool.ParseConfig(opts.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("解析数据库连接失败 [%s]: %w", utils.RedactDSN(opts.DatabaseURL), err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	} else {
		cfg.MaxConns = 2
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败 [%s]: %w", utils.RedactDSN(opts.DatabaseURL), err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("数据库不可达 [%s]: %w", utils.RedactDSN(opts.DatabaseURL), err)
	}

	utils.Infof("🐘 已连接数据库: %s", utils.RedactDSN(opts.DatabaseURL))
	return NewWithDB(pool, opts.Table, opts.BatchSize), nil
}

// NewWithDB 使用已有连接创建导出器
func NewWithDB(db DB, table string, batchSize int) *PostgresExporter {
	if table == "" {
		table = "kos_listings"
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &PostgresExporter{db: db, table: table, batchSize: batchSize}
}

// Migrate 创建目标表
func (e *PostgresExporter) Migrate(ctx context.Context) error {
	if _, err := e.db.Exec(ctx, CreateTableSQL(e.table)); err != nil {
		return fmt.Errorf("创建表 %s 失败: %w", e.table, err)
	}
	return nil
}

// Export 分批upsert全部记录
func (e *PostgresExporter) Export(ctx context.Context, listings []*models.Listing) (Result, error) {
	var result Result
	query := UpsertSQL(e.table)

	rows := make([]Row, 0, len(listings))
	for _, l := range listings {
		row, ok, err := RowFromListing(l)
		if err != nil {
			return result, err
		}
		if !ok {
			result.Skipped++
			continue
		}
		rows = append(rows, row)
	}

	for i := 0; i < len(rows); i += e.batchSize {
		j := i + e.batchSize
		if j > len(rows) {
			j = len(rows)
		}

		b := &pgx.Batch{}
		for _, row := range rows[i:j] {
			b.Queue(query, row.Args()...)
		}

		br := e.db.SendBatch(ctx, b)
		for k := 0; k < b.Len(); k++ {
			tag, err := br.Exec()
			if err != nil {
				_ = br.Close()
				return result, fmt.Errorf("写入第 %d 条记录失败: %w", i+k, err)
			}
			result.Upserted += int(tag.RowsAffected())
		}
		if err := br.Close(); err != nil {
			return result, err
		}
		utils.Debugf("已写入 %d/%d 条", j, len(rows))
	}

	utils.Infof("✅ 导出完成: %d 条写入, %d 条跳过", result.Upserted, result.Skipped)
	return result, nil
}

// Close 关闭连接池
func (e *PostgresExporter) Close() {
	e.db.Close()
}
