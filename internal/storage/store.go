// Package storage 负责抓取结果落盘: 增量备份、地区文件、失败卡片、主文件
//
// 所有写入都是整文件覆盖,没有临时文件+重命名;写入过程中崩溃只会损坏当前文件。
package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/RecoveryAshes/KosScraper/internal/models"
	"github.com/RecoveryAshes/KosScraper/internal/utils"
	"github.com/andybalholm/brotli"
)

// Layout 数据目录布局
type Layout struct {
	DataDir    string
	BackupDir  string
	RegionsDir string
	FailedDir  string
	MasterFile string // 主文件完整路径
}

// NewLayout 由数据目录与子目录名构造布局,相对路径的子目录挂在dataDir下
func NewLayout(dataDir, backupFolder, regionsFolder, failedFolder, masterFile string) Layout {
	resolve := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dataDir, p)
	}
	return Layout{
		DataDir:    dataDir,
		BackupDir:  resolve(backupFolder),
		RegionsDir: resolve(regionsFolder),
		FailedDir:  resolve(failedFolder),
		MasterFile: resolve(masterFile),
	}
}

// Store 文件存储
type Store struct {
	layout Layout
}

// NewStore 创建存储
func NewStore(layout Layout) *Store {
	return &Store{layout: layout}
}

// Layout 返回目录布局
func (s *Store) Layout() Layout {
	return s.layout
}

// EnsureDirs 创建所需目录
func (s *Store) EnsureDirs() error {
	for _, dir := range []string{s.layout.DataDir, s.layout.BackupDir, s.layout.RegionsDir, s.layout.FailedDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建目录失败 %s: %w", dir, err)
		}
	}
	return nil
}

// RegionPath 地区文件路径
func (s *Store) RegionPath(region string) string {
	return filepath.Join(s.layout.RegionsDir, region+".json")
}

// BackupPath 备份文件路径
func (s *Store) BackupPath(region string, round int) string {
	return filepath.Join(s.layout.BackupDir, fmt.Sprintf("%s_%d.json", region, round))
}

// FailedPath 失败卡片文件路径
func (s *Store) FailedPath(region string) string {
	return filepath.Join(s.layout.FailedDir, region+"_failed.json")
}

// Backup 写入第round轮增量备份,内容为当前地区的全部结果
func (s *Store) Backup(records []*models.Listing, region string, round int) error {
	records = nonNil(records)
	path := s.BackupPath(region, round)
	if err := writeJSON(path, records); err != nil {
		return fmt.Errorf("写入备份失败: %w", err)
	}
	utils.Infof("💾 备份 #%d: %d 条记录 -> %s", round, len(records), path)
	return nil
}

// SaveRegion 覆盖写入地区文件
func (s *Store) SaveRegion(records []*models.Listing, region string) error {
	records = nonNil(records)
	path := s.RegionPath(region)
	if err := writeJSON(path, records); err != nil {
		return fmt.Errorf("写入地区文件失败: %w", err)
	}
	utils.Infof("✅ 地区 %s 保存 %d 条记录 -> %s", region, len(records), path)
	return nil
}

// SaveFailed 写入失败卡片列表,列表为空时不写文件
func (s *Store) SaveFailed(entries []models.FailedCard, region string) error {
	if len(entries) == 0 {
		return nil
	}
	path := s.FailedPath(region)
	if err := writeJSON(path, entries); err != nil {
		return fmt.Errorf("写入失败卡片文件失败: %w", err)
	}
	utils.Warnf("⚠️  地区 %s 有 %d 张卡片失败 -> %s", region, len(entries), path)
	return nil
}

// LoadRegion 读取地区文件;文件不存在时返回的错误满足 errors.Is(err, os.ErrNotExist)
func (s *Store) LoadRegion(region string) ([]*models.Listing, error) {
	return readListings(s.RegionPath(region))
}

// LoadMaster 读取主文件
func (s *Store) LoadMaster() ([]*models.Listing, error) {
	return readListings(s.layout.MasterFile)
}

// GenerateMaster 按文件名顺序合并地区目录下所有JSON文件,覆盖写入主文件
// 记录原样保留,不做去重;无法读取或解析的文件跳过并告警
func (s *Store) GenerateMaster() (int, error) {
	entries, err := os.ReadDir(s.layout.RegionsDir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return 0, fmt.Errorf("读取地区目录失败: %w", err)
	}

	all := make([]json.RawMessage, 0)
	files := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(s.layout.RegionsDir, entry.Name())
		if path == s.layout.MasterFile {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			utils.Warnf("⚠️  跳过无法读取的地区文件 %s: %v", path, err)
			continue
		}
		var records []json.RawMessage
		if err := json.Unmarshal(data, &records); err != nil {
			utils.Warnf("⚠️  跳过损坏的地区文件 %s: %v", path, err)
			continue
		}
		all = append(all, records...)
		files++
	}

	if err := writeJSON(s.layout.MasterFile, all); err != nil {
		return 0, fmt.Errorf("写入主文件失败: %w", err)
	}
	utils.Infof("📦 主文件已生成: %d 个地区文件, %d 条记录 -> %s", files, len(all), s.layout.MasterFile)
	return len(all), nil
}

// ArchiveMaster 生成主文件的brotli压缩副本 {master}.br
func (s *Store) ArchiveMaster() (string, error) {
	src, err := os.Open(s.layout.MasterFile)
	if err != nil {
		return "", fmt.Errorf("打开主文件失败: %w", err)
	}
	defer src.Close()

	archivePath := s.layout.MasterFile + ".br"
	dst, err := os.Create(archivePath)
	if err != nil {
		return "", fmt.Errorf("创建压缩文件失败: %w", err)
	}
	defer dst.Close()

	writer := brotli.NewWriterLevel(dst, brotli.BestCompression)
	if _, err := io.Copy(writer, src); err != nil {
		writer.Close()
		return "", fmt.Errorf("压缩主文件失败: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("压缩主文件失败: %w", err)
	}

	utils.Infof("🗜️  主文件压缩副本: %s", archivePath)
	return archivePath, nil
}

// ReadArchive 解压读取brotli压缩的主文件
func ReadArchive(path string) ([]*models.Listing, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	raw, err := io.ReadAll(brotli.NewReader(bytes.NewReader(data)))
	if err != nil {
		return nil, fmt.Errorf("brotli读取失败: %w", err)
	}
	var records []*models.Listing
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("解析压缩主文件失败: %w", err)
	}
	return records, nil
}

func nonNil(records []*models.Listing) []*models.Listing {
	if records == nil {
		return []*models.Listing{}
	}
	return records
}

func readListings(path string) ([]*models.Listing, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []*models.Listing
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("解析 %s 失败: %w", path, err)
	}
	return records, nil
}

// writeJSON 两空格缩进,不转义HTML字符,非ASCII原样输出
func writeJSON(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("序列化JSON失败: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}
