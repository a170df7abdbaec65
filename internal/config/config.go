package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/RecoveryAshes/KosScraper/internal/crawlers"
	"github.com/RecoveryAshes/KosScraper/internal/models"
	"github.com/RecoveryAshes/KosScraper/internal/storage"
	"github.com/RecoveryAshes/KosScraper/internal/utils"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// DefaultConfigFile 默认配置文件路径
	DefaultConfigFile = "configs/config.yaml"

	// DefaultEnvFile 默认.env文件
	DefaultEnvFile = ".env"

	// EnvPrefix 环境变量前缀, scraper.backup_interval 对应 KOS_SCRAPER_BACKUP_INTERVAL
	EnvPrefix = "KOS"

	// MaxConfigFileSize 配置文件最大大小 (1MB)
	MaxConfigFileSize = 1 * 1024 * 1024
)

//go:embed config_template.yaml
var defaultConfigTemplate string

// Config 应用程序配置
type Config struct {
	Scraper   models.ScrapeConfig            `mapstructure:"scraper"`
	Browser   crawlers.RodOptions            `mapstructure:"browser"`
	Paths     PathsConfig                    `mapstructure:"paths"`
	Selectors models.Selectors               `mapstructure:"selectors"`
	Network   NetworkConfig                  `mapstructure:"network"`
	Logging   utils.LogConfig                `mapstructure:"logging"`
	Resources crawlers.ResourceMonitorConfig `mapstructure:"resources"`
	Output    OutputConfig                   `mapstructure:"output"`
	Export    ExportConfig                   `mapstructure:"export"`
	Regions   []string                       `mapstructure:"regions"`
}

// PathsConfig 数据目录布局
type PathsConfig struct {
	DataDir       string `mapstructure:"data_dir"`
	BackupFolder  string `mapstructure:"backup_folder"`
	RegionsFolder string `mapstructure:"regions_folder"`
	FailedFolder  string `mapstructure:"failed_folder"`
	MasterFile    string `mapstructure:"master_file"`
}

// NetworkConfig 连通性检查
type NetworkConfig struct {
	ProbeURL     string        `mapstructure:"probe_url"`
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`
	UserAgent    string        `mapstructure:"user_agent"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	CompressMaster bool `mapstructure:"compress_master"`
}

// ExportConfig PostgreSQL导出配置
type ExportConfig struct {
	DatabaseURL string `mapstructure:"database_url"`
	Table       string `mapstructure:"table"`
	BatchSize   int    `mapstructure:"batch_size"`
}

// Loader 配置文件加载器
type Loader struct {
	configPath string
	envFile    string
	explicit   bool
}

// NewLoader 创建加载器; configPath 为空时使用默认路径,不存在则生成模板
func NewLoader(configPath string) *Loader {
	l := &Loader{configPath: configPath, envFile: DefaultEnvFile, explicit: configPath != ""}
	if configPath == "" {
		l.configPath = DefaultConfigFile
	}
	return l
}

// WithEnvFile 指定.env文件路径
func (l *Loader) WithEnvFile(path string) *Loader {
	l.envFile = path
	return l
}

// Path 返回实际使用的配置文件路径
func (l *Loader) Path() string {
	return l.configPath
}

// EnsureConfigExists 确保配置文件存在,如不存在则自动生成模板
// 显式指定的配置文件不存在时返回错误
func (l *Loader) EnsureConfigExists() error {
	if _, err := os.Stat(l.configPath); os.IsNotExist(err) {
		if l.explicit {
			return &models.ConfigError{FilePath: l.configPath, Cause: err}
		}

		dir := filepath.Dir(l.configPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("无法创建配置目录 [%s]: %w", dir, err)
		}
		if err := os.WriteFile(l.configPath, []byte(defaultConfigTemplate), 0644); err != nil {
			return fmt.Errorf("无法生成配置文件 [%s]: %w", l.configPath, err)
		}
		utils.Infof("📝 已生成默认配置文件: %s", l.configPath)
	}
	return nil
}

// ValidateFileSize 验证配置文件大小是否在限制内
func (l *Loader) ValidateFileSize() error {
	info, err := os.Stat(l.configPath)
	if err != nil {
		return fmt.Errorf("无法读取配置文件信息 [%s]: %w", l.configPath, err)
	}

	if info.Size() > MaxConfigFileSize {
		return &models.ConfigError{
			FilePath: l.configPath,
			Cause:    fmt.Errorf("配置文件过大: %d 字节 (最大 %d 字节)", info.Size(), MaxConfigFileSize),
		}
	}
	return nil
}

// Load 加载配置
// 执行流程:
//  1. 加载.env (不存在时忽略)
//  2. 确保配置文件存在并检查大小
//  3. 默认值 < 配置文件 < KOS_* 环境变量
//  4. 绑定到Config并校验
func (l *Loader) Load() (*Config, error) {
	if err := godotenv.Load(l.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, &models.ConfigError{FilePath: l.envFile, Cause: err}
	}

	if err := l.EnsureConfigExists(); err != nil {
		return nil, err
	}
	if err := l.ValidateFileSize(); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(l.configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// 配置文件被其他进程锁定时退回默认值
		if errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EWOULDBLOCK) {
			utils.Warnf("配置文件被锁定 [%s], 使用默认配置", l.configPath)
		} else {
			return nil, &models.ConfigError{FilePath: l.configPath, Cause: err}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &models.ConfigError{
			FilePath: l.configPath,
			Cause:    fmt.Errorf("配置绑定失败: %w", err),
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, &models.ConfigError{FilePath: l.configPath, Cause: err}
	}
	return &cfg, nil
}

// Load 使用默认.env加载配置文件
func Load(configPath string) (*Config, error) {
	return NewLoader(configPath).Load()
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	v.SetDefault("scraper.base_url", "https://mamikos.com/cari")
	v.SetDefault("scraper.url_template", "{base_url}/{region}/all/bulanan/0-15000000?keyword={keyword}&suggestion_type=search&rent=2&sort=price,-&price=10000-20000000&singgahsini=0")
	v.SetDefault("scraper.page_timeout", 15*time.Second)
	v.SetDefault("scraper.load_timeout", 10*time.Second)
	v.SetDefault("scraper.max_load_more_clicks", 30)
	v.SetDefault("scraper.max_connection_retry", 3)
	v.SetDefault("scraper.connection_retry_sleep", 10*time.Second)
	v.SetDefault("scraper.connection_check_interval", 20)
	v.SetDefault("scraper.max_card_retry", 2)
	v.SetDefault("scraper.duplicate_exit_threshold", 20)
	v.SetDefault("scraper.backup_interval", 50)
	v.SetDefault("scraper.completed_region_threshold", 100)
	v.SetDefault("scraper.load_more_pause_min", time.Second)
	v.SetDefault("scraper.load_more_pause_max", 4*time.Second)
	v.SetDefault("scraper.scroll_steps", []float64{1.0 / 3, 2.0 / 3, 1, 0})
	v.SetDefault("scraper.scroll_pause_min", time.Second)
	v.SetDefault("scraper.scroll_pause_max", 2*time.Second)
	v.SetDefault("scraper.region_pause_min", 5*time.Second)
	v.SetDefault("scraper.region_pause_max", 10*time.Second)
	v.SetDefault("scraper.cleanup_every", 5)
	v.SetDefault("scraper.cleanup_pause", 15*time.Second)
	v.SetDefault("scraper.persist_retries", 3)
	v.SetDefault("scraper.force", false)
	v.SetDefault("scraper.card_limit", 0)
	v.SetDefault("scraper.dedup", true)

	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.user_data_dir", "")
	v.SetDefault("browser.bin_path", "")
	v.SetDefault("browser.no_sandbox", false)
	v.SetDefault("browser.slow_motion", time.Duration(0))

	v.SetDefault("paths.data_dir", "../data/data-scrape")
	v.SetDefault("paths.backup_folder", "backup")
	v.SetDefault("paths.regions_folder", "regions")
	v.SetDefault("paths.failed_folder", "failed_cards")
	v.SetDefault("paths.master_file", "data-scrape.json")

	v.SetDefault("selectors.load_more", "a.list__content-load-link")
	v.SetDefault("selectors.room_card_primary", `[data-testid="kostRoomCard"]`)
	v.SetDefault("selectors.room_card_fallback", ".kost-rc")
	v.SetDefault("selectors.room_name", ".detail-title__room-name")
	v.SetDefault("selectors.gender", ".detail-kost-overview__gender-box")
	v.SetDefault("selectors.area", ".detail-kost-overview__area-text")
	v.SetDefault("selectors.rating", ".detail-kost-overview__rating-text")
	v.SetDefault("selectors.review_count", ".detail-kost-overview__rating-review")
	v.SetDefault("selectors.transaction_count", ".detail-kost-overview__total-transaction-text")
	v.SetDefault("selectors.price", ".rc-price__text")
	v.SetDefault("selectors.period", ".rc-price__type")
	v.SetDefault("selectors.address", ".bg-c-text--body-4")
	v.SetDefault("selectors.facilities", ".detail-kost-facility-item__label")
	v.SetDefault("selectors.rules", ".detail-kost-rule-item__label")
	v.SetDefault("selectors.landmark_names", ".landmark-item__text-ellipsis")
	v.SetDefault("selectors.landmark_distances", ".landmark-item__landmark-distance")

	v.SetDefault("network.probe_url", "https://httpbin.org/get")
	v.SetDefault("network.probe_timeout", 5*time.Second)
	v.SetDefault("network.user_agent", "")

	logDefaults := utils.DefaultLogConfig()
	v.SetDefault("logging.level", logDefaults.Level)
	v.SetDefault("logging.dir", logDefaults.LogDir)
	v.SetDefault("logging.max_size", logDefaults.MaxSize)
	v.SetDefault("logging.max_backups", logDefaults.MaxBackups)
	v.SetDefault("logging.max_age", logDefaults.MaxAge)
	v.SetDefault("logging.compress", logDefaults.Compress)
	v.SetDefault("logging.no_color", false)

	resDefaults := crawlers.DefaultResourceMonitorConfig()
	v.SetDefault("resources.warning_mb", resDefaults.WarningMB)
	v.SetDefault("resources.critical_mb", resDefaults.CriticalMB)
	v.SetDefault("resources.emergency_mb", resDefaults.EmergencyMB)

	v.SetDefault("output.compress_master", false)

	v.SetDefault("export.database_url", "")
	v.SetDefault("export.table", "kos_listings")
	v.SetDefault("export.batch_size", 500)

	v.SetDefault("regions", []string{})
}

// Validate 校验整份配置
func (c *Config) Validate() error {
	if err := c.Scraper.Validate(); err != nil {
		return err
	}
	if err := c.Selectors.Validate(); err != nil {
		return err
	}
	if err := models.ValidateURL(c.Network.ProbeURL); err != nil {
		return &models.ValidationError{Field: "network.probe_url", Value: c.Network.ProbeURL, Reason: err.Error()}
	}
	if c.Network.ProbeTimeout <= 0 {
		return &models.ValidationError{Field: "network.probe_timeout", Value: c.Network.ProbeTimeout.String(), Reason: "必须大于0"}
	}
	if c.Paths.DataDir == "" || c.Paths.MasterFile == "" {
		return &models.ValidationError{Field: "paths", Reason: "data_dir 与 master_file 不能为空"}
	}
	if c.Export.BatchSize < 1 {
		return &models.ValidationError{Field: "export.batch_size", Value: fmt.Sprint(c.Export.BatchSize), Reason: "至少为1"}
	}
	if len(c.Regions) > 0 {
		if err := utils.NewRegionValidator().ValidateRegions(c.Regions); err != nil {
			return err
		}
	}
	return nil
}

// Layout 转换为存储层的目录布局
func (c *Config) Layout() storage.Layout {
	return storage.NewLayout(c.Paths.DataDir, c.Paths.BackupFolder, c.Paths.RegionsFolder, c.Paths.FailedFolder, c.Paths.MasterFile)
}

// Overrides 命令行覆盖项, 负数表示未设置
type Overrides struct {
	Force          bool
	LimitCard      int
	LimitLoadMore  int
	BackupInterval int
	Head           bool
	NoDedup        bool
	LogLevel       string
	Verbose        bool
}

// NoOverrides 全部未设置
func NoOverrides() Overrides {
	return Overrides{LimitCard: -1, LimitLoadMore: -1, BackupInterval: -1}
}

// MergeCLIFlags 合并命令行参数到配置,命令行优先于配置文件
func (c *Config) MergeCLIFlags(o Overrides) {
	if o.Force {
		c.Scraper.Force = true
	}
	if o.LimitCard >= 0 {
		c.Scraper.CardLimit = o.LimitCard
	}
	if o.LimitLoadMore >= 0 {
		c.Scraper.MaxLoadMoreClicks = o.LimitLoadMore
	}
	if o.BackupInterval >= 0 {
		c.Scraper.BackupInterval = o.BackupInterval
	}
	if o.Head {
		c.Browser.Headless = false
	}
	if o.NoDedup {
		c.Scraper.Dedup = false
	}
	if o.LogLevel != "" {
		c.Logging.Level = o.LogLevel
	}
	if o.Verbose {
		c.Logging.Level = "debug"
	}
}
