package crawlers

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/mem"
)

// MemoryPressure 内存压力等级
type MemoryPressure string

const (
	PressureNormal    MemoryPressure = "normal"
	PressureWarning   MemoryPressure = "warning"
	PressureCritical  MemoryPressure = "critical"
	PressureEmergency MemoryPressure = "emergency"
)

const mb = 1024 * 1024

// ResourceMonitorConfig 资源监控器配置,单位MB
type ResourceMonitorConfig struct {
	WarningMB   uint64 `mapstructure:"warning_mb"`
	CriticalMB  uint64 `mapstructure:"critical_mb"`
	EmergencyMB uint64 `mapstructure:"emergency_mb"`
}

// DefaultResourceMonitorConfig 默认阈值 500/300/200 MB
func DefaultResourceMonitorConfig() ResourceMonitorConfig {
	return ResourceMonitorConfig{WarningMB: 500, CriticalMB: 300, EmergencyMB: 200}
}

// MemoryStatus 内存状态信息
type MemoryStatus struct {
	TotalMemory     uint64         // 系统总内存(字节)
	AvailableMemory uint64         // 可用内存(字节)
	UsedPercent     float64        // 使用率(%)
	Pressure        MemoryPressure // 压力等级
}

// ResourceMonitor 系统内存监控
// 浏览器长时间运行会持续占用内存,地区之间据此决定是否冷却
type ResourceMonitor struct {
	config ResourceMonitorConfig

	// virtualMemory 测试中可替换
	virtualMemory func() (*mem.VirtualMemoryStat, error)
}

// NewResourceMonitor 创建资源监控器
func NewResourceMonitor(config ResourceMonitorConfig) *ResourceMonitor {
	def := DefaultResourceMonitorConfig()
	if config.WarningMB == 0 {
		config.WarningMB = def.WarningMB
	}
	if config.CriticalMB == 0 {
		config.CriticalMB = def.CriticalMB
	}
	if config.EmergencyMB == 0 {
		config.EmergencyMB = def.EmergencyMB
	}
	return &ResourceMonitor{
		config:        config,
		virtualMemory: mem.VirtualMemory,
	}
}

// GetMemoryStatus 采样当前内存状态
func (rm *ResourceMonitor) GetMemoryStatus() (MemoryStatus, error) {
	vm, err := rm.virtualMemory()
	if err != nil {
		return MemoryStatus{Pressure: PressureNormal}, fmt.Errorf("获取系统内存失败: %w", err)
	}

	availableMB := vm.Available / mb
	var pressure MemoryPressure
	switch {
	case availableMB < rm.config.EmergencyMB:
		pressure = PressureEmergency
	case availableMB < rm.config.CriticalMB:
		pressure = PressureCritical
	case availableMB < rm.config.WarningMB:
		pressure = PressureWarning
	default:
		pressure = PressureNormal
	}

	return MemoryStatus{
		TotalMemory:     vm.Total,
		AvailableMemory: vm.Available,
		UsedPercent:     vm.UsedPercent,
		Pressure:        pressure,
	}, nil
}

// NeedsCooldown 内存处于critical及以上时返回true和原因
// 采样失败视为正常,不阻塞抓取
func (rm *ResourceMonitor) NeedsCooldown() (bool, string) {
	status, err := rm.GetMemoryStatus()
	if err != nil {
		log.Warn().Err(err).Msg("内存采样失败,跳过资源检查")
		return false, ""
	}

	availableMB := status.AvailableMemory / mb
	switch status.Pressure {
	case PressureEmergency:
		log.Error().Msgf("内存紧急状态(可用%dMB)", availableMB)
		return true, fmt.Sprintf("内存严重不足(可用%dMB)", availableMB)
	case PressureCritical:
		log.Warn().Msgf("内存不足(可用%dMB)", availableMB)
		return true, fmt.Sprintf("内存不足(可用%dMB)", availableMB)
	case PressureWarning:
		log.Debug().Msgf("内存偏低(可用%dMB)", availableMB)
	}
	return false, ""
}
