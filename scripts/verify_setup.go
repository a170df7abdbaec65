package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/RecoveryAshes/KosScraper/internal/config"
	"github.com/RecoveryAshes/KosScraper/internal/netcheck"
	"github.com/go-rod/rod/lib/launcher"
)

func main() {
	fmt.Println("==============================================")
	fmt.Println("  KosScraper 环境验证")
	fmt.Println("==============================================")
	fmt.Println()

	allOK := true

	// 检查Go版本
	goVersion := runtime.Version()
	fmt.Printf("✅ Go版本: %s\n", goVersion)
	if strings.HasPrefix(goVersion, "go1.1") || strings.HasPrefix(goVersion, "go1.20") || strings.HasPrefix(goVersion, "go1.21") {
		fmt.Println("⚠️  警告: 建议使用Go 1.23+版本")
	}

	fmt.Printf("✅ 操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)

	// 加载配置 (不存在时生成模板)
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("❌ 配置加载失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✅ 配置文件有效")

	// 检查浏览器
	if cfg.Browser.BinPath != "" {
		if _, err := os.Stat(cfg.Browser.BinPath); err == nil {
			fmt.Printf("✅ 浏览器: %s\n", cfg.Browser.BinPath)
		} else {
			fmt.Printf("❌ 配置的浏览器不存在: %s\n", cfg.Browser.BinPath)
			allOK = false
		}
	} else if path, found := launcher.LookPath(); found {
		fmt.Printf("✅ 找到本地浏览器: %s\n", path)
	} else {
		fmt.Println("⚠️  未找到本地Chrome/Chromium,首次运行时rod会自动下载")
	}

	// 检查数据目录可写
	dataDir := cfg.Layout().DataDir
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		fmt.Printf("❌ 无法创建数据目录 %s: %v\n", dataDir, err)
		allOK = false
	} else {
		probe := filepath.Join(dataDir, ".write_test")
		if err := os.WriteFile(probe, []byte("ok"), 0644); err != nil {
			fmt.Printf("❌ 数据目录不可写 %s: %v\n", dataDir, err)
			allOK = false
		} else {
			os.Remove(probe)
			fmt.Printf("✅ 数据目录可写: %s\n", dataDir)
		}
	}

	// 检查网络
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	prober := &netcheck.CollyProbe{
		URL:       cfg.Network.ProbeURL,
		Timeout:   cfg.Network.ProbeTimeout,
		UserAgent: cfg.Network.UserAgent,
	}
	if err := prober.Probe(ctx); err != nil {
		fmt.Printf("❌ 网络检查失败 (%s): %v\n", cfg.Network.ProbeURL, err)
		allOK = false
	} else {
		fmt.Printf("✅ 网络可用: %s\n", cfg.Network.ProbeURL)
	}

	// 检查项目结构
	fmt.Println()
	fmt.Println("检查项目结构...")
	requiredDirs := []string{
		"cmd/kosscraper",
		"internal/core",
		"internal/crawlers",
		"internal/storage",
		"internal/utils",
		"internal/models",
		"configs",
	}
	for _, dir := range requiredDirs {
		if _, err := os.Stat(dir); err == nil {
			fmt.Printf("✅ %s/\n", dir)
		} else {
			fmt.Printf("❌ %s/ 不存在\n", dir)
			allOK = false
		}
	}

	fmt.Println()
	fmt.Println("==============================================")
	if allOK {
		fmt.Println("✅ 环境验证通过!")
		fmt.Println()
		fmt.Println("下一步:")
		fmt.Println("  1. 编辑 configs/regions.txt")
		fmt.Println("  2. 运行 'go build -o kosscraper ./cmd/kosscraper'")
		fmt.Println("  3. 运行 './kosscraper --regions-file configs/regions.txt'")
		os.Exit(0)
	}
	fmt.Println("❌ 环境验证失败,请解决上述问题。")
	os.Exit(1)
}
