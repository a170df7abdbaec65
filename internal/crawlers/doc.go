// Package crawlers 提供浏览器驱动的房源抓取功能
//
// # 概述
//
// 核心流程只依赖窄接口 Session / Page / Element,go-rod 实现位于 rod.go。
// 测试中用内存假页面替换,无需启动浏览器。
//
// # 核心组件
//
// ## RodSession
//
// 启动一次浏览器并在运行结束时关闭。可选持久化配置目录(user_data_dir)。
//
//	session, err := NewRodSession(RodOptions{Headless: true})
//	if err != nil { /* 处理错误 */ }
//	defer session.Close()
//
// ## Paginator
//
// 反复等待并点击"加载更多",按钮消失或达到上限即停止。点击之间随机停顿。
//
//	p := &Paginator{LoadTimeout: 10 * time.Second, PauseMin: time.Second, PauseMax: 4 * time.Second}
//	clicks := p.Expand(ctx, page, selectors.LoadMore, 30)
//
// ## DetectCardSelector
//
// 两级卡片选择器: 先主选择器,未命中再用备用选择器。
//
// ## DetailExtractor
//
// 点击卡片打开详情标签页,分段滚动触发懒加载,读取HTML后交给 ParseDetail。
// ParseDetail 基于 goquery 解析字段,Categorize 按相似度把设施分成五类:
//
//	ukuran_listrik  房间尺寸/电费
//	kamar           房内设施
//	kamar_mandi     卫浴
//	umum            公共设施(默认)
//	parkir          停车
//
// ## ResourceMonitor
//
// 使用 gopsutil 采样系统可用内存:
//   - 可用内存 < 500MB: warning
//   - 可用内存 < 300MB: critical,地区之间冷却
//   - 可用内存 < 200MB: emergency,地区之间冷却 (错误日志)
//
// # 错误处理
//
//   - 元素不存在: WaitFor 返回 NotFound,不是错误
//   - 详情页为403/错误页: ParseDetail 返回 ErrErrorPage
//   - 浏览器崩溃: NewPage 返回明确错误"浏览器可能已崩溃"
package crawlers
