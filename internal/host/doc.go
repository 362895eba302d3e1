// Package host 实现宿主 cluster "OpenStar"：加载自身配置与日志，发现并加载模块，
// 然后按 构建阶段 → 定稿 → 运行阶段 的顺序驱动宿主与全部模块，最后进入服务循环。
//
// 所有生命周期回调都在调用 Start 的 goroutine 上串行执行，宿主总是第一个。
package host
