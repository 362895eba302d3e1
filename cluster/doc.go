// Package cluster 定义扩展模块（cluster）的能力契约、宿主能力面以及按注册顺序保存已加载模块的注册表。
//
// 模块作者需要：
//  1. 在自己的类型中嵌入 *Base（NewBase 会绑定日志并创建存储目录）；
//  2. 实现 ConfigureBuilder 与 ConfigureRuntime 两个生命周期回调；
//  3. 在插件中导出 Clusters 符号（见 loader 包），由宿主在启动时构造并注册。
package cluster
