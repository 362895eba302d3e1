// Package storage 管理宿主与各 cluster 独占的存储目录（Storage Directory）。
//
// 目录布局：
//
//	<Root>/config.json                 # 宿主配置
//	<Root>/Modules/<Name>/config.json  # 模块配置
//	<Root>/Modules/<Name>/logs/...     # 模块自管
//
// 所有写入都通过临时文件 + rename 完成，保证读者要么看到旧文件、要么看到完整的新文件。
package storage
