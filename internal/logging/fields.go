package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// ClusterFields 标记日志来源 cluster，供加载器与编排器复用。
func ClusterFields(action, name, version string) logrus.Fields {
	fields := logrus.Fields{
		"action": action,
		"source": name,
	}
	if version != "" {
		fields["version"] = version
	}
	return fields
}
