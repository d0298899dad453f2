package metrics

import "sync/atomic"

// Namespace 所有指标的命名空间
const Namespace = "career_royale"

const defaultServiceName = "unknown"

var globalServiceName atomic.Value

func init() {
	globalServiceName.Store(defaultServiceName)
}

// SetServiceName 配置 HTTP 指标 service 标签的取值
func SetServiceName(name string) {
	if name == "" {
		name = defaultServiceName
	}
	globalServiceName.Store(name)
}

// GetServiceName 返回当前配置的服务名称
func GetServiceName() string {
	if value, ok := globalServiceName.Load().(string); ok && value != "" {
		return value
	}
	return defaultServiceName
}

func normalizeServiceName(name string) string {
	if name == "" {
		return GetServiceName()
	}
	return name
}
