package config

import (
	"strings"
)

const redacted = "***REDACTED***"

// SanitizeForLog 返回可安全写入日志的配置视图
func (c *Config) SanitizeForLog() map[string]any {
	view := map[string]any{
		"environment":          c.Environment,
		"log_level":            c.LogLevel,
		"http_port":            c.HTTPPort,
		"cors_allow_origins":   c.CORSAllowOrigins,
		"openai_api_key":       c.OpenAIAPIKey,
		"openai_base_url":      c.OpenAIBaseURL,
		"openai_model":         c.OpenAIModel,
		"dialogue_timeout":     c.DialogueTimeout.String(),
		"battle_max_age":       c.BattleMaxAge.String(),
		"battle_reap_schedule": c.BattleReapSchedule,
		"stream_buffer":        c.StreamBuffer,
		"stream_heartbeat":     c.StreamHeartbeat.String(),
		"nats_url":             c.NATSURL,
	}
	return SanitizeConfigForLog(view)
}

// SanitizeConfigForLog 隐藏敏感字段；空值保持为空以便区分“未配置”
func SanitizeConfigForLog(config map[string]any) map[string]any {
	sanitized := make(map[string]any, len(config))
	for k, v := range config {
		if isSensitiveKey(k) {
			if s, ok := v.(string); ok && s == "" {
				sanitized[k] = ""
				continue
			}
			sanitized[k] = redacted
			continue
		}
		sanitized[k] = v
	}
	return sanitized
}

// isSensitiveKey 判断是否是敏感配置项
func isSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)
	for _, keyword := range []string{"password", "secret", "token", "api_key", "credential", "private"} {
		if strings.Contains(lowerKey, keyword) {
			return true
		}
	}
	return false
}
