package log

import (
	"strings"
)

// 账号凭据字段：openKey / sign / authKey 均可直接登录或冒用会话
var sensitiveKeywords = []string{
	"authkey", "auth_key",
	"openkey", "open_key",
	"password", "passwd",
	"token", "secret",
	"encryption_key", "private_key",
	"authorization", "credential",
}

// 这些键只做精确匹配，避免误伤 signDay、sign_in 之类的普通字段
var sensitiveExactKeys = map[string]struct{}{
	"sign": {},
	"dsn":  {},
}

// SanitizeField masks value when key names a credential.
func SanitizeField(key, value string) string {
	if value == "" || !IsSensitiveKey(key) {
		return value
	}
	return sanitizeToken(value)
}

// IsSensitiveKey reports whether key names a credential.
func IsSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)
	if _, ok := sensitiveExactKeys[lowerKey]; ok {
		return true
	}
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(lowerKey, keyword) {
			return true
		}
	}
	return false
}

// sanitizeToken keeps the first and last 4 characters of long values.
func sanitizeToken(value string) string {
	if len(value) <= 8 {
		if len(value) <= 2 {
			return strings.Repeat("*", len(value))
		}
		return value[:1] + strings.Repeat("*", len(value)-2) + value[len(value)-1:]
	}
	return value[:4] + strings.Repeat("*", len(value)-8) + value[len(value)-4:]
}
