package token

import (
	"regexp"
	"strings"
)

// UsernameDelimiter 「用户名----JWT」格式的分隔符
const UsernameDelimiter = "----"

// steamLoginSecure Cookie键名
const loginSecureKey = "steamLoginSecure"

var loginSecurePattern = regexp.MustCompile(`steamLoginSecure=([^;]+)`)

// ParsedToken 原始输入行的解析结果
// 三种凭证模式与Cookie兜底互斥：命中凭证模式时Cookies为空
type ParsedToken struct {
	Username   string            `json:"username,omitempty"`
	Credential string            `json:"credential,omitempty"`
	Cookies    map[string]string `json:"cookies,omitempty"`
	Raw        string            `json:"-"`
}

// Parse 解析一行原始Token输入，按固定优先级依次尝试三种凭证模式，
// 全部未命中时退回Cookie串解析。永不失败，字段缺失即为解析失败的信号。
func Parse(raw string) ParsedToken {
	parsed := ParsedToken{Raw: raw}

	// 模式1: username----JWT 格式
	if strings.Contains(raw, UsernameDelimiter) {
		parts := strings.SplitN(raw, UsernameDelimiter, 2)
		parsed.Username = strings.TrimSpace(parts[0])
		parsed.Credential = strings.TrimSpace(parts[1])
		return parsed
	}

	// 模式2: steamLoginSecure=xxx 格式
	if strings.Contains(raw, loginSecureKey+"=") {
		if m := loginSecurePattern.FindStringSubmatch(raw); m != nil {
			parsed.Credential = strings.TrimSpace(m[1])
			parsed.Username = ExtractUsername(parsed.Credential)
			return parsed
		}
	}

	// 模式3: 裸JWT（正好三段）
	trimmed := strings.TrimSpace(raw)
	if len(strings.Split(trimmed, ".")) == 3 {
		parsed.Credential = trimmed
		parsed.Username = ExtractUsername(parsed.Credential)
		return parsed
	}

	// 兜底: 按Cookie串解析
	parsed.Cookies = parseCookieLine(raw)
	return parsed
}

// parseCookieLine 将Cookie串解析为键值表，无"="的片段静默跳过
func parseCookieLine(line string) map[string]string {
	cookies := make(map[string]string)
	for _, part := range strings.Split(strings.TrimSpace(line), ";") {
		part = strings.TrimSpace(part)
		if idx := strings.Index(part, "="); idx > 0 {
			key := strings.TrimSpace(part[:idx])
			value := strings.TrimSpace(part[idx+1:])
			cookies[key] = value
		}
	}
	return cookies
}

// ValidateFormat 提交前的快速格式预检，判断一行输入是否命中
// 任一可解析形态（三种凭证模式或至少含一个键值对的Cookie串）
func ValidateFormat(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return false
	}
	if strings.Contains(raw, UsernameDelimiter) {
		return true
	}
	if strings.Contains(raw, loginSecureKey+"=") {
		return true
	}
	if len(strings.Split(trimmed, ".")) == 3 {
		return true
	}
	return len(parseCookieLine(raw)) > 0
}
