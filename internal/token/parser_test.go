package token

import (
	"encoding/base64"
	"testing"
)

// buildJWT 用给定声明段拼一个三段式凭证（签名段不参与解码）
func buildJWT(payload string) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"EdDSA","typ":"JWT"}`))
	body := base64.RawURLEncoding.EncodeToString([]byte(payload))
	return header + "." + body + ".c2lnbmF0dXJl"
}

// TestParse_UsernameDelimiter 测试 username----JWT 格式解析
func TestParse_UsernameDelimiter(t *testing.T) {
	jwt := buildJWT(`{"sub":"76561198123456789","exp":9999999999}`)
	parsed := Parse("player1----" + jwt)

	if parsed.Username != "player1" {
		t.Errorf("用户名应为 player1，实际为 %q", parsed.Username)
	}
	if parsed.Credential != jwt {
		t.Errorf("凭证提取错误，实际为 %q", parsed.Credential)
	}
	if len(parsed.Cookies) != 0 {
		t.Errorf("凭证模式命中时Cookies应为空，实际有 %d 项", len(parsed.Cookies))
	}
}

// TestParse_PriorityOrder 同时包含分隔符和steamLoginSecure=时，分隔符模式优先
func TestParse_PriorityOrder(t *testing.T) {
	line := "user2----steamLoginSecure=" + buildJWT(`{"sub":"76561198000000001"}`)
	parsed := Parse(line)

	if parsed.Username != "user2" {
		t.Errorf("分隔符模式应优先命中，用户名应为 user2，实际为 %q", parsed.Username)
	}
	if parsed.Credential == "" {
		t.Error("凭证不应为空")
	}
}

// TestParse_LoginSecureCookie 测试 steamLoginSecure= 格式解析
func TestParse_LoginSecureCookie(t *testing.T) {
	jwt := buildJWT(`{"sub":"76561198123456789","personaname":"gamer"}`)
	parsed := Parse("sessionid=abc; steamLoginSecure=" + jwt + "; browserid=123")

	if parsed.Credential != jwt {
		t.Errorf("应提取到分号前的凭证值，实际为 %q", parsed.Credential)
	}
	if parsed.Username != "gamer" {
		t.Errorf("应从声明中恢复用户名 gamer，实际为 %q", parsed.Username)
	}
}

// TestParse_BareJWT 测试裸三段式凭证解析
func TestParse_BareJWT(t *testing.T) {
	jwt := buildJWT(`{"sub":"76561198123456789","name":"direct"}`)
	parsed := Parse("  " + jwt + "  ")

	if parsed.Credential != jwt {
		t.Errorf("整行裁剪后应作为凭证，实际为 %q", parsed.Credential)
	}
	if parsed.Username != "direct" {
		t.Errorf("应从声明中恢复用户名 direct，实际为 %q", parsed.Username)
	}
}

// TestParse_CookieFallback 无凭证模式命中时退回Cookie解析
func TestParse_CookieFallback(t *testing.T) {
	parsed := Parse("sessionid=xyz; timezoneOffset=3600,0; broken; lang=en")

	if parsed.Credential != "" {
		t.Errorf("Cookie兜底时不应有凭证，实际为 %q", parsed.Credential)
	}
	if got := parsed.Cookies["sessionid"]; got != "xyz" {
		t.Errorf("sessionid 应为 xyz，实际为 %q", got)
	}
	if got := parsed.Cookies["lang"]; got != "en" {
		t.Errorf("lang 应为 en，实际为 %q", got)
	}
	// 无"="的片段静默跳过
	if _, exists := parsed.Cookies["broken"]; exists {
		t.Error("无等号的片段应被跳过")
	}
}

// TestValidateFormat 测试提交前的格式预检
func TestValidateFormat(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{"分隔符格式", "user----" + buildJWT(`{}`), true},
		{"steamLoginSecure格式", "steamLoginSecure=abc.def.ghi", true},
		{"裸三段凭证", "aaa.bbb.ccc", true},
		{"Cookie串", "sessionid=abc; lang=en", true},
		{"空行", "", false},
		{"纯空白", "   ", false},
		{"无法解析的乱码", "hello world", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateFormat(tt.raw); got != tt.want {
				t.Errorf("ValidateFormat(%q) = %v，期望 %v", tt.raw, got, tt.want)
			}
		})
	}
}
