package token

import "testing"

// TestResolveSteamID_PrefersDecoded 解码成功时以凭证内的ID为准
func TestResolveSteamID_PrefersDecoded(t *testing.T) {
	parsed := ParsedToken{Raw: "sessionid=abc; steamid=76561198000000001"}
	decoded := &DecodedCredential{SteamID: "76561198123456789"}

	if got := ResolveSteamID(parsed, decoded); got != "76561198123456789" {
		t.Errorf("应优先取解码凭证中的ID，实际为 %q", got)
	}
}

// TestResolveSteamID_RawFallback 场景D：Cookie行里明文出现的17位ID
func TestResolveSteamID_RawFallback(t *testing.T) {
	raw := "sessionid=deadbeef; steamid=76561198123456789; browserid=42"
	parsed := Parse(raw)
	if parsed.Cookies == nil {
		t.Fatal("该行应落入Cookie兜底解析")
	}

	if got := ResolveSteamID(parsed, &DecodedCredential{}); got != "76561198123456789" {
		t.Errorf("应从原始行扫描出明文ID，实际为 %q", got)
	}
}

// TestResolveSteamID_NilDecoded 解码结果缺席时也走原始行扫描
func TestResolveSteamID_NilDecoded(t *testing.T) {
	parsed := ParsedToken{Raw: "steamid=76561198123456789"}

	if got := ResolveSteamID(parsed, nil); got != "76561198123456789" {
		t.Errorf("nil解码结果应退回原始行扫描，实际为 %q", got)
	}
}

// TestResolveSteamID_NothingFound 两条路径都失配时返回空
func TestResolveSteamID_NothingFound(t *testing.T) {
	parsed := ParsedToken{Raw: "sessionid=abc; lang=en"}

	if got := ResolveSteamID(parsed, &DecodedCredential{}); got != "" {
		t.Errorf("无ID可解析时应返回空，实际为 %q", got)
	}
}
