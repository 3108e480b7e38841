package token

import (
	"regexp"
)

// 原始输入行中明文出现的规范SteamID64（固定前缀+10位数字）
var rawSteamIDPattern = regexp.MustCompile(SteamIDPrefix + `\d{10}`)

// ResolveSteamID 确定一条输入最终使用的SteamID。
// 优先取解码凭证中的规范ID；解不出时退回对原始行的正则扫描，
// 覆盖Cookie格式里ID以明文出现在凭证之外的情况。不做任何网络IO。
func ResolveSteamID(parsed ParsedToken, decoded *DecodedCredential) string {
	if decoded != nil && decoded.SteamID != "" {
		return decoded.SteamID
	}
	return rawSteamIDPattern.FindString(parsed.Raw)
}
