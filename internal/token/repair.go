package token

import (
	"regexp"
)

// 文本修复启发式使用的模式，按固定顺序应用
var (
	// 未加引号的裸键名：{sub: 或 ,exp:
	bareKeyPattern = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)

	// 夹在单词字符中间的游离引号：abc"def
	strayQuotePattern = regexp.MustCompile(`(\w)"(\w)`)

	// 闭括号前的多余分隔符：,} 和 ,]
	trailingCommaObjPattern = regexp.MustCompile(`,\s*}`)
	trailingCommaArrPattern = regexp.MustCompile(`,\s*]`)

	// 相邻引号字段之间缺失的分隔符："a" "b"
	missingCommaPattern = regexp.MustCompile(`"(\s+)"`)
)

// repairJSON 对近似合法的JSON文本做固定顺序的修复，
// 目标是把拼凑出来的残缺声明段抢救成可解析的形态。
// 修复不保证成功，调用方修复后重试严格解析。
func repairJSON(s string) string {
	// 1. 给裸键名补引号
	s = bareKeyPattern.ReplaceAllString(s, `$1"$2":`)

	// 2. 转义字段值内部的游离引号
	s = strayQuotePattern.ReplaceAllString(s, `$1\"$2`)

	// 3. 去掉闭括号前的尾随逗号
	s = trailingCommaObjPattern.ReplaceAllString(s, "}")
	s = trailingCommaArrPattern.ReplaceAllString(s, "]")

	// 4. 相邻引号字段之间补逗号
	s = missingCommaPattern.ReplaceAllString(s, `", "`)

	return s
}
