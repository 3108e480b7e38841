package token

import (
	"encoding/base64"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SteamIDPrefix SteamID64的固定7位前缀
const SteamIDPrefix = "7656119"

// 解码失败的错误描述（作为诊断信息透出，控制流只看布尔位）
const (
	errWrongParts      = "invalid JWT format: wrong number of parts"
	errTokenExpired    = "Token has expired"
	errInvalidSteamID  = "Invalid Steam ID format"
	errParsingFailed   = "JWT payload parsing failed"
	errNoSteamIDFound  = "No valid Steam ID found in token"
)

var (
	canonicalIDPattern = regexp.MustCompile(`^` + SteamIDPrefix + `\d{10}$`)
	nonDigitPattern    = regexp.MustCompile(`\D`)

	// 正则提取兜底用的声明模式
	subClaimPattern = regexp.MustCompile(`"sub"\s*:\s*"([^"]*)"`)
	expClaimPattern = regexp.MustCompile(`"exp"\s*:\s*(\d+)`)
	iatClaimPattern = regexp.MustCompile(`"iat"\s*:\s*(\d+)`)
)

// DecodedCredential 凭证解码结果，构造后不可变，由状态分类器即时消费
type DecodedCredential struct {
	IsStructurallyValid bool   `json:"is_valid"`
	IsExpired           bool   `json:"is_expired"`
	SteamID             string `json:"steam_id,omitempty"`
	Username            string `json:"username,omitempty"`
	ExpiresAt           *int64 `json:"expires_at,omitempty"`
	IssuedAt            *int64 `json:"issued_at,omitempty"`
	DecodeError         string `json:"decode_error,omitempty"`
}

// HasClaims 解码是否成功提取出任何声明。
// 终止性失败（段数错误、完全不可解析）提取不出任何字段，
// 与「提取到声明但结构无效」是两种不同的分类前提。
func (d *DecodedCredential) HasClaims() bool {
	return d.SteamID != "" || d.ExpiresAt != nil || d.IssuedAt != nil ||
		d.Username != "" || d.IsExpired
}

// claims 解码后依赖的具名声明字段
type claims struct {
	sub      string
	exp      *int64
	iat      *int64
	username string
}

// Decode 解码会话凭证的声明段。纯函数、永不panic，
// 所有失败路径填充DecodeError并返回IsStructurallyValid=false的部分结果。
//
// 解析采用分层恢复策略：严格解析 → 文本修复后重试 → 正则直接提取 → 终止失败。
// Token生产方经常拼出残缺的JSON，一刀切的严格解析会丢掉大量本可分类的账号。
func Decode(credential string) *DecodedCredential {
	result := &DecodedCredential{}

	// 第一步：凭证必须正好三段
	parts := strings.Split(credential, ".")
	if len(parts) != 3 {
		result.DecodeError = errWrongParts
		return result
	}

	// 第二步：补齐padding、还原URL-safe字母表后解码声明段
	payload, err := decodeSegment(parts[1])
	if err != nil {
		result.DecodeError = errParsingFailed
		return result
	}

	c, ok := parseClaims(credential, payload)
	if !ok {
		result.DecodeError = errParsingFailed
		return result
	}
	result.Username = c.username
	result.ExpiresAt = c.exp
	result.IssuedAt = c.iat

	// 账号ID校正：剥离非数字后按固定前缀重建规范17位ID
	if c.sub != "" {
		steamID, idErr := reconcileSteamID(c.sub)
		if idErr != "" {
			result.DecodeError = idErr
		} else {
			result.SteamID = steamID
		}
	} else {
		result.DecodeError = errNoSteamIDFound
	}

	// 过期判定：无exp声明视为未知，不算过期
	if c.exp != nil {
		result.IsExpired = time.Now().Unix() > *c.exp
	}

	result.IsStructurallyValid = result.SteamID != ""

	// 过期覆盖结构有效性：凭证已死，资料再全也无意义
	if result.IsExpired {
		result.IsStructurallyValid = false
		result.DecodeError = errTokenExpired
	}

	return result
}

// parseClaims 分层解析声明：严格 → 修复重试 → 正则提取
func parseClaims(credential string, payload []byte) (claims, bool) {
	// 严格解析：交给JWT解析器（不校验签名，只取声明）。
	// 声明里的数字必须走json.Number，SteamID64超出float64的精度范围
	parser := jwt.NewParser(jwt.WithoutClaimsValidation(), jwt.WithJSONNumber())
	if tok, _, err := parser.ParseUnverified(credential, jwt.MapClaims{}); err == nil {
		if m, ok := tok.Claims.(jwt.MapClaims); ok {
			return claimsFromMap(map[string]interface{}(m)), true
		}
	}

	// 修复层：对近似合法的JSON做固定顺序的文本修复后重试
	dec := json.NewDecoder(strings.NewReader(repairJSON(string(payload))))
	dec.UseNumber()
	var m map[string]interface{}
	if err := dec.Decode(&m); err == nil {
		return claimsFromMap(m), true
	}

	// 正则提取兜底：不管整体结构，直接从原始字节里抠声明
	c := claims{}
	if m := subClaimPattern.FindSubmatch(payload); m != nil {
		c.sub = string(m[1])
	}
	if m := expClaimPattern.FindSubmatch(payload); m != nil {
		if v, ok := parseInt64(string(m[1])); ok {
			c.exp = &v
		}
	}
	if m := iatClaimPattern.FindSubmatch(payload); m != nil {
		if v, ok := parseInt64(string(m[1])); ok {
			c.iat = &v
		}
	}
	if c.sub == "" && c.exp == nil {
		return claims{}, false
	}
	return c, true
}

// claimsFromMap 从松散的声明表提取解码器依赖的具名字段
func claimsFromMap(m map[string]interface{}) claims {
	c := claims{}
	switch v := m["sub"].(type) {
	case string:
		c.sub = v
	case float64:
		c.sub = jsonNumberString(v)
	case json.Number:
		c.sub = v.String()
	}
	if v, ok := claimInt64(m["exp"]); ok {
		c.exp = &v
	}
	if v, ok := claimInt64(m["iat"]); ok {
		c.iat = &v
	}
	// 扫描用户名类字段
	for _, field := range []string{"username", "name", "persona", "personaname"} {
		if v, ok := m[field].(string); ok && v != "" {
			c.username = v
			break
		}
	}
	return c
}

// reconcileSteamID 将声明中的账号标识校正为规范SteamID64。
// 校正失败返回错误描述，此时ID保持未设置。
func reconcileSteamID(sub string) (string, string) {
	digits := nonDigitPattern.ReplaceAllString(sub, "")
	if len(digits) < 10 {
		return "", errNoSteamIDFound
	}

	candidate := digits
	if !strings.HasPrefix(candidate, SteamIDPrefix) {
		// 已知该启发式可能从无关数字噪声拼出貌似合法的ID，
		// 行为保持不变以兼容既有分类结果
		candidate = SteamIDPrefix + candidate[len(candidate)-10:]
	}
	if len(candidate) > 17 {
		candidate = candidate[:17]
	} else if len(candidate) < 17 && strings.HasPrefix(candidate, SteamIDPrefix) {
		candidate += strings.Repeat("0", 17-len(candidate))
	}

	if !canonicalIDPattern.MatchString(candidate) {
		return "", errInvalidSteamID
	}
	return candidate, ""
}

// ExtractUsername 仅尝试严格解码声明段提取用户名类字段，失败时静默返回空
func ExtractUsername(credential string) string {
	parts := strings.Split(credential, ".")
	if len(parts) < 2 {
		return ""
	}
	payload, err := decodeSegment(parts[1])
	if err != nil {
		return ""
	}
	var m map[string]interface{}
	if err := json.Unmarshal(payload, &m); err != nil {
		return ""
	}
	return claimsFromMap(m).username
}

// decodeSegment 解码JWT的base64url段：补齐"="到4的倍数并还原标准字母表
func decodeSegment(segment string) ([]byte, error) {
	if n := len(segment) % 4; n != 0 {
		segment += strings.Repeat("=", 4-n)
	}
	segment = strings.ReplaceAll(segment, "-", "+")
	segment = strings.ReplaceAll(segment, "_", "/")
	return base64.StdEncoding.DecodeString(segment)
}

func claimInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
	case string:
		return parseInt64(n)
	}
	return 0, false
}

func parseInt64(s string) (int64, bool) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// jsonNumberString 将float64形式的数字声明还原为无小数尾巴的字符串
func jsonNumberString(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
