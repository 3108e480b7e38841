package utils

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// GenerateSubmitSign 生成批量检测提交的签名（SHA256前32位）
// 参数按键名字母序拼接后追加salt，防止接口被脚本滥用
func GenerateSubmitSign(lineCount int, timestamp, salt string) string {
	params := map[string]string{
		"count":     strconv.Itoa(lineCount),
		"timestamp": timestamp,
	}

	// 对参数键进行字母顺序排序
	var sortedKeys []string
	for key := range params {
		sortedKeys = append(sortedKeys, key)
	}
	sort.Strings(sortedKeys)

	// 构建参数字符串
	var sortedParams []string
	for _, key := range sortedKeys {
		sortedParams = append(sortedParams, fmt.Sprintf("%s=%s", key, params[key]))
	}

	signString := strings.Join(sortedParams, "&") + salt

	// 生成SHA256哈希并取前32位
	hash := sha256.Sum256([]byte(signString))
	fullHash := fmt.Sprintf("%x", hash)

	return fullHash[:32]
}

// VerifySubmitSign 验证批量检测提交的签名
func VerifySubmitSign(lineCount int, timestamp, providedSign, salt string) bool {
	expectedSign := GenerateSubmitSign(lineCount, timestamp, salt)
	return expectedSign == providedSign
}
