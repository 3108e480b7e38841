package checker

import (
	"github.com/ZoniBoy00/steam-account-checker-e2/internal/client"
	"github.com/ZoniBoy00/steam-account-checker-e2/internal/model"
	"github.com/ZoniBoy00/steam-account-checker-e2/internal/token"
)

// Classify 按优先级级联判定单条Token的终态。
// 过期和结构无效在查看任何外部资料信号之前短路：凭证已死，资料再全也救不回来。
// Error状态不在这里产生，由批次编排器的错误边界合成。
func Classify(decoded *token.DecodedCredential, resolvedID string, profile *client.PlayerProfile) model.AccountStatus {
	// 1. 完全没解出声明：其他途径解出ID则继续查资料，否则终态Invalid
	if decoded == nil || !decoded.HasClaims() {
		if resolvedID == "" {
			return model.StatusInvalid
		}
		return classifyByProfile(profile)
	}

	// 2. 过期短路，资料查询结果只附到记录上不参与判定
	if decoded.IsExpired {
		return model.StatusExpired
	}

	// 3. 解出声明但结构无效
	if !decoded.IsStructurallyValid {
		return model.StatusInvalidCredential
	}

	// 4. 凭证有效，用外部资料信号收尾
	return classifyByProfile(profile)
}

// classifyByProfile 按资料完整度区分三种终态：
// 查无此人（全哨兵）、真实资料、介于两者之间的受限资料
func classifyByProfile(profile *client.PlayerProfile) model.AccountStatus {
	if profile == nil {
		return model.StatusLimitedProfile
	}

	notFound := profile.DisplayName == model.SentinelUnknown && profile.CreationTimestamp == 0
	if notFound {
		return model.StatusAccountNotFound
	}

	hasRealProfile := profile.CreationTimestamp > 0 || profile.DisplayName != model.SentinelUnknown
	if hasRealProfile {
		return model.StatusValid
	}
	return model.StatusLimitedProfile
}
