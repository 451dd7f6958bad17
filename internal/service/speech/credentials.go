package speech

import (
	"strings"

	speechmodel "github.com/zhouzirui/drama-bot/backend/internal/model/speech"
)

// resolveCredentials 返回去除空白后的 AppID 与 AccessToken，任一缺失时返回 ErrSynthesisUnavailable
func resolveCredentials(cfg *speechmodel.SpeechConfig) (string, string, error) {
	if cfg == nil {
		return "", "", ErrSynthesisUnavailable
	}

	appID := strings.TrimSpace(cfg.AppID)
	token := strings.TrimSpace(cfg.AccessToken)
	if appID == "" || token == "" {
		return "", "", ErrSynthesisUnavailable
	}

	return appID, token, nil
}
