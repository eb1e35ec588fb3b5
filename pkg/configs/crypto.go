package configs

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// MinMasterSecretLen 主密钥最小长度，过短的密钥直接拒绝启动.
const MinMasterSecretLen = 16

// CryptoConfig 信封加密配置。MasterSecret 用于派生凭证加密密钥，
// 无默认值：缺失或过短是致命的配置错误（见 InitConfig），而不是请求期错误.
type CryptoConfig struct {
	MasterSecret string `mapstructure:"master_secret"`
}

// Validate 校验主密钥已配置且满足最小长度.
func (c *CryptoConfig) Validate() error {
	if strings.TrimSpace(c.MasterSecret) == "" {
		return errors.New("crypto.master_secret is required (set VAULTSHARE_CRYPTO_MASTER_SECRET or the config file)")
	}

	if len(c.MasterSecret) < MinMasterSecretLen {
		return errors.New("crypto.master_secret is too short")
	}

	return nil
}

func (c *CryptoConfig) setDefaults(v *viper.Viper) {
	// 故意不设默认值；显式绑定 env 以便仅用环境变量运行
	_ = v.BindEnv("crypto.master_secret", "VAULTSHARE_CRYPTO_MASTER_SECRET")
}
