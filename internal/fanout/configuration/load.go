package configuration

import (
	_ "embed"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/parallelproc/fanout/internal/common"
	commonconfig "github.com/parallelproc/fanout/internal/common/config"
	"github.com/parallelproc/fanout/internal/common/fanouterrors"
)

//go:embed config.yaml
var defaultConfig []byte

// Load builds the configuration from the built-in defaults, the given files, the environment and any flags bound to v.
// The result is validated; validation failures are logged per field and returned as ErrInvalidArgument.
func Load(v *viper.Viper, userSpecifiedConfigs []string) (*FanoutConfiguration, error) {
	var config FanoutConfiguration
	if err := common.LoadConfig(v, &config, defaultConfig, userSpecifiedConfigs, DecodeHooks); err != nil {
		return nil, errors.WithStack(&fanouterrors.ErrInvalidArgument{
			Name:    "config",
			Value:   userSpecifiedConfigs,
			Message: err.Error(),
		})
	}
	if err := config.Validate(); err != nil {
		commonconfig.LogValidationErrors(err)
		return nil, errors.WithStack(&fanouterrors.ErrInvalidArgument{
			Name:    "config",
			Value:   userSpecifiedConfigs,
			Message: err.Error(),
		})
	}
	return &config, nil
}
