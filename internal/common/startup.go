package common

import (
	"bytes"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "FANOUT"

// BindCommandlineArguments binds each flag to the config key of the same entry, so flags override files and the environment.
func BindCommandlineArguments(v *viper.Viper, flags *pflag.FlagSet, keysByFlag map[string]string) error {
	for flag, key := range keysByFlag {
		f := flags.Lookup(flag)
		if f == nil {
			return errors.Errorf("no flag named %s", flag)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

// LoadConfig reads the yaml defaults, merges each user-specified file on top of them in order,
// applies FANOUT_ prefixed environment variables and decodes the result into config.
func LoadConfig(v *viper.Viper, config interface{}, defaults []byte, userSpecifiedConfigs []string, hook mapstructure.DecodeHookFunc) error {
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return errors.WithMessage(err, "error reading default config")
	}

	for _, configFile := range userSpecifiedConfigs {
		v.SetConfigFile(configFile)
		if err := v.MergeInConfig(); err != nil {
			return errors.WithMessagef(err, "error reading config from %s", configFile)
		}
		log.Debugf("Read config from %s", v.ConfigFileUsed())
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	var opts []viper.DecoderConfigOption
	if hook != nil {
		opts = append(opts, viper.DecodeHook(hook))
	}
	if err := v.Unmarshal(config, opts...); err != nil {
		return errors.WithStack(err)
	}
	return nil
}
