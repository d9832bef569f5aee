package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Conf is the harness configuration.
type Conf struct {
	Output struct {
		LogDir         string `mapstructure:"logDir"`
		OutputTerminal bool   `mapstructure:"outputTerminal"`
	} `mapstructure:"output"`
	Map struct {
		File        string `mapstructure:"file"`
		AtlasDir    string `mapstructure:"atlasDir"`
		StrictGIDs  bool   `mapstructure:"strictGIDs"`
		Materialize bool   `mapstructure:"materialize"`
	} `mapstructure:"map"`
}

// LoadConf reads cfgFile if it exists and fills the rest from defaults and
// the environment (MAPINFO_MAP_FILE, ...).
func LoadConf(cfgFile string) (*Conf, error) {
	v := viper.New()
	v.SetDefault("output.logDir", "")
	v.SetDefault("output.outputTerminal", true)
	v.SetDefault("map.file", "")
	v.SetDefault("map.atlasDir", "")
	v.SetDefault("map.strictGIDs", false)
	v.SetDefault("map.materialize", true)

	v.SetEnvPrefix("mapinfo")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		if _, err := os.Stat(cfgFile); err == nil {
			v.SetConfigType("toml")
			v.SetConfigFile(cfgFile)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config file(%s) error: %w", cfgFile, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	conf := &Conf{}
	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("config parse failed: %w", err)
	}
	return conf, nil
}
