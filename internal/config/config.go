package config

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/spf13/viper"
)

var supportedNetworks = map[string]*chaincfg.Params{
	"mainnet": &chaincfg.MainNetParams,
	"testnet": &chaincfg.TestNet3Params,
	"regtest": &chaincfg.RegressionNetParams,
}

type Config struct {
	Datadir   string
	LogLevel  uint32
	AppName   string
	Network   string
	SignerKey string

	net *chaincfg.Params
}

// LoadConfig reads the configuration from LOOTD_* environment variables.
func LoadConfig() (*Config, error) {
	viper.SetEnvPrefix("LOOTD")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	viper.SetDefault("datadir", btcutil.AppDataDir("lootd", false))
	viper.SetDefault("log_level", 4)
	viper.SetDefault("app_name", "lootforge")
	viper.SetDefault("network", "mainnet")

	cfg := &Config{
		Datadir:   viper.GetString("datadir"),
		LogLevel:  viper.GetUint32("log_level"),
		AppName:   viper.GetString("app_name"),
		Network:   viper.GetString("network"),
		SignerKey: viper.GetString("signer_prvkey"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NetParams returns the chain parameters for the configured network.
func (c *Config) NetParams() *chaincfg.Params {
	return c.net
}

func (c *Config) validate() error {
	net, ok := supportedNetworks[c.Network]
	if !ok {
		supported := make([]string, 0, len(supportedNetworks))
		for name := range supportedNetworks {
			supported = append(supported, name)
		}
		return fmt.Errorf(
			"unsupported network %q, must be one of %s",
			c.Network, strings.Join(supported, ", "),
		)
	}
	c.net = net
	return nil
}
