package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"github.com/stellar/go/network"

	"stellar-swap/pkg/contract"
)

// DefaultContractID is the swap contract deployed on testnet
const DefaultContractID = "CC4RA3KPXMFNXJFR4KWIBBYYIUDMLZDMKULGCJGZ4CS4U7YNQXINLOZ3"

// Config holds the application configuration
type Config struct {
	HorizonURL        string        `mapstructure:"horizon_url" validate:"required,url"`
	RPCURL            string        `mapstructure:"rpc_url" validate:"required,url"`
	NetworkPassphrase string        `mapstructure:"network_passphrase" validate:"required"`
	ContractID        string        `mapstructure:"contract_id" validate:"required"`
	SecretKey         string        `mapstructure:"secret_key"`
	Wallet            string        `mapstructure:"wallet" validate:"required"`
	BaseFee           int64         `mapstructure:"base_fee" validate:"gt=0"`
	TxTimeout         time.Duration `mapstructure:"tx_timeout" validate:"gt=0"`
	PollInterval      time.Duration `mapstructure:"poll_interval" validate:"gt=0"`
	MaxPolls          int           `mapstructure:"max_polls" validate:"gt=0"`
	EventInterval     time.Duration `mapstructure:"event_interval" validate:"gt=0"`
	EventWindow       uint32        `mapstructure:"event_window" validate:"gt=0"`
	EventLimit        int           `mapstructure:"event_limit" validate:"gt=0,lte=100"`
	RPCTimeout        time.Duration `mapstructure:"rpc_timeout" validate:"gt=0"`
	LogLevel          string        `mapstructure:"log_level" validate:"oneof=trace debug info warn error"`
	MetricsAddr       string        `mapstructure:"metrics_addr" validate:"omitempty,hostname_port"`
	ExplorerURL       string        `mapstructure:"explorer_url" validate:"omitempty,url"`
}

var defaults = map[string]interface{}{
	"horizon_url":        "https://horizon-testnet.stellar.org",
	"rpc_url":            "https://soroban-testnet.stellar.org",
	"network_passphrase": network.TestNetworkPassphrase,
	"contract_id":        DefaultContractID,
	"secret_key":         "",
	"wallet":             "local",
	"base_fee":           100,
	"tx_timeout":         "30s",
	"poll_interval":      "2s",
	"max_polls":          60,
	"event_interval":     "5s",
	"event_window":       5,
	"event_limit":        5,
	"rpc_timeout":        "30s",
	"log_level":          "info",
	"metrics_addr":       "",
	"explorer_url":       "https://stellar.expert/explorer/testnet/tx/",
}

// Load reads configuration from environment variables and config file
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".stellar-swap")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME")
	v.AddConfigPath(".")

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// Read from environment variables
	v.SetEnvPrefix("STELLAR_SWAP")
	v.AutomaticEnv()

	// Config file is optional, a broken one is not
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks field constraints and the contract address
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid configuration: %s fails '%s' (value %v)", fe.Field(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := contract.ValidateContractID(c.ContractID); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// NetworkName returns a short name for the configured passphrase
func (c *Config) NetworkName() string {
	switch c.NetworkPassphrase {
	case network.PublicNetworkPassphrase:
		return "PUBLIC"
	case network.TestNetworkPassphrase:
		return "TESTNET"
	default:
		return "CUSTOM"
	}
}
