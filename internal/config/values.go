package config

import (
	"fmt"
	"strings"

	"github.com/entrypointlabs/uopguard/pkg/entities"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
)

// Values holds every environment-derived setting the daemon needs to dial a node, guard one EntryPoint
// deployment, and serve JSON-RPC.
type Values struct {
	// Documented variables.
	EthClientUrl          string
	Port                  int
	DataDirectory         string
	EntryPointAddress     common.Address
	ChainID               int64
	NativeBundlerTracer   string
	ReputationConstants   *entities.ReputationConstants

	// Observability variables.
	OTELServiceName      string
	OTELCollectorHeaders map[string]string
	OTELCollectorUrl     string
	OTELInsecureMode     bool

	// Undocumented variables.
	DebugMode bool
	GinMode   string
}

func envKeyValStringToMap(s string) map[string]string {
	out := map[string]string{}
	for _, pair := range strings.Split(s, "&") {
		kv := strings.Split(pair, "=")
		if len(kv) != 2 {
			break
		}
		out[kv[0]] = kv[1]
	}
	return out
}

func variableNotSetOrIsNil(env string) bool {
	return !viper.IsSet(env) || viper.GetString(env) == ""
}

// GetValues returns config for the daemon, read in from environment variables with a .env fallback.
func GetValues() *Values {
	// Default variables
	viper.SetDefault("uopguard_port", 4337)
	viper.SetDefault("uopguard_data_directory", "/tmp/uopguard")
	viper.SetDefault("uopguard_chain_id", 1)
	viper.SetDefault("uopguard_native_bundler_tracer", "")
	viper.SetDefault("uopguard_otel_insecure_mode", false)
	viper.SetDefault("uopguard_debug_mode", false)
	viper.SetDefault("uopguard_gin_mode", gin.ReleaseMode)

	// Read in from .env file if available
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found
			// Can ignore
		} else {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
	}

	// Read in from environment variables
	_ = viper.BindEnv("uopguard_eth_client_url")
	_ = viper.BindEnv("uopguard_entry_point_address")
	_ = viper.BindEnv("uopguard_port")
	_ = viper.BindEnv("uopguard_data_directory")
	_ = viper.BindEnv("uopguard_chain_id")
	_ = viper.BindEnv("uopguard_native_bundler_tracer")
	_ = viper.BindEnv("uopguard_otel_service_name")
	_ = viper.BindEnv("uopguard_otel_collector_headers")
	_ = viper.BindEnv("uopguard_otel_collector_url")
	_ = viper.BindEnv("uopguard_otel_insecure_mode")
	_ = viper.BindEnv("uopguard_debug_mode")
	_ = viper.BindEnv("uopguard_gin_mode")

	// Validate required variables
	if variableNotSetOrIsNil("uopguard_eth_client_url") {
		panic("Fatal config error: uopguard_eth_client_url not set")
	}

	if variableNotSetOrIsNil("uopguard_entry_point_address") {
		panic("Fatal config error: uopguard_entry_point_address not set")
	}

	// Validate O11Y variables
	if viper.IsSet("uopguard_otel_service_name") &&
		variableNotSetOrIsNil("uopguard_otel_collector_url") {
		panic("Fatal config error: uopguard_otel_service_name is set without a collector URL")
	}

	// Return Values
	ethClientUrl := viper.GetString("uopguard_eth_client_url")
	entryPointAddress := common.HexToAddress(viper.GetString("uopguard_entry_point_address"))
	port := viper.GetInt("uopguard_port")
	dataDirectory := viper.GetString("uopguard_data_directory")
	chainID := viper.GetInt64("uopguard_chain_id")
	nativeBundlerTracer := viper.GetString("uopguard_native_bundler_tracer")
	otelServiceName := viper.GetString("uopguard_otel_service_name")
	otelCollectorHeader := envKeyValStringToMap(viper.GetString("uopguard_otel_collector_headers"))
	otelCollectorUrl := viper.GetString("uopguard_otel_collector_url")
	otelInsecureMode := viper.GetBool("uopguard_otel_insecure_mode")
	debugMode := viper.GetBool("uopguard_debug_mode")
	ginMode := viper.GetString("uopguard_gin_mode")
	return &Values{
		EthClientUrl:          ethClientUrl,
		Port:                  port,
		DataDirectory:         dataDirectory,
		EntryPointAddress:     entryPointAddress,
		ChainID:               chainID,
		NativeBundlerTracer:   nativeBundlerTracer,
		ReputationConstants:   NewReputationConstantsFromEnv(),
		OTELServiceName:       otelServiceName,
		OTELCollectorHeaders:  otelCollectorHeader,
		OTELCollectorUrl:      otelCollectorUrl,
		OTELInsecureMode:      otelInsecureMode,
		DebugMode:             debugMode,
		GinMode:               ginMode,
	}
}
