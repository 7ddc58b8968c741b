package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel   string   `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	StatusPort string   `yaml:"status-port" env:"STATUS_PORT" env-default:"9090"`
	RPC        RPC      `yaml:"rpc"`
	Game       Game     `yaml:"game"`
	Player     Player   `yaml:"player"`
	Opponent   Opponent `yaml:"opponent"`
	Redis      Redis    `yaml:"redis"`
	NATS       NATS     `yaml:"nats"`
}

type RPC struct {
	URL               string        `yaml:"url" env:"RPC_URL" env-default:"https://fullnode.testnet.sui.io:443"`
	Timeout           time.Duration `yaml:"timeout" env:"RPC_TIMEOUT" env-default:"30s"`
	RequestsPerSecond float64       `yaml:"requests-per-second" env:"RPC_REQUESTS_PER_SECOND" env-default:"10"`
}

type Game struct {
	PackageID    string        `yaml:"package-id" env:"GAME_PACKAGE_ID"`
	Module       string        `yaml:"module" env:"GAME_MODULE" env-default:"multisig_tic_tac_toe"`
	GasBudget    uint64        `yaml:"gas-budget" env:"GAME_GAS_BUDGET" env-default:"10000000"`
	GasCoin      string        `yaml:"gas-coin" env:"GAME_GAS_COIN"`
	PollInterval time.Duration `yaml:"poll-interval" env:"GAME_POLL_INTERVAL" env-default:"2s"`
}

// Player selects the local key: an inline private key wins over a keystore lookup by address.
type Player struct {
	PlayingAs    string `yaml:"playing-as" env:"PLAYING_AS"`
	PrivateKey   string `yaml:"private-key" env:"PRIVATE_KEY"`
	KeystorePath string `yaml:"keystore-path" env:"KEYSTORE_PATH"`
	Address      string `yaml:"address" env:"PLAYER_ADDRESS"`
}

type Opponent struct {
	PublicKey string `yaml:"public-key" env:"OPPONENT_PUBLIC_KEY"`
}

type Redis struct {
	Enabled bool   `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Host    string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port    string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

type NATS struct {
	URL           string `yaml:"url" env:"NATS_URL"`
	SubjectPrefix string `yaml:"subject-prefix" env:"NATS_SUBJECT_PREFIX" env-default:"tictactoe.turns"`
}

// MustLoad - load all configurations in config.yml file, with environment overrides.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}
	return config
}

func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	return config, nil
}
