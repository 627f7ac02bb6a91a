package sandbox

import (
	"os"

	"go.dedis.ch/inkconn/core/runtime"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v2"
)

// Schedule is the weight charged for each operation of an execution.
type Schedule struct {
	Instantiate  runtime.Weight `yaml:"instantiate"`
	Call         runtime.Weight `yaml:"call"`
	InputByte    runtime.Weight `yaml:"input_byte"`
	StorageRead  runtime.Weight `yaml:"storage_read"`
	StorageWrite runtime.Weight `yaml:"storage_write"`
	StorageByte  runtime.Weight `yaml:"storage_byte"`
	Event        runtime.Weight `yaml:"event"`
	EventByte    runtime.Weight `yaml:"event_byte"`
}

// Config is the configuration of a sandbox. It can be loaded from a YAML file.
type Config struct {
	// GasLimit is the limit used for calls that do not specify one.
	GasLimit runtime.Weight `yaml:"gas_limit"`

	// MaxCodeSize is the maximum size in bytes of an uploaded code.
	MaxCodeSize int `yaml:"max_code_size"`

	Schedule Schedule `yaml:"schedule"`

	// Endowments maps hexadecimal accounts to their initial balance. They are
	// only applied once on a fresh state.
	Endowments map[string]runtime.Balance `yaml:"endowments"`
}

// DefaultConfig returns the default configuration of a sandbox.
func DefaultConfig() Config {
	return Config{
		GasLimit:    runtime.NewWeight(100_000_000_000, 3*1024*1024),
		MaxCodeSize: 128 * 1024,
		Schedule: Schedule{
			Instantiate:  runtime.NewWeight(500_000_000, 10_000),
			Call:         runtime.NewWeight(200_000_000, 5_000),
			InputByte:    runtime.NewWeight(10_000, 1),
			StorageRead:  runtime.NewWeight(25_000_000, 128),
			StorageWrite: runtime.NewWeight(50_000_000, 128),
			StorageByte:  runtime.NewWeight(20_000, 1),
			Event:        runtime.NewWeight(10_000_000, 0),
			EventByte:    runtime.NewWeight(5_000, 0),
		},
		Endowments: map[string]runtime.Balance{},
	}
}

// LoadConfig reads the YAML file at the path. The values of the file override
// the default configuration.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, xerrors.Errorf("failed to read config: %v", err)
	}

	err = yaml.UnmarshalStrict(data, &cfg)
	if err != nil {
		return cfg, xerrors.Errorf("failed to parse config: %v", err)
	}

	err = cfg.validate()
	if err != nil {
		return cfg, xerrors.Errorf("invalid config: %v", err)
	}

	return cfg, nil
}

func (cfg Config) validate() error {
	if cfg.GasLimit.IsZero() {
		return xerrors.New("gas limit must be set")
	}

	if cfg.MaxCodeSize <= 0 {
		return xerrors.Errorf("max code size must be positive: %d", cfg.MaxCodeSize)
	}

	for acct := range cfg.Endowments {
		_, err := runtime.ParseAccountID(acct)
		if err != nil {
			return xerrors.Errorf("endowment: %v", err)
		}
	}

	return nil
}
