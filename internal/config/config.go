package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const defaultDBName = "costledger.db"

// UserConfig is the persisted on-disk configuration. Everything in it can be
// overridden by environment variables or command line flags at runtime.
type UserConfig struct {
	DBName  string `json:"db_name"`
	DataDir string `json:"data_dir"`
}

var runtimeDataDir string
var runtimePort = 8000

// SetRuntimeDataDir overrides the data directory for this process, taking
// precedence over the environment and the config file.
func SetRuntimeDataDir(dir string) {
	runtimeDataDir = dir
}

func SetRuntimePort(port int) {
	if port > 0 {
		runtimePort = port
	}
}

func GetRuntimePort() int {
	return runtimePort
}

func appConfigDir() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", "CostLedger"), nil
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = home
		}
		return filepath.Join(appData, "CostLedger"), nil
	default:
		configDir, err := os.UserConfigDir()
		if err != nil {
			home, herr := os.UserHomeDir()
			if herr != nil {
				return "", herr
			}
			return filepath.Join(home, ".config", "costledger"), nil
		}
		return filepath.Join(configDir, "costledger"), nil
	}
}

func appConfigPath() (string, error) {
	dir, err := appConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LoadUserConfig reads the config file, falling back to defaults when the
// file is missing or unreadable.
func LoadUserConfig() UserConfig {
	defaults := UserConfig{DBName: defaultDBName}

	path, err := appConfigPath()
	if err != nil {
		return defaults
	}
	file, err := os.Open(path)
	if err != nil {
		return defaults
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(&defaults); err != nil {
		return UserConfig{DBName: defaultDBName}
	}
	if strings.TrimSpace(defaults.DBName) == "" {
		defaults.DBName = defaultDBName
	}
	return defaults
}

// SaveUserConfig writes the config file, creating the config directory when
// needed.
func SaveUserConfig(cfg UserConfig) error {
	path, err := appConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// GetDataDir resolves the directory holding the database. Precedence is
// runtime override, then COST_LEDGER_DATA_DIR, then the config file, then
// the per-user application directory. The directory is created if needed.
func GetDataDir() (string, error) {
	if runtimeDataDir != "" {
		if err := os.MkdirAll(runtimeDataDir, 0o755); err != nil {
			return "", err
		}
		return runtimeDataDir, nil
	}
	if envDir := os.Getenv("COST_LEDGER_DATA_DIR"); envDir != "" {
		if err := os.MkdirAll(envDir, 0o755); err != nil {
			return "", err
		}
		return envDir, nil
	}
	cfg := LoadUserConfig()
	if cfg.DataDir != "" {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return "", err
		}
		return cfg.DataDir, nil
	}
	defaultDir, err := appConfigDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(defaultDir, 0o755); err != nil {
		return "", err
	}
	return defaultDir, nil
}

// GetDBPath resolves the database file path. COST_LEDGER_DB_PATH wins
// outright; otherwise the path is the data directory plus the configured
// database name.
func GetDBPath() (string, error) {
	if envPath := os.Getenv("COST_LEDGER_DB_PATH"); envPath != "" {
		return envPath, nil
	}
	cfg := LoadUserConfig()
	dataDir, err := GetDataDir()
	if err != nil {
		return "", err
	}
	name := strings.TrimSpace(cfg.DBName)
	if name == "" {
		name = defaultDBName
	}
	return filepath.Join(dataDir, name), nil
}
