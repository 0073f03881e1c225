package envutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrUnknownFileType is returned when the file extension is not recognized.
var ErrUnknownFileType = errors.New("env file doesn't have a known file suffix")

// LoadEnvFile loads environment variables from a file and returns them as a map.
// The format is picked from the file extension:
//   - .env files are parsed as KEY=VALUE lines (godotenv syntax)
//   - .json and .yml/.yaml files must have a top-level "env" object of strings
func LoadEnvFile(path string) (map[string]string, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	name := strings.ToLower(fileInfo.Name())

	switch {
	case strings.HasSuffix(name, ".env"):
		return godotenv.Read(path)
	case strings.HasSuffix(name, ".json"):
		return loadStructured(path, json.Unmarshal)
	case strings.HasSuffix(name, ".yml"), strings.HasSuffix(name, ".yaml"):
		return loadStructured(path, yaml.Unmarshal)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFileType, fileInfo.Name())
	}
}

// ApplyEnvFile loads path with LoadEnvFile and sets every variable that is
// not already present in the process environment.
func ApplyEnvFile(path string) error {
	vars, err := LoadEnvFile(path)
	if err != nil {
		return err
	}

	for key, value := range vars {
		if _, exists := os.LookupEnv(key); exists {
			continue
		}

		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("setting %s: %w", key, err)
		}
	}

	return nil
}

type envFile struct {
	Env map[string]string `json:"env" yaml:"env"`
}

func loadStructured(path string, unmarshal func([]byte, any) error) (map[string]string, error) {
	bts, err := os.ReadFile(path) // #nosec G304 -- path is the intended file to load
	if err != nil {
		return nil, err
	}

	out := &envFile{}

	if err := unmarshal(bts, out); err != nil {
		return nil, err
	}

	return out.Env, nil
}
