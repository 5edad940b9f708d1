package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig is the on-disk layout of a config file. The same keys are used
// for JSON and YAML.
type fileConfig struct {
	App struct {
		LogFile string `json:"log_file" yaml:"log_file"`
		Version string `json:"version" yaml:"version"`
	} `json:"app" yaml:"app"`

	Auth struct {
		TokenSignKey  string   `json:"token_sign_key" yaml:"token_sign_key"`
		TokenIssuer   string   `json:"token_issuer" yaml:"token_issuer"`
		TokenDuration Duration `json:"token_duration" yaml:"token_duration"`
	} `json:"auth" yaml:"auth"`

	Storage struct {
		Engine string `json:"engine" yaml:"engine"`
		DSN    string `json:"dsn" yaml:"dsn"`
	} `json:"storage" yaml:"storage"`

	Server struct {
		HTTPAddress    string   `json:"http_address" yaml:"http_address"`
		RequestTimeout Duration `json:"request_timeout" yaml:"request_timeout"`
	} `json:"server" yaml:"server"`

	Adapter struct {
		HTTPAddress    string   `json:"http_address" yaml:"http_address"`
		RequestTimeout Duration `json:"request_timeout" yaml:"request_timeout"`
	} `json:"adapter" yaml:"adapter"`

	Sync struct {
		Interval       Duration `json:"interval" yaml:"interval"`
		ProbeInterval  Duration `json:"probe_interval" yaml:"probe_interval"`
		ProbeTimeout   Duration `json:"probe_timeout" yaml:"probe_timeout"`
		BackoffFloor   Duration `json:"backoff_floor" yaml:"backoff_floor"`
		BackoffCeiling Duration `json:"backoff_ceiling" yaml:"backoff_ceiling"`
		SaveDebounce   Duration `json:"save_debounce" yaml:"save_debounce"`
	} `json:"sync" yaml:"sync"`
}

// parseFile reads a JSON or YAML config file. The format is chosen by the
// file extension; anything but .yaml/.yml is decoded as JSON.
func parseFile(path string) (*StructuredConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading a config file: %w", err)
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err = yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("error decoding yaml configs: %w", err)
		}
	default:
		if err = json.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("error decoding json configs: %w", err)
		}
	}

	return &StructuredConfig{
		App: App{
			LogFile: fc.App.LogFile,
			Version: fc.App.Version,
		},
		Auth: Auth{
			TokenSignKey:  fc.Auth.TokenSignKey,
			TokenIssuer:   fc.Auth.TokenIssuer,
			TokenDuration: time.Duration(fc.Auth.TokenDuration),
		},
		Storage: Storage{
			Engine: fc.Storage.Engine,
			DB:     DB{DSN: fc.Storage.DSN},
		},
		Server: Server{
			HTTPAddress:    fc.Server.HTTPAddress,
			RequestTimeout: time.Duration(fc.Server.RequestTimeout),
		},
		Adapter: Adapter{
			HTTPAddress:    fc.Adapter.HTTPAddress,
			RequestTimeout: time.Duration(fc.Adapter.RequestTimeout),
		},
		Sync: Sync{
			Interval:       time.Duration(fc.Sync.Interval),
			ProbeInterval:  time.Duration(fc.Sync.ProbeInterval),
			ProbeTimeout:   time.Duration(fc.Sync.ProbeTimeout),
			BackoffFloor:   time.Duration(fc.Sync.BackoffFloor),
			BackoffCeiling: time.Duration(fc.Sync.BackoffCeiling),
			SaveDebounce:   time.Duration(fc.Sync.SaveDebounce),
		},
	}, nil
}

// Duration is a time.Duration that decodes from strings like "1h" or "30s"
// as well as from integer nanoseconds.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return fmt.Errorf("invalid duration %s", string(b))
	}
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	if n, err := time.ParseDuration(s); err == nil {
		*d = Duration(n)
		return nil
	}

	var ns int64
	if err := node.Decode(&ns); err != nil {
		return fmt.Errorf("invalid duration %q", s)
	}
	*d = Duration(time.Duration(ns))
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
