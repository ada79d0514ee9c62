package config

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/snowfork/ethereum-light-client/beacon/state"
	"github.com/snowfork/ethereum-light-client/store"
)

type Config struct {
	Store  StoreConfig   `mapstructure:"store"`
	Log    LogConfig     `mapstructure:"log"`
	Caller state.Account `mapstructure:"caller"`
}

type StoreConfig struct {
	// memdb keeps nothing between runs.
	Backend store.Backend `mapstructure:"backend"`
	Dir     string        `mapstructure:"dir"`
	Name    string        `mapstructure:"name"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func Default() Config {
	return Config{
		Store: StoreConfig{
			Backend: store.GoLevelDBBackend,
			Dir:     ".",
			Name:    "lightclient",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func (c Config) Validate() error {
	switch c.Store.Backend {
	case store.MemDBBackend:
	case store.GoLevelDBBackend:
		if c.Store.Dir == "" {
			return errors.New("store.dir is required for the goleveldb backend")
		}
		if c.Store.Name == "" {
			return errors.New("store.name is required for the goleveldb backend")
		}
	default:
		return fmt.Errorf("store.backend: %w: %s", store.ErrUnknownBackend, c.Store.Backend)
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	return nil
}

// OpenStore opens the database the config points at.
func (c Config) OpenStore() (store.Database, error) {
	if c.Store.Backend == store.MemDBBackend {
		return store.NewMemDB(), nil
	}
	db, err := store.Open(c.Store.Backend, c.Store.Name, c.Store.Dir)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// DecodeHook converts config strings into the typed account and backend
// fields.
func DecodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		stringTo(reflect.TypeOf(state.Account("")), func(s string) interface{} { return state.Account(s) }),
		stringTo(reflect.TypeOf(store.Backend("")), func(s string) interface{} { return store.Backend(s) }),
	)
}

func stringTo(target reflect.Type, convert func(string) interface{}) mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if from.Kind() != reflect.String || to != target {
			return data, nil
		}
		return convert(data.(string)), nil
	}
}

// Decode fills cfg from a generic map such as a parsed config file.
func Decode(input map[string]interface{}, cfg *Config) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  DecodeHook(),
		ErrorUnused: true,
		Result:      cfg,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

// Load reads the config file at path over the defaults. An empty path
// yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, err
	}

	if err := v.Unmarshal(&cfg, viper.DecodeHook(DecodeHook())); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
