package host

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/snowfork/ethereum-light-client/beacon/state"
	"github.com/snowfork/ethereum-light-client/config"
	"github.com/snowfork/ethereum-light-client/lightclient"
	"github.com/snowfork/ethereum-light-client/store"
)

var ErrNoCaller = errors.New("no caller account, set --caller or the caller config key")

// Host is a light client contract opened over the configured store.
type Host struct {
	Config   config.Config
	db       store.Database
	Contract *lightclient.Contract
}

// Open loads the config file, applies the flag overrides and opens the
// contract.
func Open(configFile, caller, logLevel string) (*Host, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if caller != "" {
		cfg.Caller = state.Account(caller)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := SetupLogging(cfg.Log.Level); err != nil {
		return nil, err
	}

	db, err := cfg.OpenStore()
	if err != nil {
		return nil, err
	}

	contract, err := lightclient.New(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"backend": cfg.Store.Backend,
		"dir":     cfg.Store.Dir,
		"caller":  cfg.Caller,
	}).Debug("Opened light client store")

	return &Host{Config: cfg, db: db, Contract: contract}, nil
}

func (h *Host) Close() {
	if err := h.db.Close(); err != nil {
		logrus.WithError(err).Error("Failed to close the store")
	}
}

func (h *Host) Caller() (state.Account, error) {
	if h.Config.Caller == "" {
		return "", ErrNoCaller
	}
	return h.Config.Caller, nil
}

// SetupLogging routes the stdlib logger through logrus at the given level.
func SetupLogging(level string) error {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	log.SetOutput(logrus.WithFields(logrus.Fields{"logger": "stdlib"}).WriterLevel(logrus.InfoLevel))
	logrus.SetLevel(parsed)
	return nil
}

func ReadJSONFile(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func PrintJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
