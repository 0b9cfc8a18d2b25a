package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ark-network/vault/internal/core/application"
	"github.com/ark-network/vault/internal/core/ports"
	jsonrpcdaemon "github.com/ark-network/vault/internal/infrastructure/daemon/jsonrpc"
	"github.com/ark-network/vault/internal/infrastructure/db"
	scheduler "github.com/ark-network/vault/internal/infrastructure/scheduler/gocron"
	wssigner "github.com/ark-network/vault/internal/infrastructure/signer/websocket"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var (
	supportedDbs = supportedType{
		"badger": {},
		"sqlite": {},
	}
	supportedNetworks = map[string]*chaincfg.Params{
		"bitcoin": &chaincfg.MainNetParams,
		"testnet": &chaincfg.TestNet3Params,
		"regtest": &chaincfg.RegressionNetParams,
		"signet":  &chaincfg.SigNetParams,
	}
)

type Config struct {
	Datadir         string
	DbDir           string
	LogLevel        int
	Network         string
	DaemonAddr      string
	DaemonUser      string
	DaemonPass      string `json:"-"`
	DaemonTimeout   int64
	DaemonRateLimit int
	SignerURL       string
	DbType          string
	PollInterval    int64
	DefaultFeerate  uint32

	repo      ports.RepoManager
	daemon    ports.Daemon
	signer    ports.Signer
	scheduler ports.SchedulerService
	network   *chaincfg.Params
	svc       *application.Service
}

func (c *Config) String() string {
	json, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Sprintf("error while marshalling config JSON: %s", err)
	}
	return string(json)
}

var (
	Datadir         = "DATADIR"
	LogLevel        = "LOG_LEVEL"
	Network         = "NETWORK"
	DaemonAddr      = "DAEMON_ADDR"
	DaemonUser      = "DAEMON_USER"
	DaemonPass      = "DAEMON_PASS"
	DaemonTimeout   = "DAEMON_TIMEOUT"
	DaemonRateLimit = "DAEMON_RATE_LIMIT"
	SignerURL       = "SIGNER_URL"
	DbType          = "DB_TYPE"
	PollInterval    = "POLL_INTERVAL"
	DefaultFeerate  = "DEFAULT_FEERATE"

	defaultDatadir         = btcutil.AppDataDir("vault", false)
	defaultLogLevel        = 4
	defaultNetwork         = "bitcoin"
	defaultDaemonAddr      = "127.0.0.1:8332"
	defaultDaemonTimeout   = 30
	defaultDaemonRateLimit = 0
	defaultDbType          = "badger"
	defaultPollInterval    = 0
	defaultFeerate         = application.DefaultFeerate
)

func LoadConfig() (*Config, error) {
	viper.SetEnvPrefix("VAULT")
	viper.AutomaticEnv()

	viper.SetDefault(Datadir, defaultDatadir)
	viper.SetDefault(LogLevel, defaultLogLevel)
	viper.SetDefault(Network, defaultNetwork)
	viper.SetDefault(DaemonAddr, defaultDaemonAddr)
	viper.SetDefault(DaemonTimeout, defaultDaemonTimeout)
	viper.SetDefault(DaemonRateLimit, defaultDaemonRateLimit)
	viper.SetDefault(DbType, defaultDbType)
	viper.SetDefault(PollInterval, defaultPollInterval)
	viper.SetDefault(DefaultFeerate, defaultFeerate)

	if err := initDatadir(); err != nil {
		return nil, fmt.Errorf("error while creating datadir: %s", err)
	}

	return &Config{
		Datadir:         viper.GetString(Datadir),
		DbDir:           filepath.Join(viper.GetString(Datadir), "db"),
		LogLevel:        viper.GetInt(LogLevel),
		Network:         strings.ToLower(viper.GetString(Network)),
		DaemonAddr:      viper.GetString(DaemonAddr),
		DaemonUser:      viper.GetString(DaemonUser),
		DaemonPass:      viper.GetString(DaemonPass),
		DaemonTimeout:   viper.GetInt64(DaemonTimeout),
		DaemonRateLimit: viper.GetInt(DaemonRateLimit),
		SignerURL:       viper.GetString(SignerURL),
		DbType:          viper.GetString(DbType),
		PollInterval:    viper.GetInt64(PollInterval),
		DefaultFeerate:  viper.GetUint32(DefaultFeerate),
	}, nil
}

func initDatadir() error {
	datadir := viper.GetString(Datadir)
	return makeDirectoryIfNotExists(datadir)
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}

func (c *Config) Validate() error {
	if !supportedDbs.supports(c.DbType) {
		return fmt.Errorf("db type not supported, please select one of: %s", supportedDbs)
	}
	network, ok := supportedNetworks[c.Network]
	if !ok {
		networks := make([]string, 0, len(supportedNetworks))
		for name := range supportedNetworks {
			networks = append(networks, name)
		}
		return fmt.Errorf(
			"network not supported, please select one of: %s",
			strings.Join(networks, " | "),
		)
	}
	if len(c.DaemonAddr) <= 0 {
		return fmt.Errorf("missing daemon address")
	}
	if c.DaemonTimeout <= 0 {
		return fmt.Errorf("invalid daemon timeout, must be greater than 0")
	}
	if c.DaemonRateLimit < 0 {
		return fmt.Errorf("invalid daemon rate limit, must not be negative")
	}
	if c.PollInterval < 0 {
		return fmt.Errorf("invalid poll interval, must not be negative")
	}
	if c.DefaultFeerate == 0 {
		return fmt.Errorf("default feerate must be greater than 0")
	}
	c.network = network

	if err := c.repoManager(); err != nil {
		return err
	}
	if err := c.daemonService(); err != nil {
		c.repo.Close()
		return err
	}
	if err := c.signerService(); err != nil {
		c.repo.Close()
		c.daemon.Close()
		return err
	}
	c.schedulerService()
	return nil
}

// AppService is available once the config is validated.
func (c *Config) AppService() (*application.Service, error) {
	if c.svc == nil {
		if err := c.appService(); err != nil {
			return nil, err
		}
	}
	return c.svc, nil
}

func (c *Config) NetworkParams() *chaincfg.Params {
	return c.network
}

func (c *Config) repoManager() error {
	var dataStoreConfig []interface{}
	logger := log.New()
	logger.SetLevel(log.Level(c.LogLevel))

	switch c.DbType {
	case "badger":
		dataStoreConfig = []interface{}{c.DbDir, logger}
	case "sqlite":
		dataStoreConfig = []interface{}{c.DbDir}
	default:
		return fmt.Errorf("unknown db type")
	}

	svc, err := db.NewService(db.ServiceConfig{
		DataStoreType:   c.DbType,
		DataStoreConfig: dataStoreConfig,
	})
	if err != nil {
		return err
	}

	c.repo = svc
	return nil
}

func (c *Config) daemonService() error {
	svc, err := jsonrpcdaemon.NewService(jsonrpcdaemon.Config{
		Host:      c.DaemonAddr,
		User:      c.DaemonUser,
		Pass:      c.DaemonPass,
		Timeout:   time.Duration(c.DaemonTimeout) * time.Second,
		RateLimit: c.DaemonRateLimit,
	})
	if err != nil {
		return err
	}

	c.daemon = svc
	return nil
}

// signerService attaches the signing module if configured, otherwise only
// indirect signing is available.
func (c *Config) signerService() error {
	if len(c.SignerURL) <= 0 {
		return nil
	}
	svc, err := wssigner.NewService(c.SignerURL)
	if err != nil {
		return err
	}

	c.signer = svc
	return nil
}

func (c *Config) schedulerService() {
	if c.PollInterval <= 0 {
		return
	}
	c.scheduler = scheduler.NewScheduler()
}

func (c *Config) appService() error {
	if c.repo == nil || c.daemon == nil {
		return fmt.Errorf("config not validated")
	}
	svc, err := application.NewService(
		c.PollInterval, c.network, c.DefaultFeerate,
		c.daemon, c.signer, c.scheduler, c.repo,
	)
	if err != nil {
		return err
	}

	c.svc = svc
	return nil
}

type supportedType map[string]struct{}

func (t supportedType) String() string {
	types := make([]string, 0, len(t))
	for tt := range t {
		types = append(types, tt)
	}
	return strings.Join(types, " | ")
}

func (t supportedType) supports(typeStr string) bool {
	_, ok := t[typeStr]
	return ok
}
