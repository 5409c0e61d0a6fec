package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	flags "github.com/jessevdk/go-flags"

	"github.com/regolith-labs/ore-cli-sub000/chainclient"
	"github.com/regolith-labs/ore-cli-sub000/constdef"
	"github.com/regolith-labs/ore-cli-sub000/dal"
	"github.com/regolith-labs/ore-cli-sub000/hashengine"
	"github.com/regolith-labs/ore-cli-sub000/poolclient"
	"github.com/regolith-labs/ore-cli-sub000/txmgr"
	"github.com/regolith-labs/ore-cli-sub000/utils"
)

const (
	defaultConfigFilename = "ore-miner.conf"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "ore-miner.log"
	defaultLogLevel       = "info"
	defaultRPCURL         = "https://api.mainnet-beta.solana.com"
	defaultCores          = "1"
	defaultBufferTime     = 5
	defaultDbAddress      = "127.0.0.1:3306"
	defaultDatabaseName   = "ore_miner"
	defaultHTTPTimeout    = 30 * time.Second

	// maxDeviceID bounds --deviceid; the pool reports the device count of a
	// member as a single byte, so no placeable id reaches 255.
	maxDeviceID = 255
)

var (
	defaultHomeDir    = utils.AppDataDir("ore-miner", false)
	defaultConfigFile = filepath.Join(defaultHomeDir, defaultConfigFilename)
	defaultLogDir     = filepath.Join(defaultHomeDir, defaultLogDirname)
	defaultKeypair    = filepath.Join(filepath.Dir(defaultHomeDir), ".config", "solana", "id.json")
)

// config defines the configuration options for the miner.
//
// See loadConfig for details on the configuration load process.
type config struct {
	ConfigFile  string `short:"C" long:"configfile" description:"Path to configuration file"`
	ShowVersion bool   `short:"V" long:"version" description:"Display version information and exit"`
	LogDir      string `long:"logdir" description:"Directory to log output."`
	DebugLevel  string `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`
	ProfilePort string `long:"profileport" description:"Enable HTTP profiling on given port -- NOTE port must be between 1024 and 65536"`

	RPCURL   string `short:"r" long:"rpc" description:"Network RPC endpoint"`
	WSURL    string `long:"ws" description:"Websocket endpoint for proof notifications (derived from --rpc when empty)"`
	NoNotify bool   `long:"nonotify" description:"Do not subscribe to proof notifications, poll only"`
	Keypair  string `short:"k" long:"keypair" description:"Path to the signer keypair file"`

	PriorityFee    uint64 `short:"p" long:"priorityfee" description:"Priority fee in microlamports per compute unit"`
	DynamicFeeURL  string `long:"dynamicfeeurl" description:"Endpoint serving getPriorityFeeEstimate; the static fee is used when the estimate fails"`
	PriorityFeeCap uint64 `long:"priorityfeecap" description:"Upper bound for dynamic priority fees (0: no cap)"`
	Tip            uint64 `long:"tip" description:"Tip in lamports paid to the relay; transactions are sent through --tipurl when set"`
	TipURL         string `long:"tipurl" description:"Relay endpoint used to send tipped transactions"`
	RefreshEvery   int    `long:"refreshevery" description:"Broadcast attempts between fee and blockhash refreshes"`
	MaxAttempts    int    `long:"maxattempts" description:"Broadcast attempts before giving up on a transaction"`
	ConfirmChecks  int    `long:"confirmchecks" description:"Confirmation polls per signed transaction"`

	Cores        string   `short:"c" long:"cores" description:"Number of cores to mine with, or all"`
	BufferTime   int64    `short:"b" long:"buffertime" description:"Seconds before the challenge deadline to stop searching"`
	BoostProgram string   `long:"boostprogram" description:"Boost program rotated after each mine (disabled when empty)"`
	BoostKeys    []string `long:"boost" description:"Boost account passed to mine instructions (may be repeated)"`

	PoolURL        string  `long:"poolurl" description:"Mine with the pool at this URL instead of solo"`
	DeviceID       uint64  `long:"deviceid" description:"Index of this device among the devices of the member"`
	StaleRetries   int     `long:"staleretries" description:"Pool challenge refetches before backing off (10-24)"`
	ContributeRate float64 `long:"contributerate" description:"Maximum pool contributions per second"`

	Proxy        string        `long:"proxy" description:"Connect via SOCKS5 proxy (eg. 127.0.0.1:9050)"`
	ProxyUser    string        `long:"proxyuser" description:"Username for proxy server"`
	ProxyPass    string        `long:"proxypass" default-mask:"-" description:"Password for proxy server"`
	ProxyTimeout time.Duration `long:"proxytimeout" description:"Dial timeout for the proxy"`
	TorIsolation bool          `long:"torisolation" description:"Enable Tor stream isolation by randomizing user credentials for each connection"`

	DbAddress           string `long:"dbaddress" description:"ip address and port of the history database, history is disabled when --dbusername is empty (default: 127.0.0.1:3306)"`
	DbUsername          string `long:"dbusername" description:"username which is used to connect with database"`
	DbPassword          string `long:"dbpassword" default-mask:"-" description:"password which is used to connect with database"`
	DbName              string `long:"dbname" description:"name of history database (default: ore_miner)"`
	DisableAutoCreateDB bool   `long:"noautocreatedb" description:"Disable creating database and table automatically"`

	workers      int
	boostProgram solana.PublicKey
	boostKeys    []solana.PublicKey
}

// newConfigParser returns a new command line flags parser.
func newConfigParser(cfg *config, options flags.Options) *flags.Parser {
	return flags.NewParser(cfg, options)
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(defaultHomeDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but the variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

// supportedSubsystems returns a sorted slice of the supported subsystems for
// logging purposes.
func supportedSubsystems() []string {
	subsystems := make([]string, 0, len(subsystemLoggers))
	for subsysID := range subsystemLoggers {
		subsystems = append(subsystems, subsysID)
	}

	// Sort the subsystems for stable display.
	sort.Strings(subsystems)
	return subsystems
}

// validLogLevel returns whether or not logLevel is a valid debug log level.
func validLogLevel(logLevel string) bool {
	switch logLevel {
	case "trace", "debug", "info", "warn", "error", "critical":
		return true
	}
	return false
}

// parseAndSetDebugLevels attempts to parse the specified debug level and set
// the levels accordingly.  An appropriate error is returned if anything is
// invalid.
func parseAndSetDebugLevels(debugLevel string) error {
	// When the specified string doesn't have any delimters, treat it as
	// the log level for all subsystems.
	if !strings.Contains(debugLevel, ",") && !strings.Contains(debugLevel, "=") {
		if !validLogLevel(debugLevel) {
			str := "The specified debug level [%v] is invalid"
			return fmt.Errorf(str, debugLevel)
		}

		setLogLevels(debugLevel)
		return nil
	}

	// Split the specified string into subsystem/level pairs while detecting
	// issues and update the log levels accordingly.
	for _, logLevelPair := range strings.Split(debugLevel, ",") {
		if !strings.Contains(logLevelPair, "=") {
			str := "The specified debug level contains an invalid " +
				"subsystem/level pair [%v]"
			return fmt.Errorf(str, logLevelPair)
		}

		fields := strings.Split(logLevelPair, "=")
		subsysID, logLevel := fields[0], fields[1]

		if _, exists := subsystemLoggers[subsysID]; !exists {
			str := "The specified subsystem [%v] is invalid -- " +
				"supported subsytems %v"
			return fmt.Errorf(str, subsysID, supportedSubsystems())
		}

		if !validLogLevel(logLevel) {
			str := "The specified debug level [%v] is invalid"
			return fmt.Errorf(str, logLevel)
		}

		setLogLevel(subsysID, logLevel)
	}

	return nil
}

// parseCores parses --cores: a positive count or "all".
func parseCores(s string) (int, error) {
	if strings.EqualFold(strings.TrimSpace(s), "all") {
		return hashengine.AvailableCores(), nil
	}
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		return 0, fmt.Errorf("invalid core count %q", s)
	}
	if n < 1 {
		return 0, fmt.Errorf("core count must be at least 1, got %d", n)
	}
	return n, nil
}

// validate checks option ranges and derives the parsed fields.
func (cfg *config) validate() error {
	workers, err := parseCores(cfg.Cores)
	if err != nil {
		return err
	}
	cfg.workers = workers

	if cfg.BufferTime < 0 {
		return fmt.Errorf("buffer time must not be negative, got %d", cfg.BufferTime)
	}
	if cfg.DeviceID >= maxDeviceID {
		return fmt.Errorf("device id must be below %d, got %d", maxDeviceID, cfg.DeviceID)
	}
	if cfg.PriorityFeeCap != 0 && cfg.PriorityFeeCap < cfg.PriorityFee {
		return fmt.Errorf("priority fee cap %d is below the priority fee %d",
			cfg.PriorityFeeCap, cfg.PriorityFee)
	}
	if utils.IsBlank(cfg.RPCURL) {
		return errors.New("no rpc endpoint specified")
	}
	if cfg.Tip > 0 && utils.IsBlank(cfg.TipURL) {
		cfg.TipURL = txmgr.DefaultTipURL
	}
	if cfg.RefreshEvery < 1 {
		return fmt.Errorf("refresh cadence must be at least 1, got %d", cfg.RefreshEvery)
	}
	if cfg.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got %d", cfg.MaxAttempts)
	}
	if cfg.ConfirmChecks < 1 {
		return fmt.Errorf("confirm checks must be at least 1, got %d", cfg.ConfirmChecks)
	}

	if cfg.BoostProgram != "" {
		key, err := solana.PublicKeyFromBase58(cfg.BoostProgram)
		if err != nil {
			return fmt.Errorf("invalid boost program %q: %w", cfg.BoostProgram, err)
		}
		cfg.boostProgram = key
	}
	cfg.boostKeys = cfg.boostKeys[:0]
	for _, s := range cfg.BoostKeys {
		key, err := solana.PublicKeyFromBase58(s)
		if err != nil {
			return fmt.Errorf("invalid boost account %q: %w", s, err)
		}
		cfg.boostKeys = append(cfg.boostKeys, key)
	}

	if !cfg.NoNotify && cfg.WSURL == "" {
		ws, err := chainclient.WebsocketURL(cfg.RPCURL)
		if err != nil {
			return err
		}
		cfg.WSURL = ws
	}
	if cfg.NoNotify {
		cfg.WSURL = ""
	}
	return nil
}

// pooled reports whether the miner runs against a pool.
func (cfg *config) pooled() bool {
	return !utils.IsBlank(cfg.PoolURL)
}

// proxyConfig returns the SOCKS5 settings, or nil when no proxy is set.
func (cfg *config) proxyConfig() *utils.ProxyConfig {
	if cfg.Proxy == "" {
		return nil
	}
	return &utils.ProxyConfig{
		Addr:     cfg.Proxy,
		User:     cfg.ProxyUser,
		Pass:     cfg.ProxyPass,
		Timeout:  cfg.ProxyTimeout,
		Isolated: cfg.TorIsolation,
	}
}

// dbConfig returns the history database settings, or nil when history is
// disabled.
func (cfg *config) dbConfig() *dal.DBConfig {
	if utils.IsBlank(cfg.DbUsername) {
		return nil
	}
	return &dal.DBConfig{
		Username:     cfg.DbUsername,
		Password:     cfg.DbPassword,
		Address:      cfg.DbAddress,
		DatabaseName: cfg.DbName,
	}
}

// defaultConfig returns a config populated with the default values.
func defaultConfig() config {
	return config{
		ConfigFile:     defaultConfigFile,
		DebugLevel:     defaultLogLevel,
		LogDir:         defaultLogDir,
		RPCURL:         defaultRPCURL,
		Keypair:        defaultKeypair,
		Cores:          defaultCores,
		BufferTime:     defaultBufferTime,
		RefreshEvery:   constdef.DefaultRefreshEvery,
		MaxAttempts:    constdef.DefaultMaxAttempts,
		ConfirmChecks:  constdef.DefaultConfirmChecks,
		StaleRetries:   constdef.DefaultMaxStaleRetries,
		ContributeRate: poolclient.DefaultContributeRate,
		DbAddress:      defaultDbAddress,
		DbName:         defaultDatabaseName,
	}
}

// loadConfig initializes and parses the config using a config file and command
// line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
//
// The above results in the miner functioning properly without any config
// settings while still allowing the user to override settings with config
// files and command line options.  Command line options always take
// precedence.
func loadConfig() (*config, []string, error) {
	cfg := defaultConfig()

	// Pre-parse the command line options to see if an alternative config
	// file or the version flag was specified.  Any errors aside from the
	// help message error can be ignored here since they will be caught by
	// the final parse below.
	preCfg := cfg
	preParser := newConfigParser(&preCfg, flags.HelpFlag)
	_, err := preParser.Parse()
	if err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stderr, err)
			return nil, nil, err
		}
	}

	// Show the version and exit if the version flag was specified.
	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	usageMessage := fmt.Sprintf("Use %s -h to show usage", appName)
	if preCfg.ShowVersion {
		fmt.Println(appName, "version", version())
		os.Exit(0)
	}

	// Load additional config from file.  A missing default config file is
	// not an error.
	var configFileError error
	parser := newConfigParser(&cfg, flags.Default)
	err = flags.NewIniParser(parser).ParseFile(cleanAndExpandPath(preCfg.ConfigFile))
	if err != nil {
		if _, ok := err.(*os.PathError); !ok {
			fmt.Fprintf(os.Stderr, "Error parsing config "+
				"file: %v\n", err)
			fmt.Fprintln(os.Stderr, usageMessage)
			return nil, nil, err
		}
		if preCfg.ConfigFile != defaultConfigFile {
			return nil, nil, fmt.Errorf("cannot find config file %v", preCfg.ConfigFile)
		}
		configFileError = err
	}

	// Parse command line options again to ensure they take precedence.
	remainingArgs, err := parser.Parse()
	if err != nil {
		if e, ok := err.(*flags.Error); !ok || e.Type != flags.ErrHelp {
			fmt.Fprintln(os.Stderr, usageMessage)
		}
		return nil, nil, err
	}

	funcName := "loadConfig"
	cfg.LogDir = cleanAndExpandPath(cfg.LogDir)
	cfg.Keypair = cleanAndExpandPath(cfg.Keypair)

	// Special show command to list supported subsystems and exit.
	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems", supportedSubsystems())
		os.Exit(0)
	}

	// Initialize log rotation.  After log rotation has been initialized, the
	// logger variables may be used.
	initLogRotator(filepath.Join(cfg.LogDir, defaultLogFilename))
	utils.SetPanicDir(cfg.LogDir)

	// Parse, validate, and set debug log level(s).
	if err := parseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		err := fmt.Errorf("%s: %v", funcName, err.Error())
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usageMessage)
		return nil, nil, err
	}

	if err := cfg.validate(); err != nil {
		err := fmt.Errorf("%s: %v", funcName, err)
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usageMessage)
		return nil, nil, err
	}

	// Warn about missing config file only after all other configuration is
	// done.  This prevents the warning on help messages and invalid
	// options.
	if configFileError != nil {
		confLog.Debugf("%v", configFileError)
	}

	return &cfg, remainingArgs, nil
}
