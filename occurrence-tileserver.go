package main

/*
# Running
Usage: ./occurrence-tileserver [ --config /path/to/config.toml ] [ --debug ]

Browser: e.g. http://localhost:9000/

# Configuration
Backend connection details are supplied through env vars prefixed with
OCCTS_ (see internal/conf) or an optional TOML config file passed via
--config.

# Logging
Logging to stdout via logrus.
*/

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/bigtable"
	"github.com/olivere/elastic/v7"
	"github.com/pborman/getopt/v2"
	log "github.com/sirupsen/logrus"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/biodiversity-maps/occurrence-tileserver/internal/assembler"
	"github.com/biodiversity-maps/occurrence-tileserver/internal/conf"
	"github.com/biodiversity-maps/occurrence-tileserver/internal/metastore"
	"github.com/biodiversity-maps/occurrence-tileserver/internal/search"
	"github.com/biodiversity-maps/occurrence-tileserver/internal/service"
	"github.com/biodiversity-maps/occurrence-tileserver/internal/store"
)

var flagDebugOn bool
var flagHelp bool
var flagVersion bool
var flagConfigFilename string
var flagDisableUi bool

func init() {
	initCommandOptions()
}

func initCommandOptions() {
	getopt.FlagLong(&flagHelp, "help", '?', "Show command usage")
	getopt.FlagLong(&flagConfigFilename, "config", 'c', "", "config file name")
	getopt.FlagLong(&flagDebugOn, "debug", 'd', "Set logging level to TRACE")
	getopt.FlagLong(&flagVersion, "version", 'v', "Output the version information")
	getopt.FlagLong(&flagDisableUi, "disable-cache-api", 0, "Disable cache management endpoints")
}

func main() {
	getopt.Parse()

	if flagHelp {
		getopt.Usage()
		os.Exit(1)
	}
	if flagVersion {
		fmt.Printf("%s %s\n", conf.AppConfig.Name, conf.AppConfig.Version)
		os.Exit(1)
	}

	log.Infof("----  %s - Version %s ----------", conf.AppConfig.Name, conf.AppConfig.Version)

	conf.InitConfig(flagConfigFilename, flagDebugOn)

	if flagDisableUi {
		conf.Configuration.Cache.DisableApi = true
	}
	if flagDebugOn || conf.Configuration.Server.Debug {
		log.SetLevel(log.TraceLevel)
		log.Debug("log level = DEBUG")
	}
	conf.DumpConfig()

	ctx := context.Background()

	storeAdapter, err := initStore(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tile store: %v", err)
	}

	searchAdapter, err := initSearch(ctx)
	if err != nil {
		log.Fatalf("failed to initialize search backend: %v", err)
	}

	meta, err := initMetastore(ctx)
	if err != nil {
		log.Fatalf("failed to initialize metastore: %v", err)
	}

	a := assembler.New(storeAdapter, searchAdapter, meta, conf.Configuration.Tile.Size, conf.Configuration.Tile.Buffer)

	service.Initialize(a)
	if err := service.Serve(); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}

// initStore connects the Bigtable client backing the Tile Store Adapter.
func initStore(ctx context.Context) (*store.Adapter, error) {
	project := conf.Configuration.Store.Project
	instance := conf.Configuration.Store.Instance
	if project == "" || instance == "" {
		log.Fatal("Store.Project and Store.Instance must be configured")
	}

	client, err := bigtable.NewClient(ctx, project, instance)
	if err != nil {
		return nil, fmt.Errorf("bigtable.NewClient: %w", err)
	}

	return store.New(client, conf.Configuration.Store.SaltModulus), nil
}

// initSearch connects the Elasticsearch client backing the Search Backend
// Adapter, returning nil when no addresses are configured (ad-hoc search
// stays disabled).
func initSearch(ctx context.Context) (*search.Adapter, error) {
	addrs := conf.Configuration.Search.Addresses
	if len(addrs) == 0 {
		log.Info("no search addresses configured, ad-hoc search disabled")
		return nil, nil
	}

	client, err := elastic.NewClient(
		elastic.SetURL(addrs...),
		elastic.SetSniff(false),
	)
	if err != nil {
		return nil, fmt.Errorf("elastic.NewClient: %w", err)
	}

	return search.New(client, conf.Configuration.Search.Index), nil
}

// initMetastore builds a Static or Watched Metastore depending on
// Metastore.Mode.
func initMetastore(ctx context.Context) (metastore.Metastore, error) {
	fallback := metastore.Mapping{
		metastore.TableTiles:  conf.Configuration.Metastore.StaticTiles,
		metastore.TablePoints: conf.Configuration.Metastore.StaticPoints,
	}

	switch conf.Configuration.Metastore.Mode {
	case "watched":
		endpoints := conf.Configuration.Metastore.EtcdEndpoints
		if len(endpoints) == 0 {
			return nil, fmt.Errorf("Metastore.EtcdEndpoints must be set when Metastore.Mode is \"watched\"")
		}
		client, err := clientv3.New(clientv3.Config{Endpoints: endpoints})
		if err != nil {
			return nil, fmt.Errorf("clientv3.New: %w", err)
		}
		return metastore.NewWatched(ctx, client, conf.Configuration.Metastore.WatchPath, fallback)
	case "static", "":
		return metastore.NewStatic(fallback), nil
	default:
		return nil, fmt.Errorf("unknown Metastore.Mode: %s", conf.Configuration.Metastore.Mode)
	}
}
