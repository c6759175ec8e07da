package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(NewViper())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.HTTPAddress != defaultHTTPAddress {
		t.Fatalf("unexpected address %q", cfg.HTTPAddress)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "http://localhost:3000" {
		t.Fatalf("unexpected origins %v", cfg.AllowedOrigins)
	}
	if cfg.StorageDriver != DriverQuestDB || cfg.QueryTransport != TransportHTTP {
		t.Fatalf("unexpected storage selection %q/%q", cfg.StorageDriver, cfg.QueryTransport)
	}
	if cfg.QueryTimeout != 10*time.Second {
		t.Fatalf("unexpected timeout %v", cfg.QueryTimeout)
	}
	if !cfg.SeedOnStartup || cfg.BatchRelations {
		t.Fatalf("unexpected feature defaults: seed=%v batch=%v", cfg.SeedOnStartup, cfg.BatchRelations)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("QUESTGRAPH_STORAGE_DRIVER", "SQLite")
	t.Setenv("QUESTGRAPH_DATABASE_PATH", "/tmp/questgraph-test.db")
	t.Setenv("QUESTGRAPH_CORS_ALLOWED_ORIGINS", "http://a.example.com, http://b.example.com")
	t.Setenv("QUESTGRAPH_GRAPH_BATCH_RELATIONS", "true")
	t.Setenv("QUESTGRAPH_QUESTDB_QUERY_TIMEOUT", "3s")

	cfg, err := Load(NewViper())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.StorageDriver != DriverSQLite || cfg.DatabasePath != "/tmp/questgraph-test.db" {
		t.Fatalf("unexpected sqlite config %+v", cfg)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.example.com" {
		t.Fatalf("unexpected origins %v", cfg.AllowedOrigins)
	}
	if !cfg.BatchRelations || cfg.QueryTimeout != 3*time.Second {
		t.Fatalf("unexpected overrides %+v", cfg)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	testCases := []struct {
		name    string
		key     string
		value   interface{}
		mention string
	}{
		{name: "driver", key: "storage.driver", value: "mongo", mention: "storage.driver"},
		{name: "transport", key: "questdb.query_transport", value: "grpc", mention: "questdb.query_transport"},
		{name: "http-url", key: "questdb.http_url", value: "localhost", mention: "questdb.http_url"},
		{name: "timeout", key: "questdb.query_timeout", value: "0s", mention: "questdb.query_timeout"},
		{name: "log-format", key: "log.format", value: "xml", mention: "log.format"},
		{name: "origins", key: "cors.allowed_origins", value: []string{}, mention: "cors.allowed_origins"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			configViper := NewViper()
			configViper.Set(testCase.key, testCase.value)
			_, err := Load(configViper)
			if err == nil || !strings.Contains(err.Error(), testCase.mention) {
				t.Fatalf("expected error mentioning %s, got %v", testCase.mention, err)
			}
		})
	}
}

func TestLoadRequiresDSNForPGWire(t *testing.T) {
	configViper := NewViper()
	configViper.Set("questdb.query_transport", "pgwire")
	configViper.Set("questdb.pg_dsn", " ")
	if _, err := Load(configViper); err == nil || !strings.Contains(err.Error(), "questdb.pg_dsn") {
		t.Fatalf("expected pg_dsn error, got %v", err)
	}
}
