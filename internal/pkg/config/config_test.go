package config

import (
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("midwhereah-test")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server.port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Optimizer.MaxTimeMinutes != 60 {
		t.Errorf("optimizer.max_time_minutes = %f, want 60", cfg.Optimizer.MaxTimeMinutes)
	}
	if cfg.Optimizer.ClusterThresholdKm != 2.0 {
		t.Errorf("optimizer.cluster_threshold_km = %f, want 2.0", cfg.Optimizer.ClusterThresholdKm)
	}
	if len(cfg.Optimizer.TransitHubs) == 0 {
		t.Error("default transit hubs missing")
	}
	if cfg.Telemetry.ServiceName != "midwhereah-test" {
		t.Errorf("telemetry.service_name = %q", cfg.Telemetry.ServiceName)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("MIDWHEREAH_SERVER_PORT", "9090")
	t.Setenv("MIDWHEREAH_OPTIMIZER_MAX_TIME_MINUTES", "45")

	cfg, err := Load("midwhereah-test")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("server.port = %d, want 9090 from env", cfg.Server.Port)
	}
	if cfg.Optimizer.MaxTimeMinutes != 45 {
		t.Errorf("optimizer.max_time_minutes = %f, want 45 from env", cfg.Optimizer.MaxTimeMinutes)
	}
}

func TestValidate_RejectsBadValues(t *testing.T) {
	cfg, err := Load("midwhereah-test")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	cfg.Server.Port = 0
	cfg.Optimizer.MaxTimeMinutes = -1
	cfg.Optimizer.TransitHubs = append(cfg.Optimizer.TransitHubs, HubConfig{Name: "Nowhere", Lat: 200, Lng: 0})

	err = cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"server.port", "max_time_minutes", "Nowhere"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("validation error missing %q: %v", want, err)
		}
	}
}

func TestHubs_Conversion(t *testing.T) {
	o := OptimizerConfig{TransitHubs: []HubConfig{{Name: "Orchard", Lat: 1.3040, Lng: 103.8318}}}
	hubs := o.Hubs()
	if len(hubs) != 1 {
		t.Fatalf("expected 1 hub, got %d", len(hubs))
	}
	if hubs[0].Name != "Orchard" || hubs[0].Location.Lat != 1.3040 {
		t.Errorf("unexpected hub: %+v", hubs[0])
	}
}
