// Package config loads the dashboard configuration file.
package config

import (
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/saveugene/pulsedash/internal/transport"
)

const (
	SourceWebSocket = "websocket"
	SourceMQTT      = "mqtt"
)

type Config struct {
	Source SourceConfig `yaml:"source"`
	Web    WebConfig    `yaml:"web"`
	Sim    SimConfig    `yaml:"sim"`
	Export ExportConfig `yaml:"export"`
	Log    LogConfig    `yaml:"log"`
}

type SourceConfig struct {
	Kind     string `yaml:"kind"`
	URL      string `yaml:"url"`
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
}

type WebConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	OpenBrowser bool   `yaml:"open_browser"`
}

type SimConfig struct {
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	Interval time.Duration `yaml:"interval"`
	Seed     int64         `yaml:"seed"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Debug bool   `yaml:"debug"`
	File  string `yaml:"file"`
}

const (
	DefaultWebPort     = 8088
	DefaultSimPort     = 8000
	DefaultSimInterval = time.Second
	DefaultExportPath  = "session_heart_rate.csv"
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Source: SourceConfig{Kind: SourceWebSocket, URL: transport.DefaultWebSocketURL, Topic: transport.DefaultMQTTTopic},
		Web:    WebConfig{Host: "127.0.0.1", Port: DefaultWebPort, OpenBrowser: true},
		Sim:    SimConfig{Host: "127.0.0.1", Port: DefaultSimPort, Interval: DefaultSimInterval},
		Export: ExportConfig{Path: DefaultExportPath},
	}
}

func (c *Config) Validate() error {
	switch c.Source.Kind {
	case SourceWebSocket:
		u, err := url.Parse(c.Source.URL)
		if err != nil {
			return fmt.Errorf("source.url: %w", err)
		}
		if u.Scheme != "ws" && u.Scheme != "wss" {
			return fmt.Errorf("source.url %q: scheme must be ws or wss", c.Source.URL)
		}
	case SourceMQTT:
		if c.Source.Broker == "" {
			return fmt.Errorf("source.broker is required for kind %q", SourceMQTT)
		}
		if c.Source.Topic == "" {
			return fmt.Errorf("source.topic is required for kind %q", SourceMQTT)
		}
	default:
		return fmt.Errorf("source.kind %q: must be %q or %q", c.Source.Kind, SourceWebSocket, SourceMQTT)
	}
	if err := validPort("web.port", c.Web.Port); err != nil {
		return err
	}
	if err := validPort("sim.port", c.Sim.Port); err != nil {
		return err
	}
	if c.Sim.Interval <= 0 {
		return fmt.Errorf("sim.interval must be > 0, got %v", c.Sim.Interval)
	}
	if c.Export.Path == "" {
		return fmt.Errorf("export.path is required")
	}
	return nil
}

func validPort(name string, p int) error {
	if p <= 0 || p > 65535 {
		return fmt.Errorf("%s %d out of range", name, p)
	}
	return nil
}

// NewSource builds the configured transport.
func (c *Config) NewSource(logger *zap.Logger) transport.Source {
	if c.Source.Kind == SourceMQTT {
		return transport.NewMQTT(c.Source.Broker, c.Source.Topic, c.Source.ClientID, logger)
	}
	return transport.NewWebSocket(c.Source.URL, logger)
}
