package configure

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func checkErr(err error) {
	if err != nil {
		zap.S().Fatalw("config",
			"error", err,
		)
	}
}

// Default returns the configuration used when nothing else is set.
func Default() Config {
	c := Config{
		Level:      "info",
		ConfigFile: "config.yaml",
		Tasks:      "tasks.yaml",
		Results:    "results.json",
	}

	c.Worker.BatchDelayMs = 500

	c.Editor.DefaultQuality = 0.92
	c.Editor.Watermark.FontDivisor = 40
	c.Editor.Watermark.MinFontSize = 12
	c.Editor.Watermark.Padding = 20
	c.Editor.Watermark.StrokeWidth = 2

	c.Fetch.TimeoutSeconds = 30

	c.Health.Bind = "0.0.0.0:9200"
	c.Monitoring.Bind = "0.0.0.0:9100"

	return c
}

func New() *Config {
	initLogging("info")

	config := viper.New()

	// Default config
	b, _ := json.Marshal(Default())
	tmp := viper.New()
	defaultConfig := bytes.NewReader(b)
	tmp.SetConfigType("json")
	checkErr(tmp.ReadConfig(defaultConfig))
	checkErr(config.MergeConfigMap(tmp.AllSettings()))

	pflag.String("config", "config.yaml", "Config file location")
	pflag.String("tasks", "", "Task manifest (yaml or json)")
	pflag.String("results", "", "Where the results are written, - for stdout")
	pflag.Bool("noheader", false, "Disable the startup header")

	pflag.Parse()
	checkErr(config.BindPFlags(pflag.CommandLine))

	// File
	config.SetConfigFile(config.GetString("config"))
	config.AddConfigPath(".")
	if err := config.ReadInConfig(); err == nil {
		checkErr(config.MergeInConfig())
	}

	// Environment
	config.SetEnvPrefix("IE")
	config.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	config.AllowEmptyEnv(true)
	config.AutomaticEnv()

	bindEnvs(config, Config{})

	c := &Config{}
	checkErr(config.Unmarshal(&c))

	// empty flags must not shadow the defaults
	if c.Tasks == "" {
		c.Tasks = Default().Tasks
	}
	if c.Results == "" {
		c.Results = Default().Results
	}

	initLogging(c.Level)

	return c
}

func bindEnvs(config *viper.Viper, iface interface{}, parts ...string) {
	ifv := reflect.ValueOf(iface)
	ift := reflect.TypeOf(iface)
	for i := 0; i < ift.NumField(); i++ {
		v := ifv.Field(i)
		t := ift.Field(i)
		tv, ok := t.Tag.Lookup("mapstructure")
		if !ok {
			continue
		}
		switch v.Kind() {
		case reflect.Struct:
			bindEnvs(config, v.Interface(), append(parts, tv)...)
		default:
			_ = config.BindEnv(strings.Join(append(parts, tv), "."))
		}
	}
}

type Config struct {
	Level      string `mapstructure:"level" json:"level"`
	ConfigFile string `mapstructure:"config" json:"config"`
	NoHeader   bool   `mapstructure:"noheader" json:"noheader"`
	Tasks      string `mapstructure:"tasks" json:"tasks"`
	Results    string `mapstructure:"results" json:"results"`

	Worker struct {
		Jobs            int  `mapstructure:"jobs" json:"jobs"`
		TimeoutSeconds  int  `mapstructure:"timeout_seconds" json:"timeout_seconds"`
		BatchDelayMs    int  `mapstructure:"batch_delay_ms" json:"batch_delay_ms"`
		ContinueOnError bool `mapstructure:"continue_on_error" json:"continue_on_error"`
	} `mapstructure:"worker" json:"worker"`

	Editor struct {
		DefaultQuality float64 `mapstructure:"default_quality" json:"default_quality"`
		Watermark      struct {
			FontDivisor float64 `mapstructure:"font_divisor" json:"font_divisor"`
			MinFontSize float64 `mapstructure:"min_font_size" json:"min_font_size"`
			Padding     float64 `mapstructure:"padding" json:"padding"`
			StrokeWidth float64 `mapstructure:"stroke_width" json:"stroke_width"`
		} `mapstructure:"watermark" json:"watermark"`
	} `mapstructure:"editor" json:"editor"`

	Fetch struct {
		TimeoutSeconds int `mapstructure:"timeout_seconds" json:"timeout_seconds"`
		MaxBodyBytes   int `mapstructure:"max_body_bytes" json:"max_body_bytes"`
	} `mapstructure:"fetch" json:"fetch"`

	Health struct {
		Bind    string `mapstructure:"bind" json:"bind"`
		Enabled bool   `mapstructure:"enabled" json:"enabled"`
	} `mapstructure:"health" json:"health"`

	S3 struct {
		Region      string `mapstructure:"region" json:"region"`
		Endpoint    string `mapstructure:"endpoint" json:"endpoint"`
		AccessToken string `mapstructure:"access_token" json:"access_token"`
		SecretKey   string `mapstructure:"secret_key" json:"secret_key"`
	} `mapstructure:"s3" json:"s3"`

	Monitoring struct {
		Bind    string `mapstructure:"bind" json:"bind"`
		Enabled bool   `mapstructure:"enabled" json:"enabled"`
		Labels  Labels `mapstructure:"labels" json:"labels"`
	} `mapstructure:"monitoring" json:"monitoring"`
}

// S3Enabled reports whether object storage credentials were configured.
func (c *Config) S3Enabled() bool {
	return c.S3.Region != "" || c.S3.Endpoint != ""
}

type Labels []struct {
	Key   string `mapstructure:"key" json:"key"`
	Value string `mapstructure:"value" json:"value"`
}

func (l Labels) ToPrometheus() prometheus.Labels {
	mp := prometheus.Labels{}

	for _, v := range l {
		mp[v.Key] = v.Value
	}

	return mp
}
