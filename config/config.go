package config

import (
	"fmt"
	"os"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/kanade/embedtags/rating"
)

type Config struct {
	Token    string `toml:"token" mapstructure:"token"`
	Host     string `toml:"host" mapstructure:"host"`
	Port     string `toml:"port" mapstructure:"port"`
	Workers  int    `toml:"workers" mapstructure:"workers"`
	Libonnx  string `toml:"libonnx" mapstructure:"libonnx"`
	Exiftool string `toml:"exiftool" mapstructure:"exiftool"`

	TagThreshold float32 `toml:"tag_threshold" mapstructure:"tag_threshold"`

	GeneralThreshold     float32 `toml:"general_threshold" mapstructure:"general_threshold"`
	SplitThreshold       float32 `toml:"split_threshold" mapstructure:"split_threshold"`
	LegacyMode           string  `toml:"legacy_mode" mapstructure:"legacy_mode"`
	LegacyThreshold      float32 `toml:"legacy_threshold" mapstructure:"legacy_threshold"`
	IgnoreSensitive      bool    `toml:"ignore_sensitive" mapstructure:"ignore_sensitive"`
	TrustCachedSensitive bool    `toml:"trust_cached_sensitive" mapstructure:"trust_cached_sensitive"`

	ModelUrl      string `toml:"model_url" mapstructure:"model_url"`
	TagsUrl       string `toml:"tags_url" mapstructure:"tags_url"`
	ModelDir      string `toml:"model_dir" mapstructure:"model_dir"`
	ModelTagsName string `toml:"model_tags_name" mapstructure:"model_tags_name"`
	ModelFileName string `toml:"model_file_name" mapstructure:"model_file_name"`

	FolderNames map[string]string `toml:"folder_names" mapstructure:"folder_names"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Token:                "",
		Host:                 "0.0.0.0",
		Port:                 "5000",
		Workers:              1,
		TagThreshold:         0.35,
		GeneralThreshold:     0.40,
		SplitThreshold:       0.50,
		LegacyMode:           "",
		LegacyThreshold:      0,
		IgnoreSensitive:      false,
		TrustCachedSensitive: false,
		ModelUrl:             "https://huggingface.co/SmilingWolf/wd-v1-4-convnext-tagger-v2/resolve/main/model.onnx?download=true",
		TagsUrl:              "https://huggingface.co/SmilingWolf/wd-v1-4-convnext-tagger-v2/resolve/main/selected_tags.csv?download=true",
		ModelDir:             "models",
		ModelTagsName:        "selected_tags.csv",
		ModelFileName:        "model.onnx",
	}
}

// FromFile reads a TOML file over the defaults. The file must exist.
func FromFile(path string) (Config, error) {
	c := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects values no mode can run with.
func (c Config) Validate() error {
	switch rating.LegacyMode(c.LegacyMode) {
	case rating.LegacyOff, rating.LegacySum, rating.LegacyMax:
	default:
		return fmt.Errorf("legacy_mode must be %q, %q or %q, got %q",
			rating.LegacyOff, rating.LegacySum, rating.LegacyMax, c.LegacyMode)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	return nil
}

// RatingConfig assembles the classifier thresholds.
func (c Config) RatingConfig() rating.Config {
	return rating.Config{
		GeneralThreshold: c.GeneralThreshold,
		SplitThreshold:   c.SplitThreshold,
		LegacyThreshold:  c.LegacyThreshold,
		Legacy:           rating.LegacyMode(c.LegacyMode),
		IgnoreSensitive:  c.IgnoreSensitive,
	}
}

// FolderFor returns the directory name an image of rating r is sorted
// into. Unmapped ratings use the rating name itself.
func (c Config) FolderFor(r rating.Rating) string {
	if name, ok := c.FolderNames[r.String()]; ok && name != "" {
		return name
	}
	return r.String()
}

var (
	cfg      Config
	loadOnce sync.Once
)

// C returns the effective configuration, overlaying config.toml from the
// working directory over the defaults on first use.
func C() Config {
	loadOnce.Do(func() {
		cfg = Defaults()
		if _, err := os.Stat("config.toml"); err == nil {
			loaded, err := FromFile("config.toml")
			if err != nil {
				panic(err)
			}
			cfg = loaded
		}
	})
	return cfg
}

// Load reads the file at path and pins the result as the configuration C
// returns. Used by the -config flag; unlike C it reports problems
// instead of panicking.
func Load(path string) (Config, error) {
	var err error
	loadOnce.Do(func() {
		cfg, err = FromFile(path)
	})
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}
