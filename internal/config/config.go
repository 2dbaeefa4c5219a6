// Package config holds the runtime settings: defaults, an optional YAML
// file and command line flags, applied in that order.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete application configuration
type Config struct {
	// AutoTime is the camera auto change interval and FrameTime the
	// slideshow time per image, both in seconds
	Fullscreen bool    `yaml:"fullscreen"`
	Auto       bool    `yaml:"auto"`
	AutoTime   float64 `yaml:"auto_time"`
	FrameTime  float64 `yaml:"frame_time"`

	Device     int    `yaml:"device"`
	Rate       int    `yaml:"rate"`
	Size       string `yaml:"size"`
	Mirror     bool   `yaml:"mirror"`
	Flip       bool   `yaml:"flip"`
	StaticSize bool   `yaml:"static_size"`

	StyleDevice int  `yaml:"style_device"` // -1 disables the style camera
	StyleMirror bool `yaml:"style_mirror"`
	StyleFlip   bool `yaml:"style_flip"`
	StyleSave   bool `yaml:"style_save"`

	Port int `yaml:"port"` // OSC receive port, 0 disables

	Model   string `yaml:"model"`
	Layout  string `yaml:"layout"`
	Backend string `yaml:"backend"`
	Target  string `yaml:"target"`
	Sync    bool   `yaml:"sync"`

	StyleDir       string `yaml:"style_dir"`
	ImageDir       string `yaml:"image_dir"`
	VideoDir       string `yaml:"video_dir"`
	OutputDir      string `yaml:"output_dir"`
	StyleOutputDir string `yaml:"style_output_dir"`
	Watch          bool   `yaml:"watch"`
	TickRate       int    `yaml:"tick_rate"`

	Verbose bool `yaml:"verbose"`

	// command line only
	List       bool   `yaml:"-"`
	Version    bool   `yaml:"-"`
	ConfigPath string `yaml:"-"`

	// parsed from Size by Validate
	Width  int `yaml:"-"`
	Height int `yaml:"-"`
}

const (
	DefaultAutoTime  = 20.0
	DefaultFrameTime = 3.0
	DefaultWidth     = 640
	DefaultHeight    = 480
	DefaultRate      = 30
	DefaultTickRate  = 60
)

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		AutoTime:       DefaultAutoTime,
		FrameTime:      DefaultFrameTime,
		Rate:           DefaultRate,
		Size:           fmt.Sprintf("%dx%d", DefaultWidth, DefaultHeight),
		StyleDevice:    -1,
		Model:          "model/style_transfer.onnx",
		Layout:         "nhwc",
		Backend:        "default",
		Target:         "cpu",
		StyleDir:       "style",
		ImageDir:       "image",
		VideoDir:       "video",
		OutputDir:      "output",
		StyleOutputDir: "output-style",
		Watch:          true,
		TickRate:       DefaultTickRate,
		Width:          DefaultWidth,
		Height:         DefaultHeight,
	}
}

// Parse builds the configuration from the defaults, the file named by
// --config and the remaining flags. Problems that do not stop the program
// are returned as warnings.
func Parse(name string, args []string, output io.Writer) (*Config, []string, error) {
	cfg := Default()
	if err := newFlagSet(name, cfg, output).Parse(args); err != nil {
		return nil, nil, err
	}

	var warnings []string
	if cfg.ConfigPath != "" {
		fileCfg := Default()
		if err := fileCfg.LoadFile(cfg.ConfigPath); err != nil {
			warnings = append(warnings, fmt.Sprintf("ignoring config file: %v", err))
		} else {
			fileCfg.ConfigPath = cfg.ConfigPath
			// flags override the file
			if err := newFlagSet(name, fileCfg, io.Discard).Parse(args); err != nil {
				return nil, nil, err
			}
			cfg = fileCfg
		}
	}

	warnings = append(warnings, cfg.Validate()...)
	return cfg, warnings, nil
}

// LoadFile merges a YAML file into c
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// AutoInterval is the camera auto change interval
func (c *Config) AutoInterval() time.Duration {
	return time.Duration(c.AutoTime * float64(time.Second))
}

// SlideDuration is the time each slideshow image is shown
func (c *Config) SlideDuration() time.Duration {
	return time.Duration(c.FrameTime * float64(time.Second))
}

// TickInterval is the update loop period
func (c *Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

// IsHelp reports whether err is the result of -h or --help
func IsHelp(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}

func newFlagSet(name string, c *Config, output io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)

	boolFlag := func(p *bool, names []string, usage string) {
		for _, n := range names {
			fs.BoolVar(p, n, *p, usage)
		}
	}
	intFlag := func(p *int, names []string, usage string) {
		for _, n := range names {
			fs.IntVar(p, n, *p, usage)
		}
	}
	stringFlag := func(p *string, names []string, usage string) {
		for _, n := range names {
			fs.StringVar(p, n, *p, usage)
		}
	}

	boolFlag(&c.Fullscreen, []string{"f", "fullscreen"}, "start in fullscreen")
	boolFlag(&c.Auto, []string{"a", "auto"}, "enable auto style change")
	fs.Float64Var(&c.AutoTime, "auto-time", c.AutoTime, "camera auto style change time in s")
	fs.Float64Var(&c.FrameTime, "frame-time", c.FrameTime, "slideshow time per image in s")
	boolFlag(&c.List, []string{"l", "list"}, "list camera devices and exit")
	intFlag(&c.Device, []string{"d", "dev"}, "camera device number")
	intFlag(&c.Rate, []string{"r", "rate"}, "desired camera framerate")
	stringFlag(&c.Size, []string{"s", "size"}, "desired camera size, WxH")
	boolFlag(&c.Mirror, []string{"mirror"}, "mirror camera horizontally")
	boolFlag(&c.Flip, []string{"flip"}, "flip camera vertically")
	boolFlag(&c.StaticSize, []string{"static-size"}, "disable dynamic input -> output size handling")
	intFlag(&c.StyleDevice, []string{"style-dev"}, "style camera device number, -1 for none")
	boolFlag(&c.StyleMirror, []string{"style-mirror"}, "mirror style camera horizontally")
	boolFlag(&c.StyleFlip, []string{"style-flip"}, "flip style camera vertically")
	boolFlag(&c.StyleSave, []string{"style-save"}, "save every taken style image")
	intFlag(&c.Port, []string{"port"}, "OSC receive port, 0 to disable")
	stringFlag(&c.Model, []string{"model"}, "style transfer model file")
	stringFlag(&c.Layout, []string{"layout"}, "model tensor layout: nhwc or nchw")
	stringFlag(&c.Backend, []string{"backend"}, "DNN backend")
	stringFlag(&c.Target, []string{"target"}, "DNN target")
	boolFlag(&c.Sync, []string{"sync"}, "run the model on the update loop instead of a worker")
	stringFlag(&c.StyleDir, []string{"style-dir"}, "style image directory")
	stringFlag(&c.ImageDir, []string{"image-dir"}, "input image directory")
	stringFlag(&c.VideoDir, []string{"video-dir"}, "input video directory")
	boolFlag(&c.Watch, []string{"watch"}, "reload the style list when the directory changes")
	intFlag(&c.TickRate, []string{"tick-rate"}, "update loop rate in Hz")
	boolFlag(&c.Verbose, []string{"v", "verbose"}, "verbose printing")
	boolFlag(&c.Version, []string{"version"}, "print version and exit")
	stringFlag(&c.ConfigPath, []string{"config"}, "YAML configuration file")
	return fs
}
