package config

import (
	"fmt"
	"strconv"
	"strings"

	"styler/internal/inference"
)

// ParseSize parses WxH, e.g. 640x480 or 1280X720
func ParseSize(s string) (int, int, error) {
	i := strings.LastIndexAny(s, "xX")
	if i < 0 {
		return 0, 0, fmt.Errorf("invalid size: %q", s)
	}
	w, errW := strconv.Atoi(strings.TrimSpace(s[:i]))
	h, errH := strconv.Atoi(strings.TrimSpace(s[i+1:]))
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("invalid size: %q", s)
	}
	return w, h, nil
}

// Validate clamps invalid values to defaults and returns one warning per
// correction. It also derives Width and Height from Size.
func (c *Config) Validate() []string {
	var warnings []string
	warn := func(format string, args ...interface{}) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	if c.AutoTime <= 0 {
		warn("ignoring invalid auto style change time: %v", c.AutoTime)
		c.AutoTime = DefaultAutoTime
	}
	if c.FrameTime <= 0 {
		warn("ignoring invalid slideshow frame time: %v", c.FrameTime)
		c.FrameTime = DefaultFrameTime
	}
	if c.Size != "" {
		if w, h, err := ParseSize(c.Size); err != nil {
			warn("ignoring invalid size: %s", c.Size)
		} else {
			c.Width, c.Height = w, h
		}
	}
	if c.Rate <= 0 {
		warn("ignoring invalid camera rate: %d", c.Rate)
		c.Rate = DefaultRate
	}
	if c.Device < 0 {
		warn("ignoring invalid camera device: %d", c.Device)
		c.Device = 0
	}
	if c.StyleDevice >= 0 && c.StyleDevice == c.Device {
		warn("style camera cannot use the input camera device %d, disabling it", c.Device)
		c.StyleDevice = -1
	}
	if c.Port < 0 || c.Port > 65535 {
		warn("ignoring invalid port: %d", c.Port)
		c.Port = 0
	}
	if _, err := inference.ParseLayout(c.Layout); err != nil {
		warn("ignoring %v", err)
		c.Layout = inference.LayoutNHWC.String()
	}
	if c.TickRate <= 0 {
		warn("ignoring invalid tick rate: %d", c.TickRate)
		c.TickRate = DefaultTickRate
	}
	return warnings
}
