package config

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/charlie0129/battinfo/pkg/utils/ptr"
)

const (
	DefaultConfigPath   = "/etc/battinfo.json"
	DefaultDaemonSocket = "/var/run/battinfo.sock"
)

var (
	defaultFileConfig = &RawFileConfig{
		Source:              ptr.To("auto"),
		SysfsRoot:           ptr.To("/sys/class/power_supply"),
		PollIntervalSeconds: ptr.To(5),
		DaemonSocket:        ptr.To(DefaultDaemonSocket),
		AllowNonRootAccess:  ptr.To(true),
	}
)

var _ Config = &File{}

type File struct {
	c        *RawFileConfig
	mu       *sync.RWMutex
	filepath string
}

func NewFile(configPath string) (*File, error) {
	f := &File{
		filepath: configPath,
		mu:       &sync.RWMutex{},
	}
	err := f.Load()
	if err != nil {
		return nil, err
	}

	return f, nil
}

func NewFileFromConfig(c *RawFileConfig, configPath string) *File {
	if c == nil {
		c = &RawFileConfig{}
	}

	f := &File{
		c:        c,
		mu:       &sync.RWMutex{},
		filepath: configPath,
	}

	return f
}

type RawFileConfig struct {
	Source              *string `json:"source,omitempty" yaml:"source,omitempty"`
	SysfsRoot           *string `json:"sysfsRoot,omitempty" yaml:"sysfsRoot,omitempty"`
	PollIntervalSeconds *int    `json:"pollIntervalSeconds,omitempty" yaml:"pollIntervalSeconds,omitempty"`
	DaemonSocket        *string `json:"daemonSocket,omitempty" yaml:"daemonSocket,omitempty"`
	AllowNonRootAccess  *bool   `json:"allowNonRootAccess,omitempty" yaml:"allowNonRootAccess,omitempty"`
}

func NewRawFileConfigFromConfig(c Config) (*RawFileConfig, error) {
	if c == nil {
		return nil, pkgerrors.New("config is nil")
	}

	rawConfig := &RawFileConfig{
		Source:              ptr.To(c.Source()),
		SysfsRoot:           ptr.To(c.SysfsRoot()),
		PollIntervalSeconds: ptr.To(int(c.PollInterval() / time.Second)),
		DaemonSocket:        ptr.To(c.DaemonSocket()),
		AllowNonRootAccess:  ptr.To(c.AllowNonRootAccess()),
	}

	return rawConfig, nil
}

// get returns the value of a field, or its default.
func get[T any](f *File, field func(*RawFileConfig) *T) T {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c == nil {
		panic("config is nil")
	}

	if v := field(f.c); v != nil {
		return *v
	}
	return *field(defaultFileConfig)
}

func set[T any](f *File, field func(*RawFileConfig) **T, v T) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.c == nil {
		panic("config is nil")
	}
	*field(f.c) = &v
}

func (f *File) Source() string {
	return get(f, func(c *RawFileConfig) *string { return c.Source })
}

func (f *File) SysfsRoot() string {
	return get(f, func(c *RawFileConfig) *string { return c.SysfsRoot })
}

func (f *File) PollInterval() time.Duration {
	s := get(f, func(c *RawFileConfig) *int { return c.PollIntervalSeconds })
	if s <= 0 {
		s = *defaultFileConfig.PollIntervalSeconds
	}
	return time.Duration(s) * time.Second
}

func (f *File) DaemonSocket() string {
	return get(f, func(c *RawFileConfig) *string { return c.DaemonSocket })
}

func (f *File) AllowNonRootAccess() bool {
	return get(f, func(c *RawFileConfig) *bool { return c.AllowNonRootAccess })
}

func (f *File) SetSource(s string) {
	set(f, func(c *RawFileConfig) **string { return &c.Source }, s)
}

func (f *File) SetSysfsRoot(s string) {
	set(f, func(c *RawFileConfig) **string { return &c.SysfsRoot }, s)
}

func (f *File) SetPollInterval(d time.Duration) {
	if d < time.Second {
		panic("poll interval must be at least 1s")
	}
	set(f, func(c *RawFileConfig) **int { return &c.PollIntervalSeconds }, int(d/time.Second))
}

func (f *File) SetDaemonSocket(s string) {
	set(f, func(c *RawFileConfig) **string { return &c.DaemonSocket }, s)
}

func (f *File) SetAllowNonRootAccess(b bool) {
	set(f, func(c *RawFileConfig) **bool { return &c.AllowNonRootAccess }, b)
}

func (f *File) isYAML() bool {
	switch strings.ToLower(filepath.Ext(f.filepath)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

func (f *File) Load() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fp, err := os.Open(f.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			// If the file does not exist, return the empty config.
			// Do not make f.c a nil.
			f.c = &RawFileConfig{}
			return nil
		}
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	// Since we want to tell if the file is empty, using a decoder will
	// not work.
	b, err := io.ReadAll(fp)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to read file %s", f.filepath)
	}

	if len(bytes.TrimSpace(b)) == 0 {
		f.c = &RawFileConfig{}
		return nil
	}

	conf := RawFileConfig{}
	if f.isYAML() {
		err = yaml.Unmarshal(b, &conf)
	} else {
		err = json.Unmarshal(b, &conf)
	}
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to unmarshal config from file %s", f.filepath)
	}
	f.c = &conf

	return nil
}

func (f *File) Save() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c == nil {
		return pkgerrors.New("config is nil")
	}

	fp, err := os.OpenFile(f.filepath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	if f.isYAML() {
		enc := yaml.NewEncoder(fp)
		enc.SetIndent(2)
		err = enc.Encode(f.c)
		if err == nil {
			err = enc.Close()
		}
	} else {
		enc := json.NewEncoder(fp)
		enc.SetIndent("", "  ")
		err = enc.Encode(f.c)
	}
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to encode config to file %s", f.filepath)
	}

	return nil
}

func (f *File) LogrusFields() logrus.Fields {
	f.mu.RLock()
	loaded := f.c != nil
	f.mu.RUnlock()
	if !loaded {
		panic("config is nil")
	}

	return logrus.Fields{
		"source":             f.Source(),
		"sysfsRoot":          f.SysfsRoot(),
		"pollInterval":       f.PollInterval().String(),
		"daemonSocket":       f.DaemonSocket(),
		"allowNonRootAccess": f.AllowNonRootAccess(),
	}
}
