// Package config loads an ss7.Config (and the link list a harness needs to
// attach devices) from a YAML file plus environment variable overrides,
// the way dbehnke-allstar-nexus's backend/config package layers viper
// defaults, a config file, and env vars into one struct.
package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/creslin7/ss7stack/isup"
	"github.com/creslin7/ss7stack/mtp2"
	"github.com/creslin7/ss7stack/mtp3"
	"github.com/creslin7/ss7stack/pointcode"
	"github.com/creslin7/ss7stack/ss7"
)

// LinkConfig names one link a harness should attach: the serial/TCP device
// address and the adjacent point code it reaches. Devices themselves are
// constructed by the harness (they are not something a YAML file can name
// portably); config only carries what the stack needs to know about them.
// AdjPC accepts either a bare decimal integer or the variant's dashed
// notation (pointcode.Parse), so an operator can write "2-1-3" instead of
// working out the packed integer by hand.
type LinkConfig struct {
	Name   string `mapstructure:"name" yaml:"name"`
	Device string `mapstructure:"device" yaml:"device"`
	AdjPC  string `mapstructure:"adjacent_point_code" yaml:"adjacent_point_code"`
}

// File is the on-disk/env-var shape config.Load reads, before being mapped
// onto ss7.Config. Field names mirror §6's configuration list. yaml tags
// (in addition to the mapstructure tags viper.Unmarshal uses) let
// WriteExampleConfig marshal a File with gopkg.in/yaml.v3 directly,
// independent of viper.
type File struct {
	Variant  string `mapstructure:"variant" yaml:"variant"`
	OwnPC    string `mapstructure:"own_point_code" yaml:"own_point_code"`
	NI       string `mapstructure:"network_indicator" yaml:"network_indicator"`
	SLSShift uint   `mapstructure:"sls_shift" yaml:"sls_shift"`

	INRIfNoCalling      bool `mapstructure:"inr_if_no_calling" yaml:"inr_if_no_calling"`
	ISDNAccessIndicator bool `mapstructure:"isdn_access_indicator" yaml:"isdn_access_indicator"`

	EventRingSize     int           `mapstructure:"event_ring_size" yaml:"event_ring_size"`
	SchedulerCapacity int           `mapstructure:"scheduler_capacity" yaml:"scheduler_capacity"`
	LinksetUpDelay    time.Duration `mapstructure:"linkset_up_delay" yaml:"linkset_up_delay"`

	MTP2Timers mtp2TimerFile `mapstructure:"mtp2_timers" yaml:"mtp2_timers,omitempty"`
	MTP3Timers mtp3TimerFile `mapstructure:"mtp3_timers" yaml:"mtp3_timers,omitempty"`
	Q707Timers q707TimerFile `mapstructure:"q707_timers" yaml:"q707_timers,omitempty"`
	ISUPTimers isupTimerFile `mapstructure:"isup_timers" yaml:"isup_timers,omitempty"`

	Links []LinkConfig `mapstructure:"links" yaml:"links,omitempty"`
}

// ResolvedLink is a LinkConfig with AdjPC parsed into the packed integer
// ss7.Session.AddLink expects, per variant's notation.
type ResolvedLink struct {
	Name   string
	Device string
	AdjPC  uint32
}

// Each timer field below is a pointer so Load can tell "absent from the
// config file" (keep the package default) apart from an explicit zero
// (disable the timer, per isup.Timers/ss7.Config's own 0-disables
// convention) — a plain time.Duration would collide the two.
type mtp2TimerFile struct {
	T1, T2, T3, T4Normal, T4Emergency, T7 *time.Duration
}

type mtp3TimerFile struct {
	T1, T2, T3, T4, T5, T12, T13, T14, T22, T23 *time.Duration
}

type q707TimerFile struct {
	T1, T2 *time.Duration
}

type isupTimerFile struct {
	T1, T5, T6, T7, T8, T16, T17, T27, T33, T35 *time.Duration
	DigitTimeout                                *time.Duration
}

// Load reads configPath (if non-empty) or searches the standard locations
// viper convention uses, applies SS7STACK_-prefixed environment overrides,
// and returns the resulting ss7.Config plus the harness's link list with
// every point code resolved to its packed integer form.
func Load(configPath string) (ss7.Config, []ResolvedLink, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("ss7stack")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/ss7stack")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return ss7.Config{}, nil, fmt.Errorf("config: read: %w", err)
		}
		log.Printf("config: no config file found, using defaults and environment variables")
	} else {
		log.Printf("config: using config file %s", v.ConfigFileUsed())
	}

	v.SetEnvPrefix("ss7stack")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var f File
	if err := v.Unmarshal(&f); err != nil {
		return ss7.Config{}, nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	variant, err := parseVariant(f.Variant)
	if err != nil {
		return ss7.Config{}, nil, err
	}
	ni, err := parseNI(f.NI)
	if err != nil {
		return ss7.Config{}, nil, err
	}
	ownPC, err := pointcode.Parse(variant, f.OwnPC)
	if err != nil {
		return ss7.Config{}, nil, err
	}

	cfg := ss7.DefaultConfig(variant)
	cfg.OwnPC = ownPC
	cfg.NI = ni
	cfg.SLSShift = f.SLSShift
	cfg.Flags = ss7.Flags{
		INRIfNoCalling:      f.INRIfNoCalling,
		ISDNAccessIndicator: f.ISDNAccessIndicator,
	}
	if f.EventRingSize != 0 {
		cfg.EventRingSize = f.EventRingSize
	}
	if f.SchedulerCapacity != 0 {
		cfg.SchedulerCapacity = f.SchedulerCapacity
	}
	if f.LinksetUpDelay != 0 {
		cfg.LinksetUpDelay = f.LinksetUpDelay
	}
	cfg.MTP2Timers = overrideMTP2Timers(cfg.MTP2Timers, f.MTP2Timers)
	cfg.MTP3Timers = overrideMTP3Timers(cfg.MTP3Timers, f.MTP3Timers)
	cfg.Q707Timers = overrideQ707Timers(cfg.Q707Timers, f.Q707Timers)
	cfg.ISUPTimers = overrideISUPTimers(cfg.ISUPTimers, f.ISUPTimers)

	links := make([]ResolvedLink, 0, len(f.Links))
	for _, lc := range f.Links {
		adjPC, err := pointcode.Parse(variant, lc.AdjPC)
		if err != nil {
			return ss7.Config{}, nil, fmt.Errorf("config: link %q: %w", lc.Name, err)
		}
		links = append(links, ResolvedLink{Name: lc.Name, Device: lc.Device, AdjPC: adjPC})
	}

	return cfg, links, nil
}

// WriteExampleConfig marshals a File populated with this stack's defaults
// (plus one sample link) to path using gopkg.in/yaml.v3, mirroring
// allstar-nexus's SaveExampleConfig but generated from the live struct
// instead of a hand-written string, so it can never drift from File's
// actual fields.
func WriteExampleConfig(path string) error {
	f := File{
		Variant:           "itu",
		OwnPC:             "1-1-1",
		NI:                "national",
		EventRingSize:     16,
		SchedulerCapacity: 512,
		LinksetUpDelay:    500 * time.Millisecond,
		Links: []LinkConfig{
			{Name: "link0", Device: "/dev/ttyUSB0", AdjPC: "2-1-3"},
		},
	}
	out, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("config: marshal example: %w", err)
	}
	return os.WriteFile(path, out, 0o644)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("variant", "itu")
	v.SetDefault("network_indicator", "national")
	v.SetDefault("own_point_code", "0")
	v.SetDefault("sls_shift", 0)
	v.SetDefault("event_ring_size", 16)
	v.SetDefault("scheduler_capacity", 512)
	v.SetDefault("linkset_up_delay", "500ms")
}

func parseVariant(s string) (mtp3.Variant, error) {
	switch strings.ToLower(s) {
	case "", "itu":
		return mtp2.ITU, nil
	case "ansi":
		return mtp2.ANSI, nil
	default:
		return 0, fmt.Errorf("config: unknown variant %q", s)
	}
}

func parseNI(s string) (mtp3.NetworkIndicator, error) {
	switch strings.ToLower(s) {
	case "", "national":
		return mtp3.NINational, nil
	case "national_spare":
		return mtp3.NINationalSpare, nil
	case "international":
		return mtp3.NIInternational, nil
	case "international_spare":
		return mtp3.NIInternationalSpare, nil
	default:
		return 0, fmt.Errorf("config: unknown network_indicator %q", s)
	}
}

func overrideMTP2Timers(base mtp2.Timers, f mtp2TimerFile) mtp2.Timers {
	set(&base.T1, f.T1)
	set(&base.T2, f.T2)
	set(&base.T3, f.T3)
	set(&base.T4Normal, f.T4Normal)
	set(&base.T4Emergency, f.T4Emergency)
	set(&base.T7, f.T7)
	return base
}

func overrideMTP3Timers(base mtp3.MTP3Timers, f mtp3TimerFile) mtp3.MTP3Timers {
	set(&base.T1, f.T1)
	set(&base.T2, f.T2)
	set(&base.T3, f.T3)
	set(&base.T4, f.T4)
	set(&base.T5, f.T5)
	set(&base.T12, f.T12)
	set(&base.T13, f.T13)
	set(&base.T14, f.T14)
	set(&base.T22, f.T22)
	set(&base.T23, f.T23)
	return base
}

func overrideQ707Timers(base mtp3.Q707Timers, f q707TimerFile) mtp3.Q707Timers {
	set(&base.T1, f.T1)
	set(&base.T2, f.T2)
	return base
}

func overrideISUPTimers(base isup.Timers, f isupTimerFile) isup.Timers {
	set(&base.T1, f.T1)
	set(&base.T5, f.T5)
	set(&base.T6, f.T6)
	set(&base.T7, f.T7)
	set(&base.T8, f.T8)
	set(&base.T16, f.T16)
	set(&base.T17, f.T17)
	set(&base.T27, f.T27)
	set(&base.T33, f.T33)
	set(&base.T35, f.T35)
	set(&base.DigitTimeout, f.DigitTimeout)
	return base
}

// set overwrites *dst with *configured when configured is non-nil, i.e.
// when the config file/env actually named this timer.
func set(dst *time.Duration, configured *time.Duration) {
	if configured != nil {
		*dst = *configured
	}
}
