package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/shaharg/timewatch/internal/timesheet"
)

type Config struct {
	Portal        PortalConfig   `toml:"portal"`
	Work          WorkConfig     `toml:"work"`
	WorkDay       WorkDayConfig  `toml:"work_day"`
	Excuses       ExcusesConfig  `toml:"excuses"`
	Holiday       HolidayConfig  `toml:"holiday"`
	Evidence      EvidenceConfig `toml:"evidence"`
	Calendar      CalendarConfig `toml:"calendar"`
	Notifications NotifyConfig   `toml:"notifications"`
}

type PortalConfig struct {
	BaseURL  string `toml:"base_url"`
	Company  string `toml:"company"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

type WorkConfig struct {
	Lat         float64 `toml:"lat"`
	Long        float64 `toml:"long"`
	Tolerance   float64 `toml:"tolerance"`
	WeekendDays []int   `toml:"weekend_days"` // time.Weekday values, Sunday = 0
}

type WorkDayConfig struct {
	MinimalStartTime string `toml:"minimal_start_time"`
	MaximalEndTime   string `toml:"maximal_end_time"`
	NominalLength    int    `toml:"nominal_length"`
	MaxLength        int    `toml:"max_length"`
	Randomize        bool   `toml:"randomize"`
	JitterBegin      bool   `toml:"jitter_begin"`
}

type ExcusesConfig struct {
	Sick            int   `toml:"sick"`
	Vacation        int   `toml:"vacation"`
	Holiday         int   `toml:"holiday"`
	HolidayEve      int   `toml:"holiday_eve"`
	Home            int   `toml:"home"`
	Office          int   `toml:"office"`
	TimeProhibiting []int `toml:"time_prohibiting"`
}

type HolidayConfig struct {
	DayPhrase string `toml:"day_phrase"`
	EvePhrase string `toml:"eve_phrase"`
}

type EvidenceConfig struct {
	Dir string `toml:"dir"`
}

type CalendarConfig struct {
	VacationSource string `toml:"vacation_source"`
	SickSource     string `toml:"sick_source"`
}

type NotifyConfig struct {
	Enabled bool `toml:"enabled"`
}

func DefaultConfig() Config {
	return Config{
		Portal: PortalConfig{
			BaseURL: "https://checkin.timewatch.co.il",
		},
		Work: WorkConfig{
			Tolerance:   3,
			WeekendDays: []int{5, 6}, // Friday, Saturday
		},
		WorkDay: WorkDayConfig{
			MinimalStartTime: "09:00",
			MaximalEndTime:   "19:00",
			NominalLength:    9,
			MaxLength:        10,
			Randomize:        true,
		},
		Excuses: ExcusesConfig{
			Sick:            4,
			Vacation:        1,
			Holiday:         1,
			HolidayEve:      2250,
			Home:            74,
			Office:          0,
			TimeProhibiting: []int{1, 2250},
		},
		Holiday: HolidayConfig{
			DayPhrase: "חג",
			EvePhrase: "ערב חג",
		},
		Notifications: NotifyConfig{
			Enabled: false,
		},
	}
}

func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "timewatch"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			applyEnvOverrides(&cfg)
			return &cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TIMEWATCH_COMPANY"); v != "" {
		cfg.Portal.Company = v
	}
	if v := os.Getenv("TIMEWATCH_USERNAME"); v != "" {
		cfg.Portal.Username = v
	}
	if v := os.Getenv("TIMEWATCH_PASSWORD"); v != "" {
		cfg.Portal.Password = v
	}
	if v := os.Getenv("TIMEWATCH_EVIDENCE_DIR"); v != "" {
		cfg.Evidence.Dir = v
	}
}

// Validate fails fast on configuration a run cannot proceed without. It is
// called before any date is processed.
func (c *Config) Validate() error {
	if c.Portal.BaseURL == "" {
		return fmt.Errorf("portal.base_url is not set")
	}
	if c.Portal.Company == "" || c.Portal.Username == "" || c.Portal.Password == "" {
		return fmt.Errorf("portal credentials are not set: run 'timewatch config' or set TIMEWATCH_COMPANY/USERNAME/PASSWORD")
	}
	start, err := timesheet.ParseTimeOfDay(c.WorkDay.MinimalStartTime)
	if err != nil {
		return fmt.Errorf("work_day.minimal_start_time: %w", err)
	}
	end, err := timesheet.ParseTimeOfDay(c.WorkDay.MaximalEndTime)
	if err != nil {
		return fmt.Errorf("work_day.maximal_end_time: %w", err)
	}
	if !start.Before(end) {
		return fmt.Errorf("work_day.minimal_start_time %s is not before maximal_end_time %s", start, end)
	}
	if c.WorkDay.NominalLength <= 0 || c.WorkDay.MaxLength <= 0 {
		return fmt.Errorf("work_day.nominal_length and max_length must be positive")
	}
	if c.WorkDay.NominalLength > c.WorkDay.MaxLength {
		return fmt.Errorf("work_day.nominal_length %d exceeds max_length %d", c.WorkDay.NominalLength, c.WorkDay.MaxLength)
	}
	if len(c.Work.WeekendDays) == 0 {
		return fmt.Errorf("work.weekend_days is empty")
	}
	for _, d := range c.Work.WeekendDays {
		if d < 0 || d > 6 {
			return fmt.Errorf("work.weekend_days contains %d, want 0 (Sunday) through 6 (Saturday)", d)
		}
	}
	return nil
}

func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}
