package main

import (
	"github.com/spf13/viper"

	"github.com/H2OKing89/shelfr-sub001/internal/report"
	"github.com/H2OKing89/shelfr-sub001/internal/trump"
	"github.com/H2OKing89/shelfr-sub001/internal/util"
)

// setLogLevels applies the global verbosity flags.
func setLogLevels() {
	util.SetVerbose(viper.GetBool("verbose"))
	util.SetQuiet(viper.GetBool("quiet"))
}

// loadPreferences builds trumping preferences from the config file and
// environment, on top of the balanced defaults. Validation normalizes
// the archive root and range-checks the ratios.
func loadPreferences() (trump.Preferences, error) {
	prefs := trump.DefaultPreferences()

	if viper.IsSet("trump.enabled") {
		prefs.Enabled = viper.GetBool("trump.enabled")
	}
	if v := viper.GetString("trump.archive_root"); v != "" {
		prefs.ArchiveRoot = v
	}
	if v := viper.GetString("trump.aggressiveness"); v != "" {
		prefs.Aggressiveness = trump.Aggressiveness(v)
	}
	if viper.IsSet("trump.min_bitrate_increase_kbps") {
		prefs.MinBitrateIncreaseKbps = viper.GetInt("trump.min_bitrate_increase_kbps")
	}
	if viper.IsSet("trump.prefer_chapters") {
		prefs.PreferChapters = viper.GetBool("trump.prefer_chapters")
	}
	if viper.IsSet("trump.prefer_stereo") {
		prefs.PreferStereo = viper.GetBool("trump.prefer_stereo")
	}
	if viper.IsSet("trump.min_duration_ratio") {
		prefs.MinDurationRatio = viper.GetFloat64("trump.min_duration_ratio")
	}
	if viper.IsSet("trump.max_duration_ratio") {
		prefs.MaxDurationRatio = viper.GetFloat64("trump.max_duration_ratio")
	}
	if viper.IsSet("trump.archive_by_year") {
		prefs.ArchiveByYear = viper.GetBool("trump.archive_by_year")
	}

	if err := prefs.Validate(); err != nil {
		return prefs, err
	}
	return prefs, nil
}

// eventLogLevel maps the verbosity flags onto the event log filter.
func eventLogLevel() report.EventLevel {
	if viper.GetBool("quiet") {
		return report.LevelWarning
	}
	if viper.GetBool("verbose") {
		return report.LevelDebug
	}
	return report.LevelInfo
}
