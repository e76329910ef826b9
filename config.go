package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"lanefall/internal/sim"
	"lanefall/internal/unit"
	"lanefall/internal/world"
)

const configName = "lanefall.cfg.json"

// loadConfig installs defaults and reads the optional lanefall.cfg.json
// from configDir. A missing file is fine; the demo must run bare.
func loadConfig(configDir string) error {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("listenAddr", ":8080")
	viper.SetDefault("seed", world.DefaultSeed)

	viper.SetDefault("tickRate", 20)
	viper.SetDefault("catchupMaxTicks", 4)

	viper.SetDefault("arena.width", 120.0)
	viper.SetDefault("arena.height", 60.0)
	viper.SetDefault("arena.obstacleCount", 8)
	viper.SetDefault("arena.coverCount", 14)

	viper.SetDefault("units.coverSearchRadius", 12.0)
	viper.SetDefault("units.coverSeekDistance", 9.0)
	viper.SetDefault("units.coverExcludeAngleDeg", 110.0)
	viper.SetDefault("units.debug", false)

	viper.SetDefault("roster.catalogPath", "")
	viper.SetDefault("roster.teams", []string{"footman,footman,archer", "footman,footman,archer"})
	viper.SetDefault("roster.level", 1)

	viper.SetDefault("waves.enabled", false)
	viper.SetDefault("waves.intervalSeconds", 30)

	viper.SetConfigName(configName)
	viper.SetConfigType("json")
	viper.AddConfigPath(configDir)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	return nil
}

func configuredLogLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(viper.GetString("logLevel"))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

func stageConfigFromViper() sim.StageConfig {
	return sim.StageConfig{
		Seed: viper.GetString("seed"),
		Arena: world.ArenaConfig{
			Width:         viper.GetFloat64("arena.width"),
			Height:        viper.GetFloat64("arena.height"),
			ObstacleCount: viper.GetInt("arena.obstacleCount"),
			CoverCount:    viper.GetInt("arena.coverCount"),
			Seed:          viper.GetString("seed"),
		},
		Tunables: unit.Tunables{
			CoverSearchRadius:    viper.GetFloat64("units.coverSearchRadius"),
			CoverSeekDistance:    viper.GetFloat64("units.coverSeekDistance"),
			CoverExcludeAngleDeg: viper.GetFloat64("units.coverExcludeAngleDeg"),
			Debug:                viper.GetBool("units.debug"),
		},
	}
}

// rosterFromViper parses the per-team archetype lists. Team i's entry is a
// comma-separated archetype ID list.
func rosterFromViper() [2][]string {
	var roster [2][]string
	teams := viper.GetStringSlice("roster.teams")
	for team := 0; team < 2 && team < len(teams); team++ {
		for _, id := range strings.Split(teams[team], ",") {
			id = strings.TrimSpace(id)
			if id != "" {
				roster[team] = append(roster[team], id)
			}
		}
	}
	return roster
}
