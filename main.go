package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"lanefall/internal/sim"
	"lanefall/internal/telemetry"
	"lanefall/internal/world"
	"lanefall/unitdefs"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

func main() {
	var configDir string
	flag.StringVar(&configDir, "config", ".", "directory containing "+configName)
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	if err := loadConfig(configDir); err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	log = log.Level(configuredLogLevel())

	catalogPaths := []string{}
	if path := viper.GetString("roster.catalogPath"); path != "" {
		catalogPaths = append(catalogPaths, path)
	}
	catalog, err := unitdefs.Load(catalogPaths...)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load unit catalog")
	}

	matchID := uuid.NewString()
	log.Info().Str("match", matchID).Str("seed", viper.GetString("seed")).Msg("starting match")

	var stage *sim.Stage
	metrics := telemetry.New(func() map[int]int64 {
		if stage == nil {
			return nil
		}
		return stage.AliveByTeam()
	})
	defer metrics.Close()

	stage = sim.NewStage(stageConfigFromViper(), sim.Deps{
		Log:     log.With().Str("component", "stage").Logger(),
		Metrics: metrics,
		RNG:     world.NewDeterministicRNG,
		Catalog: catalog,
	})

	spawnRosters(stage, log)

	hub := newHub(matchID, log.With().Str("component", "hub").Logger())

	waveInterval := time.Duration(viper.GetInt("waves.intervalSeconds")) * time.Second
	wavesEnabled := viper.GetBool("waves.enabled")
	lastWave := time.Now()
	var wipeLogged [2]bool

	loop := sim.NewLoop(stage, sim.LoopConfig{
		TickRate:        viper.GetInt("tickRate"),
		CatchupMaxTicks: viper.GetInt("catchupMaxTicks"),
	}, sim.LoopHooks{
		AfterStep: func(result sim.StepResult) {
			hub.Broadcast(stateMessage{
				Type:       "state",
				MatchID:    matchID,
				Tick:       result.Tick,
				Units:      result.Snapshot.Units,
				Covers:     result.Snapshot.Covers,
				ServerTime: time.Now().UnixMilli(),
			})
			alive := stage.AliveByTeam()
			for team := 0; team < 2; team++ {
				if alive[team] == 0 && !wipeLogged[team] {
					wipeLogged[team] = true
					log.Info().Int("team", team).Uint64("tick", result.Tick).Msg("team wiped")
				} else if alive[team] > 0 {
					wipeLogged[team] = false
				}
			}
			if wavesEnabled && result.Now.Sub(lastWave) >= waveInterval {
				lastWave = result.Now
				spawnRosters(stage, log)
			}
		},
	})

	stop := make(chan struct{})
	go loop.Run(stop)

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}
		hub.Subscribe(conn)
	})
	http.HandleFunc("/diagnostics", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		writeDiagnostics(w, stage, hub, matchID)
	})

	server := &http.Server{Addr: viper.GetString("listenAddr")}

	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
		<-sigs
		log.Info().Msg("shutting down")
		close(stop)
		hub.Close()
		server.Close()
	}()

	log.Info().Str("addr", server.Addr).Msg("serving observers")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}

// spawnRosters places each configured team roster in a line near its own
// objective, facing the lane.
func spawnRosters(stage *sim.Stage, log zerolog.Logger) {
	roster := rosterFromViper()
	level := viper.GetInt("roster.level")
	arena := stage.Arena().Config()

	for team := 0; team < 2; team++ {
		base := stage.Arena().Objective(team)
		for i, archetypeID := range roster[team] {
			offset := float64(i-len(roster[team])/2) * 2.5
			pos := world.Vec3{X: base.X, Y: clampY(base.Y+offset, arena.Height)}
			if _, err := stage.Spawn(archetypeID, team, level, pos); err != nil {
				log.Error().Err(err).Int("team", team).Msg("roster spawn failed")
			}
		}
	}
}

func clampY(y, height float64) float64 {
	if y < 1 {
		return 1
	}
	if y > height-1 {
		return height - 1
	}
	return y
}
