package main

import (
	"encoding/json"
	"io"

	"lanefall/internal/sim"
)

type stateMessage struct {
	Type       string              `json:"type"`
	MatchID    string              `json:"matchId"`
	Tick       uint64              `json:"t"`
	Units      []sim.UnitSnapshot  `json:"units"`
	Covers     []sim.CoverSnapshot `json:"covers"`
	ServerTime int64               `json:"serverTime"`
}

type helloMessage struct {
	Type    string              `json:"type"`
	MatchID string              `json:"matchId"`
	Tick    uint64              `json:"t"`
	Units   []sim.UnitSnapshot  `json:"units"`
	Covers  []sim.CoverSnapshot `json:"covers"`
}

type diagnosticsMessage struct {
	MatchID     string `json:"matchId"`
	Tick        uint64 `json:"t"`
	Subscribers int    `json:"subscribers"`
	AliveTeam0  int    `json:"aliveTeam0"`
	AliveTeam1  int    `json:"aliveTeam1"`
}

func writeDiagnostics(w io.Writer, stage *sim.Stage, hub *Hub, matchID string) {
	alive := stage.AliveByTeam()
	_ = json.NewEncoder(w).Encode(diagnosticsMessage{
		MatchID:     matchID,
		Tick:        hub.LastTick(),
		Subscribers: hub.SubscriberCount(),
		AliveTeam0:  int(alive[0]),
		AliveTeam1:  int(alive[1]),
	})
}
