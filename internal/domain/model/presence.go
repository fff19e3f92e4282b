package model

import "time"

// Worker presence as reported by heartbeats.
const (
	WorkerOnline = "online"
	WorkerBusy   = "busy"
)

type WorkerPresence struct {
	LastSeen time.Time `json:"lastSeen"`
	Status   string    `json:"status"`
}

// PersonalItem is one remembered key/value fact about the user, mirrored to
// the relay so clients can display it.
type PersonalItem struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// WeatherSummary is the condensed current-conditions report the worker
// mirrors to the relay after a refresh.
type WeatherSummary struct {
	CurrentTempF     int    `json:"currentTempF,omitempty"`
	CurrentFeelsF    int    `json:"currentFeelsF,omitempty"`
	CurrentCondition string `json:"currentCondition,omitempty"`
	UpdatedAt        int64  `json:"updatedAt,omitempty"`
}
