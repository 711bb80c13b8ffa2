package model

import (
	"time"

	"adhocnet/internal/geometry"
)

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// InterestArea is a circular region a sensor may occupy.
type InterestArea struct {
	Name   string         `json:"name"`
	Center geometry.Point `json:"center"`
	Radius float64        `json:"radius"`
	IsHub  bool           `json:"is_hub"`
}

func (a *InterestArea) Circle() geometry.Circle {
	return geometry.Circle{Center: a.Center, Radius: a.Radius}
}

func (a *InterestArea) Record() InterestAreaRecord {
	return InterestAreaRecord{
		Name:   a.Name,
		Center: a.Center.Pair(),
		Radius: a.Radius,
		IsHub:  a.IsHub,
	}
}

// InterestAreaRecord is the on-disk form of an interest area.
type InterestAreaRecord struct {
	Name   string     `json:"name,omitempty"`
	Center [2]float64 `json:"center"`
	Radius float64    `json:"radius"`
	IsHub  bool       `json:"is_hub"`
}

func (r InterestAreaRecord) Area() *InterestArea {
	return &InterestArea{
		Name:   r.Name,
		Center: geometry.FromPair(r.Center),
		Radius: r.Radius,
		IsHub:  r.IsHub,
	}
}

type VertexRecord struct {
	ID           string     `json:"id"`
	Location     [2]float64 `json:"location"`
	IsRelay      bool       `json:"is_relay"`
	Halo         float64    `json:"halo,omitempty"`
	InterestArea string     `json:"interest_area,omitempty"`
}

type GraphRecord struct {
	Radius   float64        `json:"radius"`
	Vertices []VertexRecord `json:"vertices"`
	Edges    [][2]string    `json:"edges,omitempty"`
}

// NetworkSnapshot is enough to rebuild an equivalent network.
type NetworkSnapshot struct {
	VersionedRecord
	InterestAreas []InterestAreaRecord `json:"interest_areas"`
	Graph         GraphRecord          `json:"graph"`
}

type GenerationStats struct {
	Generation     int           `json:"generation"`
	BestFitness    float64       `json:"best_fitness"`
	MeanFitness    float64       `json:"mean_fitness"`
	PopulationSize int           `json:"population_size"`
	Components     int           `json:"components"`
	Duration       time.Duration `json:"duration"`
}

type RunRecord struct {
	VersionedRecord
	ID              string    `json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	FitnessFunction string    `json:"fitness_function"`
	Direction       string    `json:"direction"`
	PopulationSize  int       `json:"population_size"`
	Generations     int       `json:"generations"`
	MutationFactor  float64   `json:"mutation_factor"`
	Radius          float64   `json:"radius"`
	Seed            int64     `json:"seed"`
	Workers         int       `json:"workers"`
	InterestAreas   int       `json:"interest_areas"`
	InitialFitness  float64   `json:"initial_fitness"`
	BestFitness     float64   `json:"best_fitness"`
	FinalFitness    float64   `json:"final_fitness"`
	Relays          int       `json:"relays"`
	Connected       bool      `json:"connected"`
	RejectedScores  int       `json:"rejected_scores,omitempty"`
	ElapsedSeconds  float64   `json:"elapsed_seconds"`
}
