package graph

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
)

// StationDef is one station record of a map definition. Coordinates are only
// carried through for clients.
type StationDef struct {
	ID int      `json:"id"`
	X  *float64 `json:"x,omitempty"`
	Y  *float64 `json:"y,omitempty"`
}

// EdgeDef is one edge record. The endpoints are unordered.
type EdgeDef struct {
	From  int      `json:"from"`
	To    int      `json:"to"`
	Modes []string `json:"modes"`
}

// Definition is the declarative form a map is loaded from.
type Definition struct {
	Name             string       `json:"name"`
	Stations         []StationDef `json:"stations"`
	Edges            []EdgeDef    `json:"edges"`
	StartingStations []int        `json:"startingStations"`
	FerryStations    []int        `json:"ferryStations"`
	RevealRounds     []int        `json:"revealRounds,omitempty"`
	FinalRound       int          `json:"finalRound,omitempty"`
}

//go:embed maps/small.json
var smallMap []byte

// ParseDefinition decodes a JSON map definition.
func ParseDefinition(data []byte) (Definition, error) {
	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return Definition{}, fmt.Errorf("parsing map definition: %w", err)
	}
	return def, nil
}

// LoadFile reads and loads a map definition from disk.
func LoadFile(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	def, err := ParseDefinition(data)
	if err != nil {
		return nil, err
	}
	return Load(def)
}

// Small returns the built-in 18 station map.
func Small() *Graph {
	def, err := ParseDefinition(smallMap)
	if err != nil {
		panic(err)
	}
	g, err := Load(def)
	if err != nil {
		panic(err)
	}
	return g
}
