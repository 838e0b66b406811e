package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/dynbridge/internal/experiment"
)

type ExportData struct {
	Scenario string             `json:"scenario"`
	StepMode string             `json:"stepMode"`
	Dt       float64            `json:"dt"`
	Duration float64            `json:"duration"`
	Steps    int                `json:"steps"`
	Labels   []string           `json:"labels"`
	Times    []float64          `json:"times"`
	States   [][]float64        `json:"states"`
	Controls [][]float64        `json:"controls"`
	Metrics  map[string]float64 `json:"metrics"`
}

func NewExportData(stepMode string, dt, duration float64, result *experiment.Result) ExportData {
	return ExportData{
		Scenario: result.Scenario,
		StepMode: stepMode,
		Dt:       dt,
		Duration: duration,
		Steps:    result.Steps,
		Labels:   result.Labels,
		Times:    result.Times,
		States:   result.States,
		Controls: result.Controls,
		Metrics:  result.Metrics,
	}
}

// WriteJSON encodes data as indented JSON.
func WriteJSON(w io.Writer, data ExportData) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// ExportJSON writes data to path, or to stdout when path is "-".
func ExportJSON(path string, data ExportData) error {
	if path == "-" {
		return WriteJSON(os.Stdout, data)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, data)
}
