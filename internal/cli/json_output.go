// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// json_output.go - JSON output for scripting.
//
// Human-readable messages go to stderr when JSON mode is enabled so stdout
// carries exactly one JSON document.

package cli

import (
	"encoding/json"
	"io"
	"time"

	"github.com/ashzansoc/darkchat-fusion/internal/config"
	"github.com/ashzansoc/darkchat-fusion/internal/model"
)

// JSONResponse is the envelope for every --json output.
type JSONResponse struct {
	// Success indicates whether the command completed successfully
	Success bool `json:"success"`

	// Data contains the command-specific response data
	Data interface{} `json:"data"`

	// Error contains the error message if Success is false, null otherwise
	Error *string `json:"error"`

	// Timestamp is the RFC3339 time the response was generated
	Timestamp string `json:"timestamp"`

	// Command is the command that was executed
	Command string `json:"command,omitempty"`
}

// NewJSONResponse creates a successful JSON response.
func NewJSONResponse(command string, data interface{}) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates an error JSON response. data may be nil.
func NewJSONErrorResponse(command string, data interface{}, err error) *JSONResponse {
	errStr := err.Error()
	return &JSONResponse{
		Success:   false,
		Data:      data,
		Error:     &errStr,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Write encodes the response to w with indentation.
func (r *JSONResponse) Write(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// =============================================================================
// COMMAND-SPECIFIC DATA STRUCTURES
// =============================================================================

// AskData is the data returned by ask.
type AskData struct {
	Response   string           `json:"response"`
	Citations  []model.Citation `json:"citations"`
	Outcome    string           `json:"outcome"`
	TurnID     string           `json:"turn_id"`
	DurationMs int64            `json:"duration_ms"`
}

// StatusData is the data returned by status.
type StatusData struct {
	Version     string           `json:"version"`
	ConfigFile  string           `json:"config_file,omitempty"`
	Environment string           `json:"environment"`
	Endpoints   config.Endpoints `json:"endpoints"`
	Available   bool             `json:"available"`
	Health      string           `json:"health,omitempty"`
	LatencyMs   int64            `json:"latency_ms"`
}
