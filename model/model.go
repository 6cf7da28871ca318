// Package model defines the minimal language-model interface the
// model-backed reasoner drives, plus a deterministic mock for tests and
// examples. Provider adapters live in the openai and anthropic subpackages.
package model

import (
	"context"
	"fmt"
)

// Request captures a normalized model input: standing instructions plus the
// prompt derived from the knowledge graph snapshot.
type Request struct {
	Instructions string `json:"instructions"`
	Prompt       string `json:"prompt"`
}

// Response is the model's completion.
type Response struct {
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", etc.
}

// Model is the minimal interface required to drive proposal generation.
type Model interface {
	Generate(ctx context.Context, req Request) (Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests & examples.
type MockModel struct {
	info      Info
	responses map[string]string
}

// NewMockModel constructs a MockModel.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: "mock"},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for a prompt.
func (m *MockModel) AddResponse(prompt, response string) { m.responses[prompt] = response }

// Generate implements Model; returns the canned completion for the prompt or
// a generic echo when none is registered.
func (m *MockModel) Generate(_ context.Context, req Request) (Response, error) {
	if full, ok := m.responses[req.Prompt]; ok {
		return Response{Text: full, FinishReason: "stop"}, nil
	}
	return Response{Text: fmt.Sprintf("Mock response to: %s", req.Prompt), FinishReason: "stop"}, nil
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
