package ai

import (
	"context"
	"fmt"
	"sync"
)

// ScriptedCompleter is a Completer for tests: it replays queued responses in
// order and records every prompt it receives.
type ScriptedCompleter struct {
	mu        sync.Mutex
	Responses []string
	Err       error

	Instructions []string
	Prompts      []string
	calls        int
}

// NewScriptedCompleter creates a completer that replays the given responses.
func NewScriptedCompleter(responses ...string) *ScriptedCompleter {
	return &ScriptedCompleter{Responses: responses}
}

// Complete returns the next scripted response, or Err when set.
func (s *ScriptedCompleter) Complete(_ context.Context, instruction, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Instructions = append(s.Instructions, instruction)
	s.Prompts = append(s.Prompts, prompt)
	s.calls++

	if s.Err != nil {
		return "", s.Err
	}
	if s.calls > len(s.Responses) {
		return "", fmt.Errorf("scripted completer exhausted after %d calls", s.calls)
	}
	return s.Responses[s.calls-1], nil
}

// Calls returns how many times Complete was invoked.
func (s *ScriptedCompleter) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
