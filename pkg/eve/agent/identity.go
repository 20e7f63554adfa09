// Copyright © 2024 Rak Laptudirm <rak@laptudirm.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package agent

import (
	"fmt"
	"strconv"
	"strings"

	"laptudirm.com/x/ladder/pkg/eve/llm"
)

// Spec is the parsed form of a player identity, one of SearchSpec and
// LanguageSpec.
type Spec interface {
	// Identity is the "<family>_<parameter>" string the spec was parsed
	// from, which is also the player's name in records.
	Identity() string

	isSpec()
}

// SearchSpec describes a UCI engine with limited strength. At most one
// of Rating and Skill may be set.
type SearchSpec struct {
	ID string

	Rating int  // UCI_Elo, zero if unset
	Skill  *int // Skill Level, nil if unset
}

func (spec SearchSpec) Identity() string { return spec.ID }
func (SearchSpec) isSpec()               {}

// Validate checks that the strength settings are consistent.
func (spec SearchSpec) Validate() error {
	if spec.Rating != 0 && spec.Skill != nil {
		return fmt.Errorf("%w: %s sets both a rating and a skill level", ErrUnsupportedConfig, spec.ID)
	}

	if spec.Rating < 0 {
		return fmt.Errorf("%w: %s has a negative rating", ErrUnsupportedConfig, spec.ID)
	}

	if spec.Skill != nil && (*spec.Skill < MinSkill || *spec.Skill > MaxSkill) {
		return fmt.Errorf("%w: %s skill level outside [%d, %d]", ErrUnsupportedConfig, spec.ID, MinSkill, MaxSkill)
	}

	return nil
}

// Bounds of the Skill Level option.
const (
	MinSkill = 0
	MaxSkill = 20
)

// LanguageSpec describes a language model served by a backend.
type LanguageSpec struct {
	ID string

	Backend string
	Model   string
}

func (spec LanguageSpec) Identity() string { return spec.ID }
func (LanguageSpec) isSpec()               {}

// Rating returns the known rating of the player described by spec.
func Rating(spec Spec) (float64, bool) {
	if search, ok := spec.(SearchSpec); ok && search.Rating > 0 {
		return float64(search.Rating), true
	}

	return 0, false
}

var families = map[string]func(id, param string) (Spec, error){
	"stockfish": func(id, param string) (Spec, error) {
		rating, err := strconv.Atoi(param)
		if err != nil || rating <= 0 {
			return nil, fmt.Errorf("%w: %s: rating %q is not a positive integer", ErrUnsupportedConfig, id, param)
		}

		return SearchSpec{ID: id, Rating: rating}, nil
	},

	"skill": func(id, param string) (Spec, error) {
		skill, err := strconv.Atoi(param)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: skill %q is not an integer", ErrUnsupportedConfig, id, param)
		}

		spec := SearchSpec{ID: id, Skill: &skill}
		if err := spec.Validate(); err != nil {
			return nil, err
		}

		return spec, nil
	},

	"ollama":   languageFamily(llm.BackendOllama),
	"deepseek": languageFamily(llm.BackendOllama),
	"openai":   languageFamily(llm.BackendOpenAI),
}

func languageFamily(backend string) func(id, param string) (Spec, error) {
	return func(id, param string) (Spec, error) {
		return LanguageSpec{ID: id, Backend: backend, Model: param}, nil
	}
}

// ParseSpec parses a player identity of the form "<family>_<parameter>",
// like Stockfish_1400, Skill_5, or Ollama_deepseek-r1:1.5b. The identity
// must split on underscores into exactly two non-empty parts.
func ParseSpec(identity string) (Spec, error) {
	parts := strings.Split(identity, "_")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("%w: malformed identity %q, want <family>_<parameter>", ErrUnsupportedConfig, identity)
	}

	family, found := families[strings.ToLower(parts[0])]
	if !found {
		return nil, fmt.Errorf("%w: unknown family %q in %q", ErrUnsupportedConfig, parts[0], identity)
	}

	return family(identity, parts[1])
}
