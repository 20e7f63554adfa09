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

package tournament

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"laptudirm.com/x/ladder/pkg/eve/agent"
	"laptudirm.com/x/ladder/pkg/eve/match"
)

type Config struct {
	// Settings used to create the agents.
	agent.Settings `yaml:",inline"`

	// Identity of the agent whose rating is being estimated.
	Unknown string `yaml:"unknown"`

	// Identities of the reference agents, and ratings for the ones whose
	// identity doesn't carry one.
	Opponents []string           `yaml:"opponents"`
	Ratings   map[string]float64 `yaml:"ratings"`

	// Number of games played against every opponent.
	Games int `yaml:"games"`

	Openings struct {
		File  string `yaml:"file"`
		Order string `yaml:"order"`
	} `yaml:"openings"`

	// Number of games that will be played concurrently.
	Concurrency int `yaml:"concurrency"`

	// Game adjudication stuff.
	EarlyStop bool `yaml:"early-stop"`
	Threshold int  `yaml:"threshold"`
	MaxPlies  int  `yaml:"max-plies"`

	Event string `yaml:"event"` // Event field of the PGN.
	Site  string `yaml:"site"`  // Site field of the PGN.

	PGNOut  string `yaml:"pgn-out"`  // File to store the game PGNs at.
	LogFile string `yaml:"log-file"` // File to store the game log at.

	// Time a worker waits on the queue before stopping.
	Poll time.Duration `yaml:"poll"`

	// Number of finished games between standings reports.
	ReportEvery int `yaml:"report-every"`
}

// DefaultOpponents are the reference agents used when none are given.
var DefaultOpponents = []string{
	"Stockfish_1400",
	"Stockfish_1600",
	"Stockfish_1800",
	"Stockfish_2000",
	"Stockfish_2200",
	"Stockfish_2400",
	"Stockfish_2600",
	"Stockfish_2800",
}

func DefaultConfig() Config {
	return Config{
		Settings: agent.DefaultSettings(),

		Opponents: append([]string(nil), DefaultOpponents...),
		Games:     4,

		Concurrency: 8,

		EarlyStop: true,
		Threshold: match.DefaultThreshold,

		Event: match.DefaultEvent,

		Poll:        DefaultPoll,
		ReportEvery: 5,
	}
}

// LoadConfig reads the yaml configuration file at path on top of the
// default configuration.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return config, err
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	// Don't merge the opponent list with the default one.
	config.Opponents = nil
	if err := decoder.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return config, fmt.Errorf("config %s: %w", path, err)
	}

	if config.Opponents == nil {
		config.Opponents = append([]string(nil), DefaultOpponents...)
	}

	return config, nil
}

// Validate checks the configuration and parses the agent identities.
func (config *Config) Validate() (agent.Spec, []agent.Spec, error) {
	if config.Unknown == "" {
		return nil, nil, errors.New("config: no unknown agent")
	}

	if config.Concurrency <= 0 {
		return nil, nil, fmt.Errorf("config: invalid concurrency %d", config.Concurrency)
	}

	if config.Games <= 0 {
		return nil, nil, ErrNoGames
	}

	unknown, err := agent.ParseSpec(config.Unknown)
	if err != nil {
		return nil, nil, err
	}

	if len(config.Opponents) == 0 {
		return nil, nil, ErrNoOpponents
	}

	opponents := make([]agent.Spec, 0, len(config.Opponents))
	seen := make(map[string]bool)
	for _, identity := range config.Opponents {
		if seen[identity] {
			return nil, nil, fmt.Errorf("config: duplicate opponent %s", identity)
		}

		seen[identity] = true

		opponent, err := agent.ParseSpec(identity)
		if err != nil {
			return nil, nil, err
		}

		opponents = append(opponents, opponent)
	}

	return unknown, opponents, nil
}

// RatingOf returns the known rating of an opponent. Explicit ratings take
// precedence over the ones carried by the identity.
func (config *Config) RatingOf(spec agent.Spec) (float64, bool) {
	if rating, found := config.Ratings[spec.Identity()]; found {
		return rating, true
	}

	return agent.Rating(spec)
}
