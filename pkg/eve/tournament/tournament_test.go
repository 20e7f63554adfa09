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
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/notnil/chess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laptudirm.com/x/ladder/pkg/eve/agent"
	"laptudirm.com/x/ladder/pkg/eve/match"
)

// mover plays the first legal move.
type mover struct{ closed *atomic.Int32 }

func (mover) Play(_ context.Context, position *chess.Position) (*chess.Move, error) {
	moves := position.ValidMoves()
	if len(moves) == 0 {
		return nil, agent.ErrNoLegalMove
	}

	return moves[0], nil
}

func (m mover) Close() error {
	m.closed.Add(1)
	return nil
}

// quitter times out on every move.
type quitter struct{ mover }

func (quitter) Play(context.Context, *chess.Position) (*chess.Move, error) {
	return nil, agent.ErrTimeout
}

// level scores every position as even.
type level struct{ mover }

func (level) Evaluate(context.Context, *chess.Position) (agent.Score, error) {
	return agent.Score{}, nil
}

type scriptedFactory struct {
	unknown string

	created atomic.Int32
	closed  atomic.Int32

	failUnknown bool
}

func (factory *scriptedFactory) New(spec agent.Spec) (agent.Agent, error) {
	switch spec.Identity() {
	case factory.unknown:
		if factory.failUnknown {
			return nil, errors.New("no backend")
		}
	case "Stockfish_1000":
		factory.created.Add(1)
		return quitter{mover{&factory.closed}}, nil
	case "Skill_1":
		return nil, errors.New("engine not found")
	}

	factory.created.Add(1)
	return mover{&factory.closed}, nil
}

func (factory *scriptedFactory) NewEvaluator() (agent.Evaluator, error) {
	factory.created.Add(1)
	return level{mover{&factory.closed}}, nil
}

func testConfig(t *testing.T) Config {
	config := DefaultConfig()
	config.Unknown = "Ollama_llama3"
	config.Opponents = []string{"Stockfish_1000", "Stockfish_3000"}
	config.Games = 4
	config.Concurrency = 3
	config.MaxPlies = 6
	config.Poll = 50 * time.Millisecond

	dir := t.TempDir()
	config.PGNOut = filepath.Join(dir, "games.pgn")
	config.LogFile = filepath.Join(dir, "games.log")
	return config
}

func TestTournament(t *testing.T) {
	config := testConfig(t)
	factory := &scriptedFactory{unknown: config.Unknown}

	tour, err := NewTournament(config, factory)
	require.NoError(t, err)

	var report bytes.Buffer
	tour.Output = &report

	estimate, err := tour.Start(context.Background())
	require.NoError(t, err)

	results := tour.Results()
	assert.Equal(t, 4, results["Stockfish_1000"].Wins)
	assert.Equal(t, 4, results["Stockfish_3000"].Draws)

	require.True(t, estimate.Valid())
	assert.Equal(t, 8, estimate.Games)
	assert.InDelta(t, (1000+400*1.9956+3000)/2, estimate.Elo, 1)

	// every agent which was created has been closed
	assert.Equal(t, factory.created.Load(), factory.closed.Load())

	assert.Contains(t, report.String(), "Stockfish_3000")
	assert.Contains(t, report.String(), "Estimated Elo of Ollama_llama3")

	records, err := match.ReadPGNFile(config.PGNOut)
	require.NoError(t, err)
	assert.Len(t, records, 8)

	white := 0
	for _, record := range records {
		if record.White == config.Unknown {
			white++
		}
	}
	assert.Equal(t, 4, white)

	file, err := os.Open(config.LogFile)
	require.NoError(t, err)
	defer file.Close()

	entries := map[string]int{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		entries[entry["msg"].(string)]++
	}

	assert.Equal(t, map[string]int{"game started": 8, "game finished": 8}, entries)
}

func TestTournamentSameIdentity(t *testing.T) {
	config := testConfig(t)
	config.Unknown = "Stockfish_3000"
	config.Opponents = []string{"Stockfish_3000"}

	tour, err := NewTournament(config, &scriptedFactory{unknown: config.Unknown})
	require.NoError(t, err)
	tour.Output = &bytes.Buffer{}

	_, err = tour.Start(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, tour.Results()["Stockfish_3000"].Draws)
}

func TestTournamentOpponentFailure(t *testing.T) {
	config := testConfig(t)
	config.Opponents = []string{"Skill_1", "Stockfish_3000"}

	tour, err := NewTournament(config, &scriptedFactory{unknown: config.Unknown})
	require.NoError(t, err)
	tour.Output = &bytes.Buffer{}

	estimate, err := tour.Start(context.Background())
	require.NoError(t, err)

	// games against an opponent which can't be started are lost, not counted
	results := tour.Results()
	assert.Zero(t, results["Skill_1"].Games())
	assert.Equal(t, 4, results["Stockfish_3000"].Draws)
	assert.Equal(t, 4, estimate.Games)
}

func TestTournamentUnknownFailure(t *testing.T) {
	config := testConfig(t)

	tour, err := NewTournament(config, &scriptedFactory{unknown: config.Unknown, failUnknown: true})
	require.NoError(t, err)
	tour.Output = &bytes.Buffer{}

	estimate, err := tour.Start(context.Background())
	assert.ErrorContains(t, err, "8 games were not played")
	assert.False(t, estimate.Valid())
}

func TestTournamentCancelled(t *testing.T) {
	config := testConfig(t)

	tour, err := NewTournament(config, &scriptedFactory{unknown: config.Unknown})
	require.NoError(t, err)
	tour.Output = &bytes.Buffer{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = tour.Start(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewTournamentInvalid(t *testing.T) {
	config := testConfig(t)
	config.Opponents = []string{"Stockfish_1000", "Stockfish"}

	_, err := NewTournament(config, &scriptedFactory{})
	assert.ErrorIs(t, err, agent.ErrUnsupportedConfig)

	config.Opponents = []string{"Stockfish_1000", "Stockfish_1000"}
	_, err = NewTournament(config, &scriptedFactory{})
	assert.ErrorContains(t, err, "duplicate")

	config = testConfig(t)
	config.Unknown = ""
	_, err = NewTournament(config, &scriptedFactory{})
	assert.Error(t, err)
}
