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
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laptudirm.com/x/ladder/pkg/eve/agent"
	"laptudirm.com/x/ladder/pkg/eve/match"
)

func specs(t *testing.T, identities ...string) []agent.Spec {
	t.Helper()

	var parsed []agent.Spec
	for _, identity := range identities {
		spec, err := agent.ParseSpec(identity)
		require.NoError(t, err)
		parsed = append(parsed, spec)
	}

	return parsed
}

func TestAllot(t *testing.T) {
	for _, test := range []struct{ n, k int }{
		{4, 1}, {5, 2}, {7, 3}, {2, 5}, {100, 7}, {1, 1},
	} {
		allotments := Allot(test.n, test.k)
		require.Len(t, allotments, test.k)

		sum := 0
		for _, games := range allotments {
			sum += games
			assert.GreaterOrEqual(t, games, test.n/test.k)
			assert.LessOrEqual(t, games, test.n/test.k+1)
		}

		assert.Equal(t, test.n, sum, "n=%d k=%d", test.n, test.k)
	}

	assert.Equal(t, []int{3, 2, 2}, Allot(7, 3))
}

func TestPlanColourBalance(t *testing.T) {
	openings := []string{match.StartFEN, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1", "8/8/8/8/8/5k2/8/5K2 w - - 0 1"}
	opponents := specs(t, "Stockfish_1400", "Skill_3")

	tasks, err := Plan(opponents, openings, 7)
	require.NoError(t, err)
	require.Len(t, tasks, 14)

	type key struct{ opponent, opening string }
	colours := make(map[key][2]int)
	ids := make(map[string]bool)

	for i, task := range tasks {
		assert.Equal(t, i+1, task.Number)

		_, err := uuid.Parse(task.ID)
		assert.NoError(t, err)
		assert.False(t, ids[task.ID])
		ids[task.ID] = true

		k := key{task.Opponent.Identity(), task.Opening}
		count := colours[k]
		if task.UnknownWhite {
			count[0]++
		} else {
			count[1]++
		}
		colours[k] = count
	}

	for k, count := range colours {
		diff := count[0] - count[1]
		assert.True(t, diff >= -1 && diff <= 1, "%v: %d white %d black", k, count[0], count[1])
	}

	// the odd allotments of openings 0 and 1 favour different colours
	assert.Equal(t, [2]int{2, 1}, colours[key{"Stockfish_1400", openings[0]}])
	assert.Equal(t, [2]int{1, 1}, colours[key{"Stockfish_1400", openings[1]}])
	assert.Equal(t, [2]int{1, 1}, colours[key{"Stockfish_1400", openings[2]}])

	tasks, err = Plan(opponents, openings[:2], 3)
	require.NoError(t, err)

	white, black := 0, 0
	for _, task := range tasks {
		if task.Opponent.Identity() != "Skill_3" {
			continue
		}

		if task.UnknownWhite {
			white++
		} else {
			black++
		}
	}

	// W B on the first opening, B on the second
	assert.Equal(t, 1, white)
	assert.Equal(t, 2, black)
}

func TestPlanErrors(t *testing.T) {
	opponents := specs(t, "Stockfish_1400")

	_, err := Plan(opponents, nil, 4)
	assert.ErrorIs(t, err, ErrNoOpenings)

	_, err = Plan(opponents, []string{match.StartFEN}, 0)
	assert.ErrorIs(t, err, ErrNoGames)

	_, err = Plan(nil, []string{match.StartFEN}, 4)
	assert.ErrorIs(t, err, ErrNoOpponents)
}

func TestQueue(t *testing.T) {
	tasks, err := Plan(specs(t, "Stockfish_1400"), []string{match.StartFEN}, 3)
	require.NoError(t, err)

	queue := NewQueue(tasks)
	assert.Equal(t, 3, queue.Len())

	for i := 1; i <= 3; i++ {
		task, ok := queue.Get(context.Background(), time.Second)
		require.True(t, ok)
		assert.Equal(t, i, task.Number)
	}

	_, ok := queue.Get(context.Background(), time.Second)
	assert.False(t, ok)
	assert.Zero(t, queue.Len())
}

func TestQueueCancelled(t *testing.T) {
	queue := &Queue{tasks: make(chan Task)}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := queue.Get(ctx, time.Minute)
	assert.False(t, ok)

	start := time.Now()
	_, ok = queue.Get(context.Background(), 10*time.Millisecond)
	assert.False(t, ok)
	assert.Less(t, time.Since(start), time.Minute)
}

func TestTableConcurrent(t *testing.T) {
	table := NewTable()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				table.Record("Stockfish_1400", match.Win)
				table.Record("Stockfish_1600", match.Result(j%3-1))
			}
		}()
	}

	wg.Wait()

	snapshot := table.Snapshot()
	assert.Equal(t, 5000, snapshot["Stockfish_1400"].Wins)
	assert.Equal(t, 5000, snapshot["Stockfish_1600"].Games())
	assert.Zero(t, snapshot["Stockfish_1400"].Losses)
}

func TestReadBook(t *testing.T) {
	book, err := ReadBook(strings.NewReader(strings.Join([]string{
		"# openings",
		"rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1",
		"",
		`rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - id "open game";`,
		"rnbqkbnr/pppppppp/8/8/3P4/8/PPP1PPPP/RNBQKBNR b KQkq -",
	}, "\n")))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1",
		"rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 0 1",
		"rnbqkbnr/pppppppp/8/8/3P4/8/PPP1PPPP/RNBQKBNR b KQkq - 0 1",
	}, book.Openings())

	_, err = ReadBook(strings.NewReader("# nothing here\n"))
	assert.ErrorIs(t, err, ErrNoOpenings)

	_, err = ReadBook(strings.NewReader("not a position\n"))
	assert.Error(t, err)
}

func TestNewBookDefault(t *testing.T) {
	book, err := NewBook("", "")
	require.NoError(t, err)
	assert.Equal(t, []string{match.StartFEN}, book.Openings())
}
