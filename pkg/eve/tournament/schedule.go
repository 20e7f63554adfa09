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
	"errors"
	"fmt"

	"github.com/google/uuid"

	"laptudirm.com/x/ladder/pkg/eve/agent"
)

var (
	ErrNoOpenings  = errors.New("schedule: no openings")
	ErrNoOpponents = errors.New("schedule: no opponents")
	ErrNoGames     = errors.New("schedule: number of games must be positive")
)

// Task is a single game between the unknown agent and an opponent.
type Task struct {
	ID     string
	Number int

	Opponent agent.Spec
	Opening  string

	// UnknownWhite is true if the unknown agent plays White.
	UnknownWhite bool
}

// Colour returns the colour the unknown agent plays in the task.
func (task Task) Colour() string {
	if task.UnknownWhite {
		return "white"
	}

	return "black"
}

func (task Task) String() string {
	return fmt.Sprintf("#%d %s (%s)", task.Number, task.Opponent.Identity(), task.Colour())
}

// Allot distributes n games over k openings. Opening i receives n/k games
// and one more if i < n%k.
func Allot(n, k int) []int {
	allotments := make([]int, k)
	for i := range allotments {
		allotments[i] = n / k
		if i < n%k {
			allotments[i]++
		}
	}

	return allotments
}

// Plan creates the tasks for playing n games against every opponent,
// spread evenly over the openings. The unknown agent's colour alternates
// inside every opening, starting with White on even openings and with
// Black on odd ones, so that an odd allotment doesn't always favour the
// same colour.
func Plan(opponents []agent.Spec, openings []string, n int) ([]Task, error) {
	switch {
	case len(opponents) == 0:
		return nil, ErrNoOpponents
	case len(openings) == 0:
		return nil, ErrNoOpenings
	case n <= 0:
		return nil, ErrNoGames
	}

	var tasks []Task
	for i, games := range Allot(n, len(openings)) {
		for _, opponent := range opponents {
			white := i%2 == 0
			for game := 0; game < games; game++ {
				tasks = append(tasks, Task{
					ID:     uuid.NewString(),
					Number: len(tasks) + 1,

					Opponent: opponent,
					Opening:  openings[i],

					UnknownWhite: white,
				})

				// Switch colours.
				white = !white
			}
		}
	}

	return tasks, nil
}
