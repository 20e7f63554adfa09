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
	"sync"

	"laptudirm.com/x/ladder/pkg/eve/match"
	"laptudirm.com/x/ladder/pkg/eve/stats"
)

// Table holds the unknown agent's results against every opponent. It is
// safe for use by multiple goroutines.
type Table struct {
	mu      sync.Mutex
	tallies map[string]*stats.Tally
}

// NewTable creates an empty results table.
func NewTable() *Table {
	return &Table{tallies: make(map[string]*stats.Tally)}
}

// Record adds a result of the unknown agent against opponent.
func (table *Table) Record(opponent string, result match.Result) {
	table.mu.Lock()
	defer table.mu.Unlock()

	tally, found := table.tallies[opponent]
	if !found {
		tally = &stats.Tally{}
		table.tallies[opponent] = tally
	}

	switch result {
	case match.Win:
		tally.Wins++
	case match.Draw:
		tally.Draws++
	case match.Loss:
		tally.Losses++
	}
}

// Snapshot returns a copy of the current results.
func (table *Table) Snapshot() map[string]stats.Tally {
	table.mu.Lock()
	defer table.mu.Unlock()

	snapshot := make(map[string]stats.Tally, len(table.tallies))
	for opponent, tally := range table.tallies {
		snapshot[opponent] = *tally
	}

	return snapshot
}
