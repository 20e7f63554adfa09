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
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"laptudirm.com/x/ladder/pkg/eve/stats"
)

const (
	reportRow    = " %3s %-18s %6s %6s %5s   %4s %4s %4s   %5s "
	reportHeader = "║" + reportRow + "║\n"
)

// WriteReport writes the standings of the unknown agent against every
// opponent as a table, followed by the estimated rating.
func WriteReport(w io.Writer, unknown string, estimate stats.Estimate) error {
	var report strings.Builder

	header := fmt.Sprintf(reportRow, "", "Opponent", "Rating", "Elo", "Error", "Wins", "Loss", "Draw", "Total")
	border := strings.Repeat("═", utf8.RuneCountInString(header))

	report.WriteString("╔" + border + "╗\n")
	report.WriteString("║" + header + "║\n")
	report.WriteString("╠" + border + "╣\n")

	for i, performance := range estimate.Performances {
		fmt.Fprintf(&report, reportHeader,
			fmt.Sprintf("%d.", i+1), truncate(performance.Opponent, 18),
			fmt.Sprintf("%.0f", performance.Rating),
			fmt.Sprintf("%.0f", performance.Elo),
			fmt.Sprintf("%.0f", performance.Error),
			fmt.Sprint(performance.Wins),
			fmt.Sprint(performance.Losses),
			fmt.Sprint(performance.Draws),
			fmt.Sprint(performance.Games()),
		)
	}

	report.WriteString("╚" + border + "╝\n")

	if len(estimate.Unrated) > 0 {
		fmt.Fprintf(&report, "Unrated opponents: %s\n", strings.Join(estimate.Unrated, ", "))
	}

	if estimate.Valid() {
		fmt.Fprintf(&report, "\x1b[32mEstimated Elo of %s: %.0f\x1b[0m (%d games)\n", unknown, estimate.Elo, estimate.Games)
	} else {
		fmt.Fprintf(&report, "No rated games of %s yet\n", unknown)
	}

	_, err := io.WriteString(w, report.String())
	return err
}

func truncate(name string, width int) string {
	if utf8.RuneCountInString(name) <= width {
		return name
	}

	return string([]rune(name)[:width-1]) + "…"
}
