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

package util

import (
	"fmt"
	"time"

	"github.com/briandowns/spinner"
)

// SPIN is the character set of the working spinner.
const SPIN = 31

// Working shows a spinner with the given suffix while work runs.
func Working(suffix string, work func() error) error {
	s := spinner.New(spinner.CharSets[SPIN], 100*time.Millisecond)
	s.Suffix = " " + suffix

	// Pre-run stuff
	fmt.Print("\x1b[33m") // Make the outputs yellow.
	s.Start()             // Start the ~working~ spinner.

	err := work()

	// Post-run stuff
	s.Stop()             // Stop the ~working~ spinner.
	fmt.Print("\x1b[0m") // Reset the terminal's color.

	return err
}
