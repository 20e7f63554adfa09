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
	"time"
)

// DefaultPoll is the default time a worker waits on an empty queue.
const DefaultPoll = time.Second

// Queue is the task queue shared by the workers. It is filled before the
// workers start and never refilled.
type Queue struct {
	tasks chan Task
}

// NewQueue creates a closed queue holding the given tasks.
func NewQueue(tasks []Task) *Queue {
	queue := &Queue{tasks: make(chan Task, len(tasks))}
	for _, task := range tasks {
		queue.tasks <- task
	}

	close(queue.tasks)
	return queue
}

// Get takes the next task from the queue. It waits at most timeout for a
// task and reports false if none could be taken, either because the queue
// is drained, the wait timed out, or ctx was cancelled.
func (queue *Queue) Get(ctx context.Context, timeout time.Duration) (Task, bool) {
	if timeout <= 0 {
		timeout = DefaultPoll
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case task, ok := <-queue.tasks:
		return task, ok
	case <-timer.C:
		return Task{}, false
	case <-ctx.Done():
		return Task{}, false
	}
}

// Len returns the number of tasks left in the queue.
func (queue *Queue) Len() int {
	return len(queue.tasks)
}
