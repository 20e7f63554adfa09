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
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/notnil/chess"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"laptudirm.com/x/ladder/pkg/eve/agent"
	"laptudirm.com/x/ladder/pkg/eve/match"
	"laptudirm.com/x/ladder/pkg/eve/stats"
)

// Factory creates the agents used by the workers.
type Factory interface {
	New(spec agent.Spec) (agent.Agent, error)
	NewEvaluator() (agent.Evaluator, error)
}

func NewTournament(config Config, factory Factory) (*Tournament, error) {
	unknown, opponents, err := config.Validate()
	if err != nil {
		return nil, err
	}

	book, err := NewBook(config.Openings.File, config.Openings.Order)
	if err != nil {
		return nil, err
	}

	tasks, err := Plan(opponents, book.Openings(), config.Games)
	if err != nil {
		return nil, err
	}

	tour := &Tournament{
		Config: config,
		Output: os.Stdout,

		unknown: unknown,
		factory: factory,
		ratings: make(map[string]float64),

		queue:   NewQueue(tasks),
		results: NewTable(),
		total:   len(tasks),
	}

	for _, opponent := range opponents {
		if rating, found := config.RatingOf(opponent); found {
			tour.ratings[opponent.Identity()] = rating
		} else {
			logrus.Warnf("opponent %s has no known rating", opponent.Identity())
		}
	}

	return tour, nil
}

// Tournament plays the unknown agent against every opponent and keeps
// track of its results.
type Tournament struct {
	Config Config

	// Output is where the standings are reported.
	Output io.Writer

	unknown agent.Spec
	factory Factory
	ratings map[string]float64

	queue   *Queue
	results *Table

	pgn   *match.PGNWriter
	audit *logrus.Logger

	mu       sync.Mutex // guards finished and the report
	finished int
	total    int
}

// Start plays every scheduled game and returns the final estimate.
func (tour *Tournament) Start(ctx context.Context) (stats.Estimate, error) {
	audit, err := openAudit(tour.Config.LogFile)
	if err != nil {
		return stats.Estimate{}, err
	}
	defer audit.Close()
	tour.audit = audit.Logger

	if tour.Config.PGNOut != "" {
		tour.pgn, err = match.OpenPGN(tour.Config.PGNOut)
		if err != nil {
			return stats.Estimate{}, err
		}
		defer tour.pgn.Close()
	}

	logrus.Infof("Playing %d games with %d workers", tour.total, tour.Config.Concurrency)

	group, ctx := errgroup.WithContext(ctx)
	for i := 0; i < tour.Config.Concurrency; i++ {
		worker := i + 1
		group.Go(func() error {
			return tour.Thread(ctx, worker)
		})
	}

	err = group.Wait()
	tour.Report()

	if err == nil && tour.queue.Len() > 0 {
		err = fmt.Errorf("tournament: %d games were not played", tour.queue.Len())
	}

	return tour.Estimate(), err
}

// Thread is a single worker. It owns one unknown agent and one evaluator
// and plays games from the queue until it is empty.
func (tour *Tournament) Thread(ctx context.Context, id int) error {
	log := logrus.WithField("worker", id)

	unknown, err := tour.factory.New(tour.unknown)
	if err != nil {
		// Only this worker stops, the others may still succeed.
		log.WithError(err).Errorf("Starting %s failed", tour.unknown.Identity())
		return nil
	}

	defer func() {
		if language, ok := unknown.(*agent.Language); ok {
			usage := language.Usage()
			log.WithFields(logrus.Fields{
				"calls":     usage.Calls,
				"failures":  usage.Failures,
				"truncated": usage.Truncated,
				"prompt":    usage.PromptTokens,
				"generated": usage.GeneratedTokens,
				"duration":  usage.Duration,
			}).Info("Generation usage")
		}

		_ = unknown.Close()
	}()

	runner := &match.Runner{
		Event:     tour.Config.Event,
		Site:      tour.Config.Site,
		Threshold: tour.Config.Threshold,
		MaxPlies:  tour.Config.MaxPlies,
	}

	if tour.Config.EarlyStop {
		evaluator, err := tour.factory.NewEvaluator()
		if err != nil {
			log.WithError(err).Error("Starting the evaluator failed")
			return nil
		}

		defer evaluator.Close()
		runner.Evaluator = evaluator
	}

	for ctx.Err() == nil {
		task, ok := tour.queue.Get(ctx, tour.Config.Poll)
		if !ok {
			break
		}

		if err := tour.RunGame(ctx, runner, unknown, task); err != nil {
			log.WithError(err).Errorf("Game %s failed", task)
		}
	}

	return ctx.Err()
}

// RunGame plays a single task with the given unknown agent and records
// its result.
func (tour *Tournament) RunGame(ctx context.Context, runner *match.Runner, unknown agent.Agent, task Task) error {
	name := task.Opponent.Identity()

	opponent, err := tour.factory.New(task.Opponent)
	if err != nil {
		return fmt.Errorf("starting %s: %w", name, err)
	}
	defer opponent.Close()

	tour.audit.WithFields(logrus.Fields{
		"game":     task.ID,
		"number":   task.Number,
		"opponent": name,
		"colour":   task.Colour(),
		"queue":    tour.queue.Len(),
	}).Info("game started")

	logrus.Infof(
		"\x1b[33mStarting\x1b[0m Game #%d: %s vs %s (\x1b[33m%s\x1b[0m)",
		task.Number, tour.Config.Unknown, name, task.Colour(),
	)

	game := match.Game{
		ID:      task.ID,
		Opening: task.Opening,
		White:   match.Player{Name: tour.Config.Unknown, Agent: unknown},
		Black:   match.Player{Name: name, Agent: opponent},
	}

	colour := chess.White
	if !task.UnknownWhite {
		colour = chess.Black
		game.White, game.Black = game.Black, game.White
	}

	record, err := runner.Play(ctx, game)

	result, decided := record.ResultFor(colour)
	if decided {
		tour.results.Record(name, result)
	}

	if tour.pgn != nil {
		if err := tour.pgn.Write(record); err != nil {
			logrus.WithError(err).Error("Writing pgn failed")
		}
	}

	tour.audit.WithFields(logrus.Fields{
		"game":        task.ID,
		"number":      task.Number,
		"opponent":    name,
		"colour":      task.Colour(),
		"result":      string(record.Result),
		"winner":      record.Winner(),
		"termination": record.Termination.String(),
		"reason":      record.Reason,
		"plies":       record.Plies(),
	}).Info("game finished")

	logrus.Infof(
		"\x1b[32mFinished\x1b[0m Game #%d: %s vs %s: %s {%s}",
		task.Number, record.White, record.Black, record.Result, record.Reason,
	)

	tour.finish()
	return err
}

func (tour *Tournament) finish() {
	tour.mu.Lock()
	tour.finished++
	report := tour.Config.ReportEvery > 0 && tour.finished%tour.Config.ReportEvery == 0
	tour.mu.Unlock()

	if report {
		tour.Report()
	}
}

// Results returns a snapshot of the unknown agent's results.
func (tour *Tournament) Results() map[string]stats.Tally {
	return tour.results.Snapshot()
}

// Estimate computes the rating estimate from the current results.
func (tour *Tournament) Estimate() stats.Estimate {
	return stats.NewEstimate(tour.results.Snapshot(), tour.ratings)
}

// Report prints the current standings.
func (tour *Tournament) Report() {
	tour.mu.Lock()
	defer tour.mu.Unlock()

	_ = WriteReport(tour.Output, tour.Config.Unknown, tour.Estimate())
}

type auditLog struct {
	*logrus.Logger
	file *os.File
}

// openAudit creates the game log at path, discarding the entries if path
// is empty.
func openAudit(path string) (*auditLog, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(io.Discard)

	audit := &auditLog{Logger: logger}
	if path == "" {
		return audit, nil
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	logger.SetOutput(file)
	audit.file = file
	return audit, nil
}

func (audit *auditLog) Close() error {
	if audit.file == nil {
		return nil
	}

	return audit.file.Close()
}
