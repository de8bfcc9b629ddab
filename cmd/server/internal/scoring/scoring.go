// Package scoring turns per-test judge outcomes into a submission score.
//
// A challenge is split into weighted tasks. A BATCH task is worth its full weight only when
// every one of its tests is accepted; an INDIVIDUAL task earns the accepted fraction of its
// tests. The score is maxScore scaled by the weighted credit over the total weight.
package scoring

import (
	"errors"
	"fmt"

	"github.com/stegosaurus21/minicms-sub001/internal/types"
)

type Mode string

const (
	ModeBatch      Mode = "batch"
	ModeIndividual Mode = "individual"
)

var (
	ErrNoWeight      = errors.New("challenge has no positive total weight")
	ErrBadWeight     = errors.New("task weight must be positive")
	ErrUnknownMode   = errors.New("unknown task mode")
	ErrEmptyTask     = errors.New("task has no tests")
	ErrDuplicateTask = errors.New("task number repeated")
	ErrDuplicateTest = errors.New("test number repeated within task")
)

type Task struct {
	Mode   Mode
	Tests  []int
	Number int
	Weight float64
}

type Outcome struct {
	Status string
	Task   int
	Test   int
}

// Checks the invariants Compute relies on. Run when a challenge is defined, not when scoring.
func Validate(tasks []Task) error {
	var total float64
	seen := make(map[int]struct{}, len(tasks))

	for _, task := range tasks {
		if _, ok := seen[task.Number]; ok {
			return fmt.Errorf("task %d: %w", task.Number, ErrDuplicateTask)
		}
		seen[task.Number] = struct{}{}

		if task.Weight <= 0 {
			return fmt.Errorf("task %d: %w", task.Number, ErrBadWeight)
		}

		if task.Mode != ModeBatch && task.Mode != ModeIndividual {
			return fmt.Errorf("task %d mode %q: %w", task.Number, task.Mode, ErrUnknownMode)
		}

		if len(task.Tests) == 0 {
			return fmt.Errorf("task %d: %w", task.Number, ErrEmptyTask)
		}

		tests := make(map[int]struct{}, len(task.Tests))
		for _, test := range task.Tests {
			if _, ok := tests[test]; ok {
				return fmt.Errorf("task %d test %d: %w", task.Number, test, ErrDuplicateTest)
			}
			tests[test] = struct{}{}
		}

		total += task.Weight
	}

	if total <= 0 {
		return ErrNoWeight
	}

	return nil
}

// Sums the test counts of all tasks
func TestCount(tasks []Task) int {
	n := 0
	for _, task := range tasks {
		n += len(task.Tests)
	}
	return n
}

// Computes the score for `outcomes` against `tasks`. Outcomes for tests that do not belong to a
// task are ignored. The result is not rounded.
func Compute(outcomes []Outcome, tasks []Task, maxScore float64) float64 {
	type key struct{ task, test int }

	byTest := make(map[key]string, len(outcomes))
	for _, o := range outcomes {
		byTest[key{o.Task, o.Test}] = o.Status
	}

	var credit, total float64
	for _, task := range tasks {
		total += task.Weight

		accepted, observed := 0, 0
		for _, test := range task.Tests {
			status, ok := byTest[key{task.Number, test}]
			if !ok {
				continue
			}
			observed++
			if status == types.StatusAccepted {
				accepted++
			}
		}

		credit += task.Weight * taskCredit(task, accepted, observed)
	}

	if total <= 0 {
		return 0
	}

	return maxScore * credit / total
}

func taskCredit(task Task, accepted, observed int) float64 {
	switch task.Mode {
	case ModeBatch:
		if observed == 0 || accepted != len(task.Tests) {
			return 0
		}
		return 1
	case ModeIndividual:
		if len(task.Tests) == 0 {
			return 0
		}
		return float64(accepted) / float64(len(task.Tests))
	default:
		return 0
	}
}
