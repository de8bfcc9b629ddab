package scoring

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stegosaurus21/minicms-sub001/internal/types"
)

func outcomesFor(task int, statuses ...string) []Outcome {
	out := make([]Outcome, 0, len(statuses))
	for i, s := range statuses {
		out = append(out, Outcome{Task: task, Test: i + 1, Status: s})
	}
	return out
}

func TestCompute(t *testing.T) {
	batch := []Task{{Number: 1, Weight: 1, Mode: ModeBatch, Tests: []int{1, 2, 3}}}

	t.Run("BatchAllAccepted", func(t *testing.T) {
		o := outcomesFor(1, types.StatusAccepted, types.StatusAccepted, types.StatusAccepted)
		assert.InDelta(t, 100.0, Compute(o, batch, 100), 1e-9)
	})

	t.Run("BatchOneWrong", func(t *testing.T) {
		o := outcomesFor(1, types.StatusAccepted, types.StatusWrongAnswer, types.StatusAccepted)
		assert.InDelta(t, 0.0, Compute(o, batch, 100), 1e-9)
	})

	t.Run("BatchMissingOutcome", func(t *testing.T) {
		o := outcomesFor(1, types.StatusAccepted, types.StatusAccepted)
		assert.InDelta(t, 0.0, Compute(o, batch, 100), 1e-9)
	})

	t.Run("BatchNoOutcomes", func(t *testing.T) {
		assert.InDelta(t, 0.0, Compute(nil, batch, 100), 1e-9)
	})

	individual := []Task{
		{Number: 1, Weight: 1, Mode: ModeIndividual, Tests: []int{1, 2}},
		{Number: 2, Weight: 3, Mode: ModeIndividual, Tests: []int{1, 2}},
	}

	t.Run("WeightedIndividual", func(t *testing.T) {
		o := append(
			outcomesFor(1, types.StatusAccepted, types.StatusAccepted),
			outcomesFor(2, types.StatusAccepted, types.StatusTimeLimitExceeded)...,
		)
		assert.InDelta(t, 62.5, Compute(o, individual, 100), 1e-9)
	})

	t.Run("OnlyExactAcceptedCounts", func(t *testing.T) {
		o := append(
			outcomesFor(1, "accepted", types.StatusAccepted),
			outcomesFor(2, "Accepted ", types.StatusAccepted)...,
		)
		// task 1 half, task 2 half
		assert.InDelta(t, 50.0, Compute(o, individual, 100), 1e-9)
	})

	t.Run("SingleTaskRatioOne", func(t *testing.T) {
		single := []Task{{Number: 4, Weight: 7, Mode: ModeIndividual, Tests: []int{1, 2, 3, 4}}}
		o := outcomesFor(4, types.StatusAccepted, types.StatusAccepted, types.StatusCompilationError, types.StatusAccepted)
		assert.InDelta(t, 75.0, Compute(o, single, 100), 1e-9)
	})

	t.Run("MixedModes", func(t *testing.T) {
		tasks := []Task{
			{Number: 1, Weight: 2, Mode: ModeBatch, Tests: []int{1, 2}},
			{Number: 2, Weight: 2, Mode: ModeIndividual, Tests: []int{1, 2, 3, 4}},
		}
		o := append(
			outcomesFor(1, types.StatusAccepted, types.StatusAccepted),
			outcomesFor(2, types.StatusAccepted, types.StatusWrongAnswer, types.StatusWrongAnswer, types.StatusWrongAnswer)...,
		)
		// (2*1 + 2*0.25) / 4
		assert.InDelta(t, 62.5, Compute(o, tasks, 100), 1e-9)
	})

	t.Run("StrayOutcomesIgnored", func(t *testing.T) {
		o := outcomesFor(1, types.StatusAccepted, types.StatusAccepted, types.StatusAccepted)
		o = append(o, Outcome{Task: 9, Test: 1, Status: types.StatusWrongAnswer})
		assert.InDelta(t, 10.0, Compute(o, batch, 10), 1e-9)
	})

	t.Run("ArrivalOrderIrrelevant", func(t *testing.T) {
		o := append(
			outcomesFor(1, types.StatusAccepted, types.StatusWrongAnswer),
			outcomesFor(2, types.StatusAccepted, types.StatusAccepted)...,
		)
		want := Compute(o, individual, 100)

		r := rand.New(rand.NewSource(1))
		for range 20 {
			shuffled := make([]Outcome, len(o))
			copy(shuffled, o)
			r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
			assert.InDelta(t, want, Compute(shuffled, individual, 100), 1e-9)
		}
	})
}

func TestValidate(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		err := Validate([]Task{
			{Number: 1, Weight: 1, Mode: ModeBatch, Tests: []int{1}},
			{Number: 2, Weight: 0.5, Mode: ModeIndividual, Tests: []int{1, 2}},
		})
		require.NoError(t, err)
	})

	tests := []struct {
		name  string
		tasks []Task
		err   error
	}{
		{name: "NoTasks", tasks: nil, err: ErrNoWeight},
		{
			name:  "ZeroWeight",
			tasks: []Task{{Number: 1, Weight: 0, Mode: ModeBatch, Tests: []int{1}}},
			err:   ErrBadWeight,
		},
		{
			name:  "NegativeWeight",
			tasks: []Task{{Number: 1, Weight: -1, Mode: ModeBatch, Tests: []int{1}}},
			err:   ErrBadWeight,
		},
		{
			name:  "UnknownMode",
			tasks: []Task{{Number: 1, Weight: 1, Mode: "sum", Tests: []int{1}}},
			err:   ErrUnknownMode,
		},
		{
			name:  "IndividualNoTests",
			tasks: []Task{{Number: 1, Weight: 1, Mode: ModeIndividual}},
			err:   ErrEmptyTask,
		},
		{
			name:  "BatchNoTests",
			tasks: []Task{{Number: 1, Weight: 1, Mode: ModeBatch, Tests: []int{}}},
			err:   ErrEmptyTask,
		},
		{
			name: "RepeatedTask",
			tasks: []Task{
				{Number: 1, Weight: 1, Mode: ModeBatch, Tests: []int{1}},
				{Number: 1, Weight: 1, Mode: ModeBatch, Tests: []int{2}},
			},
			err: ErrDuplicateTask,
		},
		{
			name:  "RepeatedTest",
			tasks: []Task{{Number: 1, Weight: 1, Mode: ModeBatch, Tests: []int{1, 1}}},
			err:   ErrDuplicateTest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, Validate(tt.tasks), tt.err)
		})
	}
}

func TestTestCount(t *testing.T) {
	assert.Equal(t, 5, TestCount([]Task{
		{Number: 1, Tests: []int{1, 2}},
		{Number: 2, Tests: []int{1, 2, 3}},
	}))
}
