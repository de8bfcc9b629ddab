package cmds

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/models"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/scoring"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/store"
	mockstore "github.com/stegosaurus21/minicms-sub001/cmd/server/internal/store/mock"
)

func TestWriteOutput(t *testing.T) {
	v := challengeSummary{ID: "abc", Name: "sum", Tests: 3}

	t.Run("JSON", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeOutput(&buf, formatJSON, v))
		assert.Contains(t, buf.String(), `"name": "sum"`)
	})

	t.Run("YAMLKeepsJSONNames", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeOutput(&buf, formatYAML, v))
		assert.Contains(t, buf.String(), "name: sum")
		assert.Contains(t, buf.String(), "tests: 3")
	})

	t.Run("Unknown", func(t *testing.T) {
		require.Error(t, writeOutput(&bytes.Buffer{}, "xml", v))
	})
}

func TestCheckChallenge(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	challenge := func(tests ...models.ChallengeTest) *models.Challenge {
		return &models.Challenge{
			Name:  "sum",
			Tasks: []models.ChallengeTask{{Number: 1, Weight: 1, Mode: scoring.ModeBatch}},
			Tests: tests,
		}
	}

	t.Run("Valid", func(t *testing.T) {
		s := mockstore.NewMockStore(gomock.NewController(t))
		s.EXPECT().Challenge(gomock.Any(), id).
			Return(challenge(models.ChallengeTest{TaskNumber: 1, Number: 1}), nil)

		got, err := checkChallenge(ctx, s, id)
		require.NoError(t, err)
		assert.Equal(t, "sum", got.Name)
	})

	t.Run("TaskWithoutTests", func(t *testing.T) {
		s := mockstore.NewMockStore(gomock.NewController(t))
		s.EXPECT().Challenge(gomock.Any(), id).Return(challenge(), nil)

		_, err := checkChallenge(ctx, s, id)
		require.ErrorIs(t, err, scoring.ErrEmptyTask)
	})

	t.Run("Missing", func(t *testing.T) {
		s := mockstore.NewMockStore(gomock.NewController(t))
		s.EXPECT().Challenge(gomock.Any(), id).Return(nil, store.ErrNotFound)

		_, err := checkChallenge(ctx, s, id)
		require.True(t, errors.Is(err, store.ErrNotFound))
	})
}

func TestParseChallenge(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		c, err := parseChallenge(strings.NewReader(`
name: sum
cpu_time_limit: 1.5
memory_limit: 65536
tasks:
  - mode: batch
    weight: 1
    tests:
      - {input: sum/1-1.in, output: sum/1-1.out}
  - mode: individual
    weight: 3
    tests:
      - {input: sum/2-1.in, output: sum/2-1.out}
      - {input: sum/2-2.in, output: sum/2-2.out}
`))
		require.NoError(t, err)

		assert.Equal(t, "sum", c.Name)
		assert.InDelta(t, 1.5, c.CPUTimeLimit, 1e-9)
		assert.Equal(t, []scoring.Task{
			{Number: 1, Weight: 1, Mode: scoring.ModeBatch, Tests: []int{1}},
			{Number: 2, Weight: 3, Mode: scoring.ModeIndividual, Tests: []int{1, 2}},
		}, c.ScoringTasks())
		assert.Equal(t, "sum/2-2.out", c.Tests[2].OutputKey)
	})

	for name, tc := range map[string]struct {
		doc string
		err error
	}{
		"UnknownField": {doc: "name: x\ncpu_time_limit: 1\nmemory_limit: 1\nextra: 1\n"},
		"NoName":       {doc: "cpu_time_limit: 1\nmemory_limit: 1\n"},
		"NoLimits":     {doc: "name: x\n"},
		"NoTasks": {
			doc: "name: x\ncpu_time_limit: 1\nmemory_limit: 1\n",
			err: scoring.ErrNoWeight,
		},
		"EmptyTask": {
			doc: "name: x\ncpu_time_limit: 1\nmemory_limit: 1\ntasks:\n  - {mode: batch, weight: 1}\n",
			err: scoring.ErrEmptyTask,
		},
		"BadMode": {
			doc: "name: x\ncpu_time_limit: 1\nmemory_limit: 1\ntasks:\n" +
				"  - {mode: partial, weight: 1, tests: [{input: a, output: b}]}\n",
			err: scoring.ErrUnknownMode,
		},
		"MissingKey": {
			doc: "name: x\ncpu_time_limit: 1\nmemory_limit: 1\ntasks:\n" +
				"  - {mode: batch, weight: 1, tests: [{input: a}]}\n",
		},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := parseChallenge(strings.NewReader(tc.doc))
			require.Error(t, err)
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
			}
		})
	}
}
