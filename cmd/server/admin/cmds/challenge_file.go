package cmds

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v2"

	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/models"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/scoring"
)

// Challenge definition as written by problem setters. Tasks and tests are numbered from 1 in
// file order.
type challengeFile struct {
	Name         string     `yaml:"name"`
	CPUTimeLimit float64    `yaml:"cpu_time_limit"`
	MemoryLimit  int        `yaml:"memory_limit"`
	Tasks        []taskFile `yaml:"tasks"`
}

type taskFile struct {
	Mode   scoring.Mode `yaml:"mode"`
	Weight float64      `yaml:"weight"`
	Tests  []testFile   `yaml:"tests"`
}

// Object keys in the test data bucket
type testFile struct {
	Input  string `yaml:"input"`
	Output string `yaml:"output"`
}

func parseChallenge(r io.Reader) (*models.Challenge, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var file challengeFile
	if err := yaml.UnmarshalStrict(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse challenge: %w", err)
	}

	if file.Name == "" {
		return nil, fmt.Errorf("challenge has no name")
	}
	if file.CPUTimeLimit <= 0 || file.MemoryLimit <= 0 {
		return nil, fmt.Errorf("challenge %q needs positive cpu_time_limit and memory_limit", file.Name)
	}

	challenge := &models.Challenge{
		Name:         file.Name,
		CPUTimeLimit: file.CPUTimeLimit,
		MemoryLimit:  file.MemoryLimit,
	}

	for i, task := range file.Tasks {
		number := i + 1
		challenge.Tasks = append(challenge.Tasks, models.ChallengeTask{
			Number: number,
			Weight: task.Weight,
			Mode:   task.Mode,
		})

		for j, test := range task.Tests {
			if test.Input == "" || test.Output == "" {
				return nil, fmt.Errorf("task %d test %d needs input and output keys", number, j+1)
			}
			challenge.Tests = append(challenge.Tests, models.ChallengeTest{
				TaskNumber: number,
				Number:     j + 1,
				InputKey:   test.Input,
				OutputKey:  test.Output,
			})
		}
	}

	if err := scoring.Validate(challenge.ScoringTasks()); err != nil {
		return nil, fmt.Errorf("challenge %q cannot be scored: %w", file.Name, err)
	}

	return challenge, nil
}
