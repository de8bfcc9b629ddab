// Package leaderboard aggregates best scores per (user, challenge) for a contest.
//
// Two views are built. "all" counts every submission, "official" only submissions made before
// the contest end. Ranking is left to the consumer; every row is aligned with Challenges.
package leaderboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/models"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/store"
	"github.com/stegosaurus21/minicms-sub001/internal/logger"
	"github.com/stegosaurus21/minicms-sub001/internal/types"
)

const name = "github.com/stegosaurus21/minicms-sub001/server/leaderboard"

var tracer = otel.Tracer(name)

var ErrContestNotFound = errors.New("contest not found")

type Row struct {
	Scores []float64 `json:"scores"`
	Counts []int64   `json:"counts"`
}

func newRow(n int) *Row {
	return &Row{Scores: make([]float64, n), Counts: make([]int64, n)}
}

func (r *Row) Total() float64 {
	var total float64
	for _, s := range r.Scores {
		total += s
	}
	return total
}

// username -> row
type View map[string]*Row

type Leaderboard struct {
	EndTime    *types.UnixMilli `json:"end_time"`
	All        View             `json:"all"`
	Official   View             `json:"official"`
	ContestID  string           `json:"contest_id"`
	Challenges []string         `json:"challenges"`
	MaxScores  []float64        `json:"max_scores"`
}

type Provider interface {
	Build(ctx context.Context, contestID uuid.UUID) (*Leaderboard, error)
}

type Builder struct {
	store store.Store
}

var _ Provider = (*Builder)(nil)

func NewBuilder(s store.Store) *Builder {
	return &Builder{store: s}
}

func (b *Builder) Build(ctx context.Context, contestID uuid.UUID) (*Leaderboard, error) {
	ctx, span := tracer.Start(ctx, "Build", trace.WithAttributes(
		attribute.String("contest.id", contestID.String()),
	))
	defer span.End()

	contest, err := b.store.Contest(ctx, contestID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load contest")
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrContestNotFound, err)
		}
		return nil, err
	}
	end := models.PtrFromNull(contest.EndTime)

	ccs, err := b.store.ContestChallenges(ctx, contestID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load contest challenges")
		return nil, err
	}

	lb := &Leaderboard{
		ContestID:  contestID.String(),
		Challenges: make([]string, len(ccs)),
		MaxScores:  make([]float64, len(ccs)),
		All:        View{},
		Official:   View{},
	}
	if end != nil {
		ms := types.NewUnixMilli(*end)
		lb.EndTime = &ms
	}

	column := make(map[uuid.UUID]int, len(ccs))
	for i, cc := range ccs {
		column[cc.ChallengeID] = i
		lb.Challenges[i] = cc.ChallengeID.String()
		lb.MaxScores[i] = cc.MaxScore
	}

	participants, err := b.store.Participants(ctx, contestID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load participants")
		return nil, err
	}

	for _, p := range participants {
		lb.All[p.Username] = newRow(len(ccs))
		// seeded by join time, filled by submission time
		if end == nil || p.JoinedAt.Before(*end) {
			lb.Official[p.Username] = newRow(len(ccs))
		}
	}

	all, err := b.store.BestScores(ctx, contestID, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to aggregate scores")
		return nil, err
	}
	fill(ctx, lb.All, all, column, len(ccs))

	if end == nil {
		lb.Official = lb.All.clone()
	} else {
		official, err := b.store.BestScores(ctx, contestID, end)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to aggregate official scores")
			return nil, err
		}
		fill(ctx, lb.Official, official, column, len(ccs))
	}

	span.SetAttributes(
		attribute.Int("rows.all", len(lb.All)),
		attribute.Int("rows.official", len(lb.Official)),
	)
	span.SetStatus(codes.Ok, "built leaderboard")
	return lb, nil
}

func fill(ctx context.Context, view View, scores []store.BestScore, column map[uuid.UUID]int, width int) {
	for _, s := range scores {
		i, ok := column[s.ChallengeID]
		if !ok {
			// challenge removed from the contest after submissions were made
			logger.Logger.DebugContext(
				ctx,
				"skipping scores for challenge outside contest",
				"challenge", s.ChallengeID,
			)
			continue
		}

		row, ok := view[s.Username]
		if !ok {
			row = newRow(width)
			view[s.Username] = row
		}
		row.Scores[i] = s.Best
		row.Counts[i] = s.Count
	}
}

func (v View) clone() View {
	out := make(View, len(v))
	for user, row := range v {
		c := &Row{
			Scores: make([]float64, len(row.Scores)),
			Counts: make([]int64, len(row.Counts)),
		}
		copy(c.Scores, row.Scores)
		copy(c.Counts, row.Counts)
		out[user] = c
	}
	return out
}
