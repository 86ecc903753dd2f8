// Package storagetest holds the behaviour every storage.Store must share.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/spigell/star-interviewer/internal/interview"
	"github.com/spigell/star-interviewer/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Run exercises store against the storage.Store contract.
func Run(t *testing.T, store storage.Store) {
	t.Helper()
	ctx := context.Background()

	orch := interview.NewOrchestrator(nil, nil, interview.DefaultScoring(), zap.NewNop())
	session, _ := orch.Start("iv-store-1", "")
	_, err := orch.Submit(ctx, session, "서울의 물류 스타트업에서 데이터 팀으로 근무했습니다")
	require.NoError(t, err)

	created := time.UnixMilli(time.Now().UnixMilli())

	t.Run("session round trip", func(t *testing.T) {
		rec := &storage.SessionRecord{
			ID:        session.ID(),
			UserID:    "user-1",
			Title:     "물류 프로젝트",
			Snapshot:  session.Snapshot(),
			CreatedAt: created,
			UpdatedAt: created,
		}
		require.NoError(t, store.SaveSession(ctx, rec))

		got, err := store.GetSession(ctx, session.ID())
		require.NoError(t, err)
		assert.Equal(t, "user-1", got.UserID)
		assert.Equal(t, "물류 프로젝트", got.Title)
		assert.False(t, got.Done())
		assert.Equal(t, 1, got.Snapshot.Index)
		assert.Equal(t, session.Answer(interview.CategoryCompany), got.Snapshot.Answers[interview.CategoryCompany])
		assert.True(t, created.Equal(got.CreatedAt))

		restored, err := interview.Restore(got.Snapshot, interview.DefaultScoring())
		require.NoError(t, err)
		assert.Equal(t, session.Question(), restored.Question())
	})

	t.Run("session update keeps creation time", func(t *testing.T) {
		later := created.Add(time.Minute)
		require.NoError(t, store.SaveSession(ctx, &storage.SessionRecord{
			ID:        session.ID(),
			UserID:    "user-1",
			Title:     "물류 프로젝트",
			Snapshot:  session.Snapshot(),
			CreatedAt: later,
			UpdatedAt: later,
		}))

		got, err := store.GetSession(ctx, session.ID())
		require.NoError(t, err)
		assert.True(t, created.Equal(got.CreatedAt))
		assert.True(t, later.Equal(got.UpdatedAt))
	})

	t.Run("list sessions by user", func(t *testing.T) {
		other, _ := orch.Start("iv-store-2", "")
		require.NoError(t, store.SaveSession(ctx, &storage.SessionRecord{
			ID:        other.ID(),
			UserID:    "user-1",
			Snapshot:  other.Snapshot(),
			CreatedAt: created,
			UpdatedAt: created.Add(time.Hour),
		}))

		list, err := store.ListSessions(ctx, "user-1", 0)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "iv-store-2", list[0].ID)

		list, err = store.ListSessions(ctx, "user-1", 1)
		require.NoError(t, err)
		assert.Len(t, list, 1)

		list, err = store.ListSessions(ctx, "nobody", 0)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("missing session", func(t *testing.T) {
		_, err := store.GetSession(ctx, "iv-missing")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("reports are write once", func(t *testing.T) {
		report := &interview.Report{
			Summary:              "S(상황): A\nT(과제): B\nA(행동): C\nR(결과): D",
			Feedback:             []string{"강점"},
			Score:                80,
			Level:                interview.LevelMid,
			RecommendedQuestions: []string{"q"},
			SpecificityScore:     80,
			ImpactScore:          74,
		}
		require.NoError(t, store.SaveReport(ctx, "iv-store-1", report))

		got, err := store.GetReport(ctx, "iv-store-1")
		require.NoError(t, err)
		assert.Equal(t, report, got)

		err = store.SaveReport(ctx, "iv-store-1", &interview.Report{Score: 10})
		assert.ErrorIs(t, err, storage.ErrReportExists)

		_, err = store.GetReport(ctx, "iv-missing")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("job-fit scores", func(t *testing.T) {
		_, ok, err := store.LoadScore(ctx, "iv-fp", "pm")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, store.SaveScore(ctx, "iv-fp", "pm", 84))

		score, ok, err := store.LoadScore(ctx, "iv-fp", "pm")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 84, score)
	})
}
