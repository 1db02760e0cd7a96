package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pego/domain/dto"
	"pego/domain/model"
	"pego/usecase"
)

type MockInteractionRepo struct {
	mock.Mock
}

func (m *MockInteractionRepo) Insert(ctx context.Context, interaction *model.VideoInteraction) error {
	args := m.Called(ctx, interaction)
	return args.Error(0)
}

func (m *MockInteractionRepo) CountByVideo(ctx context.Context, videoID, interactionType string) (int64, error) {
	args := m.Called(ctx, videoID, interactionType)
	return args.Get(0).(int64), args.Error(1)
}

func TestLeaderboardUsecase_Leaderboard_RanksByViews(t *testing.T) {
	mockVideoRepo := new(MockVideoRepo)
	mockRoundRepo := new(MockRoundRepo)

	mockRoundRepo.On("GetByID", mock.Anything, "round-1").
		Return(&model.CompetitionRound{ID: "round-1", Status: model.RoundActive}, nil).Once()
	mockVideoRepo.On("TopByViews", mock.Anything, "round-1", 50).Return([]*model.Video{
		{ID: "video-9", UserID: "user-9", Title: "First", ViewCount: 500},
		{ID: "video-4", UserID: "user-4", Title: "Second", ViewCount: 120},
	}, nil).Once()

	leaderboardUsecase := usecase.NewLeaderboardUsecase(mockVideoRepo, mockRoundRepo, nil, nil)
	entries, err := leaderboardUsecase.Leaderboard(context.Background(), "round-1", 10)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "video-9", entries[0].VideoID)
	assert.Equal(t, 2, entries[1].Rank)
	mockVideoRepo.AssertExpectations(t)
}

func TestLeaderboardUsecase_Leaderboard_EndedRoundServesSnapshot(t *testing.T) {
	mockVideoRepo := new(MockVideoRepo)
	mockRoundRepo := new(MockRoundRepo)

	mockRoundRepo.On("GetByID", mock.Anything, "round-1").
		Return(&model.CompetitionRound{ID: "round-1", Status: model.RoundEnded}, nil).Once()
	mockRoundRepo.On("GetRankingSnapshot", mock.Anything, "round-1").Return([]model.RankingEntry{
		{Rank: 1, VideoID: "video-9", ViewCount: 500},
	}, nil).Once()

	leaderboardUsecase := usecase.NewLeaderboardUsecase(mockVideoRepo, mockRoundRepo, nil, nil)
	entries, err := leaderboardUsecase.Leaderboard(context.Background(), "round-1", 10)

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "video-9", entries[0].VideoID)
	// Views arriving after end time do not reshuffle payouts.
	mockVideoRepo.AssertNotCalled(t, "TopByViews")
	mockRoundRepo.AssertExpectations(t)
}

func TestLeaderboardUsecase_RecordView(t *testing.T) {
	mockVideoRepo := new(MockVideoRepo)
	mockInteractionRepo := new(MockInteractionRepo)

	published := &model.Video{ID: "video-1", Status: model.VideoPublished}
	mockVideoRepo.On("GetByID", mock.Anything, "video-1").Return(published, nil).Once()
	mockInteractionRepo.On("Insert", mock.Anything, mock.MatchedBy(func(i *model.VideoInteraction) bool {
		return i.VideoID == "video-1" && i.Type == "view" && i.UserID != nil && *i.UserID == "viewer-1"
	})).Return(nil).Once()
	mockVideoRepo.On("IncrementViewCount", mock.Anything, "video-1").Return(nil).Once()

	leaderboardUsecase := usecase.NewLeaderboardUsecase(mockVideoRepo, new(MockRoundRepo), mockInteractionRepo, nil)
	err := leaderboardUsecase.RecordView(context.Background(), "video-1", dto.ViewRequest{ViewerID: "viewer-1"})

	require.NoError(t, err)
	mockVideoRepo.AssertExpectations(t)
	mockInteractionRepo.AssertExpectations(t)
}

func TestLeaderboardUsecase_RecordView_SuspendedHidden(t *testing.T) {
	mockVideoRepo := new(MockVideoRepo)

	suspended := &model.Video{ID: "video-1", Status: model.VideoSuspended}
	mockVideoRepo.On("GetByID", mock.Anything, "video-1").Return(suspended, nil).Once()

	leaderboardUsecase := usecase.NewLeaderboardUsecase(mockVideoRepo, new(MockRoundRepo), nil, nil)
	err := leaderboardUsecase.RecordView(context.Background(), "video-1", dto.ViewRequest{})

	assert.ErrorIs(t, err, model.ErrNotFound)
	mockVideoRepo.AssertNotCalled(t, "IncrementViewCount")
}
