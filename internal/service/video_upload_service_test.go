package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finplanner/internal/domain"
	"finplanner/internal/service/s3"
)

func TestInitiateUpload_Success(t *testing.T) {
	planRepo := newFakePlanStore()
	plan := planRepo.add("owner-1")
	videoRepo := newFakeVideoStore()
	storage := &fakeStorage{}
	s := NewVideoUploadService(planRepo, videoRepo, storage)

	session, err := s.InitiateUpload(context.Background(), plan.ID, "owner-1")
	require.NoError(t, err)

	assert.NotEmpty(t, session.UploadID)
	assert.True(t, strings.HasPrefix(session.ObjectKey, "inheritance_videos/owner-1/"))

	video, err := videoRepo.GetByUUID(context.Background(), session.VideoUUID)
	require.NoError(t, err)
	require.NotNil(t, video.UploadID)
	assert.Equal(t, session.UploadID, *video.UploadID)
}

func TestInitiateUpload_SecondAttemptRejected(t *testing.T) {
	planRepo := newFakePlanStore()
	plan := planRepo.add("owner-1")
	videoRepo := newFakeVideoStore()
	s := NewVideoUploadService(planRepo, videoRepo, &fakeStorage{})

	_, err := s.InitiateUpload(context.Background(), plan.ID, "owner-1")
	require.NoError(t, err)

	_, err = s.InitiateUpload(context.Background(), plan.ID, "owner-1")
	assert.ErrorIs(t, err, ErrVideoExists)
}

// racingVideoStore имитирует гонку двух инициаций: проверка существования
// видит пустой план, но вставка упирается в уникальное ограничение на plan_id
type racingVideoStore struct {
	*fakeVideoStore
}

func (r *racingVideoStore) GetByPlan(ctx context.Context, planID uuid.UUID) (*domain.Video, error) {
	return nil, nil
}

func TestInitiateUpload_UniqueViolationMapsToVideoExists(t *testing.T) {
	planRepo := newFakePlanStore()
	plan := planRepo.add("owner-1")
	videoRepo := newFakeVideoStore()
	videoRepo.add(plan.ID, "")
	s := NewVideoUploadService(planRepo, &racingVideoStore{videoRepo}, &fakeStorage{})

	_, err := s.InitiateUpload(context.Background(), plan.ID, "owner-1")
	assert.ErrorIs(t, err, ErrVideoExists)
}

func TestInitiateUpload_NotOwner(t *testing.T) {
	planRepo := newFakePlanStore()
	plan := planRepo.add("owner-1")
	s := NewVideoUploadService(planRepo, newFakeVideoStore(), &fakeStorage{})

	_, err := s.InitiateUpload(context.Background(), plan.ID, "intruder")
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestInitiateUpload_PlanNotFound(t *testing.T) {
	s := NewVideoUploadService(newFakePlanStore(), newFakeVideoStore(), &fakeStorage{})

	_, err := s.InitiateUpload(context.Background(), uuid.New(), "owner-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInitiateUpload_S3FailureRollsBackRecord(t *testing.T) {
	planRepo := newFakePlanStore()
	plan := planRepo.add("owner-1")
	videoRepo := newFakeVideoStore()
	storage := &fakeStorage{createUploadErr: errBoom}
	s := NewVideoUploadService(planRepo, videoRepo, storage)

	_, err := s.InitiateUpload(context.Background(), plan.ID, "owner-1")
	assert.ErrorIs(t, err, ErrS3Operation)
	// Запись не должна остаться без сессии загрузки
	assert.Empty(t, videoRepo.videos)
}

func TestGetPartUploadURL_Success(t *testing.T) {
	planRepo := newFakePlanStore()
	plan := planRepo.add("owner-1")
	videoRepo := newFakeVideoStore()
	video := videoRepo.add(plan.ID, "upload-1")
	storage := &fakeStorage{}
	s := NewVideoUploadService(planRepo, videoRepo, storage)

	url, err := s.GetPartUploadURL(context.Background(), video.UUID, "owner-1", "upload-1", 3)
	require.NoError(t, err)
	assert.Contains(t, url, "partNumber=3")
	assert.Equal(t, []int{3}, storage.presignedParts)
}

func TestGetPartUploadURL_WrongUploadID(t *testing.T) {
	planRepo := newFakePlanStore()
	plan := planRepo.add("owner-1")
	videoRepo := newFakeVideoStore()
	video := videoRepo.add(plan.ID, "upload-1")
	s := NewVideoUploadService(planRepo, videoRepo, &fakeStorage{})

	_, err := s.GetPartUploadURL(context.Background(), video.UUID, "owner-1", "stale-upload", 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetPartUploadURL_NoUploadInProgress(t *testing.T) {
	planRepo := newFakePlanStore()
	plan := planRepo.add("owner-1")
	videoRepo := newFakeVideoStore()
	video := videoRepo.add(plan.ID, "")
	s := NewVideoUploadService(planRepo, videoRepo, &fakeStorage{})

	_, err := s.GetPartUploadURL(context.Background(), video.UUID, "owner-1", "upload-1", 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetPartUploadURL_NotOwner(t *testing.T) {
	planRepo := newFakePlanStore()
	plan := planRepo.add("owner-1")
	videoRepo := newFakeVideoStore()
	video := videoRepo.add(plan.ID, "upload-1")
	s := NewVideoUploadService(planRepo, videoRepo, &fakeStorage{})

	_, err := s.GetPartUploadURL(context.Background(), video.UUID, "intruder", "upload-1", 1)
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestCompleteUpload_ClearsUploadID(t *testing.T) {
	planRepo := newFakePlanStore()
	plan := planRepo.add("owner-1")
	videoRepo := newFakeVideoStore()
	video := videoRepo.add(plan.ID, "upload-1")
	storage := &fakeStorage{}
	s := NewVideoUploadService(planRepo, videoRepo, storage)

	parts := []s3.CompletedPart{
		{PartNumber: 1, ETag: "etag-1"},
		{PartNumber: 2, ETag: "etag-2"},
	}
	err := s.CompleteUpload(context.Background(), video.UUID, "owner-1", "upload-1", parts)
	require.NoError(t, err)

	assert.Equal(t, 2, storage.completedParts)
	stored, err := videoRepo.GetByUUID(context.Background(), video.UUID)
	require.NoError(t, err)
	assert.Nil(t, stored.UploadID)
}

func TestCompleteUpload_S3Failure(t *testing.T) {
	planRepo := newFakePlanStore()
	plan := planRepo.add("owner-1")
	videoRepo := newFakeVideoStore()
	video := videoRepo.add(plan.ID, "upload-1")
	s := NewVideoUploadService(planRepo, videoRepo, &fakeStorage{completeErr: errBoom})

	err := s.CompleteUpload(context.Background(), video.UUID, "owner-1", "upload-1", nil)
	assert.ErrorIs(t, err, ErrS3Operation)

	// upload_id остается, попытку можно повторить
	stored, err := videoRepo.GetByUUID(context.Background(), video.UUID)
	require.NoError(t, err)
	assert.NotNil(t, stored.UploadID)
}

func TestDeleteVideo_RemovesObjectAndRecord(t *testing.T) {
	planRepo := newFakePlanStore()
	plan := planRepo.add("owner-1")
	videoRepo := newFakeVideoStore()
	video := videoRepo.add(plan.ID, "")
	storage := &fakeStorage{}
	s := NewVideoUploadService(planRepo, videoRepo, storage)

	err := s.DeleteVideo(context.Background(), video.UUID, "owner-1")
	require.NoError(t, err)

	assert.Equal(t, []string{video.ObjectKey}, storage.deletedKeys)
	assert.Empty(t, videoRepo.videos)
}

func TestDeleteVideo_AbortsInFlightUpload(t *testing.T) {
	planRepo := newFakePlanStore()
	plan := planRepo.add("owner-1")
	videoRepo := newFakeVideoStore()
	video := videoRepo.add(plan.ID, "upload-1")
	storage := &fakeStorage{}
	s := NewVideoUploadService(planRepo, videoRepo, storage)

	err := s.DeleteVideo(context.Background(), video.UUID, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"upload-1"}, storage.abortedUploads)
}

func TestDeleteVideo_S3FailureKeepsRecord(t *testing.T) {
	planRepo := newFakePlanStore()
	plan := planRepo.add("owner-1")
	videoRepo := newFakeVideoStore()
	video := videoRepo.add(plan.ID, "")
	s := NewVideoUploadService(planRepo, videoRepo, &fakeStorage{deleteObjectErr: errBoom})

	err := s.DeleteVideo(context.Background(), video.UUID, "owner-1")
	assert.ErrorIs(t, err, ErrS3Operation)
	// Запись остается, удаление можно повторить
	assert.Len(t, videoRepo.videos, 1)
}

func TestDeleteVideo_NotOwner(t *testing.T) {
	planRepo := newFakePlanStore()
	plan := planRepo.add("owner-1")
	videoRepo := newFakeVideoStore()
	video := videoRepo.add(plan.ID, "")
	s := NewVideoUploadService(planRepo, videoRepo, &fakeStorage{})

	err := s.DeleteVideo(context.Background(), video.UUID, "intruder")
	assert.ErrorIs(t, err, ErrAccessDenied)
	assert.Len(t, videoRepo.videos, 1)
}

func TestVideoForPlan_NoVideo(t *testing.T) {
	planRepo := newFakePlanStore()
	plan := planRepo.add("owner-1")
	s := NewVideoUploadService(planRepo, newFakeVideoStore(), &fakeStorage{})

	_, err := s.VideoForPlan(context.Background(), plan.ID, "owner-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVideoForPlan_ReturnsVideo(t *testing.T) {
	planRepo := newFakePlanStore()
	plan := planRepo.add("owner-1")
	videoRepo := newFakeVideoStore()
	video := videoRepo.add(plan.ID, "")
	s := NewVideoUploadService(planRepo, videoRepo, &fakeStorage{})

	got, err := s.VideoForPlan(context.Background(), plan.ID, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, video.UUID, got.UUID)
}
