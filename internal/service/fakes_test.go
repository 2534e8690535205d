package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"finplanner/internal/domain"
	"finplanner/internal/service/s3"
)

// -------- test fakes --------

type fakePlanStore struct {
	plans map[uuid.UUID]*domain.Plan

	createErr error
	updateErr error
}

func newFakePlanStore() *fakePlanStore {
	return &fakePlanStore{plans: make(map[uuid.UUID]*domain.Plan)}
}

func (f *fakePlanStore) Create(ctx context.Context, plan *domain.Plan) error {
	if f.createErr != nil {
		return f.createErr
	}
	cp := *plan
	f.plans[plan.ID] = &cp
	return nil
}

func (f *fakePlanStore) Update(ctx context.Context, plan *domain.Plan) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	cp := *plan
	f.plans[plan.ID] = &cp
	return nil
}

func (f *fakePlanStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Plan, error) {
	plan, ok := f.plans[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *plan
	return &cp, nil
}

func (f *fakePlanStore) GetByOwner(ctx context.Context, ownerID string) (*domain.Plan, error) {
	for _, plan := range f.plans {
		if plan.OwnerID == ownerID {
			cp := *plan
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakePlanStore) add(ownerID string) *domain.Plan {
	plan := &domain.Plan{ID: uuid.New(), OwnerID: ownerID, TotalAssets: 1000}
	f.plans[plan.ID] = plan
	return plan
}

type fakeVideoStore struct {
	videos map[uuid.UUID]*domain.Video

	createErr    error
	setUploadErr error
	deleteErr    error
}

func newFakeVideoStore() *fakeVideoStore {
	return &fakeVideoStore{videos: make(map[uuid.UUID]*domain.Video)}
}

func (f *fakeVideoStore) Create(ctx context.Context, video *domain.Video) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, v := range f.videos {
		if v.PlanID == video.PlanID {
			return &pq.Error{Code: "23505"}
		}
	}
	cp := *video
	f.videos[video.UUID] = &cp
	return nil
}

func (f *fakeVideoStore) GetByUUID(ctx context.Context, id uuid.UUID) (*domain.Video, error) {
	video, ok := f.videos[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *video
	return &cp, nil
}

func (f *fakeVideoStore) GetByPlan(ctx context.Context, planID uuid.UUID) (*domain.Video, error) {
	for _, video := range f.videos {
		if video.PlanID == planID {
			cp := *video
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeVideoStore) SetUploadID(ctx context.Context, id uuid.UUID, uploadID string) error {
	if f.setUploadErr != nil {
		return f.setUploadErr
	}
	video, ok := f.videos[id]
	if !ok {
		return sql.ErrNoRows
	}
	video.UploadID = &uploadID
	return nil
}

func (f *fakeVideoStore) ClearUploadID(ctx context.Context, id uuid.UUID) error {
	video, ok := f.videos[id]
	if !ok {
		return sql.ErrNoRows
	}
	video.UploadID = nil
	return nil
}

func (f *fakeVideoStore) Delete(ctx context.Context, id uuid.UUID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.videos[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.videos, id)
	return nil
}

func (f *fakeVideoStore) add(planID uuid.UUID, uploadID string) *domain.Video {
	video := &domain.Video{
		UUID:      uuid.New(),
		PlanID:    planID,
		ObjectKey: fmt.Sprintf("inheritance_videos/test/%s", uuid.New()),
	}
	if uploadID != "" {
		video.UploadID = &uploadID
	}
	f.videos[video.UUID] = video
	return video
}

type fakeRecipientStore struct {
	recipients []*domain.Recipient

	createErr     error
	createErrOnce bool
}

func (f *fakeRecipientStore) Create(ctx context.Context, recipient *domain.Recipient) error {
	if f.createErr != nil {
		err := f.createErr
		if f.createErrOnce {
			f.createErr = nil
		}
		return err
	}
	cp := *recipient
	f.recipients = append(f.recipients, &cp)
	return nil
}

func (f *fakeRecipientStore) GetByVideo(ctx context.Context, videoUUID uuid.UUID) ([]domain.Recipient, error) {
	var out []domain.Recipient
	for _, r := range f.recipients {
		if r.VideoUUID == videoUUID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRecipientStore) ProcessDue(ctx context.Context, now time.Time, deliver func(recipient *domain.Recipient) bool) (int, error) {
	sent := 0
	for _, r := range f.recipients {
		if r.ActualSentDate != nil || r.ScheduledSendDate.After(now) {
			continue
		}
		cp := *r
		if deliver(&cp) {
			ts := now
			r.ActualSentDate = &ts
			sent++
		}
	}
	return sent, nil
}

func (f *fakeRecipientStore) ConsumeToken(ctx context.Context, token string) (*domain.Recipient, error) {
	for _, r := range f.recipients {
		if r.AccessToken == token && !r.Used {
			r.Used = true
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeRecipientStore) add(videoUUID uuid.UUID, email, token string, scheduled time.Time) *domain.Recipient {
	r := &domain.Recipient{
		ID:                uuid.New(),
		VideoUUID:         videoUUID,
		Email:             email,
		ScheduledSendDate: scheduled,
		AccessToken:       token,
	}
	f.recipients = append(f.recipients, r)
	return r
}

type fakeStorage struct {
	createUploadErr    error
	presignPartErr     error
	completeErr        error
	abortErr           error
	presignDownload    string
	presignDownloadErr error
	deleteObjectErr    error

	createdUploads []string
	abortedUploads []string
	completedParts int
	deletedKeys    []string
	presignedParts []int
}

func (f *fakeStorage) CreateMultipartUpload(ctx context.Context, key string) (string, error) {
	if f.createUploadErr != nil {
		return "", f.createUploadErr
	}
	uploadID := fmt.Sprintf("upload-%d", len(f.createdUploads)+1)
	f.createdUploads = append(f.createdUploads, uploadID)
	return uploadID, nil
}

func (f *fakeStorage) PresignUploadPart(ctx context.Context, uploadID string, key string, partNumber int, ttl time.Duration) (string, error) {
	if f.presignPartErr != nil {
		return "", f.presignPartErr
	}
	f.presignedParts = append(f.presignedParts, partNumber)
	return fmt.Sprintf("https://storage.example.com/%s?uploadId=%s&partNumber=%d", key, uploadID, partNumber), nil
}

func (f *fakeStorage) CompleteMultipartUpload(ctx context.Context, uploadID string, key string, parts []s3.CompletedPart) error {
	if f.completeErr != nil {
		return f.completeErr
	}
	f.completedParts = len(parts)
	return nil
}

func (f *fakeStorage) AbortMultipartUpload(ctx context.Context, uploadID string, key string) error {
	f.abortedUploads = append(f.abortedUploads, uploadID)
	return f.abortErr
}

func (f *fakeStorage) PresignDownload(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if f.presignDownloadErr != nil {
		return "", f.presignDownloadErr
	}
	if f.presignDownload != "" {
		return f.presignDownload, nil
	}
	return "https://storage.example.com/" + key, nil
}

func (f *fakeStorage) DeleteObject(ctx context.Context, key string) error {
	if f.deleteObjectErr != nil {
		return f.deleteObjectErr
	}
	f.deletedKeys = append(f.deletedKeys, key)
	return nil
}

type fakeMailer struct {
	sendErr error

	sent map[string][]string
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{sent: make(map[string][]string)}
}

func (f *fakeMailer) Send(ctx context.Context, to string, link string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent[to] = append(f.sent[to], link)
	return nil
}

var errBoom = errors.New("boom")
