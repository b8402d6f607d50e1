package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/mpetrenko/notekeeper/internal/common"
	"github.com/mpetrenko/notekeeper/internal/server/access"
	sc "github.com/mpetrenko/notekeeper/internal/server/config"
	"github.com/mpetrenko/notekeeper/internal/server/models"
	"github.com/mpetrenko/notekeeper/internal/server/repositories/repomanager"
)

// Seams for testing the AWS SDK calls.
var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

const presignValidity = 15 * time.Minute

// AttachmentUploadTask tells the client where to PUT the attachment payload.
type AttachmentUploadTask struct {
	AttachmentID string `json:"attachment_id"`
	URL          string `json:"url"`
}

// AttachmentService manages note attachments: rows in Postgres, payloads in
// an S3-compatible backend reached through presigned URLs.
type AttachmentService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	gate   access.Gate
	config *sc.Config
}

// NewAttachmentService constructs the attachment service.
func NewAttachmentService(db *sql.DB, repos repomanager.RepositoryManager, gate access.Gate, config *sc.Config) *AttachmentService {
	return &AttachmentService{db: db, repos: repos, gate: gate, config: config}
}

// randomStorageKey spreads objects by date to keep bucket listings usable.
func randomStorageKey() string {
	d := time.Now()
	return fmt.Sprintf("notes/%d/%d/%d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *AttachmentService) getPresignClient() (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		awsconfig.WithRegion(s.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
	})

	return newS3PresignClient(client), nil
}

func (s *AttachmentService) presignedPutURL(ctx context.Context, key string) (string, error) {
	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket
	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignValidity))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

func (s *AttachmentService) presignedGetURL(ctx context.Context, key string) (string, error) {
	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket
	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignValidity))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

// loadEditableNote authorizes the actor for writes against the note.
func (s *AttachmentService) loadEditableNote(ctx context.Context, noteID, userID string) (*models.Note, error) {
	note, err := s.repos.Notes(s.db).GetByID(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if note.Deleted {
		return nil, common.ErrorNotFound
	}

	ok, err := s.gate.CanEditNote(ctx, userID, note)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrorForbidden
	}
	return note, nil
}

// RequestUpload registers a pending attachment and returns the presigned PUT
// URL the client uploads the payload to.
func (s *AttachmentService) RequestUpload(ctx context.Context, noteID, userID, fileName string) (*AttachmentUploadTask, error) {
	if _, err := s.loadEditableNote(ctx, noteID, userID); err != nil {
		return nil, err
	}

	key := randomStorageKey()
	url, err := s.presignedPutURL(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("presign error: %w", err)
	}

	attachment := &models.Attachment{
		ID:           uuid.NewString(),
		NoteID:       noteID,
		FileName:     fileName,
		StorageKey:   key,
		UploadStatus: models.UploadStatusPending,
		CreatedBy:    userID,
	}
	if err := s.repos.Attachments(s.db).Create(ctx, attachment); err != nil {
		return nil, err
	}

	return &AttachmentUploadTask{AttachmentID: attachment.ID, URL: url}, nil
}

// MarkUploaded records that the client finished its PUT.
func (s *AttachmentService) MarkUploaded(ctx context.Context, attachmentID, userID string) error {
	attachment, err := s.repos.Attachments(s.db).GetByID(ctx, attachmentID)
	if err != nil {
		return err
	}
	if _, err := s.loadEditableNote(ctx, attachment.NoteID, userID); err != nil {
		return err
	}
	return s.repos.Attachments(s.db).MarkUploaded(ctx, attachmentID)
}

// GetDownloadURL returns a presigned GET URL for an uploaded attachment.
func (s *AttachmentService) GetDownloadURL(ctx context.Context, attachmentID, userID string) (string, error) {
	attachment, err := s.repos.Attachments(s.db).GetByID(ctx, attachmentID)
	if err != nil {
		return "", err
	}

	note, err := s.repos.Notes(s.db).GetByID(ctx, attachment.NoteID)
	if err != nil {
		return "", err
	}
	if note.Deleted {
		return "", common.ErrorNotFound
	}
	ok, err := s.gate.CanAccessNote(ctx, userID, note)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", common.ErrorForbidden
	}

	url, err := s.presignedGetURL(ctx, attachment.StorageKey)
	if err != nil {
		return "", fmt.Errorf("presign error: %w", err)
	}
	return url, nil
}

// ListByNote returns the note's attachments after a view-capability check.
func (s *AttachmentService) ListByNote(ctx context.Context, noteID, userID string) ([]*models.Attachment, error) {
	note, err := s.repos.Notes(s.db).GetByID(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if note.Deleted {
		return nil, common.ErrorNotFound
	}
	ok, err := s.gate.CanAccessNote(ctx, userID, note)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrorForbidden
	}
	return s.repos.Attachments(s.db).ListByNote(ctx, noteID)
}
