package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"portal/internal/config"
	"portal/internal/interfaces"
)

var (
	ErrInvalidStudentID = errors.New("invalid student id")
	ErrPhotoNotFound    = errors.New("photo not found")
)

var studentIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,31}$`)

func photoName(studentID string) (string, error) {
	if !studentIDPattern.MatchString(studentID) {
		return "", ErrInvalidStudentID
	}
	return studentID + ".jpg", nil
}

// S3PhotoStore keeps photographs under <prefix><student_id>.jpg in a bucket.
type S3PhotoStore struct {
	client     *s3.Client
	bucket     string
	prefix     string
	defaultKey string
}

var _ interfaces.PhotoStore = (*S3PhotoStore)(nil)

func NewS3PhotoStore(cfg *config.S3Config) *S3PhotoStore {
	return &S3PhotoStore{
		client:     cfg.Client,
		bucket:     cfg.Bucket,
		prefix:     cfg.PhotoPrefix,
		defaultKey: cfg.DefaultPhotoKey,
	}
}

func (s *S3PhotoStore) Open(ctx context.Context, studentID string) (io.ReadCloser, error) {
	name, err := photoName(studentID)
	if err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefix + name),
	})
	if err == nil {
		return out.Body, nil
	}
	var nsk *types.NoSuchKey
	if !errors.As(err, &nsk) {
		return nil, fmt.Errorf("get photo %s: %w", name, err)
	}
	if s.defaultKey == "" {
		return nil, ErrPhotoNotFound
	}

	out, err = s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.defaultKey),
	})
	if err != nil {
		if errors.As(err, &nsk) {
			return nil, ErrPhotoNotFound
		}
		return nil, fmt.Errorf("get default photo: %w", err)
	}
	return out.Body, nil
}

func (s *S3PhotoStore) Save(ctx context.Context, studentID string, body io.Reader) error {
	name, err := photoName(studentID)
	if err != nil {
		return err
	}

	uploader := manager.NewUploader(s.client)
	_, err = uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.prefix + name),
		Body:        body,
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		return fmt.Errorf("upload photo %s: %w", name, err)
	}
	return nil
}

// FilePhotoStore serves photographs from a local directory.
type FilePhotoStore struct {
	Dir          string
	DefaultPhoto string
}

var _ interfaces.PhotoStore = (*FilePhotoStore)(nil)

func (s *FilePhotoStore) Open(ctx context.Context, studentID string) (io.ReadCloser, error) {
	name, err := photoName(studentID)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.Dir, name))
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, os.ErrNotExist) || s.DefaultPhoto == "" {
		return nil, err
	}
	return os.Open(s.DefaultPhoto)
}

func (s *FilePhotoStore) Save(ctx context.Context, studentID string, body io.Reader) error {
	name, err := photoName(studentID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.Dir, name+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(s.Dir, name))
}
