package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
)

// ObjectStore defines the object storage operations the asset pipeline uses.
type ObjectStore interface {
	Head(ctx context.Context, key string) (size int64, exists bool, err error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Put(ctx context.Context, key, contentType string, body io.Reader) error
	Copy(ctx context.Context, srcKey, dstKey string) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) (int, error)
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Store handles object storage for originals and renditions against an
// S3-compatible endpoint (MinIO, Ceph RGW, AWS).
type Store struct {
	logger zerolog.Logger
	client *s3.Client
	bucket string
}

// NewStore creates a Store for a single bucket.
func NewStore(logger zerolog.Logger, endpoint, region, bucket, accessKey, secretKey string) *Store {
	client := s3.New(s3.Options{
		BaseEndpoint: aws.String(endpoint),
		Region:       region,
		Credentials:  credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		UsePathStyle: true,
	})
	return &Store{
		logger: logger.With().Str("component", "storage").Logger(),
		client: client,
		bucket: bucket,
	}
}

// EnsureBucket creates the bucket if it does not exist yet.
func (s *Store) EnsureBucket(ctx context.Context) error {
	_, err := s.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		// If the bucket already exists, that's fine.
		if !strings.Contains(err.Error(), "BucketAlreadyExists") &&
			!strings.Contains(err.Error(), "BucketAlreadyOwnedByYou") {
			return fmt.Errorf("create bucket %s: %w", s.bucket, err)
		}
	} else {
		s.logger.Info().Str("bucket", s.bucket).Msg("created bucket")
	}
	return nil
}

// Put uploads an object.
func (s *Store) Put(ctx context.Context, key, contentType string, body io.Reader) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	s.logger.Debug().Str("key", key).Msg("stored object")
	return nil
}

// Get returns the object body. The caller closes it.
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	return out.Body, nil
}

// Head returns the object size, or exists=false when the key is absent.
func (s *Store) Head(ctx context.Context, key string) (int64, bool, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if strings.Contains(err.Error(), "NotFound") || strings.Contains(err.Error(), "404") {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("head object %s: %w", key, err)
	}
	return aws.ToInt64(out.ContentLength), true, nil
}

// Copy duplicates an object within the bucket.
func (s *Store) Copy(ctx context.Context, srcKey, dstKey string) error {
	_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.bucket),
		CopySource: aws.String(s.bucket + "/" + srcKey),
		Key:        aws.String(dstKey),
	})
	if err != nil {
		return fmt.Errorf("copy object %s to %s: %w", srcKey, dstKey, err)
	}
	s.logger.Debug().Str("src", srcKey).Str("dst", dstKey).Msg("copied object")
	return nil
}

// Delete removes a single object. Missing keys are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil && !strings.Contains(err.Error(), "NoSuchKey") {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

// DeletePrefix removes every object under the prefix, returning the count.
// Used when an asset or tenant is deleted.
func (s *Store) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	deleted := 0
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return deleted, fmt.Errorf("list objects under %s: %w", prefix, err)
		}
		if len(page.Contents) == 0 {
			break
		}
		objects := make([]s3types.ObjectIdentifier, len(page.Contents))
		for i, obj := range page.Contents {
			objects[i] = s3types.ObjectIdentifier{Key: obj.Key}
		}
		_, err = s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &s3types.Delete{Objects: objects},
		})
		if err != nil {
			return deleted, fmt.Errorf("delete objects under %s: %w", prefix, err)
		}
		deleted += len(objects)
	}
	if deleted > 0 {
		s.logger.Info().Str("prefix", prefix).Int("count", deleted).Msg("deleted objects")
	}
	return deleted, nil
}

// PresignGet returns a time-limited download URL for the object.
func (s *Store) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	presigner := s3.NewPresignClient(s.client)
	req, err := presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign object %s: %w", key, err)
	}
	return req.URL, nil
}
