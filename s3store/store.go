// Package s3store implements guardar.Backend on an S3 compatible bucket.
package s3store

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pkg/errors"
)

type Options struct {
	Endpoint        string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Region          string `json:"region,omitempty" yaml:"region,omitempty"`
	DisableSSL      bool   `json:"disableSSL" yaml:"disableSSL"`
	ForcePathStyle  bool   `json:"forcePathStyle" yaml:"forcePathStyle"`
	AccessKeyID     string `json:"accessKeyID,omitempty" yaml:"accessKeyID,omitempty"`
	SecretAccessKey string `json:"secretAccessKey,omitempty" yaml:"secretAccessKey,omitempty"`
	SessionToken    string `json:"sessionToken,omitempty" yaml:"sessionToken,omitempty"`
	Bucket          string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	Prefix          string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
}

// Store keeps each backend key as the object prefix+key.
type Store struct {
	client s3iface.S3API
	bucket string
	prefix string
}

// New builds an S3 client from opt. Static credentials are used when an
// access key is given, otherwise the SDK's default chain applies.
func New(opt Options) (*Store, error) {
	if opt.Bucket == "" {
		return nil, errors.New("s3store: bucket is required")
	}
	config := aws.Config{
		Region:           aws.String(opt.Region),
		DisableSSL:       aws.Bool(opt.DisableSSL),
		S3ForcePathStyle: aws.Bool(opt.ForcePathStyle),
	}
	if opt.Endpoint != "" {
		config.Endpoint = aws.String(opt.Endpoint)
	}
	if opt.AccessKeyID != "" {
		config.Credentials = credentials.NewStaticCredentials(opt.AccessKeyID, opt.SecretAccessKey, opt.SessionToken)
	}
	sess, err := session.NewSession(&config)
	if err != nil {
		return nil, errors.Wrap(err, "s3store: create session")
	}
	return NewWithClient(s3.New(sess), opt.Bucket, opt.Prefix), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client s3iface.S3API, bucket, prefix string) *Store {
	return &Store{client: client, bucket: bucket, prefix: prefix}
}

func (s *Store) objectKey(key string) *string {
	return aws.String(s.prefix + key)
}

func (s *Store) GetItem(ctx context.Context, key string) (string, bool, error) {
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    s.objectKey(key),
	})
	if err != nil {
		if isNotFound(err) {
			return "", false, nil
		}
		return "", false, errors.Wrapf(err, "s3store: get %s", s.prefix+key)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return "", false, errors.Wrapf(err, "s3store: read %s", s.prefix+key)
	}
	return string(data), true, nil
}

func (s *Store) SetItem(ctx context.Context, key, value string) error {
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         s.objectKey(key),
		Body:        bytes.NewReader([]byte(value)),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return errors.Wrapf(err, "s3store: put %s", s.prefix+key)
	}
	return nil
}

func (s *Store) RemoveItem(ctx context.Context, key string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    s.objectKey(key),
	})
	if err != nil && !isNotFound(err) {
		return errors.Wrapf(err, "s3store: delete %s", s.prefix+key)
	}
	return nil
}

// isNotFound reports a missing object. A missing bucket is a real error.
func isNotFound(err error) bool {
	var awsErr awserr.Error
	if !errors.As(err, &awsErr) {
		return false
	}
	switch awsErr.Code() {
	case s3.ErrCodeNoSuchKey, "NotFound":
		return true
	case s3.ErrCodeNoSuchBucket:
		return false
	}
	var reqErr awserr.RequestFailure
	if errors.As(err, &reqErr) {
		return reqErr.StatusCode() == http.StatusNotFound
	}
	return false
}
