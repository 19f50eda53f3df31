// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package artifact

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	exporterrors "github.com/sirseerhq/sirseer-export/internal/errors"
	"github.com/sirseerhq/sirseer-export/internal/source"
)

// S3Store keeps artifacts under a bucket prefix. This is the backend for
// multi-host topologies: every worker resolves the same objects regardless
// of which machine it runs on.
type S3Store struct {
	bucket   string
	prefix   string
	client   *s3.S3
	uploader *s3manager.Uploader
}

// NewS3Store creates a store over bucket/prefix in the given region.
// Credentials come from the standard AWS chain (env, shared config, IAM).
func NewS3Store(bucket, prefix, region string) (*S3Store, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("failed to create aws session: %w", err)
	}
	return &S3Store{
		bucket:   bucket,
		prefix:   prefix,
		client:   s3.New(sess),
		uploader: s3manager.NewUploader(sess),
	}, nil
}

// Open resolves the handle for key. S3 has no directories to create, so
// this only binds the key to the store.
func (s *S3Store) Open(_ context.Context, key string) (Handle, error) {
	return &s3Handle{store: s, key: key}, nil
}

type s3Handle struct {
	store *S3Store
	key   string
}

func (h *s3Handle) Key() string { return h.key }

func (h *s3Handle) objectKey(index int) string {
	return path.Join(h.store.prefix, h.key, partName(index))
}

// WritePart uploads the part. PutObject is atomic per object, and the
// object key is derived from the chunk index, so redelivery overwrites the
// same object with identical content.
func (h *s3Handle) WritePart(ctx context.Context, index int, rows []source.Row) error {
	data, err := encodeRows(rows)
	if err != nil {
		return err
	}

	_, err = h.store.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(h.store.bucket),
		Key:    aws.String(h.objectKey(index)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("failed to upload part %d: %w", index, err)
	}
	return nil
}

func (h *s3Handle) ReadPart(ctx context.Context, index int) ([]source.Row, error) {
	out, err := h.store.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(h.store.bucket),
		Key:    aws.String(h.objectKey(index)),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && aerr.Code() == s3.ErrCodeNoSuchKey {
			return nil, fmt.Errorf("%w: s3://%s/%s", exporterrors.ErrArtifactNotFound,
				h.store.bucket, h.objectKey(index))
		}
		return nil, fmt.Errorf("failed to fetch part %d: %w", index, err)
	}
	defer out.Body.Close()

	return decodeRows(out.Body)
}

func (h *s3Handle) Merge(ctx context.Context, total int, fn func(rows []source.Row) error) error {
	for index := 0; index < total; index++ {
		rows, err := h.ReadPart(ctx, index)
		if err != nil {
			return err
		}
		if err := fn(rows); err != nil {
			return err
		}
	}
	return nil
}

// Discard deletes every object under the artifact's key prefix.
func (h *s3Handle) Discard(ctx context.Context) error {
	prefix := path.Join(h.store.prefix, h.key) + "/"

	var deleteErr error
	err := h.store.client.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(h.store.bucket),
		Prefix: aws.String(prefix),
	}, func(page *s3.ListObjectsV2Output, _ bool) bool {
		if len(page.Contents) == 0 {
			return true
		}
		objects := make([]*s3.ObjectIdentifier, 0, len(page.Contents))
		for _, obj := range page.Contents {
			objects = append(objects, &s3.ObjectIdentifier{Key: obj.Key})
		}
		_, deleteErr = h.store.client.DeleteObjectsWithContext(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(h.store.bucket),
			Delete: &s3.Delete{Objects: objects, Quiet: aws.Bool(true)},
		})
		return deleteErr == nil
	})
	if err != nil {
		return fmt.Errorf("failed to list artifact parts: %w", err)
	}
	if deleteErr != nil {
		return fmt.Errorf("failed to discard artifact: %w", deleteErr)
	}
	return nil
}
