package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/invoicer/backend/internal/infrastructure/config"
	"github.com/invoicer/backend/internal/infrastructure/printing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// MockObjectAPI is a mock implementation of ObjectAPI
type MockObjectAPI struct {
	mock.Mock
}

func (m *MockObjectAPI) PutObject(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.PutObjectOutput), args.Error(1)
}

func (m *MockObjectAPI) GetObject(ctx context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.GetObjectOutput), args.Error(1)
}

func (m *MockObjectAPI) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.DeleteObjectOutput), args.Error(1)
}

func (m *MockObjectAPI) HeadBucket(ctx context.Context, params *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.HeadBucketOutput), args.Error(1)
}

func (m *MockObjectAPI) CreateBucket(ctx context.Context, params *s3.CreateBucketInput, _ ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.CreateBucketOutput), args.Error(1)
}

// MockPresigner is a mock implementation of Presigner
type MockPresigner struct {
	mock.Mock
}

func (m *MockPresigner) PresignGetObject(ctx context.Context, params *s3.GetObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*v4.PresignedHTTPRequest), args.Error(1)
}

func validConfig() *config.StorageConfig {
	return &config.StorageConfig{
		Type:      config.StorageS3,
		Bucket:    "invoices",
		AccessKey: "test-key",
		SecretKey: "test-secret",
		Endpoint:  "http://localhost:9000",
		Prefix:    "/archive/",
	}
}

func newMockStorage(t *testing.T) (*S3DocumentStorage, *MockObjectAPI, *MockPresigner) {
	client := new(MockObjectAPI)
	presigner := new(MockPresigner)
	s, err := NewS3DocumentStorage(validConfig(),
		WithClient(client, presigner),
		WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	return s, client, presigner
}

func storageErrorCode(t *testing.T, err error) string {
	t.Helper()
	var renderErr *printing.RenderError
	require.True(t, errors.As(err, &renderErr), "expected RenderError, got %v", err)
	return renderErr.Code
}

func TestNewS3DocumentStorage_Validation(t *testing.T) {
	t.Run("nil config returns error", func(t *testing.T) {
		_, err := NewS3DocumentStorage(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration is required")
	})

	tests := []struct {
		name    string
		mutate  func(*config.StorageConfig)
		wantErr string
	}{
		{"missing bucket", func(c *config.StorageConfig) { c.Bucket = "" }, "bucket is required"},
		{"missing access key", func(c *config.StorageConfig) { c.AccessKey = "" }, "access key is required"},
		{"missing secret key", func(c *config.StorageConfig) { c.SecretKey = "" }, "secret key is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			_, err := NewS3DocumentStorage(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("valid config creates storage", func(t *testing.T) {
		cfg := validConfig()
		cfg.PresignExpiration = 30 * time.Minute
		s, err := NewS3DocumentStorage(cfg)
		require.NoError(t, err)
		assert.Equal(t, "invoices", s.GetBucket())
		assert.Equal(t, "archive", s.prefix)
		assert.Equal(t, 30*time.Minute, s.presignExpiration)
	})

	t.Run("default presign expiration is 15 minutes", func(t *testing.T) {
		s, err := NewS3DocumentStorage(validConfig())
		require.NoError(t, err)
		assert.Equal(t, 15*time.Minute, s.presignExpiration)
	})

	t.Run("WithPresignExpiration overrides config", func(t *testing.T) {
		s, err := NewS3DocumentStorage(validConfig(), WithPresignExpiration(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, time.Hour, s.presignExpiration)
	})
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		useSSL   bool
		want     string
	}{
		{"default is localhost", "", false, "http://localhost:9000"},
		{"adds http prefix", "minio:9000", false, "http://minio:9000"},
		{"adds https prefix with SSL", "s3.example.com", true, "https://s3.example.com"},
		{"keeps explicit scheme", "https://s3.eu-west-2.amazonaws.com", false, "https://s3.eu-west-2.amazonaws.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeEndpoint(tt.endpoint, tt.useSSL)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestS3DocumentStorage_Store(t *testing.T) {
	ctx := context.Background()
	req := &printing.StoreRequest{
		Filename: "INV-2025-007_Northwind_Ltd.pdf",
		IssuedAt: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
		PDFData:  []byte("%PDF-1.3 test"),
	}
	wantKey := "archive/2025/03/INV-2025-007_Northwind_Ltd.pdf"

	t.Run("uploads under prefix and presigns", func(t *testing.T) {
		s, client, presigner := newMockStorage(t)

		client.On("PutObject", ctx, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
			return aws.ToString(in.Bucket) == "invoices" &&
				aws.ToString(in.Key) == wantKey &&
				aws.ToString(in.ContentType) == "application/pdf" &&
				aws.ToString(in.ContentDisposition) == `attachment; filename="INV-2025-007_Northwind_Ltd.pdf"` &&
				in.Body != nil
		})).Return(&s3.PutObjectOutput{}, nil)
		presigner.On("PresignGetObject", ctx, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
			return aws.ToString(in.Key) == wantKey
		})).Return(&v4.PresignedHTTPRequest{URL: "https://s3.test/" + wantKey + "?sig=1"}, nil)

		result, err := s.Store(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "2025/03/INV-2025-007_Northwind_Ltd.pdf", result.Path)
		assert.Equal(t, "https://s3.test/"+wantKey+"?sig=1", result.URL)
		assert.Equal(t, int64(len(req.PDFData)), result.Size)
		client.AssertExpectations(t)
		presigner.AssertExpectations(t)
	})

	t.Run("presign failure still stores", func(t *testing.T) {
		s, client, presigner := newMockStorage(t)
		client.On("PutObject", ctx, mock.Anything).Return(&s3.PutObjectOutput{}, nil)
		presigner.On("PresignGetObject", ctx, mock.Anything).Return(nil, errors.New("no credentials"))

		result, err := s.Store(ctx, req)
		require.NoError(t, err)
		assert.Empty(t, result.URL)
		assert.Equal(t, "2025/03/INV-2025-007_Northwind_Ltd.pdf", result.Path)
	})

	t.Run("upload failure", func(t *testing.T) {
		s, client, _ := newMockStorage(t)
		client.On("PutObject", ctx, mock.Anything).Return(nil, errors.New("access denied"))

		_, err := s.Store(ctx, req)
		require.Error(t, err)
		assert.Equal(t, printing.ErrCodeStorageFailed, storageErrorCode(t, err))
		assert.Contains(t, err.Error(), "access denied")
	})

	t.Run("invalid request never reaches S3", func(t *testing.T) {
		s, client, _ := newMockStorage(t)

		_, err := s.Store(ctx, &printing.StoreRequest{Filename: "a/b.pdf", PDFData: []byte("x")})
		require.Error(t, err)
		_, err = s.Store(ctx, nil)
		require.Error(t, err)
		client.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything)
	})
}

func TestS3DocumentStorage_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("returns object body", func(t *testing.T) {
		s, client, _ := newMockStorage(t)
		client.On("GetObject", ctx, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
			return aws.ToString(in.Key) == "archive/2025/03/INV-1.pdf"
		})).Return(&s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("%PDF"))}, nil)

		rc, err := s.Get(ctx, "2025/03/INV-1.pdf")
		require.NoError(t, err)
		defer rc.Close()
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "%PDF", string(data))
	})

	t.Run("missing key", func(t *testing.T) {
		s, client, _ := newMockStorage(t)
		client.On("GetObject", ctx, mock.Anything).Return(nil, &types.NoSuchKey{})

		_, err := s.Get(ctx, "2025/03/missing.pdf")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "PDF not found")
	})

	t.Run("other failures", func(t *testing.T) {
		s, client, _ := newMockStorage(t)
		client.On("GetObject", ctx, mock.Anything).Return(nil, errors.New("timeout"))

		_, err := s.Get(ctx, "2025/03/INV-1.pdf")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to download PDF")
	})

	for _, p := range []string{"", "/etc/passwd", "../secret.pdf", `2025\..\..\x.pdf`} {
		t.Run("rejects "+p, func(t *testing.T) {
			s, client, _ := newMockStorage(t)
			_, err := s.Get(ctx, p)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid path")
			client.AssertNotCalled(t, "GetObject", mock.Anything, mock.Anything)
		})
	}
}

func TestS3DocumentStorage_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes object", func(t *testing.T) {
		s, client, _ := newMockStorage(t)
		client.On("DeleteObject", ctx, mock.MatchedBy(func(in *s3.DeleteObjectInput) bool {
			return aws.ToString(in.Key) == "archive/2025/03/INV-1.pdf"
		})).Return(&s3.DeleteObjectOutput{}, nil)

		require.NoError(t, s.Delete(ctx, "2025/03/INV-1.pdf"))
		client.AssertExpectations(t)
	})

	t.Run("failure is wrapped", func(t *testing.T) {
		s, client, _ := newMockStorage(t)
		client.On("DeleteObject", ctx, mock.Anything).Return(nil, errors.New("forbidden"))

		err := s.Delete(ctx, "2025/03/INV-1.pdf")
		require.Error(t, err)
		assert.Equal(t, printing.ErrCodeStorageFailed, storageErrorCode(t, err))
	})

	t.Run("rejects traversal", func(t *testing.T) {
		s, _, _ := newMockStorage(t)
		require.Error(t, s.Delete(ctx, "../../x.pdf"))
	})
}

func TestS3DocumentStorage_EnsureBucket(t *testing.T) {
	ctx := context.Background()

	t.Run("bucket exists", func(t *testing.T) {
		s, client, _ := newMockStorage(t)
		client.On("HeadBucket", ctx, mock.Anything).Return(&s3.HeadBucketOutput{}, nil)

		require.NoError(t, s.EnsureBucket(ctx))
		client.AssertNotCalled(t, "CreateBucket", mock.Anything, mock.Anything)
	})

	t.Run("creates missing bucket", func(t *testing.T) {
		s, client, _ := newMockStorage(t)
		client.On("HeadBucket", ctx, mock.Anything).Return(nil, &types.NotFound{})
		client.On("CreateBucket", ctx, mock.MatchedBy(func(in *s3.CreateBucketInput) bool {
			return aws.ToString(in.Bucket) == "invoices"
		})).Return(&s3.CreateBucketOutput{}, nil)

		require.NoError(t, s.EnsureBucket(ctx))
		client.AssertExpectations(t)
	})

	t.Run("bucket created concurrently", func(t *testing.T) {
		s, client, _ := newMockStorage(t)
		client.On("HeadBucket", ctx, mock.Anything).Return(nil, &types.NoSuchBucket{})
		client.On("CreateBucket", ctx, mock.Anything).Return(nil, &types.BucketAlreadyOwnedByYou{})

		require.NoError(t, s.EnsureBucket(ctx))
	})

	t.Run("head failure", func(t *testing.T) {
		s, client, _ := newMockStorage(t)
		client.On("HeadBucket", ctx, mock.Anything).Return(nil, errors.New("forbidden"))

		err := s.EnsureBucket(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to check bucket existence")
	})
}
