//go:build integration

package minio

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/marmos91/nbcontents/pkg/backend"
	backendtesting "github.com/marmos91/nbcontents/pkg/backend/testing"
	"github.com/stretchr/testify/require"
)

func TestMinIOBackendConformance(t *testing.T) {
	endpoint := backendtesting.StartMinIO(t)

	suite := &backendtesting.BackendTestSuite{
		NewBackend: func(t *testing.T) backend.Backend {
			// Each test gets its own prefix so they share the bucket.
			b, err := New(context.Background(), Config{
				Endpoint:  endpoint,
				Bucket:    backendtesting.MinIOBucket,
				AccessKey: backendtesting.MinIOAccessKey,
				SecretKey: backendtesting.MinIOSecretKey,
				Prefix:    uuid.NewString(),
			})
			require.NoError(t, err)
			return b
		},
		StoresMimeType: true,
	}
	suite.Run(t)
}

func TestMinIOMissingBucket(t *testing.T) {
	endpoint := backendtesting.StartMinIO(t)

	_, err := New(context.Background(), Config{
		Endpoint:  endpoint,
		Bucket:    "does-not-exist",
		AccessKey: backendtesting.MinIOAccessKey,
		SecretKey: backendtesting.MinIOSecretKey,
	})
	require.Error(t, err)
}
