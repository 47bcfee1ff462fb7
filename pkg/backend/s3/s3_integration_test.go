//go:build integration

package s3

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/marmos91/nbcontents/pkg/backend"
	backendtesting "github.com/marmos91/nbcontents/pkg/backend/testing"
	"github.com/stretchr/testify/require"
)

func TestS3BackendConformance(t *testing.T) {
	endpoint := backendtesting.StartMinIO(t)

	suite := &backendtesting.BackendTestSuite{
		NewBackend: func(t *testing.T) backend.Backend {
			b, err := New(context.Background(), Config{
				Bucket:          backendtesting.MinIOBucket,
				Region:          "us-east-1",
				Endpoint:        "http://" + endpoint,
				AccessKeyID:     backendtesting.MinIOAccessKey,
				SecretAccessKey: backendtesting.MinIOSecretKey,
				ForcePathStyle:  true,
				Prefix:          uuid.NewString(),
			})
			require.NoError(t, err)
			return b
		},
		StoresMimeType: true,
	}
	suite.Run(t)
}
