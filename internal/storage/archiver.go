package storage

import (
	"context"
	"fmt"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// ResultArchiver optionally persists a copy of the output vector dataset
// before the job workspace is destroyed. Archival is best-effort: failures
// are the caller's to log, never to surface to the client.
type ResultArchiver interface {
	Archive(ctx context.Context, jobID, path string) error
}

// NoopArchiver is used when archival is not configured.
type NoopArchiver struct{}

func (NoopArchiver) Archive(context.Context, string, string) error {
	return nil
}

// AzureArchiver uploads result datasets to an Azure Blob container keyed by
// job id.
type AzureArchiver struct {
	client    *azblob.Client
	container string
}

func NewAzureArchiver(accountName, accountKey, container string) (*AzureArchiver, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, err
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, err
	}

	return &AzureArchiver{client: client, container: container}, nil
}

func (a *AzureArchiver) Archive(ctx context.Context, jobID, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open result dataset: %w", err)
	}
	defer f.Close()

	blobName := fmt.Sprintf("%s/result.gpkg", jobID)
	if _, err := a.client.UploadStream(ctx, a.container, blobName, f, nil); err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	return nil
}
