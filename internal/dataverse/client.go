package dataverse

import (
	"context"

	"github.com/dmitrijs2005/dvcurate/internal/models"
)

type Client interface {
	// Negotiate asks for a single-use upload ticket for a file of size bytes.
	Negotiate(ctx context.Context, datasetPID string, size int64) models.NegotiationResult

	// AddFiles registers all descriptors with the dataset in one request.
	// An empty slice is still submitted.
	AddFiles(ctx context.Context, datasetPID string, descriptors []models.FileDescriptor) (bool, error)
}
