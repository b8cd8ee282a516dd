package ports

import (
	"context"

	"github.com/aretw0/funnel/pkg/domain"
)

// LeadCollector ships captured contact data to an external endpoint.
type LeadCollector interface {
	Submit(ctx context.Context, lead domain.Lead) error
}
