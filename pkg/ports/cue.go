package ports

import "github.com/aretw0/funnel/pkg/domain"

// CueSink receives fire-and-forget cue emissions.
// Play must not block the caller for longer than it takes to enqueue the cue.
type CueSink interface {
	Play(cue domain.Cue)
}
