package observability

import "github.com/aretw0/funnel/pkg/domain"

// FanOut combines event handlers into one. Nil handlers are skipped.
func FanOut(handlers ...func(domain.Event)) func(domain.Event) {
	live := make([]func(domain.Event), 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			live = append(live, h)
		}
	}
	return func(evt domain.Event) {
		for _, h := range live {
			h(evt)
		}
	}
}
