/*
Package funnel is a scripted conversation funnel: a timed chat simulation, a page
customization wizard and an offer page, stitched together by persisted progress flags.

It follows a hexagonal layout. The timer-driven script player (pkg/player) is pure and
talks to the outside world through ports (pkg/ports): a Scheduler for time, FlagStores
for the visitor's local and browser-session scopes, a CueSink for audio and a
LeadCollector for captured contacts. Adapters provide memory, file and Redis stores, a
real and a virtual clock, and a chi based HTTP server with an SSE event stream.

# Usage

	app, err := funnel.New(
		funnel.WithCheckoutURL("https://pay.example/checkout"),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer app.Close()

	srv := app.Server(clock.NewReal())
	defer srv.Close()
	log.Fatal(http.ListenAndServe(":8080", srv.Handler()))

A single conversation can also be played without HTTP:

	eng, err := app.Conversation(clock.NewReal(), script.ConversationBefore, "Ana",
		conversation.WithEventHandler(func(e domain.Event) { fmt.Println(e.Type) }),
	)
*/
package funnel
