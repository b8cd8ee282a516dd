// Package conversation simulates a scripted chat on top of the timed script player.
//
// It maps each message to a player step (typing indicator for counterpart and
// system lines, none for the user's own pre-authored lines) and turns player
// transitions into audio cues and engine events:
//
//	step begins         typing (counterpart/system) or sent (user)
//	counterpart reveal  received
//	system reveal       notification, or payment plus a transient payment notice
//	breakpoint/terminal awaiting_continuation, then after a short pause level-up
//	terminal confirmed  success, completed, and the completion callback
package conversation
