/*
Package player implements the timed script player shared by the conversation and
the customization wizard.

A Player[T] replays an ordered list of Step[T] values one at a time. Each step waits
for its delay (showing a typing indicator when the step asks for one), is revealed,
and either advances to the next step or pauses until the host calls Continue.

	Idle --Start--> Typing|Sending --delay--> Revealed --more steps--> Typing|Sending
	                                          Revealed --breakpoint/terminal--> AwaitingContinuation
	AwaitingContinuation --Continue--> Typing|Sending   (breakpoint)
	AwaitingContinuation --Continue--> Complete         (terminal)

A step is terminal when it sets Terminal, or when it sets Breakpoint and is the last
step of the script. Terminal always wins over Breakpoint.

All progress is driven by a ports.Scheduler. Every timer belongs to a run (an epoch);
Start, Reset and Dispose cancel the timers of the previous run and any callback that
still fires for it is ignored. Hooks run in state-change order outside the player's
lock, so a hook may call back into the player.
*/
package player
