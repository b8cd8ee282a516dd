/*
Package domain contains the core domain models of the funnel engine.

It defines the scripted dialogue, the conversation snapshot exposed to views, the
persisted funnel flags and the symbolic audio cues. This package is kept pure and
free of external dependencies like I/O, timers or persistence.

# Key Entities

  - ScriptMessage / Script: one scripted line and the ordered, immutable sequence of lines.
  - ConversationState: the read-only snapshot a view renders (cursor, typing, revealed lines).
  - Flags: the additive key/value record of completed funnel stages.
  - Cue: a closed enumeration of sound identifiers emitted to an external audio sink.
  - Event: a lifecycle notification (typing, reveal, awaiting, completion) for hosts.
*/
package domain
