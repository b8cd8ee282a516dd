/*
Package ports defines the driven ports (interfaces) for the funnel engines.

These interfaces decouple the conversation and wizard engines from timers, storage
backends, audio sinks and outbound HTTP, allowing deterministic tests with virtual
clocks and in-memory stores.

# Key Interfaces

  - Scheduler: schedules delayed callbacks and hands back a cancel token.
  - ScriptLoader: resolves scripted conversations by id.
  - FlagStore: persists the additive funnel flags of one visitor scope (local or session).
  - CueSink: receives symbolic audio cue names; rendering them is the sink's concern.
  - LeadCollector: ships captured contact data to an external collector.
  - DistributedLocker: provides distributed locking for concurrent flag writes across replicas.
*/
package ports
