/*
Package ports defines the driven ports (interfaces) for the onboarding engine.

These interfaces decouple the core logic from external implementations, allowing
the engine to work with various storage backends and remote services.

# Key Interfaces

  - StateStore: persists and loads per-session workflow State.
  - FragmentStore: persists the durable business-domain fragment.
  - Gateway: the remote account and generation service consumed by the engine.
  - DistributedLocker: distributed locking for concurrent session access.
*/
package ports
