// Package persist synchronizes a derived slice of application state with a
// durable key-value backend and restores it on startup, carrying persisted
// payloads written under older schema versions forward through a declared
// migration chain.
//
// Responsibilities:
//   - Chain/Engine declare and replay versioned schema migrations. The engine
//     is pure: it never touches storage and holds no mutable state after Build.
//   - Persistor[T] owns the storage round-trips: it reads versioned records,
//     runs them through the engine, drops unrecoverable records, and writes
//     migrated values back at the current version.
//   - Storage is the minimal get/set/remove/keys capability contributed by
//     the host; MemoryStorage and pkg/storage/sqlite are the bundled
//     implementations.
//
// Data flow:
//
//	Storage -> DecodeRecord -> Serializer.Unmarshal -> Engine.Migrate -> value
//
// Versioning:
//
//	The current schema version is derived from the chain length: the
//	CurrentVersion validator is step 1 and every OlderVersion call adds one
//	step below it. Removing an already-shipped OlderVersion step lowers the
//	derived version, which is indistinguishable from a downgrade for records
//	stored by the taller chain and resets them. This is documented,
//	destructive behaviour; do not remove shipped steps.
package persist
