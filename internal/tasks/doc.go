// Package tasks orchestrates the migration pipeline and executes plans
// against the remote accounts with bounded concurrency.
//
// # Pipeline
//
// [Engine.BuildPlan] runs the read-only half: snapshot both accounts, seed
// the matcher from the persisted ledger, classify every source entry, and
// order the result into a [plan.Plan]. Nothing remote is mutated.
//
// [Engine.Apply] executes a built plan. Tasks are released depth wave by
// depth wave so a folder's copy always lands before its children dispatch;
// delete waves run in reverse. Within a wave a worker pool shares one
// account-wide rate limiter. Transient remote failures retry with
// exponential backoff and jitter up to the configured attempt budget;
// terminal failures mark the single task failed without blocking siblings.
//
// # Progress Reporting
//
// All long operations accept a progress channel. Updates use select with
// default so a slow or absent consumer never stalls execution.
//
// # Ledger
//
// Every processed task lands in the [Ledger] as a task record. Completed
// copy and relink records form the correspondence set that seeds the next
// run's matcher, which is what makes reruns idempotent.
package tasks
