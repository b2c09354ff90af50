// Package retry provides fixed-backoff retry logic for boot-gated operations.
//
// The [WithFixedBackoff] function retries an operation with a configurable
// attempt budget and a constant delay between attempts. It backs the WinRM
// readiness probe, the one-time password poll, and the playbook retry loop,
// all of which wait on conditions that clear on their own once the target
// host finishes booting.
package retry
