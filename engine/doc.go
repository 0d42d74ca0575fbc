// Package engine executes compiled script bytecode against either the
// controller process (host variant) or a captured target state (target
// variant).
//
// The engine is a small linear virtual machine. One invocation owns a
// per-script Store (temporaries and named variables), a Context (environment
// facts: identity pseudo-registers, the guest register file, guest memory),
// and an OutputSink (where print results go). The caller owns the program
// counter and the stop condition: Step executes exactly one instruction and
// returns the advanced cursor, Run loops Step to the end of the buffer.
//
// The engine holds no shared mutable state. Scripts may execute concurrently
// as long as each invocation has its own Store; the Context is assumed stable
// for the duration of the execution (the caller holds the target at a safe
// point). Every failure is reported through the per-instruction result, never
// panicked, and never leaves a partial value in the destination.
package engine
