/*
Package crafty implements the lifecycle broker for servers hosted behind a
Crafty Controller instance.

The controller's API is eventually consistent: a start or stop command is
acknowledged long before a status read reflects it. The broker compensates by
polling after every accepted command until the server observably reaches the
requested state or a deadline elapses.

# Architecture

	┌────────────────────────────────────────────────┐
	│                 Broker (facade)                 │
	│  Status / IsRunning / Start / Stop / Remove /   │
	│  Reconcile / Address                            │
	└────────────┬───────────────────────────────────┘
	             │ selects actions, polls until converged
	             ▼
	┌────────────────────────────────────────────────┐
	│              ActionKind encoder                 │
	│  start  → POST action/start_server              │
	│  stop   → POST action/stop_server               │
	│  delete → DELETE (base path)                    │
	│  kill   → POST action/kill_server               │
	│  status → GET  stats                            │
	└────────────┬───────────────────────────────────┘
	             ▼
	┌────────────────────────────────────────────────┐
	│                    Client                       │
	│  Bearer auth, one request per call, lenient     │
	│  envelope decoding, protocol-mismatch detection │
	└────────────┬───────────────────────────────────┘
	             ▼
	      api/v2/servers/{serverID}/{suffix}

# Convergence

Start and Stop issue their command and then poll the controller at a 100 ms
interval for at most 10 seconds. Three poll outcomes end the wait:

 1. The target state is observed: success.
 2. The state becomes unknown (a failed or ambiguous read): immediate
    failure, the server is presumed crashed or unreachable.
 3. The deadline elapses: a ConvergenceTimeoutError, distinct from a
    rejected command so callers can tell "never attempted" from
    "attempted but did not converge".

A rejected command (envelope status != ok) fails immediately without any
polling.

# Status semantics

An ok reply whose payload carries running=true is running; running=false or a
missing running flag is stopped. Unknown is reserved for transport and
protocol failure and is never terminal: the next successful read
re-establishes the real state.

# Configuration changes

Reconcile compares a newly supplied configuration against the current one by
structural equality. Equal configurations are swapped in place (a distinct
but equal instance still replaces stale references) and yield a no-op
PendingChange. A changed configuration yields a deferred PendingChange whose
Apply performs stop, swap, start, so the server runs under the old settings
until the cutover and never under both.

# Concurrency

Every lifecycle call is synchronous and blocking; no call spawns background
work, and polling exists only inside Start and Stop. The broker does not
serialize overlapping calls for one server (that is the orchestrator's job),
but the endpoint configuration is guarded so every reader sees a fully-old or
fully-new value, never a mix. Poll loops check their context every iteration,
so callers can abort early.
*/
package crafty
