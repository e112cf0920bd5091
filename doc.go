// Package draftgate generates social media posts with an LLM and routes every
// draft through a durable human-approval workflow before anything is
// published.
//
// Draftgate is designed for backend services that automate social posting but
// must keep a human in the loop. It runs fully in Go, supports multiple
// persistence backends, and integrates cleanly into existing codebases.
//
// # Core Concepts
//
// The programming model is intentionally small:
//
//  1. Engine
//  2. PostRecord
//  3. ContentGenerator
//  4. Publisher
//
// # Engine
//
// The Engine owns the post lifecycle. Each post moves through a fixed state
// machine:
//
//	generating -> pending_approval -> publishing -> published
//	                    |                  |
//	                    v                  v
//	          rejected_final        publish_failed
//
// RequestGeneration creates a record, invokes the generator and leaves the
// draft awaiting review. Decide applies a reviewer's verdict: approve
// publishes as-is, edit publishes replacement text, and reject sends the
// reviewer's feedback back into the generator for another round. After three
// rejected drafts the post is closed as rejected_final.
//
// The review window is unbounded: the workflow survives process restarts when
// a durable backend holds the records. Engines can be backed by:
//
//   - In-memory (non-durable, best for tests)
//   - SQLite (embedded durability)
//   - Postgres (module github.com/tkarvine/draftgate/postgres)
//   - Redis (module github.com/tkarvine/draftgate/redis)
//
// All engine operations are safe for concurrent use. Competing decisions on
// the same post are serialized by the store: exactly one wins, the rest
// observe ErrStateConflict or ErrInvalidTransition, and nothing is ever
// published twice.
//
// # PostRecord
//
// A PostRecord is the durable unit of work: the request parameters, the
// current draft with hashtags, the lifecycle state, the attempt counter and
// an append-only history of every transition with timestamps and actors.
//
// # ContentGenerator and Publisher
//
// The engine is deliberately ignorant of LLMs and social platform APIs.
// ContentGenerator turns a request (topic, platform, tone, optional reviewer
// guidance) into draft text and hashtags; pkg/generator implements it over
// OpenAI-compatible chat completions. Publisher posts approved content;
// pkg/publisher ships Twitter/X and LinkedIn connectors plus a registry that
// dispatches on the target platform.
//
// # Serving
//
// pkg/gateway exposes the engine over HTTP, and cmd/draftgate is a small CLI
// that serves the gateway or drives a workflow from the terminal.
//
// For examples, see the /examples directory or the project README.
package draftgate
