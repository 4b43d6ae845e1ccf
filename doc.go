// Package accounts registers user accounts and activates them through a
// single use token delivered by email.
//
// Registration:
//   - RegisterAccountHandler validates the candidate (field rules first, the
//     email uniqueness lookup only once the fields are clean), hashes the
//     password, issues a token and persists the account as pending.
//   - The activation email is sent after the row is committed. When the
//     mailer fails the account is deleted again, with bounded retries, so a
//     failed registration never leaves a row behind. A delete that still
//     fails surfaces as a CompensationFailure and an activity event.
//
// Activation:
//   - AccountStateMachine consumes a token with a conditional update, so a
//     token activates at most one account at most once. Unknown and consumed
//     tokens are indistinguishable to callers.
//
// HTTP:
//   - RegisterAccountRoutes mounts POST /users and POST /users/token/:token
//     on a fiber router. Errors render through EnvelopeFormatter as
//     {path, timestamp, message, validationErrors} with localized text.
//
// Activity sinks:
//   - ActivitySink receives lifecycle events best effort. See the
//     activitysink package for Prometheus and Kafka implementations.
package accounts
