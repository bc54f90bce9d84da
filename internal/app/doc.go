// Package app composes the library services into a runnable application.
//
// # Package Structure
//
//	internal/app/
//	├── application.go      # Stores, Options and service wiring
//	├── domain/             # Pure data models (book, loan, user, wishlist)
//	├── storage/            # Store interfaces plus memory/ and postgres/
//	├── services/           # auth, books, loans, wishlist, bookshelf
//	├── session/            # Session cache (memory or Redis)
//	├── auth/               # JWT issuing and parsing
//	├── latency/            # Simulated backend latency
//	├── seed/               # Embedded sample catalog and loader
//	├── httpapi/            # REST handlers, routing and audit trail
//	├── metrics/            # Prometheus collectors
//	└── runtime/            # Config driven startup and HTTP lifecycle
//
// Business rules live in services/. Handlers only decode requests, call a
// service and map its errors onto the response envelope.
//
// # Adding a New Domain
//
//  1. Create models in internal/app/domain/<name>/
//  2. Add a store interface to internal/app/storage/interfaces.go
//  3. Implement it in storage/memory and storage/postgres (with a migration)
//  4. Create the service in internal/app/services/<name>/
//  5. Wire it in application.go
//  6. Add handlers in internal/app/httpapi/handler_<name>.go
package app
