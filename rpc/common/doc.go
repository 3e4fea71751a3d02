// Package common provides core data structures and utilities shared across
// the qdb client and server. It defines the protocol messages, configuration
// structures, and logging used by the other packages.
//
// The package focuses on:
//   - Request and Response message definitions
//   - Configuration structures for client and server components
//   - Custom logging implementation based on Dragonboat's logger package
//
// Key Components:
//
//   - Request: A namespace plus one Operation. Operation is a sealed interface
//     implemented by Read, Write, Delete, CreateNamespace and DeleteNamespace,
//     each reporting its wire tag (OpTag).
//
//   - Response: Success flag with an optional Message (failure reason) and an
//     optional Result (value of a successful read). Optional fields are pointers
//     so that an absent field and an empty string stay distinguishable.
//
//   - ServerConfig / ClientConfig: Configuration for server and client components.
//
//   - Logger: Named, leveled loggers with consistent formatting across the application.
package common
