// Package types provides the shared data contract between the Ingress Router and the
// Channel Processor: the Context Object, the Conversation Record, the Tenant Config Record,
// and secret blob shapes.
//
// This package has ZERO dependencies on other convoflow packages to avoid circular imports.
// Every other package imports its wire/storage types from here.
package types
