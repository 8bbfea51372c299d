// Package api defines the request and response messages of the splitledger
// RPC services. Messages travel as JSON; see package apiconnect for the
// service bindings.
package api
