// Package exchangegateway converts external payment into newly minted
// governance balance at a fixed rate inside the governance-core context.
//
// Each purchase mints to the buyer and burns the same amount from the reserve
// account so outside purchases never dilute the reserve's effective stake.
// The module persists an audit receipt per purchase and emits an
// observability event through the outbox.
package exchangegateway
