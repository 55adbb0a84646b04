// Package genesis loads ledger genesis state from CUE files.
//
// A genesis file declares the starting slot, seeded account balances, and
// any intents registered at launch:
//
//	genesis: {
//		start_slot: 100
//		accounts: {
//			alice: 2000
//			bob:   800
//		}
//		intents: [
//			{
//				creator:     "alice"
//				description: "Alice pays Bob 100"
//				deadline:    150
//				collateral:  1000
//			},
//		]
//	}
//
// CUE gives the genesis file types and constraints for free (negative
// balances or a missing creator fail at load time, before anything touches
// the ledger). Intent IDs are not declared in the file; they are derived
// from content at load, exactly as they would be on a live registration.
package genesis
