// Package types defines the source export records, the food-chain entity
// payloads and the standard errors shared by the pantry importer and the
// local food-chain service.
package types
