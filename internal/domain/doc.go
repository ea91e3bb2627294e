// Package domain defines the entities shared by every EASYAiPOS package.
//
// This package has no internal imports. Everything else in the module
// depends on it: the reducer in pos, the totals pipeline in cart, the
// lifecycle policy, the receipt printer and the persistence adapters.
//
// Money and percentage rates are shopspring decimals. Floats never appear
// in an entity, so totals survive a JSON round trip unchanged and the
// canonical hash of the persisted projection is stable.
package domain
