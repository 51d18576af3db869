// Package units holds the colony's entities: persons, vehicles and
// settlements, addressed by stable ids through a Manager.
package units

import "errors"

// PersonID identifies a person. Zero means none.
type PersonID uint64

// VehicleID identifies a vehicle. Zero means none.
type VehicleID uint64

// SettlementID identifies a settlement. Zero means none.
type SettlementID uint64

// SolSeconds is the length of a Mars sol in seconds.
const SolSeconds = 88775.244

// Sentinel errors returned by settlement facilities and lookups.
var (
	ErrVehicleTooLarge   = errors.New("vehicle too large for garage")
	ErrGarageFull        = errors.New("garage is full")
	ErrUnknownSettlement = errors.New("unknown settlement")
)

func removeID[T comparable](ids []T, id T) ([]T, bool) {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...), true
		}
	}
	return ids, false
}

func containsID[T comparable](ids []T, id T) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
