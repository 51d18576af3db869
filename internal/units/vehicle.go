package units

import "github.com/talgya/red-sands/internal/coords"

// VehicleStatus is the operating state of a vehicle.
type VehicleStatus uint8

const (
	StatusParked VehicleStatus = iota
	StatusMoving
	StatusStuck
	StatusWinching
	StatusMaintenance
	StatusBrokenDown
)

var statusNames = [...]string{
	StatusParked:      "Parked",
	StatusMoving:      "Moving",
	StatusStuck:       "Stuck",
	StatusWinching:    "Winching",
	StatusMaintenance: "Periodic Maintenance",
	StatusBrokenDown:  "Broken Down",
}

func (s VehicleStatus) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "Unknown"
}

// MarshalText renders the status by name in JSON.
func (s VehicleStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// VehicleKind is the vehicle class.
type VehicleKind uint8

const (
	KindRover VehicleKind = iota
	KindLander
)

func (k VehicleKind) String() string {
	switch k {
	case KindRover:
		return "Rover"
	case KindLander:
		return "Lander"
	default:
		return "Unknown"
	}
}

// MarshalText renders the kind by name in JSON.
func (k VehicleKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// DestinationType says what a vehicle's destination refers to.
type DestinationType uint8

const (
	DestinationNone DestinationType = iota
	DestinationSettlement
	DestinationCoordinates
)

func (d DestinationType) String() string {
	switch d {
	case DestinationSettlement:
		return "Settlement"
	case DestinationCoordinates:
		return "Coordinates"
	default:
		return "None"
	}
}

// MarshalText renders the destination type by name in JSON.
func (d DestinationType) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// MaintenanceInterval is the distance in km after which a vehicle is due
// periodic maintenance.
const MaintenanceInterval = 5000.0

// Vehicle is a colony vehicle. Only rovers drive on the surface.
type Vehicle struct {
	ID   VehicleID   `json:"id"`
	Name string      `json:"name"`
	Kind VehicleKind `json:"kind"`

	Status    VehicleStatus      `json:"status"`
	Location  coords.Coordinates `json:"location"`
	Direction coords.Direction   `json:"direction"`
	Speed     float64            `json:"speed"`      // km/h
	BaseSpeed float64            `json:"base_speed"` // km/h on flat ground
	Elevation float64            `json:"elevation"`  // km

	TerrainHandling float64 `json:"terrain_handling"`
	TerrainGrade    float64 `json:"terrain_grade"` // radians

	Reserved   bool       `json:"reserved"`
	Passengers []PersonID `json:"passengers"`
	DriverID   PersonID   `json:"driver_id,omitempty"`

	DestinationType         DestinationType    `json:"destination_type"`
	Destination             coords.Coordinates `json:"destination"`
	DestinationSettlementID SettlementID       `json:"destination_settlement_id,omitempty"`
	DistanceToDestination   float64            `json:"distance_to_destination"`

	Size          int `json:"size"`
	MaxPassengers int `json:"max_passengers"`

	Odometer                 float64 `json:"odometer"`
	DistanceSinceMaintenance float64 `json:"distance_since_maintenance"`
	MaintenanceWork          float64 `json:"maintenance_work"` // seconds

	Failure      *MechanicalFailure `json:"failure,omitempty"`
	SettlementID SettlementID       `json:"settlement_id,omitempty"`

	// Status held when the current failure struck.
	statusBeforeFailure VehicleStatus
}

// IsGroundVehicle reports whether the vehicle can drive on the surface.
func (v *Vehicle) IsGroundVehicle() bool {
	return v.Kind == KindRover
}

// Reservable reports whether a driver may claim the vehicle. Garage
// membership is checked by the caller.
func (v *Vehicle) Reservable() bool {
	return v.IsGroundVehicle() && v.Status == StatusParked && !v.Reserved && !v.HasUnfixedFailure()
}

// HasUnfixedFailure reports whether the vehicle carries an open failure.
func (v *Vehicle) HasUnfixedFailure() bool {
	return v.Failure != nil && !v.Failure.Fixed()
}

// HasPassenger reports whether id is aboard.
func (v *Vehicle) HasPassenger(id PersonID) bool {
	return containsID(v.Passengers, id)
}

// AddPassenger puts id aboard. Duplicates are ignored.
func (v *Vehicle) AddPassenger(id PersonID) {
	if !v.HasPassenger(id) {
		v.Passengers = append(v.Passengers, id)
	}
}

// RemovePassenger takes id off the vehicle, clearing the driver if needed.
func (v *Vehicle) RemovePassenger(id PersonID) {
	v.Passengers, _ = removeID(v.Passengers, id)
	if v.DriverID == id {
		v.DriverID = 0
	}
}

// SetDriver makes id the driver, boarding them if necessary.
func (v *Vehicle) SetDriver(id PersonID) {
	v.AddPassenger(id)
	v.DriverID = id
}

// PassengerCount returns the number of persons aboard.
func (v *Vehicle) PassengerCount() int {
	return len(v.Passengers)
}

// SetDestinationSettlement heads the vehicle to a settlement.
func (v *Vehicle) SetDestinationSettlement(s *Settlement) {
	v.DestinationType = DestinationSettlement
	v.DestinationSettlementID = s.ID
	v.Destination = s.Location
	v.DistanceToDestination = v.Location.DistanceTo(s.Location)
}

// SetDestinationCoordinates heads the vehicle to a location.
func (v *Vehicle) SetDestinationCoordinates(c coords.Coordinates) {
	v.DestinationType = DestinationCoordinates
	v.DestinationSettlementID = 0
	v.Destination = c
	v.DistanceToDestination = v.Location.DistanceTo(c)
}

// ClearDestination removes any destination.
func (v *Vehicle) ClearDestination() {
	v.DestinationType = DestinationNone
	v.DestinationSettlementID = 0
	v.DistanceToDestination = 0
}

// HasDestination reports whether a destination is set.
func (v *Vehicle) HasDestination() bool {
	return v.DestinationType != DestinationNone
}

// AddDistance records km travelled.
func (v *Vehicle) AddDistance(km float64) {
	v.Odometer += km
	v.DistanceSinceMaintenance += km
}

// NeedsMaintenance reports whether periodic maintenance is due.
func (v *Vehicle) NeedsMaintenance() bool {
	return v.DistanceSinceMaintenance > MaintenanceInterval
}

// CompleteMaintenance resets the maintenance counters.
func (v *Vehicle) CompleteMaintenance() {
	v.DistanceSinceMaintenance = 0
	v.MaintenanceWork = 0
}

// Breakdown stops the vehicle with a new failure.
func (v *Vehicle) Breakdown(f *MechanicalFailure) {
	if v.Status != StatusBrokenDown {
		v.statusBeforeFailure = v.Status
	}
	v.Failure = f
	v.Status = StatusBrokenDown
	v.Speed = 0
}

// Repaired returns a broken down vehicle to service once its failure is
// fixed: moving again if it still has somewhere to go, else parked. A
// vehicle that was stuck when it failed is still stuck afterwards.
func (v *Vehicle) Repaired() {
	if v.Status != StatusBrokenDown || v.HasUnfixedFailure() {
		return
	}
	switch {
	case v.statusBeforeFailure == StatusStuck && v.HasDestination():
		v.Status = StatusStuck
	case v.HasDestination():
		v.Status = StatusMoving
	default:
		v.Status = StatusParked
	}
}

// Park stops the vehicle at a settlement (or in the open when s is nil).
func (v *Vehicle) Park(s *Settlement) {
	v.Status = StatusParked
	v.Speed = 0
	v.ClearDestination()
	if s != nil {
		v.SettlementID = s.ID
		v.Location = s.Location
	}
}
