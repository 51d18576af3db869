package task

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/talgya/red-sands/internal/coords"
	"github.com/talgya/red-sands/internal/units"
)

// DriveName is the name of the driving task.
const DriveName = "Driving Ground Vehicle"

// Driving tunables.
const (
	reserveVehicleSeconds = 10
	prepareVehicleSeconds = 100
	getInVehicleSeconds   = 100
	disembarkSeconds      = 100

	stuckAttempts     = 20
	minimumSpeed      = 1.0  // km/h below which the driver looks for a way around
	winchSpeed        = 0.2  // km/h while winching a stuck vehicle
	backingUpLimitKM  = 10.0 // km reversed before trying the route again
	closestThreePct   = 75.0
	invitePct         = 50.0
	experienceAvoidX  = 4.0
	obstacleProbeStep = math.Pi / 6
	obstacleProbes    = 5
)

type drivePhase uint8

const (
	phaseEmbarking drivePhase = iota
	phaseDriving
	phaseDisembarking
)

func (p drivePhase) String() string {
	switch p {
	case phaseEmbarking:
		return "Embarking"
	case phaseDriving:
		return "Driving"
	case phaseDisembarking:
		return "Disembarking"
	default:
		return ""
	}
}

type driveSubPhase uint8

const (
	subNone driveSubPhase = iota
	subReserveVehicle
	subDetermineDestination
	subInvitePassengers
	subPrepareVehicle
	subGetInVehicle
	subNormalDriving
	subAvoidingObstacle
	subBackingUp
	subWinching
)

var driveSubPhaseNames = [...]string{
	subNone:                 "",
	subReserveVehicle:       "Reserve Vehicle",
	subDetermineDestination: "Determine Destination",
	subInvitePassengers:     "Invite Passengers",
	subPrepareVehicle:       "Prepare Vehicle",
	subGetInVehicle:         "Get In Vehicle",
	subNormalDriving:        "Normal Driving",
	subAvoidingObstacle:     "Avoiding Obstacle",
	subBackingUp:            "Backing Up",
	subWinching:             "Winching Stuck Vehicle",
}

func (s driveSubPhase) String() string {
	if int(s) < len(driveSubPhaseNames) {
		return driveSubPhaseNames[s]
	}
	return ""
}

// Drive takes a ground vehicle, with any passengers it can pick up, from
// the person's settlement to another settlement or to a location.
type Drive struct {
	Base

	phase drivePhase
	sub   driveSubPhase

	embark    bool
	disembark bool

	vehicle             units.VehicleID
	embarkingSettlement units.SettlementID

	destType        units.DestinationType
	destination     coords.Coordinates
	destSettlement  units.SettlementID
	availableBerths int

	closestDistance   float64
	obstacleTimeCount int
	backingUpDistance float64
	backingDirection  coords.Direction
}

// DriveOption customises a Drive.
type DriveOption func(*Drive)

// WithVehicle drives a specific vehicle instead of reserving one.
func WithVehicle(id units.VehicleID) DriveOption {
	return func(d *Drive) { d.vehicle = id }
}

// WithoutEmbark skips embarking; the driver must already be aboard.
func WithoutEmbark() DriveOption {
	return func(d *Drive) { d.embark = false }
}

// WithoutDisembark ends the task on arrival, leaving everyone aboard.
func WithoutDisembark() DriveOption {
	return func(d *Drive) { d.disembark = false }
}

// NewDrive creates a trip to a settlement chosen on the way out.
func NewDrive(person units.PersonID, w *World, opts ...DriveOption) *Drive {
	d := &Drive{
		Base:            newBase(DriveName, person, w),
		embark:          true,
		disembark:       true,
		closestDistance: math.Inf(1),
	}
	if p := d.personRef(); p != nil && p.Situation == units.InSettlement {
		d.embarkingSettlement = p.SettlementID
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.embark {
		d.phase = phaseEmbarking
	} else {
		d.phase = phaseDriving
		d.adoptBoardedVehicle()
	}
	return d
}

// NewDriveToSettlement creates a trip to a given settlement.
func NewDriveToSettlement(person units.PersonID, w *World, dest units.SettlementID, opts ...DriveOption) *Drive {
	d := NewDrive(person, w, opts...)
	if s := w.Units.Settlement(dest); s != nil {
		d.destType = units.DestinationSettlement
		d.destSettlement = dest
		d.destination = s.Location
	}
	return d
}

// NewDriveToCoordinates creates a trip to a location.
func NewDriveToCoordinates(person units.PersonID, w *World, dest coords.Coordinates, opts ...DriveOption) *Drive {
	d := NewDrive(person, w, opts...)
	d.destType = units.DestinationCoordinates
	d.destination = dest
	return d
}

// NewResumeDrive takes over a stuck vehicle the person is riding in and
// winches it towards its old destination.
func NewResumeDrive(person units.PersonID, w *World, vehicle units.VehicleID) *Drive {
	d := NewDrive(person, w, WithoutEmbark(), WithVehicle(vehicle))
	v := w.Units.Vehicle(vehicle)
	if v == nil || !v.HasDestination() {
		d.end()
		return d
	}
	d.destType = v.DestinationType
	d.destSettlement = v.DestinationSettlementID
	d.destination = v.Destination
	v.SetDriver(person)
	v.Status = units.StatusWinching
	d.sub = subWinching
	d.description = fmt.Sprintf("Winch %s out of trouble.", v.Name)
	return d
}

// adoptBoardedVehicle picks up the vehicle the driver is sitting in when
// embarking is skipped and none was given.
func (d *Drive) adoptBoardedVehicle() {
	if d.vehicle != 0 {
		return
	}
	if p := d.personRef(); p != nil && p.Situation == units.InVehicle {
		d.vehicle = p.VehicleID
	}
}

// driveProbability favours a trip when the settlement has a free rover, or
// when the person sits in a stuck vehicle nobody is winching.
func driveProbability(p *units.Person, w *World) int {
	switch p.Situation {
	case units.InSettlement:
		s := w.Units.Settlement(p.SettlementID)
		if s == nil {
			return 0
		}
		for _, v := range w.Units.ParkedVehiclesAt(s.ID) {
			if v.Reservable() && !s.InGarage(v.ID) {
				return 5
			}
		}
	case units.InVehicle:
		if v := stuckVehicleFor(p, w); v != nil {
			return 5
		}
	}
	return 0
}

func stuckVehicleFor(p *units.Person, w *World) *units.Vehicle {
	v := w.Units.Vehicle(p.VehicleID)
	if v == nil || v.Status != units.StatusStuck || v.Reserved || !v.HasDestination() {
		return nil
	}
	return v
}

func newDriveFromCatalog(p *units.Person, w *World) Task {
	if p.Situation == units.InVehicle {
		if v := stuckVehicleFor(p, w); v != nil {
			return NewResumeDrive(p.ID, w, v.ID)
		}
	}
	return NewDrive(p.ID, w)
}

// Phase implements Task.
func (d *Drive) Phase() string { return d.phase.String() }

// SubPhase implements Task.
func (d *Drive) SubPhase() string { return d.sub.String() }

// VehicleID returns the vehicle being driven, or 0 before one is reserved.
func (d *Drive) VehicleID() units.VehicleID { return d.vehicle }

// ObstacleTimeCount returns how many consecutive steps brought the vehicle
// no closer to its destination.
func (d *Drive) ObstacleTimeCount() int { return d.obstacleTimeCount }

// DoTask implements Task.
func (d *Drive) DoTask(seconds int) int {
	if d.done {
		return seconds
	}
	if d.phase == phaseEmbarking && seconds > 0 {
		seconds = d.doEmbark(seconds)
	}
	if !d.done && d.phase == phaseDriving && seconds > 0 {
		seconds = d.doDrive(seconds)
	}
	if !d.done && d.phase == phaseDisembarking {
		if !d.disembark {
			d.end()
		} else if seconds > 0 {
			seconds = d.doDisembark(seconds)
		}
	}
	return seconds
}

func (d *Drive) doEmbark(seconds int) int {
	if d.sub == subNone {
		d.sub = subReserveVehicle
	}
	if d.sub == subReserveVehicle {
		seconds = d.reserveVehicle(seconds)
	}
	if !d.done && d.sub == subDetermineDestination {
		seconds = d.determineDestination(seconds)
	}
	if !d.done && d.sub == subInvitePassengers {
		seconds = d.invitePassengers(seconds)
	}
	if !d.done && d.sub == subPrepareVehicle && seconds > 0 {
		seconds = d.prepareVehicle(seconds)
	}
	if !d.done && d.sub == subGetInVehicle && seconds > 0 {
		seconds = d.getInVehicle(seconds)
	}
	return seconds
}

// reserveVehicle claims the first free rover at the embarking settlement
// (10 s). Without one the trip is off.
func (d *Drive) reserveVehicle(seconds int) int {
	if d.vehicle != 0 {
		v := d.world.Units.Vehicle(d.vehicle)
		if v == nil || v.HasUnfixedFailure() {
			d.end()
			return seconds
		}
		if v.Status == units.StatusParked {
			v.Reserved = true
		}
		d.sub = subDetermineDestination
		return seconds
	}

	ok, left := d.DoSubPhase(seconds, reserveVehicleSeconds)
	if !ok {
		d.spend(seconds)
		return 0
	}
	d.spend(seconds - left)

	s := d.world.Units.Settlement(d.embarkingSettlement)
	if s == nil {
		d.end()
		return left
	}
	for _, v := range d.world.Units.ParkedVehiclesAt(s.ID) {
		if v.Reservable() && !s.InGarage(v.ID) {
			v.Reserved = true
			d.vehicle = v.ID
			d.sub = subDetermineDestination
			return left
		}
	}
	d.end()
	return left
}

// release drops the reservation, sends anyone already aboard back into the
// embarking settlement and ends the task.
func (d *Drive) release() {
	v := d.world.Units.Vehicle(d.vehicle)
	if v == nil || v.Status != units.StatusParked {
		d.end()
		return
	}
	v.Reserved = false
	if s := d.world.Units.Settlement(d.embarkingSettlement); s != nil {
		for _, id := range append([]units.PersonID(nil), v.Passengers...) {
			v.RemovePassenger(id)
			if p := d.world.Units.Person(id); p != nil {
				s.AddPerson(id)
				p.EnterSettlement(s)
			}
		}
	}
	d.end()
}

// determineDestination picks a settlement when none was given: usually one
// of the three nearest, otherwise any (0 s). The trip is cancelled when the
// destination has no room left.
func (d *Drive) determineDestination(seconds int) int {
	p := d.personRef()
	if p == nil {
		d.release()
		return seconds
	}

	if d.destType == units.DestinationNone {
		from := p.Location
		if s := d.world.Units.Settlement(d.embarkingSettlement); s != nil {
			from = s.Location
		}
		var dest *units.Settlement
		if d.world.Rand.LessThanRandPercent(closestThreePct) {
			dest = d.world.Units.RandomOfThreeClosest(from, d.embarkingSettlement)
		} else {
			dest = d.world.Units.RandomSettlement(d.embarkingSettlement)
		}
		if dest == nil {
			d.release()
			return seconds
		}
		d.destType = units.DestinationSettlement
		d.destSettlement = dest.ID
		d.destination = dest.Location
	}

	d.availableBerths = math.MaxInt
	if d.destType == units.DestinationSettlement {
		dest := d.world.Units.Settlement(d.destSettlement)
		if dest == nil {
			d.release()
			return seconds
		}
		d.availableBerths = dest.AvailablePopulation() - d.world.Units.IncomingPassengers(dest.ID)
		if d.availableBerths < 1 {
			slog.Debug("trip cancelled, destination full", "person", p.Name, "destination", dest.Name)
			d.release()
			return seconds
		}
	}

	d.sub = subInvitePassengers
	return seconds
}

// invitePassengers sweeps idle or relaxing people at the settlement along,
// each with even odds, while seats and destination berths remain (0 s).
// One seat and one berth stay free for the driver.
func (d *Drive) invitePassengers(seconds int) int {
	s := d.world.Units.Settlement(d.embarkingSettlement)
	v := d.world.Units.Vehicle(d.vehicle)
	if s != nil && v != nil {
		for _, other := range d.world.Units.PersonsAt(s.ID) {
			if other.ID == d.person {
				continue
			}
			current := d.world.CurrentTaskName(other.ID)
			if current != "" && current != RelaxName {
				continue
			}
			if !d.world.Rand.LessThanRandPercent(invitePct) {
				continue
			}
			if v.PassengerCount() >= v.MaxPassengers-1 || v.PassengerCount() >= d.availableBerths-1 {
				break
			}
			v.AddPassenger(other.ID)
			s.PersonLeave(other.ID)
			other.EnterVehicle(v)
		}
	}
	d.sub = subPrepareVehicle
	return seconds
}

// prepareVehicle readies the vehicle (100 s).
func (d *Drive) prepareVehicle(seconds int) int {
	ok, left := d.DoSubPhase(seconds, prepareVehicleSeconds)
	d.spend(seconds - left)
	if !ok {
		return 0
	}
	v := d.world.Units.Vehicle(d.vehicle)
	if v == nil {
		d.end()
		return left
	}
	d.description = d.tripDescription(v)
	d.sub = subGetInVehicle
	return left
}

func (d *Drive) tripDescription(v *units.Vehicle) string {
	if s := d.world.Units.Settlement(d.destSettlement); s != nil && d.destType == units.DestinationSettlement {
		return fmt.Sprintf("Drive %s to %s.", v.Name, s.Name)
	}
	return fmt.Sprintf("Drive %s to %s.", v.Name, d.destination)
}

// getInVehicle boards the driver and sets off (100 s). Time left over flows
// straight into driving.
func (d *Drive) getInVehicle(seconds int) int {
	ok, left := d.DoSubPhase(seconds, getInVehicleSeconds)
	d.spend(seconds - left)
	if !ok {
		return 0
	}

	p := d.personRef()
	v := d.world.Units.Vehicle(d.vehicle)
	if p == nil || v == nil {
		d.release()
		return left
	}
	if v.HasUnfixedFailure() {
		slog.Debug("trip cancelled, vehicle failed before departure", "person", p.Name, "vehicle", v.Name)
		d.world.Emit(CategoryDrive, "%s called off the trip: %s needs repairs.", p.Name, v.Name)
		d.release()
		return left
	}

	v.SetDriver(p.ID)
	if s := d.world.Units.Settlement(d.embarkingSettlement); s != nil {
		s.PersonLeave(p.ID)
		s.VehicleLeave(v.ID)
	}
	p.EnterVehicle(v)

	v.Status = units.StatusMoving
	v.SettlementID = 0
	v.Reserved = false
	d.commitDestination(v)

	slog.Debug("drive started", "driver", p.Name, "vehicle", v.Name, "passengers", v.PassengerCount())
	d.world.Emit(CategoryDrive, "%s set off: %s", p.Name, d.description)

	d.phase = phaseDriving
	d.sub = subNone
	return left
}

func (d *Drive) commitDestination(v *units.Vehicle) {
	if d.destType == units.DestinationSettlement {
		if s := d.world.Units.Settlement(d.destSettlement); s != nil {
			v.SetDestinationSettlement(s)
			return
		}
	}
	v.SetDestinationCoordinates(d.destination)
}

// doDrive moves the vehicle for one step. It consumes every second given
// unless the vehicle arrives, in which case the unused time is returned.
func (d *Drive) doDrive(seconds int) int {
	p := d.personRef()
	v := d.world.Units.Vehicle(d.vehicle)
	if p == nil || v == nil || d.destType == units.DestinationNone {
		d.end()
		return seconds
	}
	if v.HasUnfixedFailure() {
		// Waiting for the crew to finish repairs.
		return seconds
	}

	if d.sub == subNone {
		if v.Status != units.StatusWinching {
			v.Status = units.StatusMoving
		}
		if !v.HasDestination() {
			d.commitDestination(v)
		}
		d.sub = subNormalDriving
		d.closestDistance = math.Inf(1)
		d.obstacleTimeCount = 0
		d.backingUpDistance = 0
	}
	if d.description == DriveName {
		d.description = d.tripDescription(v)
	}

	if d.sub != subWinching && d.obstacleTimeCount >= stuckAttempts {
		v.Status = units.StatusStuck
		v.Speed = 0
		slog.Debug("vehicle stuck", "vehicle", v.Name, "location", v.Location.String())
		d.world.Emit(CategoryVehicle, "%s is stuck at %s.", v.Name, v.Location)
		d.end()
		return seconds
	}

	start := v.Location
	var dir coords.Direction
	switch d.sub {
	case subAvoidingObstacle:
		dir = d.avoidObstacle(p, v, start)
	case subBackingUp:
		dir = d.backingDirection
	default:
		dir = start.DirectionTo(d.destination)
	}
	v.Direction = dir
	v.Elevation = d.world.Surface.Elevation(start)

	speed := d.speed(p, v, start, dir)
	if d.sub == subWinching {
		if speed > minimumSpeed {
			d.sub = subNormalDriving
			v.Status = units.StatusMoving
		} else {
			speed = winchSpeed
		}
	}
	v.Speed = speed
	if speed < minimumSpeed && d.sub != subWinching {
		d.sub = subAvoidingObstacle
	}

	remaining := start.DistanceTo(d.destination)
	travelled := float64(seconds) * speed / 3600
	left := 0

	var end coords.Coordinates
	switch {
	case remaining < travelled:
		used := int(math.Ceil(remaining / speed * 3600))
		if used > seconds {
			used = seconds
		}
		left = seconds - used
		travelled = remaining
		end = d.destination
		remaining = 0
	case travelled == 0:
		end = start
	default:
		end = start.ConvertRectToSpherical(dir.Sin()*travelled/coords.KMPerMapUnit, -dir.Cos()*travelled/coords.KMPerMapUnit)
		remaining = end.DistanceTo(d.destination)
	}

	v.AddDistance(travelled)
	if d.sub == subBackingUp {
		d.backingUpDistance += travelled
		if d.backingUpDistance >= backingUpLimitKM {
			d.sub = subNormalDriving
			d.backingUpDistance = 0
		}
	}

	v.Location = end
	v.DistanceToDestination = remaining

	if remaining < d.closestDistance {
		d.closestDistance = remaining
		d.obstacleTimeCount = 0
	} else {
		d.obstacleTimeCount++
	}

	for _, id := range v.Passengers {
		if passenger := d.world.Units.Person(id); passenger != nil {
			passenger.Location = end
		}
	}

	hours := float64(seconds-left) / 3600
	if d.sub == subAvoidingObstacle || d.sub == subBackingUp {
		hours *= experienceAvoidX
	}
	p.AddExperience(units.SkillDriving, hours)
	d.spend(seconds - left)

	if end.Equal(d.destination) {
		d.phase = phaseDisembarking
		d.sub = subNone
		v.Status = units.StatusParked
		v.Speed = 0
		v.DestinationType = units.DestinationNone
		v.DistanceToDestination = 0
		slog.Debug("vehicle arrived", "vehicle", v.Name, "location", end.String())
		return left
	}

	d.checkMechanicalBreakdown(p, v)
	return left
}

// avoidObstacle probes 0°, 30°, 60°, 90° and 120° off the current heading
// to a random side and takes the first passable one. When none is, the
// vehicle backs up along the reverse of its heading.
func (d *Drive) avoidObstacle(p *units.Person, v *units.Vehicle, at coords.Coordinates) coords.Direction {
	side := 1.0
	if d.world.Rand.LessThanRandPercent(50) {
		side = -1.0
	}
	heading := v.Direction
	for i := 0; i < obstacleProbes; i++ {
		probe := heading.Add(side * float64(i) * obstacleProbeStep)
		if d.speed(p, v, at, probe) > minimumSpeed {
			d.sub = subNormalDriving
			return probe
		}
	}
	d.sub = subBackingUp
	d.backingDirection = heading.Reverse()
	return d.backingDirection
}

// speed returns the vehicle's speed in km/h heading dir from at. The slope
// is scaled down by the vehicle's terrain handling plus the driver's skill;
// a slope at or past vertical stops the vehicle.
func (d *Drive) speed(p *units.Person, v *units.Vehicle, at coords.Coordinates, dir coords.Direction) float64 {
	grade := d.world.Surface.TerrainDifficulty(at, dir)
	v.TerrainGrade = grade

	modifier := v.TerrainHandling + float64(p.SkillLevel(units.SkillDriving))
	if modifier == 0 {
		modifier = 1
	} else if modifier < 0 {
		modifier = math.Abs(1 / modifier)
	}

	angle := grade / modifier * 15
	if angle >= math.Pi/2 || angle <= -math.Pi/2 || math.IsNaN(angle) {
		return 0
	}
	return math.Max(0, v.BaseSpeed*math.Cos(angle))
}

// checkMechanicalBreakdown rolls for a failure after a driving step. The
// percent chance grows with overdue maintenance, uphill grade and rough
// driving, and shrinks with skill and terrain handling.
func (d *Drive) checkMechanicalBreakdown(p *units.Person, v *units.Vehicle) {
	chance := 0.1
	if v.DistanceSinceMaintenance > units.MaintenanceInterval {
		chance += 0.3 * v.DistanceSinceMaintenance / units.MaintenanceInterval
	}
	chance -= 0.1 * float64(p.SkillLevel(units.SkillDriving))
	chance += 0.5 * math.Sin(v.TerrainGrade)
	chance -= 0.1 * v.TerrainHandling
	switch d.sub {
	case subAvoidingObstacle:
		chance += 0.1
	case subBackingUp:
		chance += 0.2
	case subWinching:
		chance += 0.3
	}

	if d.world.Rand.Float64()*100 > chance {
		return
	}

	f := units.RandomFailure(d.world.Rand)
	v.Breakdown(f)
	slog.Debug("vehicle broke down", "vehicle", v.Name, "failure", f.Name, "hours", f.WorkHours)
	d.world.Emit(CategoryVehicle, "%s broke down: %s.", v.Name, f.Name)

	for _, id := range v.Passengers {
		d.world.Manager(id).AddSubTask(NewMechanic(id, d.world, v.ID))
	}
}

// doDisembark lets everyone out at the destination (100 s).
func (d *Drive) doDisembark(seconds int) int {
	ok, left := d.DoSubPhase(seconds, disembarkSeconds)
	d.spend(seconds - left)
	if !ok {
		return 0
	}

	v := d.world.Units.Vehicle(d.vehicle)
	if v == nil {
		d.end()
		return left
	}

	var dest *units.Settlement
	if d.destType == units.DestinationSettlement {
		dest = d.world.Units.Settlement(d.destSettlement)
	}

	passengers := append([]units.PersonID(nil), v.Passengers...)
	for _, id := range passengers {
		v.RemovePassenger(id)
		passenger := d.world.Units.Person(id)
		if passenger == nil {
			continue
		}
		if dest != nil {
			dest.AddPerson(id)
			passenger.EnterSettlement(dest)
		} else {
			passenger.GoOutside()
		}
	}

	v.Park(dest)
	if dest != nil {
		dest.AddVehicle(v.ID)
		d.world.Emit(CategoryDrive, "%s arrived at %s with %d aboard.", v.Name, dest.Name, len(passengers))
	} else {
		d.world.Emit(CategoryDrive, "%s parked at %s.", v.Name, v.Location)
	}

	d.end()
	return left
}
