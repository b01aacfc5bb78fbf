package services

import (
	"driverless-backend/internal/models"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Report is what the control unit returns for a recorded sensor event.
type Report struct {
	Obstacle *models.Obstacle        `json:"obstacle,omitempty"`
	Peer     *models.DetectedVehicle `json:"peer,omitempty"`
	Sign     *models.TrafficSign     `json:"sign,omitempty"`
	Decision Decision                `json:"decision"`
	Vehicle  models.Vehicle          `json:"vehicle"`
}

// ControlUnit is the only entry point into the reactive core. It owns the
// car, the user directory, the incident log and the detection histories, and
// runs every operation to completion under one lock.
type ControlUnit struct {
	mu         sync.Mutex
	dispatchMu sync.Mutex

	vehicle   *models.Vehicle
	log       *IncidentLog
	users     *UserDirectory
	machine   *VehicleStateMachine
	engine    *EvaluationEngine
	obstacles []models.Obstacle
	peers     []models.DetectedVehicle
	observers []Observer
	now       func() time.Time
}

func NewControlUnit(admin models.User) *ControlUnit {
	log := NewIncidentLog()
	vehicle := models.NewCar()
	machine := NewVehicleStateMachine(vehicle, log)

	return &ControlUnit{
		vehicle: vehicle,
		log:     log,
		users:   NewUserDirectory(admin, log),
		machine: machine,
		engine:  NewEvaluationEngine(machine, log),
		now:     time.Now,
	}
}

// AddObserver registers o for every operation that follows.
func (c *ControlUnit) AddObserver(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, o)
}

// apply runs fn under the lock and then publishes the incidents it produced.
// dispatchMu is taken before mu is released so observers see operations in
// the order they were applied.
func (c *ControlUnit) apply(fn func() error) error {
	c.mu.Lock()
	err := fn()
	entries := c.log.takeOutbox()
	snapshot := *c.vehicle
	observers := c.observers

	c.dispatchMu.Lock()
	c.mu.Unlock()
	defer c.dispatchMu.Unlock()

	if len(entries) == 0 {
		return err
	}
	for _, o := range observers {
		o.ObserveIncidents(entries, snapshot)
	}
	return err
}

func (c *ControlUnit) Authenticate(username string) (models.User, error) {
	var user models.User
	err := c.apply(func() (err error) {
		user, err = c.users.Authenticate(username)
		return err
	})
	return user, err
}

func (c *ControlUnit) Logout(username string) error {
	return c.apply(func() error {
		return c.users.Logout(username)
	})
}

func (c *ControlUnit) AddUser(req CreateUserRequest) (models.User, error) {
	var user models.User
	err := c.apply(func() (err error) {
		user, err = c.users.AddUser(req)
		return err
	})
	return user, err
}

func (c *ControlUnit) DeleteUser(username string) error {
	return c.apply(func() error {
		return c.users.DeleteUser(username)
	})
}

func (c *ControlUnit) ListUsers() []models.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.users.ListUsers()
}

func (c *ControlUnit) ActiveUser() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.users.ActiveUser()
}

func (c *ControlUnit) Start() (models.Vehicle, error) {
	return c.transition(c.machine.Start)
}

func (c *ControlUnit) Stop() (models.Vehicle, error) {
	return c.transition(c.machine.Stop)
}

func (c *ControlUnit) Accelerate() (models.Vehicle, error) {
	return c.transition(c.machine.Accelerate)
}

func (c *ControlUnit) Brake() (models.Vehicle, error) {
	return c.transition(c.machine.Brake)
}

func (c *ControlUnit) ChangeDirection() (models.Vehicle, error) {
	return c.transition(c.machine.ChangeDirection)
}

func (c *ControlUnit) ChangeLane(target int) (models.Vehicle, error) {
	return c.transition(func() error {
		return c.machine.ChangeLane(models.Lane(target))
	})
}

func (c *ControlUnit) transition(fn func() error) (models.Vehicle, error) {
	var state models.Vehicle
	err := c.apply(func() error {
		err := fn()
		state = c.machine.Snapshot()
		return err
	})
	return state, err
}

// Status returns the car's current state. It does not log.
func (c *ControlUnit) Status() models.Vehicle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.Snapshot()
}

// RecordObstacle stores a LiDAR detection and evaluates it.
func (c *ControlUnit) RecordObstacle(code, lane int) (Report, error) {
	var report Report
	err := c.apply(func() error {
		kind, l := models.ObstacleType(code), models.Lane(lane)
		if !kind.Valid() || !l.Valid() {
			c.log.Appendf("Attempted to record an obstacle (Type: %d Lane: %d). Request rejected.", code, lane)
			return fmt.Errorf("obstacle type %d on lane %d: %w", code, lane, ErrInvalidEvent)
		}

		obstacle := models.Obstacle{
			ID:         uuid.NewString(),
			Type:       kind,
			Lane:       l,
			DetectedAt: c.now(),
		}
		c.obstacles = append(c.obstacles, obstacle)

		report.Obstacle = &obstacle
		report.Decision = c.engine.EvaluateObstacle(obstacle)
		report.Vehicle = c.machine.Snapshot()
		return nil
	})
	return report, err
}

// RecordPeerVehicle stores a vehicle announced over V2V and evaluates it.
func (c *ControlUnit) RecordPeerVehicle(code, velocity int, direction string, lane int) (Report, error) {
	var report Report
	err := c.apply(func() error {
		kind, l := models.VehicleType(code), models.Lane(lane)
		dir, dirErr := models.ParseDirection(direction)
		if !kind.Valid() || !l.Valid() || dirErr != nil || velocity < 0 || velocity > models.MaxPeerVelocity {
			c.log.Appendf("Attempted to record a vehicle (Type: %d Lane: %d Direction: %s Velocity: %d). Request rejected.",
				code, lane, direction, velocity)
			return fmt.Errorf("vehicle type %d on lane %d heading %q at %d km/h: %w",
				code, lane, direction, velocity, ErrInvalidEvent)
		}

		peer := models.DetectedVehicle{
			ID:         uuid.NewString(),
			Type:       kind,
			Direction:  dir,
			Lane:       l,
			Velocity:   velocity,
			DetectedAt: c.now(),
		}
		c.peers = append(c.peers, peer)

		report.Peer = &peer
		report.Decision = c.engine.EvaluatePeerVehicle(peer)
		report.Vehicle = c.machine.Snapshot()
		return nil
	})
	return report, err
}

// RecordSign looks the sign up and evaluates it. Signs are not kept.
func (c *ControlUnit) RecordSign(code int) (Report, error) {
	var report Report
	err := c.apply(func() error {
		desc, ok := models.LookupSign(models.SignCode(code))
		if !ok {
			c.log.Appendf("Attempted to record a traffic sign (Code: %d). Request rejected.", code)
			return fmt.Errorf("sign code %d: %w", code, ErrInvalidEvent)
		}

		sign := models.TrafficSign{Code: models.SignCode(code), Description: desc}
		report.Sign = &sign
		report.Decision = c.engine.EvaluateSign(sign)
		report.Vehicle = c.machine.Snapshot()
		return nil
	})
	return report, err
}

// ReadLog drains the incident log, most recent entry first. A second call
// with nothing logged in between returns an empty slice.
func (c *ControlUnit) ReadLog() []models.LogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.log.Drain()
}

func (c *ControlUnit) ListObstacles() []models.Obstacle {
	c.mu.Lock()
	defer c.mu.Unlock()
	obstacles := make([]models.Obstacle, len(c.obstacles))
	copy(obstacles, c.obstacles)
	return obstacles
}

func (c *ControlUnit) ListPeerVehicles() []models.DetectedVehicle {
	c.mu.Lock()
	defer c.mu.Unlock()
	peers := make([]models.DetectedVehicle, len(c.peers))
	copy(peers, c.peers)
	return peers
}
