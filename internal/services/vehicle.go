package services

import (
	"driverless-backend/internal/models"
	"fmt"
)

const (
	StartVelocity = 60
	VelocityStep  = 10
)

// VehicleStateMachine owns the power, velocity, direction and lane of the
// car. Power and motion are independent: Stop brings the car to 0 km/h but
// leaves it powered on, and nothing in the state machine powers it off.
//
// Every exported transition appends exactly one incident, whether it is
// applied or rejected.
type VehicleStateMachine struct {
	vehicle *models.Vehicle
	log     *IncidentLog
}

func NewVehicleStateMachine(vehicle *models.Vehicle, log *IncidentLog) *VehicleStateMachine {
	return &VehicleStateMachine{
		vehicle: vehicle,
		log:     log,
	}
}

// Snapshot returns a copy of the current vehicle state.
func (m *VehicleStateMachine) Snapshot() models.Vehicle {
	return *m.vehicle
}

func (m *VehicleStateMachine) Start() error {
	if m.vehicle.PoweredOn {
		m.log.Append("Attempted to start the car. The car has already been started.")
		return ErrAlreadyOn
	}

	m.vehicle.PoweredOn = true
	m.vehicle.Velocity = StartVelocity
	m.log.Appendf("The car has been activated. The car's speed is set to %d km/h.", StartVelocity)
	return nil
}

// Stop zeroes the velocity. The car stays powered on.
func (m *VehicleStateMachine) Stop() error {
	if !m.vehicle.PoweredOn {
		m.log.Append("Attempted to stop the car. The car is not on.")
		return ErrAlreadyOff
	}
	if m.vehicle.Stopped() {
		m.log.Append("Attempted to stop the car. The car is already stopped.")
		return ErrAlreadyStopped
	}

	m.vehicle.Velocity = 0
	m.log.Append("The car has stopped.")
	return nil
}

func (m *VehicleStateMachine) Accelerate() error {
	if !m.vehicle.PoweredOn {
		m.log.Append("Attempted to accelerate without starting the car. No action is taken.")
		return ErrNotRunning
	}

	m.vehicle.Velocity += VelocityStep
	m.log.Appendf("The car has been accelerated. The car's speed is set to %d km/h.", m.vehicle.Velocity)
	return nil
}

// Brake is rejected at 0 km/h rather than clamped. A velocity that is not a
// multiple of the step (after a slippery road sign) floors at 0.
func (m *VehicleStateMachine) Brake() error {
	if !m.vehicle.PoweredOn {
		m.log.Append("Attempted to slow down without starting the car. No action is taken.")
		return ErrNotRunning
	}
	if m.vehicle.Stopped() {
		m.log.Append("Attempted to reduce the speed of the car. The car is already stopped.")
		return ErrAlreadyStopped
	}

	m.vehicle.Velocity = max(m.vehicle.Velocity-VelocityStep, 0)
	m.log.Appendf("The car's speed has been reduced. The car's speed is set to %d km/h.", m.vehicle.Velocity)
	return nil
}

func (m *VehicleStateMachine) ChangeDirection() error {
	if !m.vehicle.PoweredOn {
		m.log.Append("Attempted to change the direction without starting the car. No action is taken.")
		return ErrNotRunning
	}

	m.vehicle.Direction = m.vehicle.Direction.Opposite()
	m.log.Appendf("The car's direction has been changed. New direction is: %s.", m.vehicle.Direction)
	return nil
}

// ChangeLane moves the car to an adjacent lane on operator request.
func (m *VehicleStateMachine) ChangeLane(target models.Lane) error {
	if !m.vehicle.PoweredOn {
		m.log.Append("Attempted to change the lane without starting the car. No action is taken.")
		return ErrNotRunning
	}
	if !m.vehicle.Lane.Adjacent(target) {
		m.log.Appendf("Attempted to change the lane from %d to %d. Request rejected.", m.vehicle.Lane, target)
		return fmt.Errorf("lane %d to %d: %w", m.vehicle.Lane, target, ErrInvalidTarget)
	}

	m.vehicle.Lane = target
	m.log.Appendf("The car's lane has been changed. New lane is: %d.", m.vehicle.Lane)
	return nil
}

// The methods below are the forced-maneuver path used by the evaluation
// engine. They bypass the power check and lane legality table and do not
// log; the engine logs one entry per evaluated event.

// avoidanceLane is the lane to escape to when the current lane is blocked:
// 1 to 2, 3 to 2, and from 2 the slow lane below 80 km/h or the fast lane
// otherwise.
func (m *VehicleStateMachine) avoidanceLane() models.Lane {
	switch m.vehicle.Lane {
	case models.LaneSlow:
		return models.LaneMiddle
	case models.LaneMiddle:
		if m.vehicle.Velocity < AvoidanceThreshold {
			return models.LaneSlow
		}
		return models.LaneFast
	default:
		return models.LaneMiddle
	}
}

// forceLane moves to target and returns the lane the car left.
func (m *VehicleStateMachine) forceLane(target models.Lane) models.Lane {
	from := m.vehicle.Lane
	m.vehicle.Lane = target
	return from
}

func (m *VehicleStateMachine) setVelocity(velocity int) {
	m.vehicle.Velocity = max(velocity, 0)
}
