package services

import (
	"driverless-backend/internal/models"
	"fmt"
)

// Velocity thresholds applied when a sign is recognized.
const (
	SpeedLimitLow      = 60
	SpeedLimitHigh     = 100
	MinimumSpeed       = 50
	AvoidanceThreshold = 80
)

// Decision is the outcome of evaluating one sensor event.
type Decision struct {
	Taken   bool   `json:"taken"`
	Message string `json:"message"`
}

// EvaluationEngine holds the sign, peer vehicle and obstacle rules. It keeps
// no state between calls: every evaluation reads the vehicle, applies at most
// one change through the state machine and logs exactly one incident.
type EvaluationEngine struct {
	machine *VehicleStateMachine
	log     *IncidentLog
}

func NewEvaluationEngine(machine *VehicleStateMachine, log *IncidentLog) *EvaluationEngine {
	return &EvaluationEngine{
		machine: machine,
		log:     log,
	}
}

func (e *EvaluationEngine) EvaluateSign(sign models.TrafficSign) Decision {
	v := e.machine.vehicle
	desc := sign.Description

	switch sign.Code {
	case models.SignSpeedLimitLow:
		return e.limit(desc, SpeedLimitLow)
	case models.SignSpeedLimitHigh:
		return e.limit(desc, SpeedLimitHigh)
	case models.SignStop:
		if v.Stopped() {
			return e.decide(false, "%s sign detected. The car is already stopped. No action is taken.", desc)
		}
		e.machine.setVelocity(0)
		return e.decide(true, "%s sign detected. Car has been stopped.", desc)
	case models.SignSlipperyRoad:
		if v.Stopped() {
			return e.decide(false, "%s sign detected. Car is already stopped. No action is taken.", desc)
		}
		e.machine.setVelocity(v.Velocity * 7 / 10)
		return e.decide(true, "%s sign detected. The speed is reduced 30%% and set to %d km/h.", desc, v.Velocity)
	case models.SignMinimumSpeed:
		if v.Velocity >= MinimumSpeed {
			return e.decide(false, "%s sign detected. Car's speed is %d km/h. No action is taken.", desc, v.Velocity)
		}
		// A powered-off car is never given velocity.
		if !v.PoweredOn {
			return e.decide(false, "%s sign detected. The car is not on. No action is taken.", desc)
		}
		e.machine.setVelocity(MinimumSpeed)
		return e.decide(true, "%s sign detected. Car's speed is set to %d km/h.", desc, MinimumSpeed)
	}

	return e.decide(false, "Sign code %d is not in the sign database. No action is taken.", int(sign.Code))
}

func (e *EvaluationEngine) limit(desc string, limit int) Decision {
	v := e.machine.vehicle
	if v.Velocity <= limit {
		return e.decide(false, "%s sign detected. Car's speed is %d km/h. No action is taken.", desc, v.Velocity)
	}
	e.machine.setVelocity(limit)
	return e.decide(true, "%s sign detected. Car's speed is set to %d km/h.", desc, limit)
}

// EvaluatePeerVehicle avoids an oncoming vehicle in the same lane, and yields
// to a faster vehicle with the same heading in the same lane.
func (e *EvaluationEngine) EvaluatePeerVehicle(peer models.DetectedVehicle) Decision {
	v := e.machine.vehicle
	subject := fmt.Sprintf("A vehicle (Lane: %d Direction: %s) detected.", peer.Lane, peer.Direction)

	if peer.Lane != v.Lane {
		return e.decide(false, "%s No action is taken (different lane).", subject)
	}

	if peer.Direction != v.Direction {
		return e.avoid(subject, e.machine.avoidanceLane())
	}

	if peer.Velocity <= v.Velocity {
		return e.decide(false, "%s No action is taken (car too slow).", subject)
	}
	if v.Lane == models.LaneSlow {
		return e.decide(false, "%s No action is taken (car on slowest lane).", subject)
	}
	return e.avoid(subject, v.Lane-1)
}

// EvaluateObstacle avoids an obstacle in the car's lane. Recording the
// obstacle in the history is the caller's job.
func (e *EvaluationEngine) EvaluateObstacle(obstacle models.Obstacle) Decision {
	v := e.machine.vehicle
	subject := fmt.Sprintf("%s on lane %d is detected.", obstacle.Type, obstacle.Lane)

	if obstacle.Lane != v.Lane {
		return e.decide(false, "%s No action is taken (different lane).", subject)
	}
	return e.avoid(subject, e.machine.avoidanceLane())
}

func (e *EvaluationEngine) avoid(subject string, target models.Lane) Decision {
	from := e.machine.forceLane(target)
	return e.decide(true, "%s The car changed its lane from %d to %d.", subject, from, target)
}

func (e *EvaluationEngine) decide(taken bool, format string, args ...any) Decision {
	entry := e.log.Appendf(format, args...)
	return Decision{
		Taken:   taken,
		Message: entry.Message,
	}
}
