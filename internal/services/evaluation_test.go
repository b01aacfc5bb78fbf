package services

import (
	"driverless-backend/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testCar struct {
	velocity  int
	lane      models.Lane
	direction models.Direction
	poweredOn bool
}

func newTestEngine(car testCar) (*EvaluationEngine, *VehicleStateMachine, *IncidentLog) {
	log := newTestLog()
	vehicle := models.NewCar()
	vehicle.Velocity = car.velocity
	vehicle.Lane = car.lane
	vehicle.Direction = car.direction
	vehicle.PoweredOn = car.poweredOn
	machine := NewVehicleStateMachine(vehicle, log)
	return NewEvaluationEngine(machine, log), machine, log
}

func sign(code models.SignCode) models.TrafficSign {
	desc, _ := models.LookupSign(code)
	return models.TrafficSign{Code: code, Description: desc}
}

func TestEvaluateSign(t *testing.T) {
	tests := []struct {
		name     string
		code     models.SignCode
		velocity int
		want     int
		taken    bool
		message  string
	}{
		{"low limit clamps", models.SignSpeedLimitLow, 90, 60, true, "Speed Limit (50 km/h) sign detected. Car's speed is set to 60 km/h."},
		{"low limit at limit", models.SignSpeedLimitLow, 60, 60, false, "Speed Limit (50 km/h) sign detected. Car's speed is 60 km/h. No action is taken."},
		{"high limit clamps", models.SignSpeedLimitHigh, 130, 100, true, "Speed Limit (90 km/h) sign detected. Car's speed is set to 100 km/h."},
		{"high limit below", models.SignSpeedLimitHigh, 80, 80, false, "Speed Limit (90 km/h) sign detected. Car's speed is 80 km/h. No action is taken."},
		{"stop", models.SignStop, 110, 0, true, "Stop sign detected. Car has been stopped."},
		{"stop when stopped", models.SignStop, 0, 0, false, "Stop sign detected. The car is already stopped. No action is taken."},
		{"slippery road", models.SignSlipperyRoad, 100, 70, true, "Slippery Road sign detected. The speed is reduced 30% and set to 70 km/h."},
		{"slippery road truncates", models.SignSlipperyRoad, 75, 52, true, "Slippery Road sign detected. The speed is reduced 30% and set to 52 km/h."},
		{"slippery road when stopped", models.SignSlipperyRoad, 0, 0, false, "Slippery Road sign detected. Car is already stopped. No action is taken."},
		{"minimum speed raises", models.SignMinimumSpeed, 30, 50, true, "Minimum Speed Limit (60 km/h) sign detected. Car's speed is set to 50 km/h."},
		{"minimum speed satisfied", models.SignMinimumSpeed, 50, 50, false, "Minimum Speed Limit (60 km/h) sign detected. Car's speed is 50 km/h. No action is taken."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, machine, log := newTestEngine(testCar{velocity: tt.velocity, lane: 2, direction: models.North, poweredOn: true})

			decision := engine.EvaluateSign(sign(tt.code))

			assert.Equal(t, tt.taken, decision.Taken)
			assert.Equal(t, tt.message, decision.Message)
			assert.Equal(t, tt.want, machine.Snapshot().Velocity)
			assert.Equal(t, models.LaneMiddle, machine.Snapshot().Lane)
			assert.Equal(t, 1, log.Len())
		})
	}
}

func TestEvaluateStopSignIsIdempotent(t *testing.T) {
	engine, machine, log := newTestEngine(testCar{velocity: 140, lane: 1, direction: models.North, poweredOn: true})

	first := engine.EvaluateSign(sign(models.SignStop))
	second := engine.EvaluateSign(sign(models.SignStop))

	assert.True(t, first.Taken)
	assert.False(t, second.Taken)
	assert.Equal(t, 0, machine.Snapshot().Velocity)
	assert.Equal(t, 2, log.Len())
}

func TestEvaluateMinimumSpeedSignWhileOff(t *testing.T) {
	engine, machine, _ := newTestEngine(testCar{velocity: 0, lane: 1, direction: models.North})

	decision := engine.EvaluateSign(sign(models.SignMinimumSpeed))

	assert.False(t, decision.Taken)
	assert.Equal(t, 0, machine.Snapshot().Velocity)
	assert.False(t, machine.Snapshot().PoweredOn)
}

func TestEvaluatePeerVehicle(t *testing.T) {
	tests := []struct {
		name     string
		car      testCar
		peer     models.DetectedVehicle
		wantLane models.Lane
		taken    bool
		message  string
	}{
		{
			name:     "oncoming same lane below threshold",
			car:      testCar{velocity: 70, lane: 2, direction: models.North},
			peer:     models.DetectedVehicle{Direction: models.South, Lane: 2, Velocity: 150},
			wantLane: 1,
			taken:    true,
			message:  "A vehicle (Lane: 2 Direction: S) detected. The car changed its lane from 2 to 1.",
		},
		{
			name:     "oncoming same lane at threshold",
			car:      testCar{velocity: 80, lane: 2, direction: models.North},
			peer:     models.DetectedVehicle{Direction: models.South, Lane: 2},
			wantLane: 3,
			taken:    true,
			message:  "A vehicle (Lane: 2 Direction: S) detected. The car changed its lane from 2 to 3.",
		},
		{
			name:     "oncoming on lane 1",
			car:      testCar{velocity: 60, lane: 1, direction: models.South},
			peer:     models.DetectedVehicle{Direction: models.North, Lane: 1},
			wantLane: 2,
			taken:    true,
			message:  "A vehicle (Lane: 1 Direction: N) detected. The car changed its lane from 1 to 2.",
		},
		{
			name:     "oncoming on lane 3",
			car:      testCar{velocity: 60, lane: 3, direction: models.North},
			peer:     models.DetectedVehicle{Direction: models.South, Lane: 3},
			wantLane: 2,
			taken:    true,
			message:  "A vehicle (Lane: 3 Direction: S) detected. The car changed its lane from 3 to 2.",
		},
		{
			name:     "oncoming different lane",
			car:      testCar{velocity: 60, lane: 2, direction: models.North},
			peer:     models.DetectedVehicle{Direction: models.South, Lane: 3},
			wantLane: 2,
			message:  "A vehicle (Lane: 3 Direction: S) detected. No action is taken (different lane).",
		},
		{
			name:     "same heading slower",
			car:      testCar{velocity: 90, lane: 3, direction: models.North},
			peer:     models.DetectedVehicle{Direction: models.North, Lane: 3, Velocity: 90},
			wantLane: 3,
			message:  "A vehicle (Lane: 3 Direction: N) detected. No action is taken (car too slow).",
		},
		{
			name:     "same heading faster on slowest lane",
			car:      testCar{velocity: 60, lane: 1, direction: models.North},
			peer:     models.DetectedVehicle{Direction: models.North, Lane: 1, Velocity: 120},
			wantLane: 1,
			message:  "A vehicle (Lane: 1 Direction: N) detected. No action is taken (car on slowest lane).",
		},
		{
			name:     "same heading faster on lane 2",
			car:      testCar{velocity: 60, lane: 2, direction: models.North},
			peer:     models.DetectedVehicle{Direction: models.North, Lane: 2, Velocity: 120},
			wantLane: 1,
			taken:    true,
			message:  "A vehicle (Lane: 2 Direction: N) detected. The car changed its lane from 2 to 1.",
		},
		{
			name:     "same heading faster on lane 3",
			car:      testCar{velocity: 100, lane: 3, direction: models.South},
			peer:     models.DetectedVehicle{Direction: models.South, Lane: 3, Velocity: 140},
			wantLane: 2,
			taken:    true,
			message:  "A vehicle (Lane: 3 Direction: S) detected. The car changed its lane from 3 to 2.",
		},
		{
			name:     "same heading different lane",
			car:      testCar{velocity: 60, lane: 2, direction: models.North},
			peer:     models.DetectedVehicle{Direction: models.North, Lane: 1, Velocity: 160},
			wantLane: 2,
			message:  "A vehicle (Lane: 1 Direction: N) detected. No action is taken (different lane).",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.car.poweredOn = true
			engine, machine, log := newTestEngine(tt.car)

			decision := engine.EvaluatePeerVehicle(tt.peer)

			assert.Equal(t, tt.taken, decision.Taken)
			assert.Equal(t, tt.message, decision.Message)
			assert.Equal(t, tt.wantLane, machine.Snapshot().Lane)
			assert.Equal(t, tt.car.velocity, machine.Snapshot().Velocity)
			assert.Equal(t, 1, log.Len())
		})
	}
}

func TestEvaluateObstacle(t *testing.T) {
	t.Run("same lane on lane 3", func(t *testing.T) {
		engine, machine, _ := newTestEngine(testCar{velocity: 60, lane: 3, direction: models.North, poweredOn: true})

		decision := engine.EvaluateObstacle(models.Obstacle{Type: models.ObstacleRock, Lane: 3})

		assert.True(t, decision.Taken)
		assert.Equal(t, "Rock on lane 3 is detected. The car changed its lane from 3 to 2.", decision.Message)
		assert.Equal(t, models.LaneMiddle, machine.Snapshot().Lane)
	})

	t.Run("same lane on lane 2 at speed", func(t *testing.T) {
		engine, machine, _ := newTestEngine(testCar{velocity: 100, lane: 2, direction: models.North, poweredOn: true})

		engine.EvaluateObstacle(models.Obstacle{Type: models.ObstacleTrafficCone, Lane: 2})
		assert.Equal(t, models.LaneFast, machine.Snapshot().Lane)
	})

	t.Run("different lane", func(t *testing.T) {
		engine, machine, log := newTestEngine(testCar{velocity: 60, lane: 1, direction: models.North, poweredOn: true})

		decision := engine.EvaluateObstacle(models.Obstacle{Type: models.ObstaclePedestrian, Lane: 3})

		assert.False(t, decision.Taken)
		assert.Equal(t, "Pedestrian on lane 3 is detected. No action is taken (different lane).", decision.Message)
		assert.Equal(t, models.LaneSlow, machine.Snapshot().Lane)
		require.Equal(t, 1, log.Len())
	})

	t.Run("avoidance applies while the car is off", func(t *testing.T) {
		engine, machine, _ := newTestEngine(testCar{lane: 1, direction: models.North})

		engine.EvaluateObstacle(models.Obstacle{Type: models.ObstacleAnimal, Lane: 1})
		assert.Equal(t, models.LaneMiddle, machine.Snapshot().Lane)
		assert.Equal(t, 0, machine.Snapshot().Velocity)
	})
}
