package models

import (
	"fmt"
	"strings"
)

// Direction is the heading of a vehicle on the two-way road.
type Direction string

const (
	North Direction = "N"
	South Direction = "S"
)

// ParseDirection accepts "N"/"S" in either case.
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToUpper(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("invalid direction %q: must be N or S", s)
	}
	return d, nil
}

func (d Direction) Valid() bool {
	return d == North || d == South
}

// Opposite returns the reverse heading.
func (d Direction) Opposite() Direction {
	if d == North {
		return South
	}
	return North
}

// Lane numbers run from 1 (slowest) to 3 (fastest); adjacency is linear.
type Lane int

const (
	LaneSlow   Lane = 1
	LaneMiddle Lane = 2
	LaneFast   Lane = 3
)

func (l Lane) Valid() bool {
	return l >= LaneSlow && l <= LaneFast
}

// Adjacent reports whether target is one step away from l.
func (l Lane) Adjacent(target Lane) bool {
	return target.Valid() && (target == l-1 || target == l+1)
}

// Vehicle is the state of the car driven by the control unit.
// PoweredOn and Velocity are independent axes: Stop zeroes the velocity
// but leaves the car powered on.
type Vehicle struct {
	Type      string    `bson:"type" json:"type"`
	Velocity  int       `bson:"velocity" json:"velocity"`
	Direction Direction `bson:"direction" json:"direction"`
	Lane      Lane      `bson:"lane" json:"lane"`
	PoweredOn bool      `bson:"powered_on" json:"poweredOn"`
}

// NewCar returns the own vehicle in its startup state: parked on lane 1
// heading north with the power off.
func NewCar() *Vehicle {
	return &Vehicle{
		Type:      VehicleTypes[VehicleCar],
		Velocity:  0,
		Direction: North,
		Lane:      LaneSlow,
		PoweredOn: false,
	}
}

// Stopped reports whether the vehicle has no forward velocity.
func (v Vehicle) Stopped() bool {
	return v.Velocity == 0
}
