package models

import (
	"fmt"
	"strconv"
)

// ObstacleType is the LiDAR classification code of an obstacle.
type ObstacleType int

const (
	ObstacleRock        ObstacleType = 1
	ObstaclePedestrian  ObstacleType = 2
	ObstacleAnimal      ObstacleType = 3
	ObstacleGarbage     ObstacleType = 4
	ObstacleTrafficCone ObstacleType = 5
)

// VehicleType is the class code broadcast by a peer over V2V.
type VehicleType int

const (
	VehicleCar     VehicleType = 1
	VehicleVan     VehicleType = 2
	VehicleSUV     VehicleType = 3
	VehicleTruck   VehicleType = 4
	VehicleTrailer VehicleType = 5
)

// SignCode is the traffic management authority code of a road sign.
type SignCode int

const (
	SignSpeedLimitLow  SignCode = 1
	SignSpeedLimitHigh SignCode = 2
	SignStop           SignCode = 3
	SignSlipperyRoad   SignCode = 4
	SignMinimumSpeed   SignCode = 5
)

// ObstacleTypes is the obstacle type database used by the LiDAR.
var ObstacleTypes = map[ObstacleType]string{
	ObstacleRock:        "Rock",
	ObstaclePedestrian:  "Pedestrian",
	ObstacleAnimal:      "Animal",
	ObstacleGarbage:     "Garbage",
	ObstacleTrafficCone: "Traffic cone",
}

// VehicleTypes is the vehicle class table used by the V2V module.
var VehicleTypes = map[VehicleType]string{
	VehicleCar:     "Car",
	VehicleVan:     "Van",
	VehicleSUV:     "SUV",
	VehicleTruck:   "Truck/Lorry",
	VehicleTrailer: "Trailer",
}

// SignDescriptions mirrors the traffic management authority sign database.
// The descriptions are shown to operators verbatim; the velocity thresholds
// applied for each code live in the evaluation engine.
var SignDescriptions = map[SignCode]string{
	SignSpeedLimitLow:  "Speed Limit (50 km/h)",
	SignSpeedLimitHigh: "Speed Limit (90 km/h)",
	SignStop:           "Stop",
	SignSlipperyRoad:   "Slippery Road",
	SignMinimumSpeed:   "Minimum Speed Limit (60 km/h)",
}

func (t ObstacleType) String() string {
	if name, ok := ObstacleTypes[t]; ok {
		return name
	}
	return fmt.Sprintf("ObstacleType(%d)", int(t))
}

func (t ObstacleType) Valid() bool {
	_, ok := ObstacleTypes[t]
	return ok
}

func (t ObstacleType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText accepts the catalog name or the numeric code.
func (t *ObstacleType) UnmarshalText(text []byte) error {
	for code, name := range ObstacleTypes {
		if name == string(text) {
			*t = code
			return nil
		}
	}
	if n, err := strconv.Atoi(string(text)); err == nil && ObstacleType(n).Valid() {
		*t = ObstacleType(n)
		return nil
	}
	return fmt.Errorf("unknown obstacle type %q", text)
}

func (t VehicleType) String() string {
	if name, ok := VehicleTypes[t]; ok {
		return name
	}
	return fmt.Sprintf("VehicleType(%d)", int(t))
}

func (t VehicleType) Valid() bool {
	_, ok := VehicleTypes[t]
	return ok
}

func (t VehicleType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText accepts the catalog name or the numeric code.
func (t *VehicleType) UnmarshalText(text []byte) error {
	for code, name := range VehicleTypes {
		if name == string(text) {
			*t = code
			return nil
		}
	}
	if n, err := strconv.Atoi(string(text)); err == nil && VehicleType(n).Valid() {
		*t = VehicleType(n)
		return nil
	}
	return fmt.Errorf("unknown vehicle type %q", text)
}

func (c SignCode) Valid() bool {
	_, ok := SignDescriptions[c]
	return ok
}

// LookupSign returns the sign database description for code.
func LookupSign(code SignCode) (string, bool) {
	if !code.Valid() {
		return "", false
	}
	return SignDescriptions[code], true
}
