package models

import (
	"time"
)

// Obstacle is a LiDAR detection. Detections are immutable once recorded.
type Obstacle struct {
	ID         string       `bson:"_id" json:"id"`
	Type       ObstacleType `bson:"type" json:"type"`
	Lane       Lane         `bson:"lane" json:"lane"`
	DetectedAt time.Time    `bson:"detected_at" json:"detectedAt"`
}

// DetectedVehicle is a peer vehicle announced over V2V.
type DetectedVehicle struct {
	ID         string      `bson:"_id" json:"id"`
	Type       VehicleType `bson:"type" json:"type"`
	Direction  Direction   `bson:"direction" json:"direction"`
	Lane       Lane        `bson:"lane" json:"lane"`
	Velocity   int         `bson:"velocity" json:"velocity"`
	DetectedAt time.Time   `bson:"detected_at" json:"detectedAt"`
}

// MaxPeerVelocity is the highest speed a V2V peer may report.
const MaxPeerVelocity = 160

// TrafficSign is evaluated once and never stored.
type TrafficSign struct {
	Code        SignCode `json:"code"`
	Description string   `json:"description"`
}
