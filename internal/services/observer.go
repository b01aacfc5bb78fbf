package services

import "driverless-backend/internal/models"

// Observer receives the incidents produced by each control unit operation
// together with the vehicle state the operation left behind. Calls arrive in
// operation order, one at a time, outside the control unit's lock.
//
// Implementations must not call back into the ControlUnit and should hand
// slow work (network, database) off to their own goroutines.
type Observer interface {
	ObserveIncidents(entries []models.LogEntry, vehicle models.Vehicle)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(entries []models.LogEntry, vehicle models.Vehicle)

func (f ObserverFunc) ObserveIncidents(entries []models.LogEntry, vehicle models.Vehicle) {
	f(entries, vehicle)
}
