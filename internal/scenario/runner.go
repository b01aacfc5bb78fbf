package scenario

import (
	"context"
	"driverless-backend/internal/models"
	"driverless-backend/internal/services"
	"fmt"
)

// Result is the transcript line of one executed step.
type Result struct {
	Step    int            `yaml:"step" json:"step"`
	Action  string         `yaml:"action" json:"action"`
	OK      bool           `yaml:"ok" json:"ok"`
	Error   string         `yaml:"error,omitempty" json:"error,omitempty"`
	Output  []string       `yaml:"output,omitempty" json:"output,omitempty"`
	Vehicle models.Vehicle `yaml:"vehicle" json:"vehicle"`
}

// Runner plays scenarios against a control unit.
type Runner struct {
	unit *services.ControlUnit
}

func NewRunner(unit *services.ControlUnit) *Runner {
	return &Runner{unit: unit}
}

// Run executes the steps in order. Every step but login needs an active
// user. A rejected step is recorded and the run goes on, except for a failed
// login: that ends the session and the run, and the returned error wraps
// services.ErrUnauthorized.
func (r *Runner) Run(ctx context.Context, s *Scenario) ([]Result, error) {
	results := make([]Result, 0, len(s.Steps))

	for i, step := range s.Steps {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		output, err := r.execute(step)
		result := Result{
			Step:    i + 1,
			Action:  step.Action,
			OK:      err == nil,
			Output:  output,
			Vehicle: r.unit.Status(),
		}
		if err != nil {
			result.Error = err.Error()
		}
		results = append(results, result)

		if step.Action == ActionLogin && services.IsSessionFatal(err) {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return results, nil
}

func (r *Runner) execute(step Step) ([]string, error) {
	u := r.unit
	if step.Action != ActionLogin {
		if _, ok := u.ActiveUser(); !ok {
			return nil, fmt.Errorf("%s without an active session: %w", step.Action, services.ErrUnauthorized)
		}
	}

	switch step.Action {
	case ActionLogin:
		_, err := u.Authenticate(step.Username)
		return nil, err
	case ActionLogout:
		return nil, u.Logout(step.Username)
	case ActionAddUser:
		_, err := u.AddUser(services.CreateUserRequest{
			Name:     step.Name,
			Surname:  step.Surname,
			Username: step.Username,
		})
		return nil, err
	case ActionDeleteUser:
		return nil, u.DeleteUser(step.Username)
	case ActionListUsers:
		var names []string
		for _, user := range u.ListUsers() {
			names = append(names, user.Username)
		}
		return names, nil
	case ActionStart:
		return transition(u.Start)
	case ActionStop:
		return transition(u.Stop)
	case ActionAccelerate:
		return transition(u.Accelerate)
	case ActionBrake:
		return transition(u.Brake)
	case ActionChangeDirection:
		return transition(u.ChangeDirection)
	case ActionChangeLane:
		_, err := u.ChangeLane(step.Lane)
		return nil, err
	case ActionObstacle:
		return decision(u.RecordObstacle(step.Type, step.Lane))
	case ActionVehicle:
		return decision(u.RecordPeerVehicle(step.Type, step.Velocity, step.Direction, step.Lane))
	case ActionSign:
		return decision(u.RecordSign(step.Code))
	case ActionStatus:
		return nil, nil
	case ActionReadLog:
		var messages []string
		for _, entry := range u.ReadLog() {
			messages = append(messages, entry.Message)
		}
		return messages, nil
	case ActionListObstacles:
		var lines []string
		for _, o := range u.ListObstacles() {
			lines = append(lines, fmt.Sprintf("%s on lane %d", o.Type, o.Lane))
		}
		return lines, nil
	case ActionListVehicles:
		var lines []string
		for _, v := range u.ListPeerVehicles() {
			lines = append(lines, fmt.Sprintf("%s on lane %d heading %s at %d km/h", v.Type, v.Lane, v.Direction, v.Velocity))
		}
		return lines, nil
	}
	return nil, fmt.Errorf("unknown action %q", step.Action)
}

func transition(fn func() (models.Vehicle, error)) ([]string, error) {
	_, err := fn()
	return nil, err
}

func decision(report services.Report, err error) ([]string, error) {
	if err != nil {
		return nil, err
	}
	return []string{report.Decision.Message}, nil
}
