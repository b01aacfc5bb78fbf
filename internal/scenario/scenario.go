package scenario

import (
	"bytes"
	"driverless-backend/internal/models"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Actions a scenario step may name.
const (
	ActionLogin           = "login"
	ActionLogout          = "logout"
	ActionAddUser         = "add_user"
	ActionDeleteUser      = "delete_user"
	ActionListUsers       = "list_users"
	ActionStart           = "start"
	ActionStop            = "stop"
	ActionAccelerate      = "accelerate"
	ActionBrake           = "brake"
	ActionChangeDirection = "change_direction"
	ActionChangeLane      = "change_lane"
	ActionObstacle        = "obstacle"
	ActionVehicle         = "vehicle"
	ActionSign            = "sign"
	ActionStatus          = "status"
	ActionReadLog         = "read_log"
	ActionListObstacles   = "list_obstacles"
	ActionListVehicles    = "list_vehicles"
)

var knownActions = map[string]struct{}{
	ActionLogin: {}, ActionLogout: {}, ActionAddUser: {}, ActionDeleteUser: {}, ActionListUsers: {},
	ActionStart: {}, ActionStop: {}, ActionAccelerate: {}, ActionBrake: {}, ActionChangeDirection: {},
	ActionChangeLane: {}, ActionObstacle: {}, ActionVehicle: {}, ActionSign: {}, ActionStatus: {},
	ActionReadLog: {}, ActionListObstacles: {}, ActionListVehicles: {},
}

var ErrEmptyScenario = errors.New("scenario has no steps")

// Scenario is a scripted operator session. Admin overrides the control
// unit's startup admin when set.
type Scenario struct {
	Name  string       `yaml:"name"`
	Admin *models.User `yaml:"admin,omitempty"`
	Steps []Step       `yaml:"steps"`
}

// Step is one console command. Only the fields its action needs are read.
type Step struct {
	Action    string `yaml:"action"`
	Username  string `yaml:"username,omitempty"`
	Name      string `yaml:"name,omitempty"`
	Surname   string `yaml:"surname,omitempty"`
	Lane      int    `yaml:"lane,omitempty"`
	Type      int    `yaml:"type,omitempty"`
	Velocity  int    `yaml:"velocity,omitempty"`
	Direction string `yaml:"direction,omitempty"`
	Code      int    `yaml:"code,omitempty"`
}

// Parse decodes a scenario document. Unknown fields and actions are errors.
func Parse(r io.Reader) (*Scenario, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var s Scenario
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyScenario
		}
		return nil, fmt.Errorf("yaml unmarshal: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load reads and parses the scenario file at path.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(bytes.NewReader(data))
}

func (s *Scenario) Validate() error {
	if len(s.Steps) == 0 {
		return ErrEmptyScenario
	}
	for i, step := range s.Steps {
		if _, ok := knownActions[step.Action]; !ok {
			return fmt.Errorf("step %d: unknown action %q", i+1, step.Action)
		}
	}
	if s.Admin != nil && s.Admin.Username == "" {
		return errors.New("admin: username is required")
	}
	return nil
}
