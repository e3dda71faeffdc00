package bot

import (
	"context"

	"github.com/ticktree/ticktree/internal/core/bt"
)

// The demo sensor packs fake a game world on the blackboard: the loading
// screen clears after a few updates, threats and loot come and go on cycles,
// and the leader drifts away from a stationary follower.

// Sensors returns the pack for the configured role.
func Sensors(cfg Config) []bt.Sensor {
	switch cfg.Role {
	case RoleFollower:
		return []bt.Sensor{
			&loadingSensor{after: 3},
			&cycleSensor{name: "threat", key: "stub:EnemyThreatDetected", period: 9, active: 2},
			&positionSensor{},
			bt.NewDistanceSensor("leaderDistance", "self_x", "self_y", "leader_x", "leader_y", "leader_distance"),
			bt.NewThresholdSensor("straggler", "leader_distance", "stub:IsTooFarFromLeader", 25),
		}
	default:
		return []bt.Sensor{
			&loadingSensor{after: 3},
			&cycleSensor{name: "enemies", key: "stub:DetectEnemiesInRange", period: 8, active: 3},
			&cycleSensor{name: "loot", key: "stub:DetectLootNearby", period: 5, active: 1},
			&cycleSensor{name: "orders", key: "stub:HasMovementCommand", period: 6, active: 2},
		}
	}
}

// loadingSensor keeps the loading screen up for the first few updates. The
// wait action stays RUNNING while the screen is up and completes on the
// update it clears, so the parked sequence can exit.
type loadingSensor struct {
	after int
	n     int
}

func (s *loadingSensor) Name() string { return "loading" }

func (s *loadingSensor) Update(_ context.Context, bb bt.Blackboard) error {
	s.n++
	loading := s.n <= s.after
	bb.Set("stub:IsLoadingScreen", loading)
	if loading {
		bb.Set("stub:WaitLoading", bt.StatusRunning)
	} else {
		bb.Set("stub:WaitLoading", bt.StatusSuccess)
	}
	return nil
}

// cycleSensor raises a flag for the first active updates of every period.
type cycleSensor struct {
	name   string
	key    string
	period int
	active int
	n      int
}

func (s *cycleSensor) Name() string { return s.name }

func (s *cycleSensor) Update(_ context.Context, bb bt.Blackboard) error {
	bb.Set(s.key, s.n%s.period < s.active)
	s.n++
	return nil
}

// positionSensor walks the leader east while the follower stays put, so the
// straggler check eventually fires.
type positionSensor struct {
	step int
}

func (s *positionSensor) Name() string { return "position" }

func (s *positionSensor) Update(_ context.Context, bb bt.Blackboard) error {
	s.step++
	bb.Set("leader_x", float64(s.step*2))
	bb.Set("leader_y", 0.0)
	if _, ok := bb.Get("self_x"); !ok {
		bb.Set("self_x", 0.0)
		bb.Set("self_y", 0.0)
	}
	return nil
}
