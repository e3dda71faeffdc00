// Package bot builds the squad demo tree: loading screens and map readiness
// preempt everything, then a leader branch handles combat, loot and movement
// orders while a follower branch keeps formation around the leader. Leaf
// logic is stubbed; outcomes come from config defaults and can be flipped at
// runtime through "stub:<name>" blackboard keys or the bundled sensors.
package bot

import (
	"github.com/ticktree/ticktree/internal/core/bt"
)

type Role string

const (
	RoleLeader   Role = "leader"
	RoleFollower Role = "follower"
)

// Config selects the sensor pack and overrides stub leaf defaults by name.
// The tree itself always carries both role branches, like a real squad
// client: the inactive branch simply never gets past its conditions.
type Config struct {
	Role       Role
	Conditions map[string]bool
	Actions    map[string]bt.Status
}

func (c Config) cond(name string, def bool) bt.Node {
	if v, ok := c.Conditions[name]; ok {
		def = v
	}
	return bt.NewStubCondition(name, def)
}

func (c Config) act(name string, def bt.Status) bt.Node {
	if v, ok := c.Actions[name]; ok {
		def = v
	}
	return bt.NewStubAction(name, def)
}

// Build assembles the squad tree root.
func Build(cfg Config) bt.Node {
	handleLoading := bt.NewSequence("HandleLoading",
		cfg.cond("IsLoadingScreen", true),
		cfg.act("WaitLoading", bt.StatusRunning),
	)

	handleMapNotReady := bt.NewSequence("HandleMapNotReady",
		cfg.cond("MapNotReady", false),
		cfg.act("WaitMapReady", bt.StatusRunning),
	)

	leaderCombat := bt.NewSequence("LeaderCombat",
		cfg.cond("DetectEnemiesInRange", false),
		cfg.act("SelectBestTarget", bt.StatusSuccess),
		cfg.act("MoveIntoCombatPosition", bt.StatusSuccess),
		cfg.act("UseSkills", bt.StatusSuccess),
		cfg.act("AttackTarget", bt.StatusSuccess),
	)

	leaderLoot := bt.NewSequence("LeaderLoot",
		cfg.cond("DetectLootNearby", false),
		cfg.act("MoveAndPickup", bt.StatusSuccess),
	)

	leaderMovement := bt.NewSequence("LeaderMovement",
		cfg.cond("HasMovementCommand", false),
		cfg.act("MoveToCommandPoint", bt.StatusSuccess),
	)

	leaderBranch := bt.NewSelector("LeaderBranch",
		leaderCombat,
		leaderLoot,
		leaderMovement,
	)

	followerEmergencyCombat := bt.NewSequence("FollowerEmergencyCombat",
		cfg.cond("EnemyThreatDetected", false),
		cfg.act("DefendSelf", bt.StatusSuccess),
		cfg.act("UseQuickSkill", bt.StatusSuccess),
	)

	followerFormation := bt.NewSequence("FollowerFormation",
		cfg.act("GetLeaderPosition", bt.StatusSuccess),
		cfg.act("ComputeFormationOffset", bt.StatusSuccess),
		cfg.act("MoveToOffset", bt.StatusSuccess),
	)

	followerRecovery := bt.NewSequence("FollowerRecovery",
		cfg.cond("IsTooFarFromLeader", false),
		cfg.act("SprintToLeader", bt.StatusSuccess),
	)

	followerBranch := bt.NewSelector("FollowerBranch",
		followerEmergencyCombat,
		followerFormation,
		followerRecovery,
	)

	return bt.NewSelector("ROOT",
		handleLoading,
		handleMapNotReady,
		leaderBranch,
		followerBranch,
	)
}

// NewTree builds the squad tree wrapped in a BehaviorTree named after the
// role.
func NewTree(cfg Config, opts ...bt.Option) *bt.BehaviorTree {
	name := "squad-leader"
	if cfg.Role == RoleFollower {
		name = "squad-follower"
	}
	return bt.New(name, Build(cfg), opts...)
}

// NewAgent wires the tree and the role's sensor pack into an agent.
func NewAgent(cfg Config, opts ...bt.AgentOption) *bt.Agent {
	opts = append([]bt.AgentOption{bt.WithSensors(Sensors(cfg)...)}, opts...)
	return bt.NewAgent(NewTree(cfg), opts...)
}
