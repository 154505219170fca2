package model

import (
	"errors"
	"slices"
	"time"
)

// Frequency controls how a chore's due date advances after completion or a
// missed occurrence.
type Frequency string

const (
	FrequencyOnce    Frequency = "once"
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyOnce, FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

type Chore struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	AssigneeIDs     []string  `json:"assignee_ids"`
	DueDate         time.Time `json:"due_date"`
	RewardCoins     int       `json:"reward_coins"`
	PunishmentCoins int       `json:"punishment_coins"`
	Frequency       Frequency `json:"frequency"`
	Paused          bool      `json:"paused"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (c *Chore) Validate() error {
	if c.Name == "" {
		return errors.New("chore name is required")
	}
	if !c.Frequency.Valid() {
		return errors.New("invalid frequency")
	}
	if c.RewardCoins < 0 {
		return errors.New("reward coins must not be negative")
	}
	if c.PunishmentCoins < 0 {
		return errors.New("punishment coins must not be negative")
	}
	return nil
}

// AssignedTo reports whether the chore is assigned to the given kid.
func (c *Chore) AssignedTo(kidID string) bool {
	return slices.Contains(c.AssigneeIDs, kidID)
}

type Reward struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Cost        int       `json:"cost"`
	CreatedAt   time.Time `json:"created_at"`
}

func (r *Reward) Validate() error {
	if r.Name == "" {
		return errors.New("reward name is required")
	}
	if r.Cost < 0 {
		return errors.New("reward cost must not be negative")
	}
	return nil
}
