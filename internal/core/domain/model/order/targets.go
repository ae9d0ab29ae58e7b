package order

import (
	"fmt"
	"slices"
	"strings"

	"labtrack/internal/pkg/errs"
)

const (
	// MaxNotificationTargets caps the distinct targets one order can accumulate.
	MaxNotificationTargets = 3

	maxTargetLength = 2048
)

// Targets is an insertion-ordered set of distinct notification targets with
// at most MaxNotificationTargets members. The zero value is an empty set.
type Targets struct {
	items []string
}

// NewTargets builds a set from raw targets, dropping duplicates and blanks.
func NewTargets(raw ...string) (Targets, error) {
	var t Targets
	for _, r := range raw {
		next, err := t.With(r)
		if err != nil {
			return Targets{}, err
		}
		t = next
	}
	return t, nil
}

// NormalizeTarget trims a raw target and checks its length.
func NormalizeTarget(raw string) (string, error) {
	target := strings.TrimSpace(raw)
	if target == "" {
		return "", errs.NewValueIsRequiredError("notification target")
	}
	if len(target) > maxTargetLength {
		return "", errs.NewValueIsOutOfRangeError("notification target length", len(target), 1, maxTargetLength)
	}
	return target, nil
}

// With returns the union of t and target. Adding a present target returns t
// unchanged; growing past MaxNotificationTargets fails with a conflict and
// leaves t untouched.
func (t Targets) With(raw string) (Targets, error) {
	target, err := NormalizeTarget(raw)
	if err != nil {
		return t, err
	}
	if t.Contains(target) {
		return t, nil
	}
	if len(t.items) >= MaxNotificationTargets {
		return t, errs.NewConflictError(
			"notification targets",
			fmt.Sprintf("at most %d distinct targets are allowed", MaxNotificationTargets),
		)
	}

	items := make([]string, len(t.items), len(t.items)+1)
	copy(items, t.items)
	return Targets{items: append(items, target)}, nil
}

func (t Targets) Contains(target string) bool {
	return slices.Contains(t.items, target)
}

func (t Targets) Len() int {
	return len(t.items)
}

// Values returns a copy of the targets in insertion order.
func (t Targets) Values() []string {
	return slices.Clone(t.items)
}
