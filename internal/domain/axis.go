package domain

import (
	"errors"
	"sort"
	"strings"
)

// IdentityAxis is one tracked dimension of the user's self-model.
type IdentityAxis string

const (
	AxisRiskTolerance IdentityAxis = "risk_tolerance"
	AxisSocialBattery IdentityAxis = "social_battery"
	AxisResourceFocus IdentityAxis = "resource_focus"
)

var ErrUnknownAxis = errors.New("unknown identity axis")

// AllAxes returns the fixed axis set in declaration order. Batches touching
// several axes are always processed in this order.
func AllAxes() []IdentityAxis {
	return []IdentityAxis{AxisRiskTolerance, AxisSocialBattery, AxisResourceFocus}
}

func ValidAxis(s string) bool {
	switch IdentityAxis(s) {
	case AxisRiskTolerance, AxisSocialBattery, AxisResourceFocus:
		return true
	}
	return false
}

func ParseAxis(s string) (IdentityAxis, error) {
	if !ValidAxis(s) {
		return "", ErrUnknownAxis
	}
	return IdentityAxis(s), nil
}

// Label is the hypothesis label for the axis, e.g. "High Risk Tolerance".
// It is the unique lookup key of the hypothesis table.
func (a IdentityAxis) Label() string {
	words := strings.Split(string(a), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return "High " + strings.Join(words, " ")
}

// Code is the upper-case form used in activity logs (RISK_TOLERANCE).
func (a IdentityAxis) Code() string {
	return strings.ToUpper(string(a))
}

// axisOrder returns the position of a in AllAxes, or len(AllAxes) if unknown.
func axisOrder(a IdentityAxis) int {
	for i, ax := range AllAxes() {
		if ax == a {
			return i
		}
	}
	return len(AllAxes())
}

// SortAxes orders axes by their declaration order in place.
func SortAxes(axes []IdentityAxis) {
	sort.SliceStable(axes, func(i, j int) bool {
		return axisOrder(axes[i]) < axisOrder(axes[j])
	})
}
