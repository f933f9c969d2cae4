// Package passwordpolicy evaluates candidate passwords against the dashboard's
// strength rules. Every function is pure and safe to call on each keystroke.
package passwordpolicy

import (
	"regexp"
	"unicode/utf8"
)

// MinLength is the shortest acceptable password, counted in characters.
const MinLength = 8

// SpecialChars is the fixed set of characters that satisfy the special
// character rule.
const SpecialChars = `!@#$%^&*()_+-=[]{};':"\|,.<>/?`

var (
	upperRe   = regexp.MustCompile(`[A-Z]`)
	lowerRe   = regexp.MustCompile(`[a-z]`)
	digitRe   = regexp.MustCompile(`[0-9]`)
	specialRe = regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{};':"\\|,.<>/?]`)
)

// Validation messages, in the order Validate reports them.
const (
	MsgRequired  = "password is required"
	MsgMinLength = "must be at least 8 characters long"
	MsgUpper     = "must include at least one uppercase letter"
	MsgLower     = "must include at least one lowercase letter"
	MsgNumber    = "must include at least one number"
	MsgSpecial   = "must include at least one special character (!@#$%^&*...)"
)

type Requirements struct {
	HasMinLength   bool `json:"hasMinLength"`
	HasUpperCase   bool `json:"hasUpperCase"`
	HasLowerCase   bool `json:"hasLowerCase"`
	HasNumber      bool `json:"hasNumber"`
	HasSpecialChar bool `json:"hasSpecialChar"`
}

// All reports whether every requirement holds.
func (r Requirements) All() bool {
	return r.HasMinLength && r.HasUpperCase && r.HasLowerCase && r.HasNumber && r.HasSpecialChar
}

type Validation struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

type Level string

const (
	Weak   Level = "weak"
	Medium Level = "medium"
	Strong Level = "strong"
)

type StrengthResult struct {
	Strength Level `json:"strength"`
	Score    int   `json:"score"`
}

// CheckRequirements reports each rule independently. An empty password fails
// every rule.
func CheckRequirements(password string) Requirements {
	return Requirements{
		HasMinLength:   utf8.RuneCountInString(password) >= MinLength,
		HasUpperCase:   upperRe.MatchString(password),
		HasLowerCase:   lowerRe.MatchString(password),
		HasNumber:      digitRe.MatchString(password),
		HasSpecialChar: specialRe.MatchString(password),
	}
}

// Validate returns one message per failed rule in a fixed order. An empty
// password yields only MsgRequired.
func Validate(password string) Validation {
	if password == "" {
		return Validation{IsValid: false, Errors: []string{MsgRequired}}
	}

	req := CheckRequirements(password)
	errs := make([]string, 0, 5)
	if !req.HasMinLength {
		errs = append(errs, MsgMinLength)
	}
	if !req.HasUpperCase {
		errs = append(errs, MsgUpper)
	}
	if !req.HasLowerCase {
		errs = append(errs, MsgLower)
	}
	if !req.HasNumber {
		errs = append(errs, MsgNumber)
	}
	if !req.HasSpecialChar {
		errs = append(errs, MsgSpecial)
	}
	return Validation{IsValid: len(errs) == 0, Errors: errs}
}

// IsValid is shorthand for Validate(password).IsValid.
func IsValid(password string) bool {
	return password != "" && CheckRequirements(password).All()
}

// Strength rates a password from 0 to 7: three length tiers plus one point per
// character class present.
func Strength(password string) StrengthResult {
	if password == "" {
		return StrengthResult{Strength: Weak, Score: 0}
	}

	n := utf8.RuneCountInString(password)
	score := 0
	for _, tier := range []int{8, 12, 16} {
		if n >= tier {
			score++
		}
	}

	req := CheckRequirements(password)
	for _, ok := range []bool{req.HasLowerCase, req.HasUpperCase, req.HasNumber, req.HasSpecialChar} {
		if ok {
			score++
		}
	}

	level := Weak
	switch {
	case score >= 7:
		level = Strong
	case score >= 5:
		level = Medium
	}
	return StrengthResult{Strength: level, Score: score}
}
