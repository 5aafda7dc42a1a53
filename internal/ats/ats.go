// Package ats scores resume text against the keyword list of a target role.
package ats

import (
	"errors"
	"math"
	"slices"
	"strings"
	"unicode/utf8"
)

var (
	ErrNoRole      = errors.New("select a role")
	ErrUnknownRole = errors.New("unknown role")
	ErrEmptyText   = errors.New("upload a PDF or paste resume text")
)

// MinTextLength is the resume length below which a "too short" hint is given.
const MinTextLength = 200

var roleSkills = map[string][]string{
	"frontend developer": {
		"javascript", "react", "html", "css", "tailwind",
		"redux", "vite", "npm", "git", "github",
	},
	"backend developer": {
		"node", "express", "mongodb", "sql", "rest api",
		"jwt", "docker", "aws", "git",
	},
	"full stack developer": {
		"javascript", "react", "node", "express", "mongodb",
		"html", "css", "git", "api", "tailwind",
	},
	"data analyst": {
		"python", "excel", "power bi", "sql", "pandas",
		"numpy", "statistics",
	},
}

// Report is the outcome of scoring one resume.
type Report struct {
	Role        string   `json:"role"`
	Score       int      `json:"score"`
	Matched     []string `json:"matched"`
	Missing     []string `json:"missing"`
	Suggestions []string `json:"suggestions"`
}

// Roles lists the known roles in alphabetical order.
func Roles() []string {
	roles := make([]string, 0, len(roleSkills))
	for r := range roleSkills {
		roles = append(roles, r)
	}
	slices.Sort(roles)
	return roles
}

// Skills returns the keyword list for role, matched case-insensitively.
func Skills(role string) ([]string, bool) {
	skills, ok := roleSkills[strings.ToLower(strings.TrimSpace(role))]
	return slices.Clone(skills), ok
}

// Score matches text against the role's keywords. A keyword matches when it
// appears anywhere in the lowercased text, so "api" also matches inside
// "rest api". Score is the rounded percentage of keywords found.
func Score(role, text string) (Report, error) {
	if strings.TrimSpace(role) == "" {
		return Report{}, ErrNoRole
	}
	if strings.TrimSpace(text) == "" {
		return Report{}, ErrEmptyText
	}
	skills, ok := Skills(role)
	if !ok {
		return Report{}, ErrUnknownRole
	}

	lower := strings.ToLower(text)
	rep := Report{
		Role:        strings.ToLower(strings.TrimSpace(role)),
		Matched:     []string{},
		Missing:     []string{},
		Suggestions: []string{},
	}
	for _, s := range skills {
		if strings.Contains(lower, s) {
			rep.Matched = append(rep.Matched, s)
		} else {
			rep.Missing = append(rep.Missing, s)
		}
	}
	rep.Score = int(math.Round(float64(len(rep.Matched)) / float64(len(skills)) * 100))

	if rep.Score < 50 {
		rep.Suggestions = append(rep.Suggestions, "Add more technical keywords related to the role.")
	}
	if utf8.RuneCountInString(text) < MinTextLength {
		rep.Suggestions = append(rep.Suggestions, "Your resume looks short. Add more detailed experience.")
	}
	if !strings.Contains(lower, "project") {
		rep.Suggestions = append(rep.Suggestions, "Include at least 2-3 strong projects.")
	}
	if !strings.Contains(lower, "experience") {
		rep.Suggestions = append(rep.Suggestions, "Add an Experience section for ATS impact.")
	}
	return rep, nil
}
