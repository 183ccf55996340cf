package models

import "strings"

// Course describes an offered course. Prerequisites are informational only
// and never enforced at enrollment time.
type Course struct {
	CourseID      string   `json:"course_id"`
	CourseCode    string   `json:"course_code"`
	CourseName    string   `json:"course_name"`
	Department    string   `json:"department"`
	Instructor    string   `json:"instructor"`
	Credits       int      `json:"credits"`
	MaxCapacity   int      `json:"max_capacity"`
	Description   string   `json:"description,omitempty"`
	Prerequisites []string `json:"prerequisites,omitempty"`
}

// Key returns the store key for the course.
func (c *Course) Key() string { return c.CourseID }

// AddPrerequisite records a prerequisite course code once.
func (c *Course) AddPrerequisite(courseCode string) {
	for _, code := range c.Prerequisites {
		if strings.EqualFold(code, courseCode) {
			return
		}
	}
	c.Prerequisites = append(c.Prerequisites, courseCode)
}

// MatchesName reports whether the course name or code contains the query,
// case-insensitively.
func (c *Course) MatchesName(name string) bool {
	return containsFold(c.CourseName, name) || containsFold(c.CourseCode, name)
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
