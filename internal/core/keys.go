package core

import "strings"

// keys.go derives the natural keys used to recognize "the same real-world
// entity" across uploads. Keys are lookup values only and are never
// persisted.

// keySeparator joins child key components. A pipe cannot appear in a
// trimmed name or a canonical date, so components never collide.
const keySeparator = "|"

// ChildKey returns the case-insensitive natural key for a child:
// lower-cased first and last name joined with the canonical birth date.
func ChildKey(firstName, lastName, dob string) string {
	return strings.ToLower(firstName) + keySeparator + strings.ToLower(lastName) + keySeparator + dob
}

// ClassroomKey returns the case-insensitive natural key for a classroom.
// "Sunshine Room" and "sunshine room" collide deliberately.
func ClassroomKey(name string) string {
	return strings.ToLower(name)
}
