// Package store - store/seed.go
package store

import (
	"encoding/json"

	"golang.org/x/crypto/bcrypt"

	"school-trips/logger"
	"school-trips/models"
)

// SeedCycles is the built-in reference data. Clients fall back to it
// when the server is unreachable at bootstrap.
var SeedCycles = []models.Cycle{
	{ID: "c1", Name: "Infantil (3, 4, 5 años)"},
	{ID: "c2", Name: "Primaria - 1º Ciclo (1º y 2º)"},
	{ID: "c3", Name: "Primaria - 2º Ciclo (3º y 4º)"},
	{ID: "c4", Name: "Primaria - 3º Ciclo (5º y 6º)"},
	{ID: "c5", Name: "ESO - 1º Ciclo (1º y 2º)"},
	{ID: "c6", Name: "ESO - 2º Ciclo (3º y 4º)"},
}

// seedUsers returns the initial accounts with bcrypt-hashed passwords.
func seedUsers() []models.User {
	hash := func(pw string) string {
		h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
		if err != nil {
			logger.Error.Printf("store: failed to hash seed password: %v", err)
			return ""
		}
		return string(h)
	}
	return []models.User{
		{ID: "u1", Username: "direccion", Password: hash("123"), Name: "Ana Directora", Email: "admin@hispanidad.com", Role: models.RoleDireccion},
		{ID: "u2", Username: "tutor1", Password: hash("123"), Name: "Carlos Tutor", Email: "tutor@hispanidad.com", Role: models.RoleTutor, ClassID: "cl1"},
		{ID: "u3", Username: "tesoreria", Password: hash("123"), Name: "Laura Tesorera", Email: "money@hispanidad.com", Role: models.RoleTesoreria},
		{ID: "u4", Username: "tutor2", Password: hash("123"), Name: "Maria Tutor 2", Email: "tutor2@hispanidad.com", Role: models.RoleTutor, ClassID: "cl2"},
	}
}

// seedDocument builds the database written on first start.
func seedDocument() document {
	classes := []models.ClassGroup{
		{ID: "cl1", Name: "1º A Primaria", CycleID: "c2", TutorID: "u2"},
		{ID: "cl2", Name: "3º B ESO", CycleID: "c6", TutorID: "u4"},
	}
	students := []models.Student{
		{ID: "s1", Name: "Pepito Pérez", ClassID: "cl1"},
		{ID: "s2", Name: "Juanita López", ClassID: "cl1"},
	}

	doc := document{
		Users:          rawSlice(seedUsers()),
		Cycles:         rawSlice(SeedCycles),
		Classes:        rawSlice(classes),
		Students:       rawSlice(students),
		Excursions:     []json.RawMessage{},
		Participations: []json.RawMessage{},
	}
	return doc
}

// rawSlice marshals each typed record into the raw form the document
// keeps.
func rawSlice[T any](items []T) []json.RawMessage {
	out := make([]json.RawMessage, 0, len(items))
	for _, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			logger.Error.Printf("store: failed to marshal seed record: %v", err)
			continue
		}
		out = append(out, data)
	}
	return out
}
