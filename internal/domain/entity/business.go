package entity

import "time"

// Business representa una empresa/tenant emisora de comprobantes (Perú).
type Business struct {
	ID          string
	Name        string
	Description string
	RUC         string // 11 dígitos; requerido para emitir comprobantes
	SolKey      string // clave SOL (solo lectura aquí)
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BusinessSunatConfig credenciales de APISUNAT por empresa (personaId + personaToken).
type BusinessSunatConfig struct {
	ID                string
	BusinessID        string
	PersonaID         string
	PersonaToken      string
	ProductionEnabled bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
