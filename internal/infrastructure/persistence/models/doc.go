// Package models contains the gorm persistence models. Domain types stay free of
// ORM tags; each model converts with ToDomain and a ...FromDomain constructor.
package models
