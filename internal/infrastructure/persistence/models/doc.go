// Package models contains GORM persistence models that map to database tables.
// Domain types carry no ORM tags; each model converts to and from its domain
// type with ToDomain and a FromDomain constructor.
//
// Files follow the bounded contexts: catalog.go, cart.go, order.go,
// payment.go, inventory.go, identity.go.
package models
