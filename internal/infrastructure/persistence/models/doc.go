// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer free of
// ORM concerns; each model carries ToDomain/FromDomain mappers.
//
// Structure:
//   - base.go: base persistence models and the schema list
//   - document.go: documents, items and number sequences
//   - ledger.go: stock and agent stock balances and moves
//   - money.go: cash approval requests and money documents
//   - masterdata.go: products, warehouses, counterparties, cash registers, payment categories
package models
