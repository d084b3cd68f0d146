// Package models defines the core domain models for Foodgram.
//
// # Models
//
//   - User: a registered account that authors recipes and follows other authors
//   - Tag, Ingredient: the shared catalogue recipes are built from
//   - Recipe: a recipe with its tags, ingredient lines and short code
//   - IngredientLine: one (name, unit, amount) row of a recipe, the input to
//     shopping list aggregation
//
// # Design Principles
//
//  1. Relationships are referenced by ID, never by pointer back to the owner.
//  2. Viewer-dependent flags (IsFavorited, IsSubscribed, ...) are filled in by
//     the store for the requesting user and are false for anonymous requests.
//  3. Timestamps are Unix seconds.
package models
